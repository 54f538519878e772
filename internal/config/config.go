package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Auth         AuthConfig         `yaml:"auth"`
	SRS          SRSConfig          `yaml:"srs"`
	Study        StudyConfig        `yaml:"study"`
	Relationship RelationshipConfig `yaml:"relationship"`
	Janitor      JanitorConfig      `yaml:"janitor"`
	Log          LogConfig          `yaml:"log"`
	CORS         CORSConfig         `yaml:"cors"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// AuthConfig holds session settings. Sessions are opaque server-side
// tokens; there is nothing to sign.
type AuthConfig struct {
	SessionTTL time.Duration `yaml:"session_ttl" env:"AUTH_SESSION_TTL" env-default:"720h"`
}

// SRSConfig holds the server-wide scheduling defaults. Decks can
// override retention and the weight vector individually.
type SRSConfig struct {
	RequestRetention   float64 `yaml:"request_retention"   env:"SRS_REQUEST_RETENTION"   env-default:"0.9"`
	MaxIntervalDays    int     `yaml:"max_interval_days"   env:"SRS_MAX_INTERVAL"        env-default:"36500"`
	LearningStepsRaw   string  `yaml:"learning_steps"      env:"SRS_LEARNING_STEPS"      env-default:"1m,10m"`
	RelearningStepsRaw string  `yaml:"relearning_steps"    env:"SRS_RELEARNING_STEPS"    env-default:"10m"`

	// LearningSteps is parsed from LearningStepsRaw during validation.
	LearningSteps []time.Duration `yaml:"-" env:"-"`
	// RelearningSteps is parsed from RelearningStepsRaw during validation.
	RelearningSteps []time.Duration `yaml:"-" env:"-"`
}

// StudyConfig holds session selection settings.
type StudyConfig struct {
	DefaultNewCardsPerDay int `yaml:"default_new_cards_per_day" env:"STUDY_NEW_CARDS_DAY" env-default:"20"`
}

// RelationshipConfig holds tutor-student graph settings.
type RelationshipConfig struct {
	InvitationTTL time.Duration `yaml:"invitation_ttl" env:"RELATIONSHIP_INVITATION_TTL" env-default:"720h"`
}

// JanitorConfig holds background cleanup settings. The schedule is a
// standard cron expression.
type JanitorConfig struct {
	Enabled  bool   `yaml:"enabled"  env:"JANITOR_ENABLED"  env-default:"true"`
	Schedule string `yaml:"schedule" env:"JANITOR_SCHEDULE" env-default:"17 3 * * *"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,PATCH,DELETE,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Authorization,Content-Type"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"true"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}
