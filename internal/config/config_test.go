package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("DATABASE_DSN", "postgres://localhost:5432/lingocards")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Auth.SessionTTL != 720*time.Hour {
		t.Errorf("session ttl = %v, want 720h", cfg.Auth.SessionTTL)
	}
	if cfg.SRS.RequestRetention != 0.9 {
		t.Errorf("retention = %v, want 0.9", cfg.SRS.RequestRetention)
	}
	if len(cfg.SRS.LearningSteps) != 2 || cfg.SRS.LearningSteps[0] != time.Minute {
		t.Errorf("learning steps = %v, want [1m 10m]", cfg.SRS.LearningSteps)
	}
	if len(cfg.SRS.RelearningSteps) != 1 || cfg.SRS.RelearningSteps[0] != 10*time.Minute {
		t.Errorf("relearning steps = %v, want [10m]", cfg.SRS.RelearningSteps)
	}
	if cfg.Study.DefaultNewCardsPerDay != 20 {
		t.Errorf("new cards per day = %d, want 20", cfg.Study.DefaultNewCardsPerDay)
	}
}

func TestLoad_MissingDSN(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	os.Unsetenv("DATABASE_DSN")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error without DATABASE_DSN")
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 9090
database:
  dsn: postgres://db:5432/app
srs:
  request_retention: 0.85
  learning_steps: "30s,5m,30m"
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.SRS.RequestRetention != 0.85 {
		t.Errorf("retention = %v, want 0.85", cfg.SRS.RequestRetention)
	}
	if len(cfg.SRS.LearningSteps) != 3 || cfg.SRS.LearningSteps[0] != 30*time.Second {
		t.Errorf("learning steps = %v, want [30s 5m 30m]", cfg.SRS.LearningSteps)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestValidate_Ranges(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:       ServerConfig{Port: 8080},
			Database:     DatabaseConfig{DSN: "postgres://x"},
			Auth:         AuthConfig{SessionTTL: time.Hour},
			SRS:          SRSConfig{RequestRetention: 0.9, MaxIntervalDays: 100, LearningStepsRaw: "1m", RelearningStepsRaw: "10m"},
			Study:        StudyConfig{DefaultNewCardsPerDay: 20},
			Relationship: RelationshipConfig{InvitationTTL: time.Hour},
			Log:          LogConfig{Level: "info", Format: "json"},
		}
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"retention too low", func(c *Config) { c.SRS.RequestRetention = 0.5 }},
		{"retention too high", func(c *Config) { c.SRS.RequestRetention = 0.99 }},
		{"zero max interval", func(c *Config) { c.SRS.MaxIntervalDays = 0 }},
		{"bad step", func(c *Config) { c.SRS.LearningStepsRaw = "1m,banana" }},
		{"empty steps", func(c *Config) { c.SRS.LearningStepsRaw = " , " }},
		{"negative new cards", func(c *Config) { c.Study.DefaultNewCardsPerDay = -1 }},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"zero invitation ttl", func(c *Config) { c.Relationship.InvitationTTL = 0 }},
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
	}
	for _, tc := range cases {
		cfg := base()
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected a validation error", tc.name)
		}
	}

	if err := base().Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestParseSteps(t *testing.T) {
	steps, err := ParseSteps("1m, 10m ,1h")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []time.Duration{time.Minute, 10 * time.Minute, time.Hour}
	if len(steps) != len(want) {
		t.Fatalf("steps = %v, want %v", steps, want)
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Errorf("step[%d] = %v, want %v", i, steps[i], want[i])
		}
	}

	if _, err := ParseSteps("-5m"); err == nil {
		t.Error("negative step must be rejected")
	}
}
