package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks cross-field constraints and parses the raw step
// lists. It must be called before the config is handed to the app.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("auth.session_ttl must be positive")
	}
	if err := c.SRS.validate(); err != nil {
		return err
	}
	if c.Study.DefaultNewCardsPerDay < 0 {
		return fmt.Errorf("study.default_new_cards_per_day must be non-negative")
	}
	if c.Relationship.InvitationTTL <= 0 {
		return fmt.Errorf("relationship.invitation_ttl must be positive")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format %q is not one of json, text", c.Log.Format)
	}
	return nil
}

func (s *SRSConfig) validate() error {
	if s.RequestRetention < 0.70 || s.RequestRetention > 0.97 {
		return fmt.Errorf("srs.request_retention %.2f out of range [0.70, 0.97]", s.RequestRetention)
	}
	if s.MaxIntervalDays < 1 {
		return fmt.Errorf("srs.max_interval_days must be at least 1")
	}

	steps, err := ParseSteps(s.LearningStepsRaw)
	if err != nil {
		return fmt.Errorf("srs.learning_steps: %w", err)
	}
	if len(steps) == 0 {
		return fmt.Errorf("srs.learning_steps must list at least one step")
	}
	s.LearningSteps = steps

	steps, err = ParseSteps(s.RelearningStepsRaw)
	if err != nil {
		return fmt.Errorf("srs.relearning_steps: %w", err)
	}
	if len(steps) == 0 {
		return fmt.Errorf("srs.relearning_steps must list at least one step")
	}
	s.RelearningSteps = steps

	return nil
}

// ParseSteps parses a comma-separated list of durations, e.g. "1m,10m".
func ParseSteps(raw string) ([]time.Duration, error) {
	var steps []time.Duration
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := time.ParseDuration(part)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", part, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("step %q must be positive", part)
		}
		steps = append(steps, d)
	}
	return steps, nil
}
