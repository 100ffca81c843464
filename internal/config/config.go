package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"

	"tracker/internal/core"
	applog "tracker/internal/log"
)

type Config struct {
	// HTTP Server
	Port           string `env:"PORT" envDefault:"8081"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" envDefault:"5242880"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Ledger
	DefaultBudget string `env:"DEFAULT_BUDGET" envDefault:"1000.00"`
	SavePath      string `env:"SAVE_PATH" envDefault:"expenses.csv"`

	// Sessions
	SessionTTL  time.Duration `env:"SESSION_TTL" envDefault:"12h"`
	MaxSessions int           `env:"MAX_SESSIONS" envDefault:"64"`

	// Connectivity probe
	ProbeURL     string        `env:"PROBE_URL" envDefault:"https://www.google.com"`
	ProbeTimeout time.Duration `env:"PROBE_TIMEOUT" envDefault:"3s"`

	// AMQP (optional ledger event notifications)
	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"tracker"`
	AMQPQueue    string `env:"AMQP_QUEUE" envDefault:"ledger_events"`
}

// Load parses the process environment into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Budget returns DefaultBudget as Money. Call Validate first.
func (c *Config) Budget() core.Money {
	m, err := core.ParseMoney(c.DefaultBudget)
	if err != nil {
		return core.Money{Cents: core.DefaultBudgetCents}
	}
	return m
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if m, err := core.ParseMoney(c.DefaultBudget); err != nil {
		errors = append(errors, fmt.Sprintf("invalid default budget '%s': must be a decimal amount", c.DefaultBudget))
	} else if m.Cents < 0 {
		errors = append(errors, fmt.Sprintf("invalid default budget %s: must not be negative", m))
	}

	if strings.TrimSpace(c.SavePath) == "" {
		errors = append(errors, "save path cannot be empty")
	} else if filepath.Base(c.SavePath) == "." || strings.HasSuffix(c.SavePath, string(filepath.Separator)) {
		errors = append(errors, fmt.Sprintf("invalid save path '%s': must name a file", c.SavePath))
	}

	if c.MaxUploadBytes < 1024 {
		errors = append(errors, fmt.Sprintf("invalid max upload size %d: must be at least 1024 bytes", c.MaxUploadBytes))
	}

	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}
	if c.MaxSessions < 1 {
		errors = append(errors, fmt.Sprintf("invalid max sessions %d: must be at least 1", c.MaxSessions))
	}

	if parsedURL, err := url.Parse(c.ProbeURL); err != nil || parsedURL.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid probe URL '%s': must be an absolute URL", c.ProbeURL))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid probe URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
	}
	if c.ProbeTimeout <= 0 || c.ProbeTimeout > 30*time.Second {
		errors = append(errors, fmt.Sprintf("invalid probe timeout %v: must be between 0 and 30s", c.ProbeTimeout))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}
