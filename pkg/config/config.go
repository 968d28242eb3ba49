// Package config loads process-level datagrid settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-datagrid/components/datagrid"
)

// DefaultEnvFiles are loaded, when present, before the environment is parsed.
var DefaultEnvFiles = []string{".env", ".env.local"}

// Config carries settings shared by gridctl and the example server.
type Config struct {
	BaseURL     string        `env:"DATAGRID_BASE_URL" envDefault:"http://localhost:8080/api"`
	Timeout     time.Duration `env:"DATAGRID_TIMEOUT" envDefault:"10s"`
	SessionFile string        `env:"DATAGRID_SESSION_FILE" envDefault:".datagrid/session.json"`
	Manifest    string        `env:"DATAGRID_MANIFEST"`
	LogLevel    string        `env:"DATAGRID_LOG_LEVEL" envDefault:"info"`
	NotifyAfter time.Duration `env:"DATAGRID_NOTIFY_AFTER" envDefault:"3500ms"`
	PerPage     int           `env:"DATAGRID_PER_PAGE" envDefault:"25"`
}

// LoadEnv loads the env files that exist and returns how many were read.
// Variables already set in the process win over file values.
func LoadEnv(files []string) (int, error) {
	existing := make([]string, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("config: stat %s: %w", file, err)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return 0, fmt.Errorf("config: load env files: %w", err)
	}
	return len(existing), nil
}

// Load reads env files then parses the environment.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = DefaultEnvFiles
	}
	if _, err := LoadEnv(files); err != nil {
		return nil, err
	}
	return Parse()
}

// Parse reads the current environment without touching env files.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the grid cannot recover from.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("config: DATAGRID_BASE_URL is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("config: DATAGRID_TIMEOUT must be positive, got %s", c.Timeout)
	}
	valid := false
	for _, n := range datagrid.AllowedPerPage {
		if c.PerPage == n {
			valid = true
		}
	}
	if !valid {
		return fmt.Errorf("config: DATAGRID_PER_PAGE must be one of %v, got %d", datagrid.AllowedPerPage, c.PerPage)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: DATAGRID_LOG_LEVEL: %w", err)
	}
	return nil
}

// Logger builds a logrus logger at the configured level.
func (c *Config) Logger() *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logger
}
