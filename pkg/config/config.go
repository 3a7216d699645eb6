// Package config reads the navmenu server configuration from the environment,
// optionally seeded from .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/mchmarny/navmenu/pkg/logger"
	"github.com/mchmarny/navmenu/pkg/navigation"
)

// DefaultEnvFiles are loaded, when present, before the environment is parsed.
var DefaultEnvFiles = []string{".env", ".env.local"}

// Config holds the server settings.
type Config struct {
	Port        int           `env:"PORT" envDefault:"8080"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string        `env:"LOG_FORMAT" envDefault:"json"`
	APIURL      string        `env:"API_URL" envDefault:"http://localhost:3000/api"`
	APIToken    string        `env:"API_TOKEN"`
	APITimeout  time.Duration `env:"API_TIMEOUT" envDefault:"10s"`
	MenuRole    string        `env:"MENU_ROLE"`
	MatchPolicy string        `env:"MATCH_POLICY" envDefault:"longest"`
	MetricsPath string        `env:"METRICS_PATH" envDefault:"/metrics"`
}

// LoadEnv loads the env files that exist and returns how many were loaded.
// Variables already set in the environment win.
func LoadEnv(files []string) (int, error) {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Load loads files and parses the environment into a validated Config.
func Load(files ...string) (*Config, error) {
	if _, err := LoadEnv(files); err != nil {
		return nil, fmt.Errorf("loading env files: %w", err)
	}
	c := &Config{}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks field values that env tags cannot express.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid PORT %d", c.Port))
	}
	if c.APIURL == "" {
		errs = append(errs, errors.New("API_URL is required"))
	}
	if c.APITimeout < 0 {
		errs = append(errs, fmt.Errorf("invalid API_TIMEOUT %s", c.APITimeout))
	}
	if f := strings.TrimSpace(c.LogFormat); f != "" && !strings.EqualFold(f, logger.ParseLogFormat(f)) {
		errs = append(errs, fmt.Errorf("invalid LOG_FORMAT %q", c.LogFormat))
	}
	if _, err := navigation.ParseMatchPolicy(c.MatchPolicy); err != nil {
		errs = append(errs, err)
	}
	if c.MetricsPath == "" || c.MetricsPath[0] != '/' {
		errs = append(errs, fmt.Errorf("invalid METRICS_PATH %q", c.MetricsPath))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// Policy returns the parsed match policy. Call it on a validated Config.
func (c *Config) Policy() navigation.MatchPolicy {
	p, _ := navigation.ParseMatchPolicy(c.MatchPolicy)
	return p
}
