// Package config provides the application configuration, loaded from the
// environment and passed explicitly to the components that need it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/reposcope/reposcope/internal/domain"
)

const defaultAPIBaseURL = "https://api.github.com"

// DefaultRepos is the repository set analyzed when the command line names none.
var DefaultRepos = []string{
	"numpy/numpy",
	"pandas-dev/pandas",
	"django/django",
}

// Config holds everything the collector and gateway need. It is constructed
// once in main and handed down; nothing reads the environment after Load.
type Config struct {
	// Token is the GitHub personal access token used for API calls.
	Token string
	// APIBaseURL is the REST API root, overridable for GitHub Enterprise.
	APIBaseURL string
	// ProfileBaseURL is the host serving public profile pages.
	ProfileBaseURL string
	// HTTPTimeout bounds every outbound request.
	HTTPTimeout time.Duration
	// Logger holds the logging settings.
	Logger LoggerConfig
}

// LoggerConfig holds logger configuration.
type LoggerConfig struct {
	// Level is the logging level (debug, info, warn, error).
	Level string
	// Format is the logging format (json, console).
	Format string
}

// Load builds a Config from environment variables. It fails fast when the
// token is missing so that no network call is ever attempted without
// credentials.
func Load() (Config, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return Config{}, fmt.Errorf("GITHUB_TOKEN is not set; create a personal access token at https://github.com/settings/tokens and export it")
	}

	cfg := Config{
		Token:          token,
		APIBaseURL:     strings.TrimRight(GetEnv("GITHUB_API_URL", defaultAPIBaseURL), "/"),
		ProfileBaseURL: strings.TrimRight(GetEnv("GITHUB_PROFILE_URL", "https://github.com"), "/"),
		HTTPTimeout:    GetEnvDuration("HTTP_TIMEOUT", 30*time.Second),
		Logger: LoggerConfig{
			Level:  GetEnv("LOG_LEVEL", "info"),
			Format: GetEnv("LOG_FORMAT", "console"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values that would only fail later.
func (c Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("token must not be empty")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP timeout must be greater than 0")
	}
	if err := c.Logger.Validate(); err != nil {
		return err
	}
	return nil
}

// Validate validates logger configuration.
func (c LoggerConfig) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Level] {
		return fmt.Errorf("invalid log level: %s (must be: debug, info, warn, error)", c.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[c.Format] {
		return fmt.Errorf("invalid log format: %s (must be: json, console)", c.Format)
	}
	return nil
}

// ValidateRepos checks that every identifier is of the owner/name form.
func ValidateRepos(repos []string) error {
	if len(repos) == 0 {
		return fmt.Errorf("no repositories to analyze")
	}
	for _, repo := range repos {
		if _, _, err := domain.SplitRepoName(repo); err != nil {
			return err
		}
	}
	return nil
}

// GetEnv reads an environment variable with a default fallback.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt reads an integer environment variable with a default fallback.
func GetEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// GetEnvDuration reads a duration environment variable with a default fallback.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
