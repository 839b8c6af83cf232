// Package config loads the automation control plane's runtime
// configuration from environment variables, optionally preloaded from a
// .env file.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/odense-rpa/automation-control-plane/pkg/logger"
)

// Config is the full set of knobs the composition root needs to build the
// repository layer, the scheduler, and the HTTP façade.
type Config struct {
	DatabaseDSN string `mapstructure:"database_dsn"`

	HTTPAddr           string `mapstructure:"http_addr"`
	APITokens          []string
	MaxParameterLength int `mapstructure:"max_parameter_length"`

	SchedulerEnabled      bool
	SchedulerInterval     time.Duration
	SchedulerErrorBackoff time.Duration

	// Opaque to the core: carried for the auth façade only.
	EncryptionKey string
	PasswordSalt  string
	JWTSecret     string

	Logging logger.LoggingConfig
}

const (
	defaultHTTPAddr           = ":8080"
	defaultMaxParameterLength = 1000
	defaultSchedulerInterval  = 10 * time.Second
	defaultErrorBackoff       = 30 * time.Second
)

// Load reads an optional .env file (if present, its values become process
// environment unless already set) and then builds Config from the process
// environment, applying defaults for anything unset. A missing .env file is
// not an error: the not-exist error godotenv.Load returns for it is ignored.
func Load(envFile string) (Config, error) {
	if strings.TrimSpace(envFile) != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return Config{}, err
		}
	}

	cfg := Config{
		DatabaseDSN:           strings.TrimSpace(os.Getenv("DATABASE_URL")),
		HTTPAddr:              firstNonEmpty(os.Getenv("HTTP_ADDR"), defaultHTTPAddr),
		APITokens:             parseTokens(os.Getenv("API_TOKENS")),
		MaxParameterLength:    parseIntOrDefault(os.Getenv("SCHEDULER_MAX_PARAMETER_LENGTH"), defaultMaxParameterLength),
		SchedulerEnabled:      parseBoolOrDefault(os.Getenv("SCHEDULER_ENABLED"), true),
		SchedulerInterval:     parseDurationOrDefault(os.Getenv("SCHEDULER_INTERVAL"), defaultSchedulerInterval),
		SchedulerErrorBackoff: parseDurationOrDefault(os.Getenv("SCHEDULER_ERROR_BACKOFF"), defaultErrorBackoff),
		EncryptionKey:         os.Getenv("ENCRYPTION_KEY"),
		PasswordSalt:          os.Getenv("PASSWORD_SALT"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		Logging: logger.LoggingConfig{
			Level:      firstNonEmpty(os.Getenv("LOG_LEVEL"), "info"),
			Format:     firstNonEmpty(os.Getenv("LOG_FORMAT"), "text"),
			Output:     firstNonEmpty(os.Getenv("LOG_OUTPUT"), "stdout"),
			FilePrefix: os.Getenv("LOG_FILE_PREFIX"),
		},
	}
	return cfg, nil
}

func firstNonEmpty(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func parseBoolOrDefault(value string, fallback bool) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(trimmed)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseIntOrDefault(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseDurationOrDefault(value string, fallback time.Duration) time.Duration {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(trimmed)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func parseTokens(value string) []string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	parts := strings.FieldsFunc(trimmed, func(r rune) bool {
		return r == ',' || r == ';' || r == ' '
	})
	seen := make(map[string]struct{}, len(parts))
	var out []string
	for _, p := range parts {
		token := strings.TrimSpace(p)
		if token == "" {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}
