package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadAppliesDefaultsWhenUnset(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPAddr != defaultHTTPAddr {
		t.Fatalf("expected default HTTP addr, got %q", cfg.HTTPAddr)
	}
	if cfg.MaxParameterLength != defaultMaxParameterLength {
		t.Fatalf("expected default max parameter length, got %d", cfg.MaxParameterLength)
	}
	if cfg.SchedulerInterval != defaultSchedulerInterval {
		t.Fatalf("expected default scheduler interval, got %v", cfg.SchedulerInterval)
	}
	if !cfg.SchedulerEnabled {
		t.Fatal("expected the scheduler to be enabled by default")
	}
}

func TestLoadSchedulerEnabledOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("SCHEDULER_ENABLED", "false")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SchedulerEnabled {
		t.Fatal("expected SCHEDULER_ENABLED=false to disable the scheduler")
	}
}

func TestLoadReadsEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("API_TOKENS", "a, b ,a")
	t.Setenv("SCHEDULER_INTERVAL", "5s")
	t.Setenv("DATABASE_URL", "postgres://localhost/db")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("expected overridden HTTP addr, got %q", cfg.HTTPAddr)
	}
	if len(cfg.APITokens) != 2 || cfg.APITokens[0] != "a" || cfg.APITokens[1] != "b" {
		t.Fatalf("expected deduped token list [a b], got %v", cfg.APITokens)
	}
	if cfg.SchedulerInterval != 5*time.Second {
		t.Fatalf("expected 5s scheduler interval, got %v", cfg.SchedulerInterval)
	}
	if cfg.DatabaseDSN != "postgres://localhost/db" {
		t.Fatalf("expected database DSN passthrough, got %q", cfg.DatabaseDSN)
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"HTTP_ADDR", "API_TOKENS", "SCHEDULER_MAX_PARAMETER_LENGTH", "SCHEDULER_ENABLED", "SCHEDULER_INTERVAL",
		"SCHEDULER_ERROR_BACKOFF", "DATABASE_URL", "LOG_LEVEL", "LOG_FORMAT", "LOG_OUTPUT", "LOG_FILE_PREFIX",
	} {
		os.Unsetenv(key)
	}
}
