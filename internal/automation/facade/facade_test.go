package facade

import (
	"context"
	"testing"
	"time"

	"github.com/odense-rpa/automation-control-plane/internal/automation/config"
)

func TestNewDefaultsToMemoryStoreAndStartsStops(t *testing.T) {
	cfg := config.Config{
		HTTPAddr:              "127.0.0.1:0",
		MaxParameterLength:    1000,
		SchedulerEnabled:      true,
		SchedulerInterval:     10 * time.Millisecond,
		SchedulerErrorBackoff: 10 * time.Millisecond,
	}
	cfg.Logging.Level = "error"
	cfg.Logging.Output = "stdout"

	app, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if app.db != nil {
		t.Fatalf("expected no database connection when DatabaseDSN is unset")
	}

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestNewRequiresDatabaseWhenDSNSet(t *testing.T) {
	cfg := config.Config{
		DatabaseDSN: "postgres://127.0.0.1:1/doesnotexist?sslmode=disable&connect_timeout=1",
		HTTPAddr:    "127.0.0.1:0",
	}
	_, err := New(context.Background(), cfg)
	if err == nil {
		t.Fatalf("expected an error connecting to a nonexistent database")
	}
}
