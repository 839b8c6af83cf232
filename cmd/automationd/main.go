// Command automationd runs the automation control plane: the scheduler loop
// plus its HTTP façade, wired to either an in-memory store or PostgreSQL
// depending on configuration.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/odense-rpa/automation-control-plane/internal/automation/config"
	"github.com/odense-rpa/automation-control-plane/internal/automation/facade"
)

func main() {
	envFile := flag.String("env", ".env", "path to an optional .env file to preload into the process environment")
	addr := flag.String("addr", "", "HTTP listen address (overrides config/env)")
	dsn := flag.String("dsn", "", "PostgreSQL DSN (overrides config/env; in-memory storage when empty)")
	apiTokensFlag := flag.String("api-tokens", "", "comma-separated API tokens for HTTP authentication")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if trimmed := strings.TrimSpace(*addr); trimmed != "" {
		cfg.HTTPAddr = trimmed
	}
	if trimmed := strings.TrimSpace(*dsn); trimmed != "" {
		cfg.DatabaseDSN = trimmed
	}
	if tokens := splitTokens(*apiTokensFlag); len(tokens) > 0 {
		cfg.APITokens = tokens
	}

	rootCtx := context.Background()

	app, err := facade.New(rootCtx, cfg)
	if err != nil {
		log.Fatalf("initialise application: %v", err)
	}

	if err := app.Start(rootCtx); err != nil {
		log.Fatalf("start application: %v", err)
	}
	log.Printf("automationd listening on %s", cfg.HTTPAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.Stop(shutdownCtx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
}

func splitTokens(value string) []string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	parts := strings.Split(trimmed, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
