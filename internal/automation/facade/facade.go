// Package facade is the composition root: it wires the repository layer
// (in-memory or PostgreSQL, chosen by whether a DSN is configured), the
// scheduler, and the HTTP façade into a single startable/stoppable
// application.
package facade

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/odense-rpa/automation-control-plane/internal/automation/config"
	"github.com/odense-rpa/automation-control-plane/internal/automation/httpapi"
	"github.com/odense-rpa/automation-control-plane/internal/automation/repo/memory"
	"github.com/odense-rpa/automation-control-plane/internal/automation/repo/postgres"
	"github.com/odense-rpa/automation-control-plane/internal/automation/scheduler"
	"github.com/odense-rpa/automation-control-plane/internal/automation/system"
	"github.com/odense-rpa/automation-control-plane/internal/automation/uow"
	"github.com/odense-rpa/automation-control-plane/internal/platform/database"
	"github.com/odense-rpa/automation-control-plane/internal/platform/migrations"
	"github.com/odense-rpa/automation-control-plane/pkg/logger"
)

// Application ties the scheduler and the HTTP façade together under a
// single Start/Stop lifecycle.
type Application struct {
	log      *logger.Logger
	db       *sqlx.DB
	services []system.Service
	started  []system.Service
}

// New builds an Application from cfg. When cfg.DatabaseDSN is set, it opens
// a PostgreSQL connection, applies embedded migrations, and backs every
// repository with it; otherwise it falls back to the in-memory store.
func New(ctx context.Context, cfg config.Config) (*Application, error) {
	log := logger.New(cfg.Logging)

	app := &Application{log: log}

	uowFactory, err := app.buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	handler := httpapi.NewHandler(uowFactory, cfg.APITokens, log)
	httpSvc := newHTTPService(cfg.HTTPAddr, handler, log)

	if cfg.SchedulerEnabled {
		sched := scheduler.New(uowFactory, scheduler.Config{
			Interval:           cfg.SchedulerInterval,
			ErrorBackoff:       cfg.SchedulerErrorBackoff,
			MaxParameterLength: cfg.MaxParameterLength,
		}, log)
		app.services = append(app.services, sched)
	} else {
		log.Warn("scheduler disabled by configuration")
	}
	app.services = append(app.services, httpSvc)
	return app, nil
}

func (a *Application) buildStore(ctx context.Context, cfg config.Config) (uow.Factory, error) {
	if cfg.DatabaseDSN == "" {
		return memory.New(), nil
	}

	db, err := database.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.db = sqlx.NewDb(db, "postgres")

	if err := migrations.Apply(ctx, db); err != nil {
		a.db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return postgres.NewFactory(a.db), nil
}

// Start starts every wired service in order, stopping any that already
// started if a later one fails.
func (a *Application) Start(ctx context.Context) error {
	for _, svc := range a.services {
		if err := svc.Start(ctx); err != nil {
			_ = a.stopStarted(ctx)
			return fmt.Errorf("start %s: %w", svc.Name(), err)
		}
		a.started = append(a.started, svc)
	}
	return nil
}

// Stop stops every started service in reverse start order and closes the
// database connection, if one was opened.
func (a *Application) Stop(ctx context.Context) error {
	err := a.stopStarted(ctx)
	if a.db != nil {
		if cerr := a.db.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func (a *Application) stopStarted(ctx context.Context) error {
	var firstErr error
	for i := len(a.started) - 1; i >= 0; i-- {
		svc := a.started[i]
		if err := svc.Stop(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("stop %s: %w", svc.Name(), err)
		}
	}
	a.started = nil
	return firstErr
}

// httpService adapts an http.Handler to system.Service so the HTTP façade
// shares the scheduler's lifecycle handling.
type httpService struct {
	addr   string
	server *http.Server
	log    *logger.Logger
}

func newHTTPService(addr string, handler http.Handler, log *logger.Logger) *httpService {
	return &httpService{
		addr:   addr,
		server: &http.Server{Addr: addr, Handler: handler},
		log:    log,
	}
}

func (h *httpService) Name() string { return "httpapi" }

func (h *httpService) Start(ctx context.Context) error {
	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.log.WithError(err).Error("http server stopped unexpectedly")
		}
	}()
	return nil
}

func (h *httpService) Stop(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}
