// Package scheduler implements the scheduler loop (C8): the single
// background driver that, once per tick, reschedules orphaned sessions,
// flushes dangling ones, dispatches pending sessions to resources, evaluates
// every enabled trigger, and dispatches once more to pick up any sessions
// trigger evaluation just created.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/odense-rpa/automation-control-plane/internal/automation/dispatch"
	"github.com/odense-rpa/automation-control-plane/internal/automation/metrics"
	"github.com/odense-rpa/automation-control-plane/internal/automation/registry"
	"github.com/odense-rpa/automation-control-plane/internal/automation/repo"
	"github.com/odense-rpa/automation-control-plane/internal/automation/sessions"
	"github.com/odense-rpa/automation-control-plane/internal/automation/triggers"
	"github.com/odense-rpa/automation-control-plane/internal/automation/uow"
	"github.com/odense-rpa/automation-control-plane/pkg/logger"
)

// DefaultInterval is how often the scheduler ticks when Config.Interval is
// left at its zero value.
const DefaultInterval = 10 * time.Second

// DefaultErrorBackoff is how long the scheduler sleeps after a tick returns
// an error, before resuming its regular interval.
const DefaultErrorBackoff = 30 * time.Second

// Config configures the scheduler loop. MaxParameterLength is forwarded to
// the trigger registry's parameter-length guard.
type Config struct {
	Interval           time.Duration
	ErrorBackoff       time.Duration
	MaxParameterLength int
}

// Scheduler is the single-writer tick loop. It implements system.Service so
// a composition root can start/stop it alongside the HTTP façade.
type Scheduler struct {
	uow    uow.Factory
	cfg    Config
	log    *logger.Logger
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a Scheduler bound to a unit-of-work factory.
func New(factory uow.Factory, cfg Config, log *logger.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = DefaultErrorBackoff
	}
	if log == nil {
		log = logger.NewDefault("scheduler")
	}
	return &Scheduler{uow: factory, cfg: cfg, log: log}
}

// Name implements system.Service.
func (s *Scheduler) Name() string { return "scheduler" }

// Start implements system.Service: it launches the tick loop in a goroutine
// and returns immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	go s.loop(loopCtx)
	return nil
}

// Stop implements system.Service: it cancels the loop and waits for the
// in-flight tick, if any, to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			err := s.tick(ctx)
			outcome := "ok"
			if err != nil {
				outcome = "error"
			}
			metrics.RecordSchedulerTick(time.Since(start), outcome)
			if err != nil {
				s.log.WithError(err).Error("scheduler tick failed")
				select {
				case <-ctx.Done():
					return
				case <-time.After(s.cfg.ErrorBackoff):
				}
			}
		}
	}
}

// tick runs exactly one scheduling pass inside a single unit of work:
// housekeeping, dispatch, trigger evaluation, dispatch again.
func (s *Scheduler) tick(ctx context.Context) error {
	return s.uow.Run(ctx, func(ctx context.Context, repos repo.Repositories) error {
		sessSvc := sessions.New(repos.Sessions, repos.Resources, s.log)
		reg := registry.New(repos.Resources, repos.Sessions, s.log)
		dispatcher := dispatch.New(repos.Sessions, repos.Resources, repos.Processes, reg, s.log)
		triggerRegistry := triggers.NewRegistry(triggers.Deps{
			Sessions:           sessSvc,
			Triggers:           repos.Triggers,
			Workqueues:         repos.Workqueues,
			WorkItems:          repos.WorkItems,
			SessionRepo:        repos.Sessions,
			Resources:          repos.Resources,
			Processes:          repos.Processes,
			MaxParameterLength: s.cfg.MaxParameterLength,
			Log:                s.log,
		})

		if err := sessSvc.RescheduleOrphanedSessions(ctx); err != nil {
			return err
		}
		if err := sessSvc.FlushDanglingSessions(ctx); err != nil {
			return err
		}
		if err := dispatcher.Run(ctx); err != nil {
			return err
		}

		now := time.Now().UTC()
		allTriggers, err := repos.Triggers.GetAll(ctx, false)
		if err != nil {
			return err
		}
		for _, trigger := range allTriggers {
			if !trigger.Enabled {
				continue
			}
			proc, err := repos.Processes.Get(ctx, trigger.ProcessID)
			if err != nil || proc.Deleted {
				continue
			}
			if ok := triggerRegistry.Process(ctx, trigger, now); !ok {
				s.log.WithField("trigger_id", trigger.ID).Warn("trigger evaluation failed; continuing with next trigger")
			}
		}

		return dispatcher.Run(ctx)
	})
}
