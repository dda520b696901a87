// Package scheduler runs routines: stored prompts submitted to the
// orchestrator on a schedule with nobody around to clarify.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nlamprou/marvin/internal/config"
	"github.com/nlamprou/marvin/internal/natsbus"
	"github.com/nlamprou/marvin/internal/orchestrator"
	"github.com/nlamprou/marvin/internal/schedule"
	"github.com/nlamprou/marvin/internal/store"
)

type Scheduler struct {
	store        *store.Store
	orch         *orchestrator.Orchestrator
	bus          *natsbus.Bus
	natsClient   *natsbus.Client
	pollInterval time.Duration
	reloadCh     chan struct{}
}

func New(s *store.Store, orch *orchestrator.Orchestrator, bus *natsbus.Bus, cfg config.SchedulerConfig) *Scheduler {
	sched := &Scheduler{
		store:        s,
		orch:         orch,
		bus:          bus,
		pollInterval: cfg.PollInterval,
		reloadCh:     make(chan struct{}, 1),
	}

	if bus != nil {
		client, err := natsbus.NewClient(bus)
		if err != nil {
			slog.Error("scheduler nats client failed", "error", err)
		} else {
			sched.natsClient = client
		}
	}

	return sched
}

// UpdatePollInterval changes the poll cadence and resets the run loop's
// ticker.
func (s *Scheduler) UpdatePollInterval(pollInterval time.Duration) {
	s.pollInterval = pollInterval
	select {
	case s.reloadCh <- struct{}{}:
	default:
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	if s.pollInterval == 0 {
		s.pollInterval = 30 * time.Second
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	slog.Info("scheduler started", "poll_interval", s.pollInterval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return
		case <-s.reloadCh:
			ticker.Reset(s.pollInterval)
			slog.Info("scheduler poll interval reloaded", "poll_interval", s.pollInterval)
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

func (s *Scheduler) poll(ctx context.Context) {
	routines, err := s.store.GetDueRoutines(time.Now())
	if err != nil {
		slog.Error("failed to get due routines", "error", err)
		return
	}

	for _, rt := range routines {
		s.execute(ctx, rt)
	}
}

func (s *Scheduler) execute(ctx context.Context, rt store.Routine) {
	slog.Info("executing routine", "id", rt.ID, "name", rt.Name)

	// Each run gets a fresh session so leftover clarification state can
	// never swallow the prompt.
	sessionID := "routine-" + rt.ID
	out, err := s.orch.HandleInput(ctx, sessionID, rt.Prompt)

	var lastStatus, lastError string
	switch {
	case err != nil:
		lastStatus = "error"
		lastError = err.Error()
		slog.Error("routine execution failed", "id", rt.ID, "error", err)
	case out.Clarification != "":
		// Nobody is listening; a routine has to carry everything it needs.
		lastStatus = "error"
		lastError = "needs clarification"
		if _, err := s.orch.HandleInput(ctx, sessionID, "cancel"); err != nil {
			slog.Warn("failed to cancel clarifying routine session", "id", rt.ID, "error", err)
		}
		slog.Warn("routine needs clarification, marked failed", "id", rt.ID, "name", rt.Name)
	case out.Aborted:
		lastStatus = "error"
		lastError = fmt.Sprintf("aborted: %s", out.Reason)
	default:
		lastStatus = "success"
	}

	nextRun := schedule.NextRun(rt.Schedule)

	if err := s.store.UpdateRoutineRun(rt.ID, lastStatus, lastError, nextRun); err != nil {
		slog.Error("failed to update routine run", "id", rt.ID, "error", err)
	}

	if s.natsClient != nil {
		err := s.natsClient.PublishRoutineEvent(rt.ID, natsbus.Event{
			Kind:   natsbus.EventRoutineExecuted,
			Detail: lastStatus,
			Fields: map[string]string{"name": rt.Name},
		})
		if err != nil {
			slog.Debug("publish routine event", "id", rt.ID, "error", err)
		}
	}

	// A spent schedule has no next run; retire the routine.
	if nextRun == nil {
		slog.Info("no next run, marking routine completed", "id", rt.ID, "name", rt.Name)
		if err := s.store.UpdateRoutineStatus(rt.ID, "completed"); err != nil {
			slog.Error("failed to complete routine", "id", rt.ID, "error", err)
		}
	}
}
