// Package orchestrator drives a conversation turn from raw input to a
// final response. It owns the per-session state machine: gather, route,
// execute, clarify when agents come back short, and aggregate.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nlamprou/marvin/internal/agent"
	"github.com/nlamprou/marvin/internal/aggregate"
	"github.com/nlamprou/marvin/internal/clarify"
	"github.com/nlamprou/marvin/internal/config"
	"github.com/nlamprou/marvin/internal/coordinator"
	"github.com/nlamprou/marvin/internal/gather"
	"github.com/nlamprou/marvin/internal/natsbus"
	"github.com/nlamprou/marvin/internal/router"
	"github.com/nlamprou/marvin/internal/session"
	"github.com/nlamprou/marvin/internal/store"
	"github.com/nlamprou/marvin/internal/taskspec"
)

// Outcome is what one call to HandleInput produces. Exactly one of
// Clarification, Final, or the abort pair is set.
type Outcome struct {
	SessionID     string                   `json:"session_id"`
	Phase         session.Phase            `json:"phase"`
	Clarification string                   `json:"clarification,omitempty"`
	Final         *aggregate.FinalResponse `json:"final,omitempty"`
	Aborted       bool                     `json:"aborted,omitempty"`
	Reason        string                   `json:"reason,omitempty"`
}

// Orchestrator serializes turns per session and fans task execution out
// through the coordinator. Store and bus are optional; a nil store keeps
// sessions in memory only, a nil bus skips event publishing.
type Orchestrator struct {
	cfg      config.AssistantConfig
	registry *taskspec.Registry
	router   *router.Router
	coord    *coordinator.Coordinator
	tracker  *session.Tracker
	store    *store.Store
	bus      *natsbus.Client
	logger   *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(cfg config.AssistantConfig, registry *taskspec.Registry, executors map[string]*agent.Executor, st *store.Store, bus *natsbus.Client) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		registry: registry,
		router:   router.New(registry),
		coord:    coordinator.New(executors, cfg.PoolSize),
		tracker:  session.NewTracker(),
		store:    st,
		bus:      bus,
		logger:   slog.Default().With("component", "orchestrator"),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Router exposes the intent router so callers can register aliases.
func (o *Orchestrator) Router() *router.Router {
	return o.router
}

// HandleInput processes one user input for the session. A new input opens
// a turn; an input while a clarification is outstanding is treated as the
// clarification reply. Turns for the same session are serialized.
func (o *Orchestrator) HandleInput(ctx context.Context, sessionID, input string) (Outcome, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	lock := o.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	st, err := o.loadSession(sessionID)
	if err != nil {
		return Outcome{}, err
	}

	o.recordTurn(sessionID, store.SenderUser, input)

	var out Outcome
	if st != nil && st.Phase == session.PhaseClarifying {
		out, err = o.resumeClarifying(ctx, st, input)
	} else {
		out, err = o.newTurn(ctx, sessionID, input)
	}
	if err != nil {
		return Outcome{}, err
	}

	o.recordTurn(sessionID, store.SenderAssistant, outcomeText(out))
	return out, nil
}

func (o *Orchestrator) newTurn(ctx context.Context, sessionID, input string) (Outcome, error) {
	st := session.New(sessionID, input)
	o.tracker.Set(st)
	o.publish(st.ID, natsbus.Event{Kind: natsbus.EventTurnStarted, Detail: input})

	parsed := gather.Parse(input)
	if parsed.Stop {
		return o.abort(st, "cancelled"), nil
	}

	st.Phase = session.PhaseRouting
	taskIDs := o.router.Route(parsed.Intents)
	if len(taskIDs) == 0 {
		return o.abort(st, "unrecognized intent"), nil
	}

	st.SetIntent(taskIDs)
	st.MergeEntities(parsed.Entities)
	o.logger.Info("turn opened", "session", st.ID, "tasks", taskIDs)

	return o.runCycles(ctx, st)
}

func (o *Orchestrator) resumeClarifying(ctx context.Context, st *session.State, reply string) (Outcome, error) {
	if gather.Parse(reply).Stop {
		return o.abort(st, "cancelled"), nil
	}

	req := clarify.Request(st.MissingFields())
	resolved := clarify.ApplyReply(reply, req)
	if len(resolved) == 0 {
		// Nothing extractable, ask again rather than guess.
		prompt := clarify.Consolidate(st.Intent, req)
		o.publish(st.ID, natsbus.Event{Kind: natsbus.EventClarificationIssued, Detail: prompt})
		return Outcome{SessionID: st.ID, Phase: st.Phase, Clarification: prompt}, nil
	}

	st.MergeEntities(resolved)
	st.Touch()
	o.logger.Info("clarification applied", "session", st.ID, "fields", len(resolved))

	return o.runCycles(ctx, st)
}

// runCycles executes pending tasks until everything settles, the cycle
// budget runs out, or a clarification has to go back to the user.
func (o *Orchestrator) runCycles(ctx context.Context, st *session.State) (Outcome, error) {
	st.Phase = session.PhaseExecuting

	for st.CycleCount < o.cfg.MaxCycles {
		pending := st.Pending()
		if len(pending) == 0 {
			break
		}

		st.CycleCount++
		o.publish(st.ID, natsbus.Event{Kind: natsbus.EventCycleStarted, Detail: fmt.Sprintf("cycle %d", st.CycleCount)})
		o.logger.Debug("cycle started", "session", st.ID, "cycle", st.CycleCount, "tasks", pending)

		results := o.coord.Run(ctx, pending, st.Snapshot())
		for _, id := range pending {
			res := results[id]
			st.Record(res)
			switch res.Status {
			case agent.StatusCompleted:
				o.publish(st.ID, natsbus.Event{Kind: natsbus.EventTaskCompleted, TaskID: id})
			case agent.StatusFailed:
				o.publish(st.ID, natsbus.Event{Kind: natsbus.EventTaskFailed, TaskID: id, Detail: res.ErrMsg})
				o.logger.Warn("task failed", "session", st.ID, "task", id, "kind", res.ErrKind, "err", res.ErrMsg)
			}
		}
		gained := o.mergePayloads(st, results)

		done, open, broken := coordinator.Partition(pending, results)
		o.logger.Debug("cycle finished", "session", st.ID, "cycle", st.CycleCount,
			"completed", done, "needs_info", open, "failed", broken)

		missing := st.MissingFields()
		if len(missing) == 0 {
			break
		}
		if st.CycleCount >= o.cfg.MaxCycles {
			break
		}
		if gapsFilled(missing, gained) {
			// A sibling task resolved the gap this cycle, rerun without
			// bothering the user.
			continue
		}

		st.Phase = session.PhaseClarifying
		st.Touch()
		prompt := clarify.Consolidate(st.Intent, missing)
		o.saveSession(st)
		o.publish(st.ID, natsbus.Event{Kind: natsbus.EventClarificationIssued, Detail: prompt})
		o.logger.Info("clarification issued", "session", st.ID, "tasks", len(missing))
		return Outcome{SessionID: st.ID, Phase: st.Phase, Clarification: prompt}, nil
	}

	return o.finish(st), nil
}

func (o *Orchestrator) finish(st *session.State) Outcome {
	st.Phase = session.PhaseAggregating
	final := aggregate.Compose(st.Intent, st.Results)
	st.Phase = session.PhaseDone
	st.Touch()
	o.tracker.Remove(st.ID)
	o.saveSession(st)
	o.publish(st.ID, natsbus.Event{Kind: natsbus.EventTurnFinished, Detail: final.Message})
	o.logger.Info("turn finished", "session", st.ID, "cycles", st.CycleCount)
	return Outcome{SessionID: st.ID, Phase: st.Phase, Final: &final}
}

func (o *Orchestrator) abort(st *session.State, reason string) Outcome {
	st.Phase = session.PhaseAborted
	st.Touch()
	o.tracker.Remove(st.ID)
	o.saveSession(st)
	o.publish(st.ID, natsbus.Event{Kind: natsbus.EventTurnAborted, Detail: reason})
	o.logger.Info("turn aborted", "session", st.ID, "reason", reason)
	return Outcome{SessionID: st.ID, Phase: st.Phase, Aborted: true, Reason: reason}
}

// mergePayloads folds declared fields out of completed payloads back into
// the entity pool and returns the keys it added. A contact lookup completing
// with a recipient address lets a sibling email task pick it up next cycle.
// Existing entities win, what the user said is never overwritten by a
// handler.
func (o *Orchestrator) mergePayloads(st *session.State, results map[string]agent.Result) map[string]bool {
	gained := make(map[string]bool)
	for _, res := range results {
		if res.Status != agent.StatusCompleted {
			continue
		}
		for k, v := range res.Payload {
			if !o.registry.Knows(k) {
				continue
			}
			if _, ok := st.Entities[k]; ok {
				continue
			}
			st.Entities[k] = v
			gained[k] = true
		}
	}
	return gained
}

// gapsFilled reports whether every outstanding missing field was covered by
// an entity merged from this cycle's payloads, under either its bare or
// namespaced key. A field whose value was already in the pool and still
// came back missing failed validation, so rerunning the same snapshot
// cannot resolve it and the validator's reason has to go to the user.
func gapsFilled(missing map[string]map[string]string, gained map[string]bool) bool {
	for taskID, fields := range missing {
		for name := range fields {
			if gained[taskID+"."+name] || gained[name] {
				continue
			}
			return false
		}
	}
	return true
}

func (o *Orchestrator) sessionLock(id string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	lock, ok := o.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		o.locks[id] = lock
	}
	return lock
}

// loadSession finds a live session, falling back to the store for sessions
// parked in clarifying across a restart.
func (o *Orchestrator) loadSession(id string) (*session.State, error) {
	if st := o.tracker.Get(id); st != nil {
		return st, nil
	}
	if o.store == nil {
		return nil, nil
	}
	st, err := o.store.GetSession(id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if st == nil {
		return nil, nil
	}
	if st.Phase != session.PhaseClarifying {
		return nil, nil
	}
	if err := st.Validate(); err != nil {
		o.logger.Warn("discarding corrupt persisted session", "session", id, "err", err)
		return nil, nil
	}
	o.tracker.Set(st)
	return st, nil
}

func (o *Orchestrator) saveSession(st *session.State) {
	if o.store == nil {
		return
	}
	if err := o.store.SaveSession(st); err != nil {
		o.logger.Warn("persist session", "session", st.ID, "err", err)
	}
}

func (o *Orchestrator) recordTurn(sessionID, sender, content string) {
	if o.store == nil || content == "" {
		return
	}
	err := o.store.SaveTurn(&store.Turn{SessionID: sessionID, Sender: sender, Content: content})
	if err != nil {
		o.logger.Warn("persist turn", "session", sessionID, "err", err)
	}
}

func (o *Orchestrator) publish(sessionID string, ev natsbus.Event) {
	if o.bus == nil {
		return
	}
	if err := o.bus.PublishSessionEvent(sessionID, ev); err != nil {
		o.logger.Debug("publish event", "session", sessionID, "kind", ev.Kind, "err", err)
	}
}

func outcomeText(out Outcome) string {
	switch {
	case out.Clarification != "":
		return out.Clarification
	case out.Final != nil:
		return out.Final.Message
	case out.Aborted:
		return "turn aborted: " + out.Reason
	}
	return ""
}

// ReapIdle drops in-memory sessions with no activity inside the timeout.
// Persisted clarifying sessions stay in the store and can still resume.
func (o *Orchestrator) ReapIdle(timeout time.Duration) int {
	ids := o.tracker.ListIdle(timeout)
	for _, id := range ids {
		o.tracker.Remove(id)
		o.mu.Lock()
		// Only drop an uncontended lock. A turn still holding it keeps the
		// entry, otherwise a concurrent HandleInput could mint a second
		// mutex and run two turns for the same session at once.
		if lock, ok := o.locks[id]; ok && lock.TryLock() {
			delete(o.locks, id)
			lock.Unlock()
		}
		o.mu.Unlock()
		o.logger.Info("session reaped", "session", id)
	}
	return len(ids)
}

// StartReaper runs ReapIdle on a ticker until the context is cancelled.
func (o *Orchestrator) StartReaper(ctx context.Context, interval time.Duration) {
	if interval <= 0 || o.cfg.IdleTimeout <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				o.ReapIdle(o.cfg.IdleTimeout)
			}
		}
	}()
}
