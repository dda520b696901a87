package scheduler

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/nlamprou/marvin/internal/agent"
	"github.com/nlamprou/marvin/internal/config"
	"github.com/nlamprou/marvin/internal/orchestrator"
	"github.com/nlamprou/marvin/internal/store"
	"github.com/nlamprou/marvin/internal/taskspec"
)

func newTestScheduler(t *testing.T) (*Scheduler, *store.Store) {
	t.Helper()

	st, err := store.New(config.StoreConfig{Path: filepath.Join(t.TempDir(), "marvin.db")})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	reg := taskspec.NewRegistry()
	if err := reg.Register(taskspec.Spec{
		ID: taskspec.TaskSearchWeb,
		Required: []taskspec.Field{{
			Name:   "query",
			Prompt: "What should I search for?",
			Validate: func(value string) (ok bool, reason string) {
				if value == "" {
					return false, "What should I search for?"
				}
				return true, ""
			},
		}},
	}); err != nil {
		t.Fatal(err)
	}

	handler := agent.HandlerFunc(func(ctx context.Context, fields map[string]string) (map[string]string, error) {
		return map[string]string{"summary": "searched"}, nil
	})
	execs := map[string]*agent.Executor{
		taskspec.TaskSearchWeb: agent.NewExecutor(mustGet(t, reg, taskspec.TaskSearchWeb), handler, time.Second),
	}
	orch := orchestrator.New(config.AssistantConfig{MaxCycles: 2, TaskTimeout: time.Second, PoolSize: 2}, reg, execs, st, nil)

	return New(st, orch, nil, config.SchedulerConfig{PollInterval: time.Second}), st
}

func TestExecuteRoutineSuccess(t *testing.T) {
	sched, st := newTestScheduler(t)

	now := time.Now()
	rt := store.Routine{
		ID:        "r1",
		Name:      "morning brief",
		Schedule:  `{"kind":"interval","interval_ms":60000}`,
		Prompt:    "search for tech news",
		Status:    "active",
		NextRunAt: &now,
	}
	if err := st.SaveRoutine(&rt); err != nil {
		t.Fatalf("save routine: %v", err)
	}

	sched.execute(context.Background(), rt)

	got, err := st.GetRoutine("r1")
	if err != nil {
		t.Fatalf("get routine: %v", err)
	}
	if got.LastStatus != "success" {
		t.Errorf("expected success, got %q (%s)", got.LastStatus, got.LastError)
	}
	if got.NextRunAt == nil {
		t.Error("interval routine must get a next run")
	}
}

func TestExecuteRoutineNeedingClarificationFails(t *testing.T) {
	sched, st := newTestScheduler(t)

	now := time.Now()
	rt := store.Routine{
		ID:        "r1",
		Name:      "vague",
		Schedule:  `{"kind":"interval","interval_ms":60000}`,
		Prompt:    "search", // no query, the turn would ask back
		Status:    "active",
		NextRunAt: &now,
	}
	if err := st.SaveRoutine(&rt); err != nil {
		t.Fatalf("save routine: %v", err)
	}

	sched.execute(context.Background(), rt)

	got, err := st.GetRoutine("r1")
	if err != nil {
		t.Fatalf("get routine: %v", err)
	}
	if got.LastStatus != "error" || got.LastError != "needs clarification" {
		t.Errorf("expected clarification failure, got %q (%s)", got.LastStatus, got.LastError)
	}
}

func TestExecuteSpentOnceRoutineRetires(t *testing.T) {
	sched, st := newTestScheduler(t)

	now := time.Now()
	past := time.Now().Add(-time.Hour).UnixMilli()
	rt := store.Routine{
		ID:        "r1",
		Name:      "one off",
		Schedule:  fmt.Sprintf(`{"kind":"once","at_ms":%d}`, past),
		Prompt:    "search for tech news",
		Status:    "active",
		NextRunAt: &now,
	}
	if err := st.SaveRoutine(&rt); err != nil {
		t.Fatalf("save routine: %v", err)
	}

	sched.execute(context.Background(), rt)

	got, err := st.GetRoutine("r1")
	if err != nil {
		t.Fatalf("get routine: %v", err)
	}
	if got.Status != "completed" {
		t.Errorf("expected retired routine, got status %q", got.Status)
	}
	if got.NextRunAt != nil {
		t.Errorf("spent schedule must have no next run, got %v", got.NextRunAt)
	}
}

func mustGet(t *testing.T, reg *taskspec.Registry, id string) taskspec.Spec {
	t.Helper()
	s, ok := reg.Get(id)
	if !ok {
		t.Fatalf("spec %s not registered", id)
	}
	return s
}
