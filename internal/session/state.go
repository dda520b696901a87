package session

import (
	"fmt"
	"time"

	"github.com/nlamprou/marvin/internal/agent"
)

// TaskStatus is the per-task position within one turn.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
	TaskNeedsInfo TaskStatus = "needs_info"
	TaskFailed    TaskStatus = "failed"
)

// Phase is the orchestrator state the session is parked in between inputs.
type Phase string

const (
	PhaseGathering   Phase = "gathering"
	PhaseRouting     Phase = "routing"
	PhaseExecuting   Phase = "executing"
	PhaseClarifying  Phase = "clarifying"
	PhaseAggregating Phase = "aggregating"
	PhaseDone        Phase = "done"
	PhaseAborted     Phase = "aborted"
)

// State is the mutable record for one conversation turn. It is written only
// by the orchestrator between coordinator join barriers, and serialized to
// the store while a clarification is outstanding.
type State struct {
	ID          string                  `json:"id"`
	RawInput    string                  `json:"raw_input"`
	Intent      []string                `json:"intent"` // task ids, first-mention order
	Entities    map[string]string       `json:"entities"`
	AgentStatus map[string]TaskStatus   `json:"agent_status"`
	Results     map[string]agent.Result `json:"agent_results"`
	CycleCount  int                     `json:"cycle_count"`
	Phase       Phase                   `json:"phase"`
	StartedAt   time.Time               `json:"started_at"`
	LastActive  time.Time               `json:"last_active"`
}

func New(id, rawInput string) *State {
	now := time.Now()
	return &State{
		ID:          id,
		RawInput:    rawInput,
		Entities:    make(map[string]string),
		AgentStatus: make(map[string]TaskStatus),
		Results:     make(map[string]agent.Result),
		Phase:       PhaseGathering,
		StartedAt:   now,
		LastActive:  now,
	}
}

// SetIntent records the routed task set. Every routed task id gets exactly
// one pending status entry.
func (s *State) SetIntent(taskIDs []string) {
	s.Intent = append([]string(nil), taskIDs...)
	for _, id := range taskIDs {
		s.AgentStatus[id] = TaskPending
	}
}

// Pending returns the task ids that still have to run: never-run tasks and
// tasks waiting on clarification. Completed and failed tasks are excluded,
// which is what keeps re-execution idempotent.
func (s *State) Pending() []string {
	var out []string
	for _, id := range s.Intent {
		switch s.AgentStatus[id] {
		case TaskPending, TaskNeedsInfo:
			out = append(out, id)
		}
	}
	return out
}

// Record stores one executor result and advances the task's status.
func (s *State) Record(res agent.Result) {
	s.Results[res.TaskID] = res
	switch res.Status {
	case agent.StatusCompleted:
		s.AgentStatus[res.TaskID] = TaskCompleted
	case agent.StatusNeedsInfo:
		s.AgentStatus[res.TaskID] = TaskNeedsInfo
	case agent.StatusFailed:
		s.AgentStatus[res.TaskID] = TaskFailed
	}
}

// MissingFields collects the outstanding field requests of every task still
// waiting on clarification, keyed by task id.
func (s *State) MissingFields() map[string]map[string]string {
	out := make(map[string]map[string]string)
	for _, id := range s.Intent {
		if s.AgentStatus[id] != TaskNeedsInfo {
			continue
		}
		if res, ok := s.Results[id]; ok && len(res.Missing) > 0 {
			out[id] = res.Missing
		}
	}
	return out
}

// MergeEntities applies resolved values. Only called from the orchestrator
// after the join barrier, so no locking is needed.
func (s *State) MergeEntities(updates map[string]string) {
	for k, v := range updates {
		s.Entities[k] = v
	}
}

// Snapshot returns a copy of the entities for one concurrent cycle.
// Executors read the copy; the live map stays single-writer.
func (s *State) Snapshot() map[string]string {
	out := make(map[string]string, len(s.Entities))
	for k, v := range s.Entities {
		out[k] = v
	}
	return out
}

// Validate checks the structural invariant: one status entry per routed
// task id. Used after deserializing a persisted session.
func (s *State) Validate() error {
	if len(s.AgentStatus) != len(s.Intent) {
		return fmt.Errorf("session %s: %d status entries for %d routed tasks", s.ID, len(s.AgentStatus), len(s.Intent))
	}
	for _, id := range s.Intent {
		if _, ok := s.AgentStatus[id]; !ok {
			return fmt.Errorf("session %s: task %s has no status entry", s.ID, id)
		}
	}
	return nil
}

func (s *State) Touch() {
	s.LastActive = time.Now()
}
