package router

import (
	"log/slog"

	"github.com/nlamprou/marvin/internal/taskspec"
)

// Router maps recognized intents to the task ids that must run this turn.
// Routing is deterministic: the same intent list always yields the same
// ordered task set.
type Router struct {
	registry *taskspec.Registry
	aliases  map[string]string
}

func New(registry *taskspec.Registry) *Router {
	return &Router{
		registry: registry,
		aliases:  make(map[string]string),
	}
}

// Alias maps an extra intent name onto an existing task id, e.g. for a
// front end that emits its own vocabulary.
func (r *Router) Alias(intent, taskID string) {
	r.aliases[intent] = taskID
}

// Route resolves intents against the spec registry. Unknown intents are
// skipped; duplicates collapse to the first occurrence so the result keeps
// first-mention order. An empty result means the turn cannot proceed.
func (r *Router) Route(intents []string) []string {
	seen := make(map[string]bool, len(intents))
	var taskIDs []string

	for _, intent := range intents {
		taskID := intent
		if alias, ok := r.aliases[intent]; ok {
			taskID = alias
		}
		if _, ok := r.registry.Get(taskID); !ok {
			slog.Debug("unrecognized intent", "intent", intent)
			continue
		}
		if seen[taskID] {
			continue
		}
		seen[taskID] = true
		taskIDs = append(taskIDs, taskID)
	}

	return taskIDs
}
