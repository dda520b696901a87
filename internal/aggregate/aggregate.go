// Package aggregate composes the final user-facing response for a turn
// from the per-task results collected by the coordinator.
package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nlamprou/marvin/internal/agent"
)

// TaskSummary is one task's line in the final response.
type TaskSummary struct {
	TaskID string       `json:"task_id"`
	Status agent.Status `json:"status"`
	Detail string       `json:"detail"`
}

// FinalResponse is the aggregated outcome of a turn. Summaries follow
// the order intents were first mentioned by the user.
type FinalResponse struct {
	Summaries []TaskSummary `json:"summaries"`
	Message   string        `json:"message"`
}

// Compose builds the final response for a turn. Every routed task gets a
// summary line, in intent order. Tasks still missing information and tasks
// that failed are reported explicitly, never dropped.
func Compose(order []string, results map[string]agent.Result) FinalResponse {
	var resp FinalResponse
	for _, id := range order {
		res, ok := results[id]
		if !ok {
			// Routed but never executed, the cycle budget ran out first.
			resp.Summaries = append(resp.Summaries, TaskSummary{
				TaskID: id,
				Status: agent.StatusFailed,
				Detail: "not executed",
			})
			continue
		}
		resp.Summaries = append(resp.Summaries, summarize(res))
	}

	var b strings.Builder
	for i, s := range resp.Summaries {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s: %s", s.TaskID, s.Detail)
	}
	resp.Message = b.String()
	return resp
}

func summarize(res agent.Result) TaskSummary {
	s := TaskSummary{TaskID: res.TaskID, Status: res.Status}
	switch res.Status {
	case agent.StatusCompleted:
		if detail, ok := res.Payload["summary"]; ok && detail != "" {
			s.Detail = detail
		} else {
			s.Detail = "done"
		}
	case agent.StatusNeedsInfo:
		fields := make([]string, 0, len(res.Missing))
		for name := range res.Missing {
			fields = append(fields, name)
		}
		sort.Strings(fields)
		s.Detail = "could not finish, still missing " + strings.Join(fields, ", ")
	case agent.StatusFailed:
		msg := res.ErrMsg
		if msg == "" {
			msg = "unknown error"
		}
		if res.ErrKind == agent.ErrTimeout {
			s.Detail = "timed out: " + msg
		} else {
			s.Detail = "failed: " + msg
		}
	default:
		s.Detail = "unknown outcome"
	}
	return s
}
