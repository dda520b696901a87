package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nlamprou/marvin/internal/agent"
)

// Coordinator fans one cycle's pending tasks out to their executors. All
// executors run against the same immutable entity snapshot; results come
// back only after every dispatched task has finished, so a caller never
// observes a partial cycle.
type Coordinator struct {
	executors map[string]*agent.Executor
	poolSize  int
}

func New(executors map[string]*agent.Executor, poolSize int) *Coordinator {
	if poolSize < 1 {
		poolSize = 1
	}
	return &Coordinator{executors: executors, poolSize: poolSize}
}

// Run executes every task id concurrently, bounded by the pool size, and
// joins before returning. One task's failure neither cancels nor delays its
// siblings; a task id with no registered executor yields a failed result
// instead of aborting the cycle.
func (c *Coordinator) Run(ctx context.Context, taskIDs []string, entities map[string]string) map[string]agent.Result {
	snapshot := make(map[string]string, len(entities))
	for k, v := range entities {
		snapshot[k] = v
	}

	results := make(map[string]agent.Result, len(taskIDs))
	var resultsMu sync.Mutex

	sem := make(chan struct{}, c.poolSize)
	var wg sync.WaitGroup

	for _, id := range taskIDs {
		ex, ok := c.executors[id]
		if !ok {
			resultsMu.Lock()
			results[id] = agent.Result{
				TaskID:  id,
				Status:  agent.StatusFailed,
				ErrKind: agent.ErrExecution,
				ErrMsg:  fmt.Sprintf("no executor registered for task %s", id),
			}
			resultsMu.Unlock()
			continue
		}

		wg.Add(1)
		go func(id string, ex *agent.Executor) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			res := ex.Execute(ctx, snapshot)

			resultsMu.Lock()
			results[id] = res
			resultsMu.Unlock()

			slog.Debug("task finished", "task", id, "status", res.Status)
		}(id, ex)
	}

	wg.Wait()
	return results
}

// Partition splits one cycle's results by outcome, preserving the given
// task order within each bucket.
func Partition(order []string, results map[string]agent.Result) (completed, needsInfo, failedTasks []string) {
	for _, id := range order {
		res, ok := results[id]
		if !ok {
			continue
		}
		switch res.Status {
		case agent.StatusCompleted:
			completed = append(completed, id)
		case agent.StatusNeedsInfo:
			needsInfo = append(needsInfo, id)
		case agent.StatusFailed:
			failedTasks = append(failedTasks, id)
		}
	}
	return completed, needsInfo, failedTasks
}
