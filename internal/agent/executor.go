package agent

import (
	"context"
	"errors"
	"time"

	"github.com/nlamprou/marvin/internal/taskspec"
)

// Handler is the task logic boundary. Implementations receive only the
// validated fields declared by their spec and must not retain or mutate the
// map after returning.
type Handler interface {
	Invoke(ctx context.Context, fields map[string]string) (map[string]string, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, fields map[string]string) (map[string]string, error)

func (f HandlerFunc) Invoke(ctx context.Context, fields map[string]string) (map[string]string, error) {
	return f(ctx, fields)
}

// Executor wraps one task handler behind its spec. It is stateless apart
// from its configuration, so a single Executor is safe to invoke from
// multiple goroutines at once.
type Executor struct {
	spec    taskspec.Spec
	handler Handler
	timeout time.Duration
}

func NewExecutor(spec taskspec.Spec, handler Handler, timeout time.Duration) *Executor {
	return &Executor{spec: spec, handler: handler, timeout: timeout}
}

func (e *Executor) TaskID() string {
	return e.spec.ID
}

// Execute validates a snapshot of the shared entities against the spec and
// runs the handler. Every absent or invalid required field is reported in
// one pass so a single clarification round can cover them all.
func (e *Executor) Execute(ctx context.Context, entities map[string]string) Result {
	fields := e.fieldsFor(entities)

	missing := make(map[string]string)
	for _, f := range e.spec.Required {
		value, present := fields[f.Name]
		if !present {
			missing[f.Name] = f.Prompt
			continue
		}
		if ok, reason := e.spec.Check(f.Name, value); !ok {
			missing[f.Name] = reason
		}
	}
	if len(missing) > 0 {
		return needsInfo(e.spec.ID, missing)
	}

	runCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	payload, err := e.handler.Invoke(runCtx, fields)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return failed(e.spec.ID, ErrTimeout, "task timed out")
		}
		return failed(e.spec.ID, ErrExecution, err.Error())
	}
	return completed(e.spec.ID, payload)
}

// fieldsFor filters the entity snapshot down to the fields this spec
// declares. A task-namespaced key ("send_email.subject") wins over the bare
// field name, which lets a clarification reply target one task when two
// tasks share a field name.
func (e *Executor) fieldsFor(entities map[string]string) map[string]string {
	out := make(map[string]string)
	for _, name := range e.spec.DeclaredFields() {
		if v, ok := entities[e.spec.ID+"."+name]; ok {
			out[name] = v
			continue
		}
		if v, ok := entities[name]; ok {
			out[name] = v
		}
	}
	return out
}
