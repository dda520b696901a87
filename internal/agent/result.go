package agent

// Status is the outcome class of one executor run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusNeedsInfo Status = "needs_info"
	StatusFailed    Status = "failed"
)

// ErrKind classifies a failed run.
type ErrKind string

const (
	ErrExecution ErrKind = "execution"
	ErrTimeout   ErrKind = "timeout"
)

// Result is the uniform outcome of one executor run. Exactly one of
// Payload, Missing, or the error pair is meaningful, selected by Status.
type Result struct {
	TaskID  string            `json:"task_id"`
	Status  Status            `json:"status"`
	Payload map[string]string `json:"payload,omitempty"`
	Missing map[string]string `json:"missing,omitempty"` // field -> reason
	ErrKind ErrKind           `json:"err_kind,omitempty"`
	ErrMsg  string            `json:"err_msg,omitempty"`
}

func completed(taskID string, payload map[string]string) Result {
	return Result{TaskID: taskID, Status: StatusCompleted, Payload: payload}
}

func needsInfo(taskID string, missing map[string]string) Result {
	return Result{TaskID: taskID, Status: StatusNeedsInfo, Missing: missing}
}

func failed(taskID string, kind ErrKind, msg string) Result {
	return Result{TaskID: taskID, Status: StatusFailed, ErrKind: kind, ErrMsg: msg}
}
