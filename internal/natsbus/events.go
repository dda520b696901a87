package natsbus

import "time"

// Event kinds published on the session and routine topics.
const (
	EventTurnStarted         = "turn_started"
	EventCycleStarted        = "cycle_started"
	EventTaskCompleted       = "task_completed"
	EventTaskFailed          = "task_failed"
	EventClarificationIssued = "clarification_issued"
	EventTurnFinished        = "turn_finished"
	EventTurnAborted         = "turn_aborted"
	EventRoutineExecuted     = "routine_executed"
)

// Event is the envelope for every bus message marvin emits.
type Event struct {
	Kind      string            `json:"kind"`
	SessionID string            `json:"session_id,omitempty"`
	RoutineID string            `json:"routine_id,omitempty"`
	TaskID    string            `json:"task_id,omitempty"`
	Detail    string            `json:"detail,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	At        time.Time         `json:"at"`
}

// PublishSessionEvent emits an event on the session's topic. Publishing is
// best effort, a dead bus never blocks a turn.
func (c *Client) PublishSessionEvent(sessionID string, ev Event) error {
	ev.SessionID = sessionID
	ev.At = time.Now().UTC()
	return c.publishJSON(TopicSession(sessionID), ev)
}

// PublishRoutineEvent emits an event on the routine's topic.
func (c *Client) PublishRoutineEvent(routineID string, ev Event) error {
	ev.RoutineID = routineID
	ev.At = time.Now().UTC()
	return c.publishJSON(TopicRoutine(routineID), ev)
}
