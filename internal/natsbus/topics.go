package natsbus

import "fmt"

// Topic patterns for NATS pub/sub communication.

func TopicSession(sessionID string) string {
	return fmt.Sprintf("events.session.%s", sessionID)
}

func TopicRoutine(routineID string) string {
	return fmt.Sprintf("events.routine.%s", routineID)
}

func TopicTask(taskID string) string {
	return fmt.Sprintf("events.task.%s", taskID)
}

const (
	TopicEventsAll      = "events.>"
	TopicEventsSessions = "events.session.*"
	TopicEventsRoutines = "events.routine.*"
	TopicEventsTasks    = "events.task.*"
)
