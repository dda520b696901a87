package router

import (
	"testing"

	"github.com/nlamprou/marvin/internal/taskspec"
)

func TestRouteKeepsFirstMentionOrder(t *testing.T) {
	rtr := New(taskspec.Defaults())

	ids := rtr.Route([]string{taskspec.TaskScheduleMeeting, taskspec.TaskSendEmail})
	if len(ids) != 2 {
		t.Fatalf("expected 2 task ids, got %v", ids)
	}
	if ids[0] != taskspec.TaskScheduleMeeting || ids[1] != taskspec.TaskSendEmail {
		t.Errorf("expected first-mention order preserved, got %v", ids)
	}
}

func TestRouteDeduplicates(t *testing.T) {
	rtr := New(taskspec.Defaults())

	ids := rtr.Route([]string{taskspec.TaskSendEmail, taskspec.TaskSendEmail, taskspec.TaskSendEmail})
	if len(ids) != 1 {
		t.Errorf("expected deduplicated set, got %v", ids)
	}
}

func TestRouteSkipsUnknownIntents(t *testing.T) {
	rtr := New(taskspec.Defaults())

	ids := rtr.Route([]string{"make_coffee", taskspec.TaskSearchWeb})
	if len(ids) != 1 || ids[0] != taskspec.TaskSearchWeb {
		t.Errorf("expected only search_web, got %v", ids)
	}

	if ids := rtr.Route([]string{"make_coffee"}); len(ids) != 0 {
		t.Errorf("expected empty set for unknown intent, got %v", ids)
	}
}

func TestRouteAlias(t *testing.T) {
	rtr := New(taskspec.Defaults())
	rtr.Alias("mail", taskspec.TaskSendEmail)

	ids := rtr.Route([]string{"mail", taskspec.TaskSendEmail})
	if len(ids) != 1 || ids[0] != taskspec.TaskSendEmail {
		t.Errorf("expected alias to collapse into send_email, got %v", ids)
	}
}
