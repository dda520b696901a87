package aggregate

import (
	"strings"
	"testing"

	"github.com/nlamprou/marvin/internal/agent"
)

func TestComposeFollowsIntentOrder(t *testing.T) {
	results := map[string]agent.Result{
		"schedule_meeting": {TaskID: "schedule_meeting", Status: agent.StatusCompleted, Payload: map[string]string{"summary": "Meeting booked"}},
		"send_email":       {TaskID: "send_email", Status: agent.StatusCompleted, Payload: map[string]string{"summary": "Email sent"}},
	}

	resp := Compose([]string{"send_email", "schedule_meeting"}, results)
	if len(resp.Summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(resp.Summaries))
	}
	if resp.Summaries[0].TaskID != "send_email" || resp.Summaries[1].TaskID != "schedule_meeting" {
		t.Errorf("summaries out of intent order: %+v", resp.Summaries)
	}
	if !strings.Contains(resp.Message, "Email sent") || !strings.Contains(resp.Message, "Meeting booked") {
		t.Errorf("message missing task details:\n%s", resp.Message)
	}
}

func TestComposeReportsUnresolvedWithFields(t *testing.T) {
	results := map[string]agent.Result{
		"send_email": {
			TaskID:  "send_email",
			Status:  agent.StatusNeedsInfo,
			Missing: map[string]string{"subject": "What is the subject?", "body": "What should it say?"},
		},
	}

	resp := Compose([]string{"send_email"}, results)
	detail := resp.Summaries[0].Detail
	if !strings.Contains(detail, "body") || !strings.Contains(detail, "subject") {
		t.Errorf("unresolved task must name its missing fields, got %q", detail)
	}
}

func TestComposeReportsFailures(t *testing.T) {
	results := map[string]agent.Result{
		"search_web": {TaskID: "search_web", Status: agent.StatusFailed, ErrKind: agent.ErrTimeout, ErrMsg: "context deadline exceeded"},
		"send_email": {TaskID: "send_email", Status: agent.StatusFailed, ErrKind: agent.ErrExecution, ErrMsg: "smtp unreachable"},
	}

	resp := Compose([]string{"search_web", "send_email"}, results)
	if !strings.Contains(resp.Summaries[0].Detail, "timed out") {
		t.Errorf("timeout not surfaced: %q", resp.Summaries[0].Detail)
	}
	if !strings.Contains(resp.Summaries[1].Detail, "smtp unreachable") {
		t.Errorf("failure message not surfaced: %q", resp.Summaries[1].Detail)
	}
}

func TestComposeNeverDropsRoutedTasks(t *testing.T) {
	resp := Compose([]string{"send_email", "search_web"}, map[string]agent.Result{
		"send_email": {TaskID: "send_email", Status: agent.StatusCompleted},
	})
	if len(resp.Summaries) != 2 {
		t.Fatalf("expected a line per routed task, got %d", len(resp.Summaries))
	}
	if resp.Summaries[1].Status != agent.StatusFailed {
		t.Errorf("unexecuted task must be reported as failed, got %s", resp.Summaries[1].Status)
	}
}

func TestComposeCompletedWithoutSummaryPayload(t *testing.T) {
	resp := Compose([]string{"find_contact"}, map[string]agent.Result{
		"find_contact": {TaskID: "find_contact", Status: agent.StatusCompleted, Payload: map[string]string{"contact_email": "a@b.c"}},
	})
	if resp.Summaries[0].Detail != "done" {
		t.Errorf("expected generic detail, got %q", resp.Summaries[0].Detail)
	}
}
