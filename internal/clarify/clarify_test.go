package clarify

import (
	"strings"
	"testing"
)

func TestConsolidateCoversEveryDistinctField(t *testing.T) {
	req := Request{
		"send_email":       {"recipient": "Who should receive the email?", "subject": "What is the subject?"},
		"schedule_meeting": {"date": "What date is the meeting?", "time": "What time does it start?"},
	}

	prompt := Consolidate([]string{"send_email", "schedule_meeting"}, req)
	for _, field := range []string{"recipient", "subject", "date", "time"} {
		if !strings.Contains(prompt, field) {
			t.Errorf("prompt must mention %s:\n%s", field, prompt)
		}
	}
}

func TestConsolidateDeduplicatesSharedFieldNames(t *testing.T) {
	req := Request{
		"send_email":       {"time": "What time?"},
		"schedule_meeting": {"time": "What time does it start?"},
	}

	prompt := Consolidate([]string{"send_email", "schedule_meeting"}, req)
	if strings.Count(prompt, "- time") != 1 {
		t.Errorf("shared field must be asked once:\n%s", prompt)
	}
	if !strings.Contains(prompt, "send_email") || !strings.Contains(prompt, "schedule_meeting") {
		t.Errorf("shared field must name both tasks:\n%s", prompt)
	}
}

func TestConsolidateDeterministic(t *testing.T) {
	req := Request{
		"send_email": {"subject": "What is the subject?", "body": "What should it say?", "recipient": "Who?"},
	}
	a := Consolidate([]string{"send_email"}, req)
	b := Consolidate([]string{"send_email"}, req)
	if a != b {
		t.Error("prompt rendering must be deterministic")
	}
}

func TestConsolidateEmptyRequest(t *testing.T) {
	if Consolidate(nil, Request{}) != "" {
		t.Error("expected empty prompt for empty request")
	}
}

func TestApplyReplyExtractsPairs(t *testing.T) {
	req := Request{"send_email": {"recipient": "Who?", "subject": "What subject?"}}

	resolved := ApplyReply("recipient: bob@example.com, subject: Lunch plans", req)
	if resolved["recipient"] != "bob@example.com" {
		t.Errorf("recipient: got %q", resolved["recipient"])
	}
	if resolved["subject"] != "Lunch plans" {
		t.Errorf("subject: got %q", resolved["subject"])
	}
}

func TestApplyReplyPartialAnswerLeavesRestMissing(t *testing.T) {
	req := Request{"send_email": {"recipient": "Who?", "subject": "What subject?"}}

	resolved := ApplyReply("recipient: bob@example.com", req)
	if resolved["recipient"] != "bob@example.com" {
		t.Errorf("recipient: got %q", resolved["recipient"])
	}
	if _, ok := resolved["subject"]; ok {
		t.Error("subject was not answered and must not be resolved")
	}
}

func TestApplyReplyNeverGuesses(t *testing.T) {
	req := Request{"send_email": {"recipient": "Who?", "subject": "What subject?"}}

	resolved := ApplyReply("hmm let me think about that", req)
	if len(resolved) != 0 {
		t.Errorf("expected nothing resolved from a vague reply, got %v", resolved)
	}
}

func TestApplyReplyIgnoresUnrequestedFields(t *testing.T) {
	req := Request{"send_email": {"subject": "What subject?"}}

	resolved := ApplyReply("query: something, subject: Lunch", req)
	if _, ok := resolved["query"]; ok {
		t.Error("a field nobody asked for must not be resolved")
	}
	if resolved["subject"] != "Lunch" {
		t.Errorf("subject: got %q", resolved["subject"])
	}
}

func TestApplyReplyNamespacedAnswer(t *testing.T) {
	req := Request{
		"send_email":       {"time": "What time?"},
		"schedule_meeting": {"time": "What time does it start?"},
	}

	resolved := ApplyReply("schedule_meeting.time: 3pm", req)
	if resolved["schedule_meeting.time"] != "3pm" {
		t.Errorf("expected namespaced resolution, got %v", resolved)
	}
	if _, ok := resolved["time"]; ok {
		t.Error("bare field must stay unresolved when only one task was answered")
	}
}

func TestApplyReplySingleFieldShorthand(t *testing.T) {
	req := Request{"search_web": {"query": "What should I search for?"}}

	resolved := ApplyReply("weather in athens tomorrow", req)
	if resolved["query"] != "weather in athens tomorrow" {
		t.Errorf("expected whole reply as the single field's value, got %v", resolved)
	}
}

func TestApplyReplyShorthandNeedsSingleField(t *testing.T) {
	req := Request{"send_email": {"recipient": "Who?", "subject": "What subject?"}}

	resolved := ApplyReply("bob@example.com", req)
	if len(resolved) != 0 {
		t.Errorf("a marker-free reply is ambiguous with two fields outstanding, got %v", resolved)
	}
}

func TestApplyReplyEmpty(t *testing.T) {
	req := Request{"search_web": {"query": "What should I search for?"}}

	if resolved := ApplyReply("   ", req); len(resolved) != 0 {
		t.Errorf("expected nothing from a blank reply, got %v", resolved)
	}
}
