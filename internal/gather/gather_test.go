package gather

import (
	"testing"

	"github.com/nlamprou/marvin/internal/taskspec"
)

func TestParseBareEmailRequest(t *testing.T) {
	p := Parse("send an email")

	if len(p.Intents) != 1 || p.Intents[0] != taskspec.TaskSendEmail {
		t.Fatalf("expected only send_email intent, got %v", p.Intents)
	}
	if len(p.Entities) != 0 {
		t.Errorf("expected no entities, got %v", p.Entities)
	}
}

func TestParseEmailWithAddress(t *testing.T) {
	p := Parse("email bob@example.com about the quarterly report")

	if p.Entities["recipient"] != "bob@example.com" {
		t.Errorf("expected recipient bob@example.com, got %q", p.Entities["recipient"])
	}
	if p.Entities["subject"] != "the quarterly report" {
		t.Errorf("expected subject from 'about' clause, got %q", p.Entities["subject"])
	}
	if contains(p.Intents, taskspec.TaskFindContact) {
		t.Error("an explicit address needs no contact lookup")
	}
}

func TestParseEmailWithBareNameAddsContactIntent(t *testing.T) {
	p := Parse("email Bob about lunch and schedule a meeting with Bob tomorrow")

	want := []string{taskspec.TaskSendEmail, taskspec.TaskScheduleMeeting, taskspec.TaskFindContact}
	if len(p.Intents) != len(want) {
		t.Fatalf("expected intents %v, got %v", want, p.Intents)
	}
	for i := range want {
		if p.Intents[i] != want[i] {
			t.Fatalf("expected intents %v, got %v", want, p.Intents)
		}
	}

	if p.Entities["contact_name"] != "Bob" {
		t.Errorf("expected contact_name Bob, got %q", p.Entities["contact_name"])
	}
	if p.Entities["subject"] != "lunch" {
		t.Errorf("expected subject lunch, got %q", p.Entities["subject"])
	}
	if p.Entities["participants"] != "Bob" {
		t.Errorf("expected participants Bob, got %q", p.Entities["participants"])
	}
	if p.Entities["date"] != "tomorrow" {
		t.Errorf("expected date tomorrow, got %q", p.Entities["date"])
	}
}

func TestParseExplicitPairs(t *testing.T) {
	p := Parse("email recipient: bob@example.com subject: Lunch body: See you at noon")

	if p.Entities["recipient"] != "bob@example.com" {
		t.Errorf("recipient: got %q", p.Entities["recipient"])
	}
	if p.Entities["subject"] != "Lunch" {
		t.Errorf("subject: got %q", p.Entities["subject"])
	}
	if p.Entities["body"] != "See you at noon" {
		t.Errorf("body: got %q", p.Entities["body"])
	}
}

func TestParseSearchQuery(t *testing.T) {
	p := Parse("search for the best souvlaki in athens")

	if !contains(p.Intents, taskspec.TaskSearchWeb) {
		t.Fatalf("expected search_web intent, got %v", p.Intents)
	}
	if p.Entities["query"] != "the best souvlaki in athens" {
		t.Errorf("query: got %q", p.Entities["query"])
	}
}

func TestParseMeetingTime(t *testing.T) {
	p := Parse("schedule a meeting with Alice tomorrow at 3pm")

	if !contains(p.Intents, taskspec.TaskScheduleMeeting) {
		t.Fatalf("expected schedule_meeting intent, got %v", p.Intents)
	}
	if p.Entities["time"] != "3pm" {
		t.Errorf("time: got %q", p.Entities["time"])
	}
	if p.Entities["participants"] != "Alice" {
		t.Errorf("participants: got %q", p.Entities["participants"])
	}
}

func TestParseContentTopic(t *testing.T) {
	p := Parse(`write a blog post about "urban beekeeping"`)

	if !contains(p.Intents, taskspec.TaskCreateContent) {
		t.Fatalf("expected create_content intent, got %v", p.Intents)
	}
	if p.Entities["content_topic"] == "" {
		t.Error("expected content_topic to be extracted")
	}
}

func TestParseStop(t *testing.T) {
	for _, input := range []string{"stop", "cancel", "never mind"} {
		if p := Parse(input); !p.Stop {
			t.Errorf("expected %q to be a stop request", input)
		}
	}
	if p := Parse("cancel my subscription email"); p.Stop {
		t.Error("stop only applies to the bare phrase")
	}
}

func TestParseUnrecognized(t *testing.T) {
	p := Parse("how tall is the eiffel tower?")

	if len(p.Intents) != 0 {
		t.Errorf("expected no intents, got %v", p.Intents)
	}
}

func TestParseDeterministic(t *testing.T) {
	input := "email Bob about lunch and schedule a meeting with Bob tomorrow"
	a := Parse(input)
	b := Parse(input)

	if len(a.Intents) != len(b.Intents) {
		t.Fatal("intent extraction not deterministic")
	}
	for k, v := range a.Entities {
		if b.Entities[k] != v {
			t.Errorf("entity %s differs across runs", k)
		}
	}
}
