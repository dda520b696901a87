package taskspec

import "testing"

func TestDefaultsRegistersAllTasks(t *testing.T) {
	r := Defaults()

	want := []string{TaskSendEmail, TaskScheduleMeeting, TaskSearchWeb, TaskCreateContent, TaskFindContact}
	ids := r.IDs()
	if len(ids) != len(want) {
		t.Fatalf("expected %d specs, got %d", len(want), len(ids))
	}
	for i, id := range want {
		if ids[i] != id {
			t.Errorf("expected spec %d to be %s, got %s", i, id, ids[i])
		}
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Spec{ID: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register(Spec{ID: "x"}); err == nil {
		t.Fatal("expected duplicate registration error")
	}
	if err := r.Register(Spec{}); err == nil {
		t.Fatal("expected error for empty task id")
	}
}

func TestEmailValidator(t *testing.T) {
	spec, ok := Defaults().Get(TaskSendEmail)
	if !ok {
		t.Fatal("send_email spec missing")
	}

	if ok, _ := spec.Check("recipient", "alice@example.com"); !ok {
		t.Error("expected alice@example.com to validate")
	}
	if ok, reason := spec.Check("recipient", "Alice"); ok {
		t.Error("expected bare name to fail validation")
	} else if reason == "" {
		t.Error("expected a human-readable reason")
	}
	if ok, _ := spec.Check("recipient", "alice@nodot"); ok {
		t.Error("expected address without dot in domain to fail")
	}
}

func TestCheckPassesOptionalAndUnknownFields(t *testing.T) {
	spec, _ := Defaults().Get(TaskSendEmail)

	if ok, _ := spec.Check("cc", ""); !ok {
		t.Error("optional fields are not validated")
	}
	if ok, _ := spec.Check("nonexistent", ""); !ok {
		t.Error("unknown fields are not validated")
	}
}

func TestDeclaredFieldsOrder(t *testing.T) {
	spec, _ := Defaults().Get(TaskScheduleMeeting)
	fields := spec.DeclaredFields()

	want := []string{"date", "time", "participants", "location", "duration", "platform"}
	if len(fields) != len(want) {
		t.Fatalf("expected %d fields, got %d", len(want), len(fields))
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("field %d: expected %s, got %s", i, want[i], fields[i])
		}
	}
}

func TestKnows(t *testing.T) {
	r := Defaults()
	if !r.Knows("recipient") {
		t.Error("expected recipient to be a known field")
	}
	if r.Knows("message_id") {
		t.Error("message_id is result metadata, not a declared field")
	}
}
