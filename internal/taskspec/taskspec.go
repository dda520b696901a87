package taskspec

import (
	"fmt"
	"sort"
	"strings"
)

// Task identifiers. One per agent type; adding an agent means registering a
// new Spec under a new id, nothing else changes.
const (
	TaskSendEmail       = "send_email"
	TaskScheduleMeeting = "schedule_meeting"
	TaskSearchWeb       = "search_web"
	TaskCreateContent   = "create_content"
	TaskFindContact     = "find_contact"
)

// ValidateFunc checks one field value. A false result carries a
// human-readable reason suitable for a clarification prompt.
type ValidateFunc func(value string) (ok bool, reason string)

type Field struct {
	Name     string
	Prompt   string // question shown to the user when the field is missing
	Validate ValidateFunc
}

// Spec describes the fields one task handler consumes. Immutable after
// registration.
type Spec struct {
	ID       string
	Required []Field
	Optional []string
}

// DeclaredFields returns required and optional field names in declaration
// order.
func (s Spec) DeclaredFields() []string {
	out := make([]string, 0, len(s.Required)+len(s.Optional))
	for _, f := range s.Required {
		out = append(out, f.Name)
	}
	out = append(out, s.Optional...)
	return out
}

// Check validates value against the named required field. Unknown and
// optional fields pass.
func (s Spec) Check(name, value string) (ok bool, reason string) {
	for _, f := range s.Required {
		if f.Name == name && f.Validate != nil {
			return f.Validate(value)
		}
	}
	return true, ""
}

type Registry struct {
	specs map[string]Spec
	ids   []string // registration order
}

func NewRegistry() *Registry {
	return &Registry{specs: make(map[string]Spec)}
}

func (r *Registry) Register(s Spec) error {
	if s.ID == "" {
		return fmt.Errorf("spec has no task id")
	}
	if _, exists := r.specs[s.ID]; exists {
		return fmt.Errorf("spec %q already registered", s.ID)
	}
	r.specs[s.ID] = s
	r.ids = append(r.ids, s.ID)
	return nil
}

func (r *Registry) Get(id string) (Spec, bool) {
	s, ok := r.specs[id]
	return s, ok
}

func (r *Registry) IDs() []string {
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}

// Knows reports whether name is a declared field of any registered spec.
// The orchestrator uses this to decide which agent output keys flow back
// into the shared entities.
func (r *Registry) Knows(name string) bool {
	for _, s := range r.specs {
		for _, f := range s.DeclaredFields() {
			if f == name {
				return true
			}
		}
	}
	return false
}

// FieldNames returns the union of declared field names across all specs,
// sorted for deterministic iteration.
func (r *Registry) FieldNames() []string {
	seen := make(map[string]bool)
	for _, s := range r.specs {
		for _, f := range s.DeclaredFields() {
			seen[f] = true
		}
	}
	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func nonEmpty(prompt string) ValidateFunc {
	return func(value string) (bool, string) {
		if strings.TrimSpace(value) == "" {
			return false, prompt
		}
		return true, ""
	}
}

func emailAddress(prompt string) ValidateFunc {
	return func(value string) (bool, string) {
		v := strings.TrimSpace(value)
		at := strings.Index(v, "@")
		if at < 1 || !strings.Contains(v[at:], ".") || strings.ContainsAny(v, " \t") {
			return false, prompt
		}
		return true, ""
	}
}

// Defaults returns the built-in assistant task set.
func Defaults() *Registry {
	r := NewRegistry()

	specs := []Spec{
		{
			ID: TaskSendEmail,
			Required: []Field{
				{Name: "recipient", Prompt: "Who should receive the email? I need an email address.", Validate: emailAddress("Who should receive the email? I need an email address.")},
				{Name: "subject", Prompt: "What is the subject of your email?", Validate: nonEmpty("What is the subject of your email?")},
				{Name: "body", Prompt: "What should the email say?", Validate: nonEmpty("What should the email say?")},
			},
			Optional: []string{"cc", "attachments", "signature"},
		},
		{
			ID: TaskScheduleMeeting,
			Required: []Field{
				{Name: "date", Prompt: "What date is the meeting?", Validate: nonEmpty("What date is the meeting?")},
				{Name: "time", Prompt: "What time does the meeting start?", Validate: nonEmpty("What time does the meeting start?")},
				{Name: "participants", Prompt: "Who is attending the meeting?", Validate: nonEmpty("Who is attending the meeting?")},
			},
			Optional: []string{"location", "duration", "platform"},
		},
		{
			ID: TaskSearchWeb,
			Required: []Field{
				{Name: "query", Prompt: "What should I search for?", Validate: nonEmpty("What should I search for?")},
			},
		},
		{
			ID: TaskCreateContent,
			Required: []Field{
				{Name: "content_topic", Prompt: "What topic should the content cover?", Validate: nonEmpty("What topic should the content cover?")},
			},
			Optional: []string{"tone", "format", "length"},
		},
		{
			ID: TaskFindContact,
			Required: []Field{
				{Name: "contact_name", Prompt: "Which contact are you looking for?", Validate: nonEmpty("Which contact are you looking for?")},
			},
			Optional: []string{"organization", "role"},
		},
	}

	for _, s := range specs {
		if err := r.Register(s); err != nil {
			panic(err) // duplicate ids in the built-in table is a programming error
		}
	}
	return r
}
