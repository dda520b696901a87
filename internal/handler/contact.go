package handler

import (
	"context"
	"fmt"
	"strings"
)

// ContactDirectory looks up email addresses by name from a configured
// directory. A successful lookup returns the address under "recipient" so
// the orchestrator can flow it into a pending email task in the same turn.
type ContactDirectory struct {
	contacts map[string]string // lowercased name -> email
}

func NewContactDirectory(contacts map[string]string) *ContactDirectory {
	d := &ContactDirectory{contacts: make(map[string]string, len(contacts))}
	for name, email := range contacts {
		d.contacts[strings.ToLower(name)] = email
	}
	return d
}

func (d *ContactDirectory) Invoke(ctx context.Context, fields map[string]string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(fields["contact_name"])
	email, ok := d.contacts[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("no contact named %q", name)
	}

	return map[string]string{
		"contact_email": email,
		"recipient":     email,
		"summary":       fmt.Sprintf("Found %s: %s", name, email),
	}, nil
}
