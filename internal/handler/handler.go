// Package handler contains the built-in task services sitting behind the
// executor's Invoke contract. They simulate their providers: outputs are
// deterministic given the input fields, which keeps turns replayable and
// the orchestration layer testable without network access.
package handler

// Credentials carries provider secrets resolved from the vault at startup.
// Handlers receive them explicitly at construction; there is no process-wide
// credential state.
type Credentials map[string]string

func (c Credentials) Get(name string) string {
	if c == nil {
		return ""
	}
	return c[name]
}
