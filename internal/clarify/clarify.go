// Package clarify merges the missing-field requests of every incomplete
// task into one user-facing question, and parses the reply back into entity
// updates.
package clarify

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Request maps task id -> missing field -> human-readable reason. It lives
// only for the duration of one clarification round.
type Request map[string]map[string]string

// fieldEntry is one line of the consolidated prompt.
type fieldEntry struct {
	name   string
	reason string
	tasks  []string
}

// collect flattens a request into distinct fields, ordered by the given
// task order and alphabetically within a task. A field requested by several
// tasks appears once, attributed to all of them.
func collect(order []string, req Request) []fieldEntry {
	var entries []fieldEntry
	index := make(map[string]int)

	for _, taskID := range order {
		missing, ok := req[taskID]
		if !ok {
			continue
		}
		names := make([]string, 0, len(missing))
		for name := range missing {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			if i, seen := index[name]; seen {
				entries[i].tasks = append(entries[i].tasks, taskID)
				continue
			}
			index[name] = len(entries)
			entries = append(entries, fieldEntry{
				name:   name,
				reason: missing[name],
				tasks:  []string{taskID},
			})
		}
	}
	return entries
}

// Consolidate renders one prompt covering every outstanding field. The same
// request always renders the same prompt.
func Consolidate(order []string, req Request) string {
	entries := collect(order, req)
	if len(entries) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("I need a bit more information:\n")
	for _, e := range entries {
		if len(e.tasks) > 1 {
			fmt.Fprintf(&sb, "- %s (for %s): %s\n", e.name, strings.Join(e.tasks, ", "), e.reason)
		} else {
			fmt.Fprintf(&sb, "- %s: %s\n", e.name, e.reason)
		}
	}
	sb.WriteString("\nReply with `field: value` pairs, or `task.field: value` to answer for one task only.")
	return sb.String()
}

// ApplyReply extracts field values from the user's reply. Only fields the
// request actually asked for are accepted; a field the parse cannot
// confidently resolve is simply absent from the result and stays missing
// for the next cycle. A bare field name answers every task that requested
// it; the `task.field` form answers exactly one.
func ApplyReply(reply string, req Request) map[string]string {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil
	}

	accepted := acceptedNames(req)
	if len(accepted) == 0 {
		return nil
	}

	re := markerPattern(accepted)
	locs := re.FindAllStringSubmatchIndex(reply, -1)

	resolved := make(map[string]string)
	for i, loc := range locs {
		name := strings.ToLower(reply[loc[2]:loc[3]])
		end := len(reply)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		value := strings.TrimSpace(reply[loc[1]:end])
		value = strings.TrimRight(value, ",;")
		value = strings.TrimSpace(value)
		if value != "" {
			resolved[name] = value
		}
	}
	if len(resolved) > 0 {
		return resolved
	}

	// Shorthand: when exactly one field is outstanding, a marker-free reply
	// is that field's value.
	distinct := make(map[string]bool)
	for _, missing := range req {
		for name := range missing {
			distinct[name] = true
		}
	}
	if len(distinct) == 1 {
		for name := range distinct {
			return map[string]string{name: reply}
		}
	}

	return nil
}

// acceptedNames lists every answer key the reply may use: each missing
// field both bare and namespaced by its task.
func acceptedNames(req Request) []string {
	seen := make(map[string]bool)
	for taskID, missing := range req {
		for name := range missing {
			seen[name] = true
			seen[taskID+"."+name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	// Longest first so "send_email.subject" wins over "subject" at the same
	// position.
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return names
}

func markerPattern(names []string) *regexp.Regexp {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = regexp.QuoteMeta(n)
	}
	return regexp.MustCompile(`(?i)(?:^|\b)(` + strings.Join(quoted, "|") + `)\s*[:=]\s*`)
}
