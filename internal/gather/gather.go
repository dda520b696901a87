// Package gather turns one free-form user message into intents and entities.
// It is the deterministic stand-in at the input boundary: a rule-based
// extractor with the same output contract a smarter front end would have.
package gather

import (
	"regexp"
	"sort"
	"strings"

	"github.com/nlamprou/marvin/internal/taskspec"
)

type Parsed struct {
	Intents  []string
	Entities map[string]string
	Stop     bool
}

var (
	markerRe = regexp.MustCompile(`(?i)\b(recipient|subject|body|cc|signature|date|time|participants|location|duration|platform|query|content_topic|topic|tone|format|length|contact_name|organization|role)\s*[:=]\s*`)
	emailRe  = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	timeRe   = regexp.MustCompile(`\b\d{1,2}(:\d{2})?\s*(am|pm)\b|\b\d{1,2}:\d{2}\b`)
	quoteRe  = regexp.MustCompile(`"([^"]+)"`)
	afterEmailRe = regexp.MustCompile(`(?i)\bemail\s+([A-Za-z]+)\b`)
	withRe       = regexp.MustCompile(`(?i)\bwith\s+([A-Za-z][A-Za-z ,]*?)(?:\s+(?:tomorrow|today|at|on|and)\b|[.!?]|$)`)
	aboutRe      = regexp.MustCompile(`(?i)\babout\s+(.+?)(?:\s+and\s+|[.!?]|$)`)
	searchRe     = regexp.MustCompile(`(?i)\b(?:search(?:\s+the\s+web)?(?:\s+for)?|look\s+up)\s+(.+?)(?:\s+and\s+|[.!?]|$)`)
)

// Words that can follow "email" without being a contact name.
var nameStopwords = map[string]bool{
	"to": true, "a": true, "an": true, "the": true, "about": true,
	"and": true, "me": true, "my": true, "him": true, "her": true, "them": true,
}

var stopPhrases = []string{"stop", "cancel", "never mind", "nevermind", "forget it"}

// Parse extracts intents and entities from one raw input. The same input
// always yields the same result.
func Parse(input string) Parsed {
	text := strings.TrimSpace(input)
	lower := strings.ToLower(text)

	p := Parsed{Entities: make(map[string]string)}

	for _, phrase := range stopPhrases {
		if lower == phrase {
			p.Stop = true
			return p
		}
	}

	parsePairs(text, p.Entities)

	hasEmail := containsAny(lower, "email", "e-mail")
	if hasEmail {
		p.Intents = append(p.Intents, taskspec.TaskSendEmail)
	}
	if containsAny(lower, "schedule", "meeting", "appointment", "calendar") {
		p.Intents = append(p.Intents, taskspec.TaskScheduleMeeting)
	}
	if containsAny(lower, "search", "look up", "google") {
		p.Intents = append(p.Intents, taskspec.TaskSearchWeb)
	}
	if containsAny(lower, "blog", "article", "create content") || (containsAny(lower, "write", "draft") && !hasEmail) {
		p.Intents = append(p.Intents, taskspec.TaskCreateContent)
	}
	if strings.Contains(lower, "contact") {
		p.Intents = append(p.Intents, taskspec.TaskFindContact)
	}

	if addr := emailRe.FindString(text); addr != "" {
		setDefault(p.Entities, "recipient", addr)
	}

	// "email Bob" with a bare name means the address has to come from the
	// contact directory, so the contact task joins the turn.
	if hasEmail && p.Entities["recipient"] == "" {
		if m := afterEmailRe.FindStringSubmatch(text); m != nil {
			name := m[1]
			if !nameStopwords[strings.ToLower(name)] {
				setDefault(p.Entities, "contact_name", name)
				if !contains(p.Intents, taskspec.TaskFindContact) {
					p.Intents = append(p.Intents, taskspec.TaskFindContact)
				}
			}
		}
	}

	if contains(p.Intents, taskspec.TaskScheduleMeeting) {
		if m := withRe.FindStringSubmatch(text); m != nil {
			setDefault(p.Entities, "participants", strings.TrimSpace(m[1]))
		}
	}

	if m := aboutRe.FindStringSubmatch(text); m != nil {
		topic := strings.TrimSpace(m[1])
		switch {
		case hasEmail:
			setDefault(p.Entities, "subject", topic)
		case contains(p.Intents, taskspec.TaskCreateContent):
			setDefault(p.Entities, "content_topic", topic)
		case contains(p.Intents, taskspec.TaskSearchWeb):
			setDefault(p.Entities, "query", topic)
		}
	}

	if contains(p.Intents, taskspec.TaskSearchWeb) {
		if m := searchRe.FindStringSubmatch(text); m != nil {
			setDefault(p.Entities, "query", strings.TrimSpace(m[1]))
		}
	}

	if m := quoteRe.FindStringSubmatch(text); m != nil {
		switch {
		case hasEmail:
			setDefault(p.Entities, "subject", m[1])
		case contains(p.Intents, taskspec.TaskSearchWeb):
			setDefault(p.Entities, "query", m[1])
		case contains(p.Intents, taskspec.TaskCreateContent):
			setDefault(p.Entities, "content_topic", m[1])
		}
	}

	for _, day := range []string{"tomorrow", "today", "tonight", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"} {
		if strings.Contains(lower, day) {
			setDefault(p.Entities, "date", day)
			break
		}
	}
	if m := timeRe.FindString(lower); m != "" {
		setDefault(p.Entities, "time", strings.TrimSpace(m))
	}

	return p
}

// parsePairs extracts explicit "field: value" markers. A value runs until
// the next marker or the end of input.
func parsePairs(text string, entities map[string]string) {
	locs := markerRe.FindAllStringSubmatchIndex(text, -1)
	for i, loc := range locs {
		name := strings.ToLower(text[loc[2]:loc[3]])
		if name == "topic" {
			name = "content_topic"
		}
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		value := strings.TrimSpace(text[loc[1]:end])
		value = strings.TrimRight(value, ",;")
		if value != "" {
			entities[name] = strings.TrimSpace(value)
		}
	}
}

func setDefault(m map[string]string, key, value string) {
	if _, ok := m[key]; !ok {
		m[key] = value
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// EntityKeys returns the sorted entity names, used by logging.
func (p Parsed) EntityKeys() []string {
	keys := make([]string, 0, len(p.Entities))
	for k := range p.Entities {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
