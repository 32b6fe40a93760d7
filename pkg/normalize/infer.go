package normalize

import (
	"log/slog"
	"strings"

	"github.com/shelftalk/shelftalk/pkg/toolcall"
)

const utteranceEventType = "conversation.utterance"

// Keyword tables for the speech fallback. Checked in order; the first hit
// wins. Deliberately small: this path only papers over the agent failing
// to emit a real tool call, and a miss is better than a wrong filter.
var subjectRules = []struct {
	keyword string
	subject string
}{
	{"science", "SCIENCE"},
	{"math", "MATH"},
	{"history", "HISTORY"},
	{"adventure", "ADVENTURE"},
	{"fantasy", "FANTASY"},
}

var searchRules = []struct {
	keyword string
	term    string
}{
	{"animal", "animal"},
	{"dinosaur", "dinosaur"},
	{"dragon", "dragon"},
	{"space", "space"},
	{"clifford", "Clifford"},
	{"madeline", "Madeline"},
}

// inferFromUtterance synthesizes a tool call from a user-utterance event
// by keyword scan. Best-effort: it may misfire and is never treated as
// authoritative; the resulting call is marked Inferred.
func inferFromUtterance(m map[string]any) (*toolcall.Call, bool) {
	tag, ok := m["event_type"].(string)
	if !ok || tag != utteranceEventType {
		return nil, false
	}
	props, ok := m["properties"].(map[string]any)
	if !ok {
		return nil, false
	}
	if role, ok := props["role"].(string); ok && role != "" && role != "user" {
		return nil, false
	}
	speech, ok := props["speech"].(string)
	if !ok || speech == "" {
		return nil, false
	}

	lower := strings.ToLower(speech)
	for _, rule := range subjectRules {
		if strings.Contains(lower, rule.keyword) {
			slog.Debug("Inferred subject filter from speech", "keyword", rule.keyword, "subject", rule.subject)
			call := toolcall.New("filter_books_by_subject", "subject", rule.subject)
			call.Inferred = true
			return call, true
		}
	}
	for _, rule := range searchRules {
		if strings.Contains(lower, rule.keyword) {
			slog.Debug("Inferred search from speech", "keyword", rule.keyword, "term", rule.term)
			call := toolcall.New("search_books", "search_term", rule.term)
			call.Inferred = true
			return call, true
		}
	}
	return nil, false
}
