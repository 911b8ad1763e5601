package classify

import "strings"

// ContextSession buckets interactive-session labels that match no
// canonical pattern.
const ContextSession = "session"

// canonicalPattern maps a raw-label substring onto a canonical,
// human-friendly context name. The list is ordered; the first match
// wins.
type canonicalPattern struct {
	substr    string
	canonical string
}

var canonicalPatterns = []canonicalPattern{
	{"compact", ContextCompaction},
	{"summary of the conversation", ContextCompaction},
	{"gmail", "gmail-digest"},
	{"email", "gmail-digest"},
	{"calendar", "calendar-brief"},
	{"news", "news-digest"},
	{"weather", "morning-brief"},
	{"standup", "standup-notes"},
	{"todo", "task-triage"},
	{"reminder", "task-triage"},
	{"usage report", "usage-report"},
}

// sessionMarkers identify raw labels minted from interactive-session
// identifiers (metadata user ids carry these shapes).
var sessionMarkers = []string{"user_", "session_", "session-"}

// Normalize maps a raw classifier label onto the small canonical set
// used at aggregation time. Matching is case-insensitive substring,
// first pattern wins; session-marked labels that match nothing fold
// into the generic session bucket; anything else passes through.
func Normalize(raw string) string {
	lower := strings.ToLower(raw)
	for _, p := range canonicalPatterns {
		if strings.Contains(lower, p.substr) {
			return p.canonical
		}
	}
	for _, marker := range sessionMarkers {
		if strings.HasPrefix(lower, marker) {
			return ContextSession
		}
	}
	return raw
}

// SummarizationContexts lists the canonical names for tasks that are
// summarization-shaped and should run on an economy model.
var SummarizationContexts = []string{
	ContextCompaction,
	"gmail-digest",
	"news-digest",
	"calendar-brief",
	"standup-notes",
}

// IsSummarizationContext reports whether a canonical name belongs to
// the summarization class.
func IsSummarizationContext(canonical string) bool {
	for _, name := range SummarizationContexts {
		if canonical == name {
			return true
		}
	}
	return false
}
