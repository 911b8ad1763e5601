// Package classify attributes a completion call to its logical
// originator. Classification is an ordered rule table evaluated over
// the outgoing request body; the first matching rule wins.
package classify

import (
	"strings"

	"github.com/penwyp/go-claude-spend/internal/core/model"
)

const (
	// ContextUnknown is the terminal fallback label.
	ContextUnknown = "unknown"

	// ContextCompaction labels conversation-compaction calls.
	ContextCompaction = "compaction"

	// compactionMarker opens the summarization prompt that compaction
	// cycles send as their first user message.
	compactionMarker = "Your task is to create a detailed summary of the conversation"

	// fallbackPrefixLen bounds the free-text labels derived from
	// message prefixes.
	fallbackPrefixLen = 60
)

// rule is one step of the classification cascade.
type rule struct {
	name  string
	apply func(req *model.CompletionRequest) (string, bool)
}

// rules is a fixed precedence, not a scored match.
var rules = []rule{
	{"explicit-id", matchExplicitId},
	{"bracketed-prefix", matchBracketedPrefix},
	{"compaction-marker", matchCompactionMarker},
	{"user-prefix", matchUserPrefix},
	{"system-prefix", matchSystemPrefix},
}

// Classify derives a stable context label from the request body. It
// never fails: a nil or unparseable request classifies as unknown.
func Classify(req *model.CompletionRequest) string {
	if req == nil {
		return ContextUnknown
	}
	for _, r := range rules {
		if label, ok := r.apply(req); ok {
			return label
		}
	}
	return ContextUnknown
}

// matchExplicitId uses a caller-supplied identifier when present.
func matchExplicitId(req *model.CompletionRequest) (string, bool) {
	if req.Metadata != nil && req.Metadata.UserId != "" {
		return req.Metadata.UserId, true
	}
	return "", false
}

// matchBracketedPrefix recognizes "[job-name] ..." prefixes that the
// scheduler embeds in the first user message.
func matchBracketedPrefix(req *model.CompletionRequest) (string, bool) {
	text := strings.TrimSpace(req.FirstUserText())
	if !strings.HasPrefix(text, "[") {
		return "", false
	}
	end := strings.Index(text, "]")
	if end <= 1 {
		return "", false
	}
	name := strings.TrimSpace(text[1:end])
	if name == "" {
		return "", false
	}
	return name, true
}

func matchCompactionMarker(req *model.CompletionRequest) (string, bool) {
	text := req.FirstUserText()
	if strings.Contains(text, compactionMarker) {
		return ContextCompaction, true
	}
	return "", false
}

// matchUserPrefix falls back to a bounded excerpt of the first user
// message.
func matchUserPrefix(req *model.CompletionRequest) (string, bool) {
	text := strings.TrimSpace(req.FirstUserText())
	if text == "" {
		return "", false
	}
	return prefixLabel(text), true
}

// matchSystemPrefix applies when the request has no user message at all.
func matchSystemPrefix(req *model.CompletionRequest) (string, bool) {
	text := strings.TrimSpace(req.System)
	if text == "" {
		return "", false
	}
	return "system:" + prefixLabel(text), true
}

func prefixLabel(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) > fallbackPrefixLen {
		return string(runes[:fallbackPrefixLen])
	}
	return text
}
