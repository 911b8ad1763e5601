package classify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/penwyp/go-claude-spend/internal/core/model"
)

func userMessage(text string) model.RequestMessage {
	return model.RequestMessage{
		Role:    model.RoleUser,
		Content: model.FlexibleContent{{Type: "text", Text: text}},
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		req      *model.CompletionRequest
		expected string
	}{
		{
			name: "explicit identifier wins",
			req: &model.CompletionRequest{
				Metadata: &model.RequestMetadata{UserId: "user_abc_session_123"},
				Messages: []model.RequestMessage{userMessage("[gmail-digest] summarize inbox")},
			},
			expected: "user_abc_session_123",
		},
		{
			name: "bracketed prefix extracts job name",
			req: &model.CompletionRequest{
				Messages: []model.RequestMessage{userMessage("[gmail-digest] summarize my inbox")},
			},
			expected: "gmail-digest",
		},
		{
			name: "bracketed prefix trims inner whitespace",
			req: &model.CompletionRequest{
				Messages: []model.RequestMessage{userMessage("[ news-roundup ] what happened today")},
			},
			expected: "news-roundup",
		},
		{
			name: "compaction marker",
			req: &model.CompletionRequest{
				Messages: []model.RequestMessage{userMessage(
					"Your task is to create a detailed summary of the conversation so far.")},
			},
			expected: ContextCompaction,
		},
		{
			name: "free text falls back to bounded prefix",
			req: &model.CompletionRequest{
				Messages: []model.RequestMessage{userMessage("what is the weather like in Berlin")},
			},
			expected: "what is the weather like in Berlin",
		},
		{
			name: "long free text is truncated",
			req: &model.CompletionRequest{
				Messages: []model.RequestMessage{userMessage(strings.Repeat("a", 200))},
			},
			expected: strings.Repeat("a", 60),
		},
		{
			name: "system prompt label when no user message",
			req: &model.CompletionRequest{
				System: "You are a scheduling assistant",
				Messages: []model.RequestMessage{{
					Role:    model.RoleAssistant,
					Content: model.FlexibleContent{{Type: "text", Text: "ok"}},
				}},
			},
			expected: "system:You are a scheduling assistant",
		},
		{
			name:     "empty request is unknown",
			req:      &model.CompletionRequest{},
			expected: ContextUnknown,
		},
		{
			name:     "nil request is unknown",
			req:      nil,
			expected: ContextUnknown,
		},
		{
			name: "empty brackets fall through to prefix",
			req: &model.CompletionRequest{
				Messages: []model.RequestMessage{userMessage("[] nothing in here")},
			},
			expected: "[] nothing in here",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.req))
		})
	}
}

func TestClassifyPrecedenceIsDeterministic(t *testing.T) {
	// A body carrying an explicit id, a bracketed prefix and the
	// compaction marker must always resolve to the explicit id.
	req := &model.CompletionRequest{
		Metadata: &model.RequestMetadata{UserId: "explicit-id"},
		Messages: []model.RequestMessage{userMessage(
			"[cron-job] Your task is to create a detailed summary of the conversation")},
	}
	for i := 0; i < 10; i++ {
		assert.Equal(t, "explicit-id", Classify(req))
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"compaction label", "compaction", ContextCompaction},
		{"compact substring", "auto-compact cycle", ContextCompaction},
		{"gmail job", "gmail-digest", "gmail-digest"},
		{"email prose prefix", "summarize my Email from today", "gmail-digest"},
		{"calendar job", "check my Calendar for tomorrow", "calendar-brief"},
		{"news prose", "latest news roundup", "news-digest"},
		{"session user id", "user_abc_account__session_def", ContextSession},
		{"session prefix", "session-20260401", ContextSession},
		{"unmatched label passes through", "what is the capital of France", "what is the capital of France"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.raw))
		})
	}
}

func TestIsSummarizationContext(t *testing.T) {
	assert.True(t, IsSummarizationContext(ContextCompaction))
	assert.True(t, IsSummarizationContext("gmail-digest"))
	assert.False(t, IsSummarizationContext(ContextSession))
	assert.False(t, IsSummarizationContext("unknown"))
}
