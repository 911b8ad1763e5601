package model

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// CompletionRequest is the outbound body of a completion API call.
// Only the fields relevant for accounting are decoded; everything else
// passes through untouched on the wire.
type CompletionRequest struct {
	Model    string           `json:"model"`
	Stream   bool             `json:"stream"`
	System   string           `json:"system,omitempty"`
	Metadata *RequestMetadata `json:"metadata,omitempty"`
	Messages []RequestMessage `json:"messages"`
}

type RequestMetadata struct {
	UserId string `json:"user_id,omitempty"`
}

type RequestMessage struct {
	Role    string          `json:"role"`
	Content FlexibleContent `json:"content"`
}

// FlexibleContent accepts both the plain-string and the typed-block
// form of message content.
type FlexibleContent []ContentItem

func (fc *FlexibleContent) UnmarshalJSON(data []byte) error {
	// First try to parse as []ContentItem array
	var items []ContentItem
	if err := sonic.Unmarshal(data, &items); err == nil {
		*fc = items
		return nil
	}

	// If array parsing fails, try to parse as string
	var str string
	if err := sonic.Unmarshal(data, &str); err == nil {
		*fc = []ContentItem{{Type: "text", Text: str}}
		return nil
	}

	return fmt.Errorf("content must be either string or array of ContentItem")
}

// Text returns the concatenated text of all text-typed blocks.
func (fc FlexibleContent) Text() string {
	var sb strings.Builder
	for _, item := range fc {
		if item.Type == "text" {
			sb.WriteString(item.Text)
		}
	}
	return sb.String()
}

type ContentItem struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// FirstUserText returns the text of the first user-role message, or ""
// when the request has no user message.
func (r *CompletionRequest) FirstUserText() string {
	if r == nil {
		return ""
	}
	for _, msg := range r.Messages {
		if msg.Role == RoleUser {
			return msg.Content.Text()
		}
	}
	return ""
}

// Usage holds the token counters reported by the API.
type Usage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
}

// IsZero reports whether the call resolved no billable work. Cache
// counters alone do not count: a call that produced neither input nor
// output tokens is never recorded.
func (u Usage) IsZero() bool {
	return u.InputTokens == 0 && u.OutputTokens == 0
}

// CompletionResponse is the buffered, non-streaming response body.
type CompletionResponse struct {
	Model string `json:"model"`
	Usage Usage  `json:"usage"`
}

// StreamEvent is one decoded event of a streaming response. The two
// recognized types are "message_start" (initial counters nested under
// message.usage) and "message_delta" (cumulative output tokens nested
// under usage).
type StreamEvent struct {
	Type    string         `json:"type"`
	Message *StreamMessage `json:"message,omitempty"`
	Usage   *StreamUsage   `json:"usage,omitempty"`
}

type StreamMessage struct {
	Model string `json:"model,omitempty"`
	Usage Usage  `json:"usage"`
}

type StreamUsage struct {
	OutputTokens int `json:"output_tokens"`
}
