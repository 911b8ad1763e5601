package model

// Model identifiers
const (
	ModelDefault  = "default"
	ModelHaiku35  = "claude-3-5-haiku"
	ModelSonnet35 = "claude-3-5-sonnet"
	ModelSonnet4  = "claude-sonnet-4-20250514"
	ModelOpus4    = "claude-opus-4-20250514"
	ModelOpus41   = "claude-opus-4-1-20250805"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Streaming event types
const (
	EventMessageStart = "message_start"
	EventMessageDelta = "message_delta"
)
