package model

// CallRecord is the normalized, persisted representation of one
// accounted call. Written at most once per completed call and never
// mutated afterwards; the only deletion path is whole-file rotation.
type CallRecord struct {
	Timestamp        int64   `json:"timestamp"`
	Model            string  `json:"model"`
	Context          string  `json:"context"`
	Preview          string  `json:"preview"`
	InputTokens      int     `json:"input_tokens"`
	OutputTokens     int     `json:"output_tokens"`
	CacheReadTokens  int     `json:"cache_read_tokens"`
	CacheWriteTokens int     `json:"cache_write_tokens"`
	Cost             float64 `json:"cost"`
	LatencyMs        int64   `json:"latency_ms"`
	Stream           bool    `json:"stream"`
}

// TotalTokens returns the sum of all four token counters.
func (r CallRecord) TotalTokens() int {
	return r.InputTokens + r.OutputTokens + r.CacheReadTokens + r.CacheWriteTokens
}
