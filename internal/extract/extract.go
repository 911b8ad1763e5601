// Package extract recovers token usage from completion API response
// bodies, both buffered and incrementally streamed.
package extract

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-claude-spend/internal/core/model"
)

// dataPrefix is the framing prefix of every payload-carrying event line.
const dataPrefix = "data: "

// FromResponse decodes a buffered, non-streaming response body and
// returns the reported model and usage counters.
func FromResponse(body []byte) (string, model.Usage, error) {
	var resp model.CompletionResponse
	if err := sonic.Unmarshal(body, &resp); err != nil {
		return "", model.Usage{}, fmt.Errorf("failed to parse response body: %w", err)
	}
	return resp.Model, resp.Usage, nil
}

// FromStream consumes an event-stream body to completion and returns
// the final usage counters. A message_start event seeds the counters;
// each message_delta overwrites the output counter with a newer
// cumulative value. Malformed or unrecognized events are skipped.
//
// Framing operates on reassembled lines, so the result is independent
// of how the transport chunked the body.
func FromStream(r io.Reader) (string, model.Usage, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	var usage model.Usage
	var modelName string

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || !strings.HasPrefix(line, dataPrefix) {
			continue
		}

		var event model.StreamEvent
		if err := sonic.UnmarshalString(strings.TrimPrefix(line, dataPrefix), &event); err != nil {
			// Best-effort parsing: skip what we cannot decode.
			continue
		}

		switch event.Type {
		case model.EventMessageStart:
			if event.Message != nil {
				modelName = event.Message.Model
				usage = event.Message.Usage
			}
		case model.EventMessageDelta:
			if event.Usage != nil {
				usage.OutputTokens = event.Usage.OutputTokens
			}
		}
	}

	if err := scanner.Err(); err != nil {
		// Usage accumulated before the failure still counts; partial
		// streams resolve whatever the events delivered.
		return modelName, usage, fmt.Errorf("stream read error: %w", err)
	}
	return modelName, usage, nil
}
