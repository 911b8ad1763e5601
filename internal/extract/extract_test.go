package extract

import (
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-claude-spend/internal/core/model"
)

const sampleStream = `event: message_start
data: {"type":"message_start","message":{"model":"claude-sonnet-4-20250514","usage":{"input_tokens":120,"output_tokens":1,"cache_read_input_tokens":400,"cache_creation_input_tokens":50}}}

event: content_block_delta
data: {"type":"content_block_delta","delta":{"type":"text_delta","text":"Hello"}}

event: message_delta
data: {"type":"message_delta","usage":{"output_tokens":25}}

event: message_delta
data: {"type":"message_delta","usage":{"output_tokens":87}}

event: message_stop
data: {"type":"message_stop"}
`

func TestFromStream(t *testing.T) {
	modelName, usage, err := FromStream(strings.NewReader(sampleStream))
	require.NoError(t, err)

	assert.Equal(t, "claude-sonnet-4-20250514", modelName)
	assert.Equal(t, 120, usage.InputTokens)
	assert.Equal(t, 87, usage.OutputTokens)
	assert.Equal(t, 400, usage.CacheReadInputTokens)
	assert.Equal(t, 50, usage.CacheCreationInputTokens)
}

func TestFromStreamChunkBoundaryIndependence(t *testing.T) {
	// The same reassembled text must resolve identical counts no
	// matter how the transport chunked it.
	readers := map[string]io.Reader{
		"whole":       strings.NewReader(sampleStream),
		"byte-wise":   iotest.OneByteReader(strings.NewReader(sampleStream)),
		"half-split":  io.MultiReader(strings.NewReader(sampleStream[:97]), strings.NewReader(sampleStream[97:])),
		"third-split": io.MultiReader(strings.NewReader(sampleStream[:31]), strings.NewReader(sampleStream[31:32]), strings.NewReader(sampleStream[32:])),
	}

	for name, r := range readers {
		t.Run(name, func(t *testing.T) {
			modelName, usage, err := FromStream(r)
			require.NoError(t, err)
			assert.Equal(t, "claude-sonnet-4-20250514", modelName)
			assert.Equal(t, model.Usage{
				InputTokens:              120,
				OutputTokens:             87,
				CacheReadInputTokens:     400,
				CacheCreationInputTokens: 50,
			}, usage)
		})
	}
}

func TestFromStreamSkipsMalformedEvents(t *testing.T) {
	stream := `data: {"type":"message_start","message":{"usage":{"input_tokens":10}}}
data: not json at all
data: {"type":"unrecognized_event","usage":{"output_tokens":999}}
garbage line without prefix
data: {"type":"message_delta","usage":{"output_tokens":7}}
`
	_, usage, err := FromStream(strings.NewReader(stream))
	require.NoError(t, err)
	assert.Equal(t, 10, usage.InputTokens)
	assert.Equal(t, 7, usage.OutputTokens)
}

func TestFromStreamEmptyBody(t *testing.T) {
	_, usage, err := FromStream(strings.NewReader(""))
	require.NoError(t, err)
	assert.True(t, usage.IsZero())
}

func TestFromStreamReadError(t *testing.T) {
	partial := "data: {\"type\":\"message_start\",\"message\":{\"usage\":{\"input_tokens\":5,\"output_tokens\":2}}}\n"
	r := io.MultiReader(strings.NewReader(partial), iotest.ErrReader(io.ErrUnexpectedEOF))

	_, usage, err := FromStream(r)
	assert.Error(t, err)
	// Usage resolved before the failure is preserved.
	assert.Equal(t, 5, usage.InputTokens)
}

func TestFromResponse(t *testing.T) {
	body := `{"model":"claude-3-5-haiku","usage":{"input_tokens":11,"output_tokens":22,"cache_read_input_tokens":33,"cache_creation_input_tokens":44}}`

	modelName, usage, err := FromResponse([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, "claude-3-5-haiku", modelName)
	assert.Equal(t, model.Usage{
		InputTokens:              11,
		OutputTokens:             22,
		CacheReadInputTokens:     33,
		CacheCreationInputTokens: 44,
	}, usage)
}

func TestFromResponseMalformed(t *testing.T) {
	_, _, err := FromResponse([]byte("{broken"))
	assert.Error(t, err)
}
