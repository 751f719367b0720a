package lorem

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmstream "github.com/haslund/llmstream-go"
	"github.com/haslund/llmstream-go/providers/ollama"
)

// TestChunks_OllamaDialectShape: every chunk is a standalone JSON line and the
// final one carries done:true with token counts.
func TestChunks_OllamaDialectShape(t *testing.T) {
	src := NewSource(DialectOllama, "llama3.2:3b")
	chunks := src.Chunks(2)
	require.NotEmpty(t, chunks)

	for _, c := range chunks {
		assert.True(t, strings.HasPrefix(c, "{"), "chunk %q", c)
	}
	assert.Contains(t, chunks[len(chunks)-1], `"done":true`)
	assert.Contains(t, chunks[len(chunks)-1], "prompt_eval_count")
}

// TestChunks_OpenAIDialectShape: SSE frames end with a finish chunk and the
// [DONE] sentinel.
func TestChunks_OpenAIDialectShape(t *testing.T) {
	src := NewSource(DialectOpenAI, "gemma-2-9b-it")
	chunks := src.Chunks(2)
	require.Greater(t, len(chunks), 2)

	for _, c := range chunks {
		assert.True(t, strings.HasPrefix(c, "data: "), "chunk %q", c)
	}
	assert.Equal(t, "data: [DONE]", chunks[len(chunks)-1])
	assert.Contains(t, chunks[len(chunks)-2], "finish_reason")
}

// TestChunks_RoundTripThroughOllamaAdapter: a generated reasoning turn decodes
// back into one clean thinking span, the original text, usage and completion.
func TestChunks_RoundTripThroughOllamaAdapter(t *testing.T) {
	src := NewSource(DialectOllama, "deepseek-r1:7b", WithThinking(), WithFragmentLen(2))
	adapter := ollama.New("deepseek-r1:7b")

	var events []llmstream.Event
	for _, chunk := range src.Chunks(3) {
		evs, err := adapter.Adapt(chunk)
		require.NoError(t, err)
		events = append(events, evs...)
	}
	require.NotEmpty(t, events)

	var thinking, text strings.Builder
	var starts, ends int
	for _, ev := range events {
		switch ev.Kind {
		case llmstream.EventThinkingStart:
			starts++
		case llmstream.EventThinkingEnd:
			ends++
		case llmstream.EventThinkingDelta:
			thinking.WriteString(ev.Content)
		case llmstream.EventTextDelta:
			text.WriteString(ev.Content)
		}
	}

	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, ends)
	assert.NotEmpty(t, thinking.String())
	assert.NotEmpty(t, text.String())
	assert.NotContains(t, text.String(), "<think>")
	assert.NotContains(t, text.String(), "</think>")

	last := events[len(events)-1]
	require.Equal(t, llmstream.EventComplete, last.Kind)
	assert.Equal(t, "stop", *last.StopReason)
}

// TestChunks_FragmentLenSlicesContent: single-byte fragments still carry the
// whole turn.
func TestChunks_FragmentLenSlicesContent(t *testing.T) {
	src := NewSource(DialectOllama, "llama3.2:3b", WithFragmentLen(1))
	adapter := ollama.New("llama3.2:3b")

	var text strings.Builder
	for _, chunk := range src.Chunks(1) {
		evs, err := adapter.Adapt(chunk)
		require.NoError(t, err)
		for _, ev := range evs {
			if ev.Kind == llmstream.EventTextDelta {
				text.WriteString(ev.Content)
			}
		}
	}
	assert.NotEmpty(t, text.String())
	assert.Greater(t, len(text.String()), 10)
}

// TestStream_DeliversAllChunksAndCloses drains the channel form.
func TestStream_DeliversAllChunksAndCloses(t *testing.T) {
	src := NewSource(DialectOllama, "llama3.2:3b")
	want := len(src.Chunks(1))

	var got int
	for range src.Stream(context.Background(), 1, time.Microsecond) {
		got++
	}
	// Sentence generation is random, so compare loosely: both runs end with
	// exactly one finish chunk and at least one content chunk.
	assert.GreaterOrEqual(t, got, 2)
	assert.GreaterOrEqual(t, want, 2)
}

// TestStream_CancelStopsEarly: cancellation closes the channel without
// delivering the full turn.
func TestStream_CancelStopsEarly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	src := NewSource(DialectOllama, "llama3.2:3b", WithFragmentLen(1))
	ch := src.Stream(ctx, 5, time.Millisecond)

	<-ch
	cancel()

	var rest int
	for range ch {
		rest++
	}
	total := len(src.Chunks(5))
	assert.Less(t, rest, total)
}
