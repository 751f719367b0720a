package llmstream_test

import (
	"context"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmstream "github.com/haslund/llmstream-go"
	"github.com/haslund/llmstream-go/providers/lorem"
	"github.com/haslund/llmstream-go/providers/ollama"
)

func collectEvents(t *testing.T, s *llmstream.Session, transport string) []llmstream.Event {
	t.Helper()

	done := make(chan error, 1)
	go func() {
		done <- s.Run(context.Background(), strings.NewReader(transport))
	}()

	var events []llmstream.Event
	for ev := range s.Events() {
		events = append(events, ev)
	}
	require.NoError(t, <-done)
	return events
}

// TestSession_RunLoremTurn drives a full synthetic reasoning turn through the
// session and checks the decoded event shape end to end.
func TestSession_RunLoremTurn(t *testing.T) {
	src := lorem.NewSource(lorem.DialectOllama, "deepseek-r1:7b",
		lorem.WithThinking(), lorem.WithFragmentLen(3))
	transport := strings.Join(src.Chunks(4), "\n") + "\n"

	s := llmstream.NewSession(ollama.New("deepseek-r1:7b"))
	events := collectEvents(t, s, transport)
	require.NotEmpty(t, events)

	// The turn must open with a thinking span and close with usage + complete.
	assert.Equal(t, llmstream.EventThinkingStart, events[0].Kind)
	last := events[len(events)-1]
	require.Equal(t, llmstream.EventComplete, last.Kind)
	assert.Equal(t, "stop", *last.StopReason)
	assert.Equal(t, llmstream.EventUsage, events[len(events)-2].Kind)

	// Exactly one thinking span, fully ordered: start, deltas, end, then text.
	var sawEnd bool
	var thinking, text strings.Builder
	for _, ev := range events {
		switch ev.Kind {
		case llmstream.EventThinkingDelta:
			assert.False(t, sawEnd, "thinking delta after span closed")
			thinking.WriteString(ev.Content)
		case llmstream.EventThinkingEnd:
			sawEnd = true
		case llmstream.EventTextDelta:
			assert.True(t, sawEnd, "answer text before thinking span closed")
			text.WriteString(ev.Content)
		}
	}
	assert.True(t, sawEnd)
	assert.NotEmpty(t, thinking.String())
	assert.NotEmpty(t, text.String())
	assert.NotContains(t, text.String(), "<think>")
	assert.NotContains(t, thinking.String(), "</think>")

	// The registry tracked the span through to finalization.
	blocks := s.Registry().Blocks()
	require.Len(t, blocks, 1)
	assert.True(t, blocks[0].IsComplete)
	assert.Equal(t, thinking.String(), blocks[0].Content)

	assert.True(t, s.Idle())
}

// TestSession_NonReasoningPassthrough verifies that markers are left alone for
// models outside the reasoning heuristic.
func TestSession_NonReasoningPassthrough(t *testing.T) {
	transport := `{"model":"llama3.2","response":"<think>not special</think> hi","done":false}
{"model":"llama3.2","response":"","done":true,"done_reason":"stop"}
`
	s := llmstream.NewSession(ollama.New("llama3.2"))
	events := collectEvents(t, s, transport)

	require.Len(t, events, 2)
	assert.Equal(t, llmstream.EventTextDelta, events[0].Kind)
	assert.Equal(t, "<think>not special</think> hi", events[0].Content)
	assert.Equal(t, llmstream.EventComplete, events[1].Kind)
}

// TestSession_ConcatRecovery feeds a JSON object split across two transport
// units; the first fails to decode, is held, and succeeds concatenated with
// the second.
func TestSession_ConcatRecovery(t *testing.T) {
	s := llmstream.NewSession(ollama.New("llama3.2"))
	ctx := context.Background()

	require.NoError(t, s.FeedUnit(ctx, `{"response":"a",`))
	select {
	case ev := <-s.Events():
		t.Fatalf("unexpected event from held unit: %+v", ev)
	default:
	}

	require.NoError(t, s.FeedUnit(ctx, `"done":false}`))
	ev := <-s.Events()
	assert.Equal(t, llmstream.EventTextDelta, ev.Kind)
	assert.Equal(t, "a", ev.Content)
}

// TestSession_DropsAfterSecondFailure: two undecodable units in a row are
// discarded, and the stream keeps decoding afterwards.
func TestSession_DropsAfterSecondFailure(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(&strings.Builder{})

	s := llmstream.NewSession(ollama.New("llama3.2"),
		llmstream.WithLogger(logrus.NewEntry(logger)))
	ctx := context.Background()

	require.NoError(t, s.FeedUnit(ctx, `{"broken`))
	require.NoError(t, s.FeedUnit(ctx, `also broken`))

	require.NoError(t, s.FeedUnit(ctx, `{"response":"ok","done":false}`))
	ev := <-s.Events()
	assert.Equal(t, "ok", ev.Content)
}

// TestSession_FrameReassembly runs with pretty-printed multi-line JSON frames.
func TestSession_FrameReassembly(t *testing.T) {
	transport := `{
  "model": "llama3.2",
  "response": "hello",
  "done": false
}
{
  "model": "llama3.2",
  "response": "",
  "done": true,
  "done_reason": "stop"
}
`
	s := llmstream.NewSession(ollama.New("llama3.2"), llmstream.WithFrameReassembly())
	events := collectEvents(t, s, transport)

	require.Len(t, events, 2)
	assert.Equal(t, "hello", events[0].Content)
	assert.Equal(t, llmstream.EventComplete, events[1].Kind)
}

// TestSession_IdleStopsFurtherInput: units after the complete event are
// ignored for the rest of the turn.
func TestSession_IdleStopsFurtherInput(t *testing.T) {
	transport := `{"model":"llama3.2","response":"hi","done":true,"done_reason":"stop"}
{"model":"llama3.2","response":"ignored","done":false}
`
	s := llmstream.NewSession(ollama.New("llama3.2"))
	events := collectEvents(t, s, transport)

	require.NotEmpty(t, events)
	assert.Equal(t, llmstream.EventComplete, events[len(events)-1].Kind)
	for _, ev := range events {
		assert.NotEqual(t, "ignored", ev.Content)
	}
	assert.True(t, s.Idle())
}

// TestSession_CancelledContext aborts the run mid-stream.
func TestSession_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := llmstream.NewSession(ollama.New("llama3.2"), llmstream.WithEventBuffer(1))
	err := s.FeedUnit(ctx, `{"response":"a","done":false}`)
	// The buffered channel may absorb the first event; feed until the send
	// path has to consult the context.
	if err == nil {
		err = s.FeedUnit(ctx, `{"response":"b","done":false}`)
	}
	assert.ErrorIs(t, err, context.Canceled)
}
