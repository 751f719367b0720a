package llmstream

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEventConstructors verifies each constructor sets exactly the fields its
// kind defines.
func TestEventConstructors(t *testing.T) {
	id := stringPtr("thinking-1")

	ev := TextDelta("hello")
	assert.Equal(t, EventTextDelta, ev.Kind)
	assert.Equal(t, "hello", ev.Content)
	assert.Nil(t, ev.ThinkingID)

	ev = ThinkingStart(id)
	assert.Equal(t, EventThinkingStart, ev.Kind)
	assert.Equal(t, "thinking-1", *ev.ThinkingID)

	ev = ThinkingStart(nil)
	assert.Equal(t, EventThinkingStart, ev.Kind)
	assert.Nil(t, ev.ThinkingID)

	ev = ThinkingDelta("step 1", id)
	assert.Equal(t, EventThinkingDelta, ev.Kind)
	assert.Equal(t, "step 1", ev.Content)
	assert.Equal(t, "thinking-1", *ev.ThinkingID)

	ev = ThinkingEnd(nil)
	assert.Equal(t, EventThinkingEnd, ev.Kind)
	assert.Nil(t, ev.ThinkingID)

	ev = ToolStart("call_1", "get_weather")
	assert.Equal(t, EventToolStart, ev.Kind)
	assert.Equal(t, "call_1", ev.ToolID)
	assert.Equal(t, "get_weather", ev.ToolName)
	assert.False(t, ev.HasArguments)

	ev = ToolStartWithArguments("call_1", "get_weather", `{"ci`)
	assert.True(t, ev.HasArguments)
	assert.Equal(t, `{"ci`, ev.Arguments)

	ev = ToolComplete("call_1", "get_weather", `{"city":"Oslo"}`)
	assert.Equal(t, EventToolComplete, ev.Kind)
	assert.Equal(t, `{"city":"Oslo"}`, ev.Arguments)
	assert.True(t, ev.HasArguments)

	ev = UsageEvent(Usage{InputTokens: 10, OutputTokens: 20})
	require.NotNil(t, ev.Usage)
	assert.Equal(t, 10, ev.Usage.InputTokens)
	assert.Equal(t, 20, ev.Usage.OutputTokens)
	assert.Nil(t, ev.Usage.ThinkingTokens)

	ev = Complete(stringPtr("stop"))
	assert.Equal(t, EventComplete, ev.Kind)
	assert.Equal(t, "stop", *ev.StopReason)

	ev = Complete(nil)
	assert.Nil(t, ev.StopReason)

	ev = ErrorEvent("rate limited", stringPtr("429"))
	assert.Equal(t, EventError, ev.Kind)
	assert.Equal(t, "rate limited", ev.Message)
	assert.Equal(t, "429", *ev.Code)
}

// TestEventPredicates covers IsThinking, IsTool and IsTerminal across kinds.
func TestEventPredicates(t *testing.T) {
	assert.True(t, ThinkingStart(nil).IsThinking())
	assert.True(t, ThinkingDelta("x", nil).IsThinking())
	assert.True(t, ThinkingEnd(nil).IsThinking())
	assert.False(t, TextDelta("x").IsThinking())

	assert.True(t, ToolStart("id", "name").IsTool())
	assert.True(t, ToolComplete("id", "name", "{}").IsTool())
	assert.False(t, UsageEvent(Usage{}).IsTool())

	assert.True(t, Complete(nil).IsTerminal())
	assert.True(t, ErrorEvent("boom", nil).IsTerminal())
	assert.False(t, TextDelta("x").IsTerminal())
	assert.False(t, UsageEvent(Usage{}).IsTerminal())
}

// TestEventJSONShape checks that unset union fields are omitted so consumers
// see compact variant-shaped objects.
func TestEventJSONShape(t *testing.T) {
	data, err := json.Marshal(TextDelta("hi"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"text_delta","content":"hi"}`, string(data))

	th := intPtr(7)
	data, err = json.Marshal(UsageEvent(Usage{InputTokens: 1, OutputTokens: 2, ThinkingTokens: th}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"usage","usage":{"input_tokens":1,"output_tokens":2,"thinking_tokens":7}}`, string(data))
}
