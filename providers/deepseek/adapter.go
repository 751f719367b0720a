// Package deepseek decodes DeepSeek's chat-completions streaming wire format.
//
// Reasoning arrives as a separate reasoning_content field alongside ordinary
// content, and tool calls are assembled incrementally across fragments
// correlated by id: the id is present on the frame that starts a call and
// empty on every continuation frame for that same call.
package deepseek

import (
	"encoding/json"

	llmstream "github.com/haslund/llmstream-go"
	"github.com/haslund/llmstream-go/providers/internal/openaicompat"
)

const providerName = "deepseek"

type chunk struct {
	ID      string     `json:"id"`
	Object  string     `json:"object"`
	Model   string     `json:"model"`
	Choices []choice   `json:"choices"`
	Usage   *wireUsage `json:"usage,omitempty"`
}

type choice struct {
	Index        int     `json:"index"`
	Delta        delta   `json:"delta"`
	FinishReason *string `json:"finish_reason"`
}

type delta struct {
	Content          string                       `json:"content,omitempty"`
	ReasoningContent string                       `json:"reasoning_content,omitempty"`
	ToolCalls        []openaicompat.ToolCallDelta `json:"tool_calls,omitempty"`
}

type wireUsage struct {
	PromptTokens            int  `json:"prompt_tokens"`
	CompletionTokens        int  `json:"completion_tokens"`
	PromptCacheHitTokens    *int `json:"prompt_cache_hit_tokens,omitempty"`
	CompletionTokensDetails *struct {
		ReasoningTokens int `json:"reasoning_tokens"`
	} `json:"completion_tokens_details,omitempty"`
}

// Adapter decodes one DeepSeek stream into canonical events. It tracks at
// most one open reasoning span and one pending tool call; the wire carries no
// reasoning-block id, so thinking events have a nil ThinkingID.
type Adapter struct {
	thinkingOpen bool
	tools        openaicompat.ToolAccumulator
}

// New creates a DeepSeek stream adapter.
func New() *Adapter {
	return &Adapter{}
}

// ProviderName returns "deepseek".
func (a *Adapter) ProviderName() string { return providerName }

// SupportsThinking returns true; deepseek-reasoner streams reasoning_content.
func (a *Adapter) SupportsThinking() bool { return true }

// SupportsTools returns true.
func (a *Adapter) SupportsTools() bool { return true }

// Reset clears the reasoning span and tool correlation state.
func (a *Adapter) Reset() {
	a.thinkingOpen = false
	a.tools.Reset()
}

// Adapt decodes one SSE frame.
func (a *Adapter) Adapt(rawChunk string) ([]llmstream.Event, error) {
	payload, kind := llmstream.SplitSSELine(rawChunk)
	if kind != llmstream.SSELineData {
		return nil, nil
	}

	// An explicit error object is upstream vendor data, not a local failure.
	if ev, ok := openaicompat.VendorError(payload); ok {
		return []llmstream.Event{ev}, nil
	}

	var c chunk
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return nil, llmstream.NewParseError(providerName, rawChunk, err)
	}

	var events []llmstream.Event

	if len(c.Choices) > 0 {
		ch := c.Choices[0]
		events = append(events, a.deltaEvents(ch.Delta)...)

		if ch.FinishReason != nil && *ch.FinishReason != "" {
			events = append(events, a.flush()...)
			if c.Usage != nil {
				events = append(events, llmstream.UsageEvent(canonicalUsage(c.Usage)))
			}
			events = append(events, llmstream.Complete(ch.FinishReason))
			return events, nil
		}
	}

	if c.Usage != nil {
		events = append(events, llmstream.UsageEvent(canonicalUsage(c.Usage)))
	}
	return events, nil
}

func (a *Adapter) deltaEvents(d delta) []llmstream.Event {
	var events []llmstream.Event

	if d.ReasoningContent != "" {
		if !a.thinkingOpen {
			events = append(events, llmstream.ThinkingStart(nil))
			a.thinkingOpen = true
		}
		events = append(events, llmstream.ThinkingDelta(d.ReasoningContent, nil))
	}

	if d.Content != "" {
		// Reasoning and answer text are never interleaved in the output:
		// answer content closes an open reasoning span first.
		if a.thinkingOpen {
			events = append(events, llmstream.ThinkingEnd(nil))
			a.thinkingOpen = false
		}
		events = append(events, llmstream.TextDelta(d.Content))
	}

	for _, tc := range d.ToolCalls {
		events = append(events, a.tools.Apply(tc)...)
	}

	return events
}

// flush finalizes the pending tool call and open reasoning span, in that
// order, ahead of a completion signal.
func (a *Adapter) flush() []llmstream.Event {
	events := a.tools.Flush()
	if a.thinkingOpen {
		events = append(events, llmstream.ThinkingEnd(nil))
		a.thinkingOpen = false
	}
	return events
}

func canonicalUsage(u *wireUsage) llmstream.Usage {
	out := llmstream.Usage{
		InputTokens:     u.PromptTokens,
		OutputTokens:    u.CompletionTokens,
		CacheReadTokens: u.PromptCacheHitTokens,
	}
	if u.CompletionTokensDetails != nil && u.CompletionTokensDetails.ReasoningTokens != 0 {
		rt := u.CompletionTokensDetails.ReasoningTokens
		out.ThinkingTokens = &rt
	}
	return out
}
