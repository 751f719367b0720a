// Package qwen decodes the DashScope OpenAI-compatible streaming wire format
// used by Alibaba's Qwen models.
//
// Like DeepSeek, reasoning arrives as a separate reasoning_content field
// (QwQ and the qwen3 thinking modes), and tool calls are assembled
// incrementally across id-correlated fragments.
package qwen

import (
	"encoding/json"

	llmstream "github.com/haslund/llmstream-go"
	"github.com/haslund/llmstream-go/providers/internal/openaicompat"
)

const providerName = "qwen"

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
	PromptTokens        int `json:"prompt_tokens"`
	CompletionTokens    int `json:"completion_tokens"`
	PromptTokensDetails *struct {
		CachedTokens int `json:"cached_tokens"`
	} `json:"prompt_tokens_details,omitempty"`
	CompletionTokensDetails *struct {
		ReasoningTokens int `json:"reasoning_tokens"`
	} `json:"completion_tokens_details,omitempty"`
}

// Adapter decodes one Qwen stream into canonical events. At most one
// reasoning span and one tool call are in flight at a time.
type Adapter struct {
	thinkingOpen bool
	tools        openaicompat.ToolAccumulator
}

// New creates a Qwen stream adapter.
func New() *Adapter {
	return &Adapter{}
}

// ProviderName returns "qwen".
func (a *Adapter) ProviderName() string { return providerName }

// SupportsThinking returns true.
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

	// DashScope sends usage on a trailing chunk with an empty choices list.
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
		InputTokens:  u.PromptTokens,
		OutputTokens: u.CompletionTokens,
	}
	if u.CompletionTokensDetails != nil && u.CompletionTokensDetails.ReasoningTokens != 0 {
		rt := u.CompletionTokensDetails.ReasoningTokens
		out.ThinkingTokens = &rt
	}
	if u.PromptTokensDetails != nil && u.PromptTokensDetails.CachedTokens != 0 {
		ct := u.PromptTokensDetails.CachedTokens
		out.CacheReadTokens = &ct
	}
	return out
}
