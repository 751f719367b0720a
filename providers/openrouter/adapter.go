// Package openrouter decodes OpenRouter's chat-completions streaming wire
// format.
//
// Reasoning arrives separately from content, either as a plain reasoning
// string or as reasoning_details entries (models like kimi-k2-thinking use
// the latter). Tool calls are assembled incrementally across fragments
// correlated by id-on-first-frame.
package openrouter

import (
	"encoding/json"
	"strings"

	llmstream "github.com/haslund/llmstream-go"
	"github.com/haslund/llmstream-go/providers/internal/openaicompat"
)

const providerName = "openrouter"

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
	Reasoning        string                       `json:"reasoning,omitempty"`
	ReasoningDetails []reasoningDetail            `json:"reasoning_details,omitempty"`
	ToolCalls        []openaicompat.ToolCallDelta `json:"tool_calls,omitempty"`
}

// reasoningDetail is one entry of reasoning_details. Text carries readable
// reasoning; other entry types (encrypted, summary) have no streamable text.
type reasoningDetail struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type wireUsage struct {
	PromptTokens            int `json:"prompt_tokens"`
	CompletionTokens        int `json:"completion_tokens"`
	CompletionTokensDetails *struct {
		ReasoningTokens int `json:"reasoning_tokens"`
	} `json:"completion_tokens_details,omitempty"`
	PromptTokensDetails *struct {
		CachedTokens int `json:"cached_tokens"`
	} `json:"prompt_tokens_details,omitempty"`
}

// Adapter decodes one OpenRouter stream into canonical events. At most one
// reasoning span and one tool call are in flight at a time; thinking events
// carry a nil ThinkingID since the wire has no reasoning-block identifier.
type Adapter struct {
	thinkingOpen bool
	tools        openaicompat.ToolAccumulator
}

// New creates an OpenRouter stream adapter.
func New() *Adapter {
	return &Adapter{}
}

// ProviderName returns "openrouter".
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

	if c.Usage != nil {
		events = append(events, llmstream.UsageEvent(canonicalUsage(c.Usage)))
	}
	return events, nil
}

func (a *Adapter) deltaEvents(d delta) []llmstream.Event {
	var events []llmstream.Event

	if reasoning := reasoningText(d); reasoning != "" {
		if !a.thinkingOpen {
			events = append(events, llmstream.ThinkingStart(nil))
			a.thinkingOpen = true
		}
		events = append(events, llmstream.ThinkingDelta(reasoning, nil))
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

// reasoningText prefers readable reasoning_details text over the plain
// reasoning field, which some models populate with a placeholder.
func reasoningText(d delta) string {
	var sb strings.Builder
	for _, detail := range d.ReasoningDetails {
		if detail.Text != "" {
			sb.WriteString(detail.Text)
		}
	}
	if sb.Len() > 0 {
		return sb.String()
	}
	return d.Reasoning
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
