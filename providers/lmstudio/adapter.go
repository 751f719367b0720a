// Package lmstudio decodes LM Studio's OpenAI-compatible streaming wire
// format.
//
// Unlike providers with a structured reasoning field, LM Studio passes model
// output through verbatim: reasoning models embed their thinking inside
// delta content behind literal <think> markers. Content is routed through
// the shared tag scanner when the model name matches a known
// reasoning-capable pattern; otherwise no marker scanning happens at all.
package lmstudio

import (
	"encoding/json"

	llmstream "github.com/haslund/llmstream-go"
	"github.com/haslund/llmstream-go/providers/internal/openaicompat"
)

const providerName = "lmstudio"

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
	Content string `json:"content,omitempty"`
}

type wireUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Adapter decodes one LM Studio stream into canonical events.
type Adapter struct {
	model     string
	reasoning bool
	scanner   *llmstream.TagScanner
}

// New creates an LM Studio adapter for the given model.
func New(model string) *Adapter {
	return &Adapter{
		model:     model,
		reasoning: llmstream.IsReasoningModel(providerName, model),
		scanner:   llmstream.NewDefaultTagScanner(),
	}
}

// ProviderName returns "lmstudio".
func (a *Adapter) ProviderName() string { return providerName }

// SupportsThinking reports whether the configured model is reasoning-capable.
func (a *Adapter) SupportsThinking() bool { return a.reasoning }

// SupportsTools returns false; tool calls are not decoded for this provider.
func (a *Adapter) SupportsTools() bool { return false }

// Reset clears the tag scanner state.
func (a *Adapter) Reset() {
	a.scanner.Reset()
}

// Adapt decodes one SSE frame.
func (a *Adapter) Adapt(rawChunk string) ([]llmstream.Event, error) {
	payload, kind := llmstream.SplitSSELine(rawChunk)
	switch kind {
	case llmstream.SSELineIgnore:
		return nil, nil
	case llmstream.SSELineDone:
		// Stream end with the automaton still in-thinking must not leave an
		// unterminated span behind.
		return a.scanner.Flush(), nil
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

		if ch.Delta.Content != "" {
			if a.reasoning {
				events = append(events, a.scanner.Feed(ch.Delta.Content)...)
			} else {
				events = append(events, llmstream.TextDelta(ch.Delta.Content))
			}
		}

		if ch.FinishReason != nil && *ch.FinishReason != "" {
			events = append(events, a.scanner.Flush()...)
			if c.Usage != nil {
				events = append(events, llmstream.UsageEvent(llmstream.Usage{
					InputTokens:  c.Usage.PromptTokens,
					OutputTokens: c.Usage.CompletionTokens,
				}))
			}
			events = append(events, llmstream.Complete(ch.FinishReason))
			return events, nil
		}
	}

	if c.Usage != nil {
		events = append(events, llmstream.UsageEvent(llmstream.Usage{
			InputTokens:  c.Usage.PromptTokens,
			OutputTokens: c.Usage.CompletionTokens,
		}))
	}
	return events, nil
}
