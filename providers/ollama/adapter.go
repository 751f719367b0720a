// Package ollama decodes Ollama's line-delimited generate API stream.
//
// There is no SSE envelope: the transport delivers one JSON object per line.
// Reasoning models emit their thinking inside ordinary response text behind
// literal <think> markers, which may split across any line boundary, so
// content is routed through the shared tag scanner when the model name
// matches a known reasoning-capable pattern.
package ollama

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"

	llmstream "github.com/haslund/llmstream-go"
)

const providerName = "ollama"

// defaultStopReason is reported when a finished stream carries no
// done_reason, which older server versions omit.
const defaultStopReason = "stop"

type response struct {
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`

	DoneReason      string `json:"done_reason,omitempty"`
	PromptEvalCount int    `json:"prompt_eval_count,omitempty"`
	EvalCount       int    `json:"eval_count,omitempty"`
}

// Adapter decodes one Ollama generate stream into canonical events.
type Adapter struct {
	model     string
	reasoning bool
	scanner   *llmstream.TagScanner
}

// New creates an Ollama adapter for the given model. The model name decides
// whether tag scanning is active at all: non-reasoning models stream through
// as plain text with no marker interpretation.
func New(model string) *Adapter {
	return &Adapter{
		model:     model,
		reasoning: llmstream.IsReasoningModel(providerName, model),
		scanner:   llmstream.NewDefaultTagScanner(),
	}
}

// ProviderName returns "ollama".
func (a *Adapter) ProviderName() string { return providerName }

// SupportsThinking reports whether the configured model is reasoning-capable.
func (a *Adapter) SupportsThinking() bool { return a.reasoning }

// SupportsTools returns false; the generate API has no tool calls.
func (a *Adapter) SupportsTools() bool { return false }

// Reset clears the tag scanner state.
func (a *Adapter) Reset() {
	a.scanner.Reset()
}

// Adapt decodes one line of the stream.
func (a *Adapter) Adapt(chunk string) ([]llmstream.Event, error) {
	trimmed := strings.TrimSpace(chunk)
	if trimmed == "" {
		return nil, nil
	}
	// Not part of this wire format, but tolerated as a stream-end signal so
	// callers can treat all adapters uniformly.
	if trimmed == "[DONE]" {
		return a.scanner.Flush(), nil
	}

	if ev, ok := vendorError(trimmed); ok {
		return []llmstream.Event{ev}, nil
	}

	var resp response
	if err := json.Unmarshal([]byte(trimmed), &resp); err != nil {
		return nil, llmstream.NewParseError(providerName, chunk, err)
	}

	var events []llmstream.Event

	if resp.Response != "" {
		if a.reasoning {
			events = append(events, a.scanner.Feed(resp.Response)...)
		} else {
			events = append(events, llmstream.TextDelta(resp.Response))
		}
	}

	if resp.Done {
		// Close an unterminated thinking span before reporting completion.
		events = append(events, a.scanner.Flush()...)

		if resp.PromptEvalCount > 0 || resp.EvalCount > 0 {
			events = append(events, llmstream.UsageEvent(llmstream.Usage{
				InputTokens:  resp.PromptEvalCount,
				OutputTokens: resp.EvalCount,
			}))
		}

		reason := resp.DoneReason
		if reason == "" {
			reason = defaultStopReason
		}
		events = append(events, llmstream.Complete(&reason))
	}

	return events, nil
}

// vendorError decodes Ollama's {"error": "..."} payload shape.
func vendorError(payload string) (llmstream.Event, bool) {
	if !gjson.Valid(payload) {
		return llmstream.Event{}, false
	}
	errField := gjson.Get(payload, "error")
	if !errField.Exists() || errField.String() == "" {
		return llmstream.Event{}, false
	}
	return llmstream.ErrorEvent(errField.String(), nil), true
}
