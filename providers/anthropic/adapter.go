// Package anthropic decodes Anthropic's Messages streaming wire format.
//
// The protocol is a discriminated union: each frame carries a tagged JSON
// object ({"type": ...}) and thinking/tool content arrives in typed content
// blocks, already separated from ordinary text by the protocol itself.
// Frames may be SSE-wrapped or raw JSON depending on the transport.
package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"

	llmstream "github.com/haslund/llmstream-go"
)

const providerName = "anthropic"

// Wire shapes. Only the fields this adapter routes on are declared; unknown
// fields and unknown event types are protocol additions and decode to no-ops.

type streamEvent struct {
	Type  string `json:"type"`
	Index int    `json:"index"`

	Message      *messageInfo  `json:"message,omitempty"`
	ContentBlock *contentBlock `json:"content_block,omitempty"`
	Delta        *eventDelta   `json:"delta,omitempty"`
	Usage        *wireUsage    `json:"usage,omitempty"`
	Error        *wireError    `json:"error,omitempty"`
}

type messageInfo struct {
	ID    string     `json:"id"`
	Model string     `json:"model"`
	Usage *wireUsage `json:"usage,omitempty"`
}

type contentBlock struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// eventDelta covers both block-level deltas (text/thinking/input_json/
// signature) and the message-level delta carrying the stop reason.
type eventDelta struct {
	Type        string `json:"type,omitempty"`
	Text        string `json:"text,omitempty"`
	Thinking    string `json:"thinking,omitempty"`
	Signature   string `json:"signature,omitempty"`
	PartialJSON string `json:"partial_json,omitempty"`
	StopReason  string `json:"stop_reason,omitempty"`
}

type wireUsage struct {
	InputTokens              int  `json:"input_tokens"`
	OutputTokens             int  `json:"output_tokens"`
	CacheCreationInputTokens *int `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     *int `json:"cache_read_input_tokens,omitempty"`
}

type wireError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Adapter decodes one Anthropic stream into canonical events.
//
// Correlation state assumes blocks arrive sequentially, not interleaved by
// index: at most one thinking span and one tool call are in flight at a
// time. The wire format carries a block index that would permit interleaving,
// but no production stream does it, so the simpler state wins.
type Adapter struct {
	thinkingID  string
	hasThinking bool

	toolID   string
	toolName string
	hasTool  bool
	toolArgs strings.Builder

	stopReason string
}

// New creates an Anthropic stream adapter.
func New() *Adapter {
	return &Adapter{}
}

// ProviderName returns "anthropic".
func (a *Adapter) ProviderName() string { return providerName }

// SupportsThinking returns true; thinking arrives as typed content blocks.
func (a *Adapter) SupportsThinking() bool { return true }

// SupportsTools returns true; tool calls arrive as tool_use blocks.
func (a *Adapter) SupportsTools() bool { return true }

// Reset clears all correlation state.
func (a *Adapter) Reset() {
	a.hasThinking = false
	a.thinkingID = ""
	a.hasTool = false
	a.toolID = ""
	a.toolName = ""
	a.toolArgs.Reset()
	a.stopReason = ""
}

// Adapt decodes one frame. Frames arrive either SSE-wrapped ("data: {...}")
// or as bare JSON objects, depending on the transport; a chunk that opens
// with a brace is the payload itself.
func (a *Adapter) Adapt(chunk string) ([]llmstream.Event, error) {
	payload := strings.TrimSpace(chunk)
	if !strings.HasPrefix(payload, "{") {
		var kind llmstream.SSELineKind
		payload, kind = llmstream.SplitSSELine(chunk)
		if kind != llmstream.SSELineData {
			return nil, nil
		}
	}

	var ev streamEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return nil, llmstream.NewParseError(providerName, chunk, err)
	}

	switch ev.Type {
	case "message_start":
		return a.handleMessageStart(&ev), nil
	case "content_block_start":
		return a.handleBlockStart(&ev), nil
	case "content_block_delta":
		return a.handleBlockDelta(&ev), nil
	case "content_block_stop":
		return a.handleBlockStop(), nil
	case "message_delta":
		return a.handleMessageDelta(&ev), nil
	case "message_stop":
		return a.handleMessageStop(), nil
	case "error":
		return a.handleError(&ev), nil
	case "ping":
		return nil, nil
	default:
		// Unknown but well-formed event type: the protocol evolves
		// additively, so this is a no-op rather than an error.
		return nil, nil
	}
}

func (a *Adapter) handleMessageStart(ev *streamEvent) []llmstream.Event {
	if ev.Message == nil || ev.Message.Usage == nil {
		return nil
	}
	return []llmstream.Event{llmstream.UsageEvent(canonicalUsage(ev.Message.Usage))}
}

func (a *Adapter) handleBlockStart(ev *streamEvent) []llmstream.Event {
	if ev.ContentBlock == nil {
		return nil
	}

	switch ev.ContentBlock.Type {
	case "thinking", "redacted_thinking":
		// The wire carries no reasoning-block id, so derive one from the
		// block index for cross-chunk correlation.
		a.thinkingID = fmt.Sprintf("thinking_%d", ev.Index)
		a.hasThinking = true
		return []llmstream.Event{llmstream.ThinkingStart(&a.thinkingID)}

	case "tool_use":
		a.toolID = ev.ContentBlock.ID
		a.toolName = ev.ContentBlock.Name
		a.hasTool = true
		a.toolArgs.Reset()
		return []llmstream.Event{llmstream.ToolStart(a.toolID, a.toolName)}

	default:
		// text and any future block type: deltas carry the content.
		return nil
	}
}

func (a *Adapter) handleBlockDelta(ev *streamEvent) []llmstream.Event {
	if ev.Delta == nil {
		return nil
	}

	switch ev.Delta.Type {
	case "text_delta":
		return []llmstream.Event{llmstream.TextDelta(ev.Delta.Text)}

	case "thinking_delta":
		var id *string
		if a.hasThinking {
			id = &a.thinkingID
		}
		return []llmstream.Event{llmstream.ThinkingDelta(ev.Delta.Thinking, id)}

	case "input_json_delta":
		// Arguments surface only on completion.
		a.toolArgs.WriteString(ev.Delta.PartialJSON)
		return nil

	case "signature_delta":
		return nil

	default:
		return nil
	}
}

// handleBlockStop finalizes whichever of the thinking span and tool call is
// currently open. Both firing from one stop is defensive, not expected.
func (a *Adapter) handleBlockStop() []llmstream.Event {
	var events []llmstream.Event

	if a.hasThinking {
		id := a.thinkingID
		events = append(events, llmstream.ThinkingEnd(&id))
		a.hasThinking = false
		a.thinkingID = ""
	}

	if a.hasTool {
		events = append(events, llmstream.ToolComplete(a.toolID, a.toolName, a.toolArgs.String()))
		a.hasTool = false
		a.toolID = ""
		a.toolName = ""
		a.toolArgs.Reset()
	}

	return events
}

func (a *Adapter) handleMessageDelta(ev *streamEvent) []llmstream.Event {
	if ev.Delta != nil && ev.Delta.StopReason != "" {
		a.stopReason = ev.Delta.StopReason
	}
	if ev.Usage == nil {
		return nil
	}
	return []llmstream.Event{llmstream.UsageEvent(canonicalUsage(ev.Usage))}
}

func (a *Adapter) handleMessageStop() []llmstream.Event {
	var reason *string
	if a.stopReason != "" {
		r := a.stopReason
		reason = &r
	}
	a.stopReason = ""
	return []llmstream.Event{llmstream.Complete(reason)}
}

func (a *Adapter) handleError(ev *streamEvent) []llmstream.Event {
	if ev.Error == nil {
		return nil
	}
	var code *string
	if ev.Error.Type != "" {
		c := ev.Error.Type
		code = &c
	}
	return []llmstream.Event{llmstream.ErrorEvent(ev.Error.Message, code)}
}

func canonicalUsage(u *wireUsage) llmstream.Usage {
	return llmstream.Usage{
		InputTokens:         u.InputTokens,
		OutputTokens:        u.OutputTokens,
		CacheReadTokens:     u.CacheReadInputTokens,
		CacheCreationTokens: u.CacheCreationInputTokens,
	}
}
