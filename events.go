package llmstream

// EventKind identifies which variant of the canonical event union an Event carries.
// Using a typed constant prevents typos and provides compile-time safety.
type EventKind string

// Canonical event kinds. Every adapter, regardless of provider wire format,
// produces events drawn from this closed set.
const (
	// EventTextDelta is an incremental fragment of ordinary answer text.
	EventTextDelta EventKind = "text_delta"

	// EventThinkingStart opens a reasoning span. ThinkingID is nil for
	// tag-based providers that carry no block identifier on the wire.
	EventThinkingStart EventKind = "thinking_start"

	// EventThinkingDelta is an incremental fragment of reasoning text.
	EventThinkingDelta EventKind = "thinking_delta"

	// EventThinkingEnd finalizes a reasoning span.
	EventThinkingEnd EventKind = "thinking_end"

	// EventToolStart announces a tool call (id and name known; arguments
	// may be absent or partial at this point).
	EventToolStart EventKind = "tool_start"

	// EventToolComplete finalizes a tool call with its fully accumulated
	// argument text. The text is raw concatenation of all fragments and is
	// only guaranteed parseable here, never earlier.
	EventToolComplete EventKind = "tool_complete"

	// EventUsage reports token accounting, mapped from provider-specific
	// field names onto the canonical Usage struct.
	EventUsage EventKind = "usage"

	// EventComplete signals the end of a turn, carrying the provider's stop
	// reason verbatim when one was reported.
	EventComplete EventKind = "complete"

	// EventError is an error object decoded from the wire payload itself.
	// It is an upstream vendor failure surfaced as data, not a local decode
	// failure (those are returned as *ParseError from Adapt).
	EventError EventKind = "error"
)

// Usage contains token accounting for one turn.
// InputTokens and OutputTokens are always populated; the remaining counters
// are only reported by providers that expose them.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`

	// ThinkingTokens is the reasoning-only portion of OutputTokens, when the
	// provider breaks it out (e.g. completion_tokens_details.reasoning_tokens).
	ThinkingTokens *int `json:"thinking_tokens,omitempty"`

	// CacheReadTokens counts prompt tokens served from the provider's cache.
	CacheReadTokens *int `json:"cache_read_tokens,omitempty"`

	// CacheCreationTokens counts prompt tokens written to the provider's cache.
	CacheCreationTokens *int `json:"cache_creation_tokens,omitempty"`
}

// Event is one element of the canonical stream every adapter produces.
// It is a tagged union: Kind selects the variant, and only the fields
// belonging to that variant are meaningful.
//
// Field usage per kind:
//   - text_delta:      Content
//   - thinking_start:  ThinkingID (may be nil)
//   - thinking_delta:  Content, ThinkingID (may be nil)
//   - thinking_end:    ThinkingID (may be nil)
//   - tool_start:      ToolID, ToolName, Arguments (only when HasArguments)
//   - tool_complete:   ToolID, ToolName, Arguments
//   - usage:           Usage
//   - complete:        StopReason (nil when the provider reported none)
//   - error:           Message, Code (may be nil)
type Event struct {
	Kind EventKind `json:"kind"`

	// Content is the text payload for text_delta and thinking_delta.
	Content string `json:"content,omitempty"`

	// ThinkingID correlates thinking events across chunks. Nil for providers
	// whose wire format has no reasoning-block identifier.
	ThinkingID *string `json:"thinking_id,omitempty"`

	// ToolID and ToolName identify a tool call for tool_start/tool_complete.
	ToolID   string `json:"tool_id,omitempty"`
	ToolName string `json:"tool_name,omitempty"`

	// Arguments is accumulated tool argument text. On tool_start it is only
	// meaningful when HasArguments is true (some wire formats include an
	// initial fragment on the start frame, most do not).
	Arguments    string `json:"arguments,omitempty"`
	HasArguments bool   `json:"has_arguments,omitempty"`

	// Usage is set for usage events.
	Usage *Usage `json:"usage,omitempty"`

	// StopReason is set for complete events when the provider reported one.
	StopReason *string `json:"stop_reason,omitempty"`

	// Message and Code describe a vendor error for error events.
	Message string  `json:"message,omitempty"`
	Code    *string `json:"code,omitempty"`
}

// TextDelta builds a text_delta event.
func TextDelta(content string) Event {
	return Event{Kind: EventTextDelta, Content: content}
}

// ThinkingStart builds a thinking_start event. id may be nil.
func ThinkingStart(id *string) Event {
	return Event{Kind: EventThinkingStart, ThinkingID: id}
}

// ThinkingDelta builds a thinking_delta event. id may be nil.
func ThinkingDelta(content string, id *string) Event {
	return Event{Kind: EventThinkingDelta, Content: content, ThinkingID: id}
}

// ThinkingEnd builds a thinking_end event. id may be nil.
func ThinkingEnd(id *string) Event {
	return Event{Kind: EventThinkingEnd, ThinkingID: id}
}

// ToolStart builds a tool_start event without initial arguments.
func ToolStart(toolID, toolName string) Event {
	return Event{Kind: EventToolStart, ToolID: toolID, ToolName: toolName}
}

// ToolStartWithArguments builds a tool_start event carrying an initial
// argument fragment, for wire formats that include one on the start frame.
func ToolStartWithArguments(toolID, toolName, arguments string) Event {
	return Event{Kind: EventToolStart, ToolID: toolID, ToolName: toolName, Arguments: arguments, HasArguments: true}
}

// ToolComplete builds a tool_complete event with the final argument text.
func ToolComplete(toolID, toolName, arguments string) Event {
	return Event{Kind: EventToolComplete, ToolID: toolID, ToolName: toolName, Arguments: arguments, HasArguments: true}
}

// UsageEvent builds a usage event.
func UsageEvent(u Usage) Event {
	return Event{Kind: EventUsage, Usage: &u}
}

// Complete builds a complete event. stopReason may be nil when the provider
// reported none.
func Complete(stopReason *string) Event {
	return Event{Kind: EventComplete, StopReason: stopReason}
}

// ErrorEvent builds an error event from a vendor error payload.
func ErrorEvent(message string, code *string) Event {
	return Event{Kind: EventError, Message: message, Code: code}
}

// IsThinking returns true for any of the thinking_* kinds.
func (e Event) IsThinking() bool {
	return e.Kind == EventThinkingStart || e.Kind == EventThinkingDelta || e.Kind == EventThinkingEnd
}

// IsTool returns true for tool_start and tool_complete.
func (e Event) IsTool() bool {
	return e.Kind == EventToolStart || e.Kind == EventToolComplete
}

// IsTerminal returns true for events after which no further content events
// are expected in the current turn.
func (e Event) IsTerminal() bool {
	return e.Kind == EventComplete || e.Kind == EventError
}
