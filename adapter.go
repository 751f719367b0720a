package llmstream

// Adapter decodes one provider's streaming wire format into the canonical
// event sequence. Implementations live under providers/ and are selected once
// at session start by provider identity.
//
// An adapter instance is owned by exactly one session task for the duration
// of one turn. Adapt is pure and CPU-bound: it never blocks, never retries,
// and requires no internal synchronization.
type Adapter interface {
	// ProviderName returns the provider identifier (e.g. "anthropic", "ollama").
	ProviderName() string

	// SupportsThinking reports whether this adapter can ever produce
	// thinking_* events for its configured model.
	SupportsThinking() bool

	// SupportsTools reports whether this adapter can ever produce tool_*
	// events.
	SupportsTools() bool

	// Adapt decodes one already-delimited transport unit (one SSE frame or
	// one line of a line-delimited JSON stream) into zero or more canonical
	// events.
	//
	// Benign inputs return (nil, nil): empty or whitespace-only chunks, SSE
	// metadata lines (event:, id:, retry:, comments), the [DONE] sentinel,
	// and well-formed payloads of a type this adapter does not recognize
	// (vendor protocols evolve additively).
	//
	// A payload that matches a recognized shape but fails to deserialize
	// returns a *ParseError; it is never swallowed. Vendor error objects in
	// the payload decode into a canonical error event, not a Go error.
	Adapt(chunk string) ([]Event, error)

	// Reset clears all internal accumulation state (buffers, automaton
	// phase, correlation ids) so the instance can be reused for a new turn.
	Reset()
}
