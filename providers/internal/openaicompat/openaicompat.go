// Package openaicompat holds decoding machinery shared by providers that
// speak an OpenAI-compatible chat-completions stream: incremental tool-call
// assembly and the tolerant vendor-error probe.
package openaicompat

import (
	"strings"

	"github.com/tidwall/gjson"

	llmstream "github.com/haslund/llmstream-go"
)

// ToolCallDelta is one tool_calls entry of a streamed delta. The id is
// present on the frame that starts a call and empty on every continuation
// frame for that same call.
type ToolCallDelta struct {
	Index    int    `json:"index"`
	ID       string `json:"id,omitempty"`
	Type     string `json:"type,omitempty"`
	Function struct {
		Name      string `json:"name,omitempty"`
		Arguments string `json:"arguments,omitempty"`
	} `json:"function"`
}

// ToolAccumulator assembles id-correlated tool-call fragments with at most
// one call pending at a time. A fragment with a non-empty id starts a new
// call, finalizing any previous one; a fragment with an empty id continues
// whichever call is currently pending. Fragments that continue nothing are
// dropped: there is no call to correlate them to.
type ToolAccumulator struct {
	pending bool
	id      string
	name    string
	args    strings.Builder
}

// Apply folds one fragment into the accumulator and returns the events it
// surfaces (a start for a new call, plus the completion of a displaced one).
func (t *ToolAccumulator) Apply(tc ToolCallDelta) []llmstream.Event {
	var events []llmstream.Event

	if tc.ID != "" {
		if t.pending {
			events = append(events, llmstream.ToolComplete(t.id, t.name, t.args.String()))
		}
		t.pending = true
		t.id = tc.ID
		t.name = tc.Function.Name
		t.args.Reset()
		events = append(events, llmstream.ToolStart(t.id, t.name))
	} else if t.pending && tc.Function.Name != "" && t.name == "" {
		// Some backends ship the name on a continuation frame.
		t.name = tc.Function.Name
	}

	if tc.Function.Arguments != "" && t.pending {
		t.args.WriteString(tc.Function.Arguments)
	}

	return events
}

// Flush finalizes the pending call, if any. The returned argument text is the
// raw concatenation of every fragment and is only guaranteed parseable here.
func (t *ToolAccumulator) Flush() []llmstream.Event {
	if !t.pending {
		return nil
	}
	ev := llmstream.ToolComplete(t.id, t.name, t.args.String())
	t.Reset()
	return []llmstream.Event{ev}
}

// Reset drops the pending call without emitting it.
func (t *ToolAccumulator) Reset() {
	t.pending = false
	t.id = ""
	t.name = ""
	t.args.Reset()
}

// Pending reports whether a call is currently being assembled.
func (t *ToolAccumulator) Pending() bool { return t.pending }

// VendorError decodes an explicit {"error": {...}} payload into a canonical
// error event. gjson probing keeps this tolerant of the several error shapes
// the APIs emit without committing to a struct.
func VendorError(payload string) (llmstream.Event, bool) {
	if !gjson.Valid(payload) {
		return llmstream.Event{}, false
	}
	errField := gjson.Get(payload, "error")
	if !errField.Exists() {
		return llmstream.Event{}, false
	}

	message := errField.Get("message").String()
	if message == "" {
		message = errField.String()
	}
	var code *string
	for _, key := range []string{"code", "type"} {
		if v := errField.Get(key); v.Exists() && v.String() != "" {
			s := v.String()
			code = &s
			break
		}
	}
	return llmstream.ErrorEvent(message, code), true
}
