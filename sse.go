package llmstream

import "strings"

// SSELineKind classifies one physical line of an SSE stream.
type SSELineKind int

const (
	// SSELineIgnore marks lines that carry no decodable payload: blank
	// lines, comments, and the event:/id:/retry: metadata fields.
	SSELineIgnore SSELineKind = iota

	// SSELineData marks a data: line whose payload should be decoded.
	SSELineData

	// SSELineDone marks the literal [DONE] termination sentinel.
	SSELineDone
)

// SplitSSELine classifies one SSE line and extracts the data payload when
// present. Adapters for SSE-wrapped protocols call this before any JSON
// decoding; every non-data line is a benign no-op, never an error.
//
// Both "data: x" and "data:x" forms are accepted, per the SSE convention of
// stripping a single optional space after the colon.
func SplitSSELine(line string) (string, SSELineKind) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return "", SSELineIgnore
	}

	// Comment lines start with a colon.
	if strings.HasPrefix(trimmed, ":") {
		return "", SSELineIgnore
	}

	if !strings.HasPrefix(trimmed, "data:") {
		// event:, id:, retry:, or any other field name.
		return "", SSELineIgnore
	}

	payload := strings.TrimPrefix(trimmed, "data:")
	payload = strings.TrimPrefix(payload, " ")
	if payload == "" {
		return "", SSELineIgnore
	}
	if payload == "[DONE]" {
		return "", SSELineDone
	}
	return payload, SSELineData
}
