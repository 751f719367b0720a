package llmstream

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
// These can be checked with errors.Is().
var (
	// ErrMalformedChunk indicates a chunk matched none of the provider's
	// known wire shapes. This is a genuine protocol break, distinct from the
	// benign no-op inputs (empty lines, SSE metadata, [DONE]) that adapters
	// swallow silently.
	ErrMalformedChunk = errors.New("llmstream: malformed chunk")

	// ErrUnknownProvider indicates an adapter was requested for a provider
	// identity this library does not implement.
	ErrUnknownProvider = errors.New("llmstream: unknown provider")

	// ErrSessionClosed indicates an operation on a session whose turn has
	// already ended.
	ErrSessionClosed = errors.New("llmstream: session closed")
)

// maxSnippetLen bounds how much of a failing chunk a ParseError retains.
const maxSnippetLen = 160

// ParseError reports a chunk that failed to deserialize into a provider's
// known wire shape. It wraps the underlying decode error and keeps a bounded
// snippet of the offending input for diagnostics.
type ParseError struct {
	Provider string // the adapter's provider name
	Snippet  string // truncated copy of the failing chunk
	Err      error  // wrapped decode error
}

// NewParseError builds a ParseError for the given provider and chunk,
// truncating the retained snippet.
func NewParseError(provider, chunk string, err error) *ParseError {
	snippet := chunk
	if len(snippet) > maxSnippetLen {
		snippet = snippet[:maxSnippetLen] + "..."
	}
	return &ParseError{Provider: provider, Snippet: snippet, Err: err}
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider '%s': failed to parse chunk %q: %v", e.Provider, e.Snippet, e.Err)
	}
	return fmt.Sprintf("provider '%s': failed to parse chunk %q", e.Provider, e.Snippet)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrMalformedChunk
}

// IsParseError checks whether err is (or wraps) a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
