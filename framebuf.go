package llmstream

import "strings"

// FrameBuffer reassembles one JSON object that a transport delivered as
// multiple physical lines. It keeps a running brace-depth counter across
// pushed fragments and considers the frame complete exactly when the depth
// returns to zero on a non-empty buffer.
//
// Known limitation: the counter is naive and does not exempt braces inside
// quoted string literals. A payload like {"text":"}"} closes early. Fixing
// this needs a real incremental tokenizer; it is deliberately not guessed at
// here.
type FrameBuffer struct {
	buf   strings.Builder
	depth int
}

// Push appends one physical line. When the accumulated buffer forms a
// complete frame it is returned with complete=true and the buffer resets.
func (f *FrameBuffer) Push(line string) (frame string, complete bool) {
	if f.buf.Len() > 0 {
		f.buf.WriteByte('\n')
	}
	f.buf.WriteString(line)

	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '{':
			f.depth++
		case '}':
			f.depth--
		}
	}

	if f.depth == 0 && f.buf.Len() > 0 {
		frame = f.buf.String()
		f.Reset()
		return frame, true
	}
	return "", false
}

// Pending reports whether a partial frame is buffered.
func (f *FrameBuffer) Pending() bool {
	return f.buf.Len() > 0
}

// Reset discards any partial frame.
func (f *FrameBuffer) Reset() {
	f.buf.Reset()
	f.depth = 0
}
