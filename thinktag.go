package llmstream

import "strings"

// Default markers used by reasoning models that embed their thinking inside
// ordinary content instead of a structured field.
const (
	DefaultThinkStartTag = "<think>"
	DefaultThinkEndTag   = "</think>"
)

// TagScanner is a two-state automaton (normal / in-thinking) that splits a
// stream of text fragments into text and thinking events, delimited by a
// literal start and end marker embedded in the content.
//
// The transport may split a marker across any number of fragment boundaries,
// down to one byte per fragment. The scanner therefore holds back at most
// len(marker)-1 trailing bytes whenever the buffer tail is a strict prefix of
// the marker it is looking for, and flushes everything ahead of that tail
// immediately. Lookback is bounded by the marker length; buffering never
// grows beyond one fragment plus a partial marker.
//
// Only one thinking span can be open at a time and the wire carries no block
// identifier, so every emitted thinking event has a nil ThinkingID.
type TagScanner struct {
	startTag string
	endTag   string

	buf        string
	inThinking bool
}

// NewTagScanner creates a scanner for the given marker pair.
func NewTagScanner(startTag, endTag string) *TagScanner {
	return &TagScanner{startTag: startTag, endTag: endTag}
}

// NewDefaultTagScanner creates a scanner for <think> / </think> markers.
func NewDefaultTagScanner() *TagScanner {
	return NewTagScanner(DefaultThinkStartTag, DefaultThinkEndTag)
}

// InThinking reports whether the automaton is currently inside a thinking span.
func (s *TagScanner) InThinking() bool {
	return s.inThinking
}

// Reset clears the buffer and returns the automaton to the normal state.
func (s *TagScanner) Reset() {
	s.buf = ""
	s.inThinking = false
}

// Feed appends one content fragment and returns every event that can be
// emitted without risking a false negative on a split marker.
func (s *TagScanner) Feed(fragment string) []Event {
	if fragment == "" {
		return nil
	}
	s.buf += fragment
	return s.drain(false)
}

// Flush force-drains the scanner at end of stream. Any held partial marker is
// emitted as ordinary content (it can no longer complete), and an unterminated
// thinking span is closed so consumers never see a dangling span.
func (s *TagScanner) Flush() []Event {
	events := s.drain(true)
	if s.inThinking {
		events = append(events, ThinkingEnd(nil))
		s.inThinking = false
	}
	return events
}

func (s *TagScanner) drain(flush bool) []Event {
	var events []Event
	for {
		marker := s.startTag
		if s.inThinking {
			marker = s.endTag
		}

		if idx := strings.Index(s.buf, marker); idx >= 0 {
			if idx > 0 {
				events = append(events, s.contentEvent(s.buf[:idx]))
			}
			s.buf = s.buf[idx+len(marker):]
			if s.inThinking {
				events = append(events, ThinkingEnd(nil))
			} else {
				events = append(events, ThinkingStart(nil))
			}
			s.inThinking = !s.inThinking
			continue
		}

		hold := 0
		if !flush {
			hold = partialMarkerLen(s.buf, marker)
		}
		if emit := len(s.buf) - hold; emit > 0 {
			events = append(events, s.contentEvent(s.buf[:emit]))
			s.buf = s.buf[emit:]
		}
		return events
	}
}

func (s *TagScanner) contentEvent(text string) Event {
	if s.inThinking {
		return ThinkingDelta(text, nil)
	}
	return TextDelta(text)
}

// partialMarkerLen returns the length of the longest suffix of buf that is a
// strict, non-empty prefix of marker, or zero when no such suffix exists.
// A full marker occurrence is found by strings.Index before this runs, so the
// scan is capped at len(marker)-1 bytes.
func partialMarkerLen(buf, marker string) int {
	max := len(marker) - 1
	if len(buf) < max {
		max = len(buf)
	}
	for n := max; n > 0; n-- {
		if buf[len(buf)-n:] == marker[:n] {
			return n
		}
	}
	return 0
}
