package llmstream

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultEventBuffer is the capacity of a session's outgoing event channel.
// The channel is the only state shared across the adapter boundary; when it
// fills, the decoding task blocks rather than dropping events.
const DefaultEventBuffer = 100

// SessionOption configures a Session at construction time.
type SessionOption func(*Session)

// WithEventBuffer overrides the outgoing channel capacity.
func WithEventBuffer(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.bufferSize = n
		}
	}
}

// WithFrameReassembly interposes a FrameBuffer ahead of the adapter, for
// transports that may split one JSON object across multiple physical lines.
func WithFrameReassembly() SessionOption {
	return func(s *Session) { s.reassemble = true }
}

// WithRegistry supplies a caller-owned thinking registry instead of the
// session's default one.
func WithRegistry(r *ThinkingRegistry) SessionOption {
	return func(s *Session) {
		if r != nil {
			s.registry = r
		}
	}
}

// WithLogger supplies a logrus entry to log through. Session and provider
// fields are appended to it.
func WithLogger(entry *logrus.Entry) SessionOption {
	return func(s *Session) {
		if entry != nil {
			s.baseLog = entry
		}
	}
}

// Session owns exactly one adapter instance for the duration of one turn.
// It reads the transport's output unit-by-unit, feeds each unit into the
// adapter, updates the thinking registry, and forwards every decoded event
// to a bounded consumer channel.
//
// A session is driven by a single task; none of its methods are safe for
// concurrent use.
type Session struct {
	id       string
	adapter  Adapter
	registry *ThinkingRegistry

	events     chan Event
	bufferSize int
	reassemble bool

	baseLog *logrus.Entry
	log     *logrus.Entry

	frames FrameBuffer

	// Decode-failure recovery: the one unit we are willing to retry by
	// concatenation with its successor.
	pending    string
	hasPending bool

	idle bool
}

// NewSession creates a session around one adapter instance.
func NewSession(adapter Adapter, opts ...SessionOption) *Session {
	s := &Session{
		id:         uuid.NewString(),
		adapter:    adapter,
		registry:   NewThinkingRegistry(0),
		bufferSize: DefaultEventBuffer,
		baseLog:    logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.events = make(chan Event, s.bufferSize)
	s.log = s.baseLog.WithFields(logrus.Fields{
		"session":  s.id,
		"provider": adapter.ProviderName(),
	})
	return s
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Events returns the bounded outgoing event channel. It is closed when Run
// returns.
func (s *Session) Events() <-chan Event { return s.events }

// Registry returns the thinking registry updated from the decoded stream.
func (s *Session) Registry() *ThinkingRegistry { return s.registry }

// Idle reports whether a Complete event has been observed for this turn.
func (s *Session) Idle() bool { return s.idle }

// Run reads transport output unit-by-unit until EOF, feeding each unit
// through the adapter and forwarding decoded events. The event channel is
// closed when Run returns. Cancelling ctx abandons all in-flight adapter
// state with no flush; a complete event is not guaranteed afterwards.
func (s *Session) Run(ctx context.Context, transport io.Reader) error {
	defer close(s.events)

	s.adapter.Reset()
	s.frames.Reset()
	s.pending = ""
	s.hasPending = false
	s.idle = false

	scanner := bufio.NewScanner(transport)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		unit := scanner.Text()
		if s.reassemble {
			frame, complete := s.frames.Push(unit)
			if !complete {
				continue
			}
			unit = frame
		}

		if err := s.FeedUnit(ctx, unit); err != nil {
			return err
		}
		if s.idle {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("session %s: transport read failed: %w", s.id, err)
	}
	return nil
}

// FeedUnit decodes one transport unit and forwards the resulting events.
// On a parse failure it holds the unit and retries it once, concatenated with
// the next unit; a second failure drops both with a warning. This is a
// resynchronization heuristic for transports that split frames awkwardly,
// not a correctness guarantee.
func (s *Session) FeedUnit(ctx context.Context, unit string) error {
	if s.idle {
		return nil
	}

	chunk := unit
	if s.hasPending {
		chunk = s.pending + unit
	}

	events, err := s.adapter.Adapt(chunk)
	if err != nil {
		if !s.hasPending && IsParseError(err) {
			s.pending = unit
			s.hasPending = true
			s.log.WithError(err).Debug("holding undecodable unit for concatenation retry")
			return nil
		}
		s.pending = ""
		s.hasPending = false
		s.log.WithError(err).Warn("dropping undecodable unit")
		return nil
	}

	s.pending = ""
	s.hasPending = false
	return s.forward(ctx, events)
}

func (s *Session) forward(ctx context.Context, events []Event) error {
	for _, ev := range events {
		s.registry.Apply(ev)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case s.events <- ev:
		}

		if ev.Kind == EventComplete {
			s.idle = true
			s.log.Debug("session turn complete")
			return nil
		}
	}
	return nil
}
