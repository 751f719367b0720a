// Package lorem generates synthetic provider wire streams for testing and
// development without a real backend.
//
// The source emits complete turns as raw wire chunks in a chosen dialect
// (Ollama's line-delimited format or an OpenAI-compatible SSE stream),
// optionally with an embedded <think> span split adversarially across chunk
// boundaries - exactly the fragmentation the tag scanner has to survive.
package lorem

import (
	"context"
	"strings"
	"time"

	loremgen "github.com/bozaro/golorem"
	"github.com/tidwall/sjson"

	llmstream "github.com/haslund/llmstream-go"
)

// Dialect selects which provider wire format the source emits.
type Dialect string

const (
	// DialectOllama emits line-delimited generate-API JSON objects.
	DialectOllama Dialect = "ollama"

	// DialectOpenAI emits OpenAI-compatible SSE data frames, terminated by
	// the [DONE] sentinel.
	DialectOpenAI Dialect = "openai"
)

// Source produces synthetic wire chunks.
type Source struct {
	generator *loremgen.Lorem
	dialect   Dialect
	model     string
	thinking  bool

	// fragmentLen slices the generated text into chunks of this many bytes,
	// deliberately ignoring word and marker boundaries.
	fragmentLen int
}

// Option configures a Source.
type Option func(*Source)

// WithThinking prepends a <think> span to every generated turn.
func WithThinking() Option {
	return func(s *Source) { s.thinking = true }
}

// WithFragmentLen overrides the per-chunk content length. Small values (down
// to 1) exercise marker splitting at every byte boundary.
func WithFragmentLen(n int) Option {
	return func(s *Source) {
		if n > 0 {
			s.fragmentLen = n
		}
	}
}

// NewSource creates a source for the given dialect and model name.
func NewSource(dialect Dialect, model string, opts ...Option) *Source {
	s := &Source{
		generator:   loremgen.New(),
		dialect:     dialect,
		model:       model,
		fragmentLen: 5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Chunks generates one complete turn as a slice of wire chunks: content
// fragments followed by the dialect's termination frames.
func (s *Source) Chunks(sentences int) []string {
	text := s.turnText(sentences)
	fragments := sliceText(text, s.fragmentLen)

	var chunks []string
	for _, frag := range fragments {
		chunks = append(chunks, s.contentChunk(frag))
	}
	return append(chunks, s.finishChunks(text)...)
}

// Stream emits the turn's chunks on a channel with a small delay between
// fragments, simulating live decoding. The channel closes after the final
// chunk or when ctx is cancelled.
func (s *Source) Stream(ctx context.Context, sentences int, delay time.Duration) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		for _, chunk := range s.Chunks(sentences) {
			select {
			case <-ctx.Done():
				return
			case out <- chunk:
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}
	}()
	return out
}

func (s *Source) turnText(sentences int) string {
	var sb strings.Builder
	if s.thinking {
		sb.WriteString(llmstream.DefaultThinkStartTag)
		sb.WriteString(s.generator.Sentence(5, 12))
		sb.WriteString(llmstream.DefaultThinkEndTag)
	}
	for i := 0; i < sentences; i++ {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(s.generator.Sentence(5, 15))
	}
	return sb.String()
}

func (s *Source) contentChunk(fragment string) string {
	switch s.dialect {
	case DialectOllama:
		body, _ := sjson.Set(`{"done":false}`, "model", s.model)
		body, _ = sjson.Set(body, "response", fragment)
		return body
	default:
		body, _ := sjson.Set(`{"object":"chat.completion.chunk"}`, "model", s.model)
		body, _ = sjson.Set(body, "choices.0.delta.content", fragment)
		return "data: " + body
	}
}

func (s *Source) finishChunks(text string) []string {
	inputTokens := 8
	outputTokens := len(strings.Fields(text))

	switch s.dialect {
	case DialectOllama:
		body, _ := sjson.Set(`{"done":true,"response":""}`, "model", s.model)
		body, _ = sjson.Set(body, "done_reason", "stop")
		body, _ = sjson.Set(body, "prompt_eval_count", inputTokens)
		body, _ = sjson.Set(body, "eval_count", outputTokens)
		return []string{body}
	default:
		body, _ := sjson.Set(`{"object":"chat.completion.chunk"}`, "model", s.model)
		body, _ = sjson.Set(body, "choices.0.delta.content", "")
		body, _ = sjson.Set(body, "choices.0.finish_reason", "stop")
		body, _ = sjson.Set(body, "usage.prompt_tokens", inputTokens)
		body, _ = sjson.Set(body, "usage.completion_tokens", outputTokens)
		return []string{"data: " + body, "data: [DONE]"}
	}
}

// sliceText splits text into length-bounded fragments with no regard for
// word or marker boundaries.
func sliceText(text string, n int) []string {
	var out []string
	for len(text) > n {
		out = append(out, text[:n])
		text = text[n:]
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}
