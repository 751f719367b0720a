// Package providers selects a concrete stream adapter by provider identity.
package providers

import (
	"fmt"

	llmstream "github.com/haslund/llmstream-go"
	"github.com/haslund/llmstream-go/providers/anthropic"
	"github.com/haslund/llmstream-go/providers/deepseek"
	"github.com/haslund/llmstream-go/providers/lmstudio"
	"github.com/haslund/llmstream-go/providers/ollama"
	"github.com/haslund/llmstream-go/providers/openrouter"
	"github.com/haslund/llmstream-go/providers/qwen"
)

// New returns a fresh adapter for the given provider, selected once at
// session start. There is deliberately no mutable registration mechanism:
// the set of decoders is closed and each session owns its own instance.
//
// The model name matters only to providers whose tag scanning is gated on a
// model-name heuristic; the others ignore it.
func New(id llmstream.ProviderID, model string) (llmstream.Adapter, error) {
	switch id {
	case llmstream.ProviderAnthropic:
		return anthropic.New(), nil
	case llmstream.ProviderOpenRouter:
		return openrouter.New(), nil
	case llmstream.ProviderDeepSeek:
		return deepseek.New(), nil
	case llmstream.ProviderQwen:
		return qwen.New(), nil
	case llmstream.ProviderOllama:
		return ollama.New(model), nil
	case llmstream.ProviderLMStudio:
		return lmstudio.New(model), nil
	default:
		return nil, fmt.Errorf("%w: %s", llmstream.ErrUnknownProvider, id)
	}
}
