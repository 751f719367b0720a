package llmstream

// ProviderID represents a unique provider identifier.
// Using a typed constant prevents typos and provides compile-time safety.
type ProviderID string

// Known provider identifiers
const (
	// ProviderAnthropic is Anthropic's Messages streaming API
	ProviderAnthropic ProviderID = "anthropic"

	// ProviderOpenRouter is OpenRouter's chat-completions streaming API
	ProviderOpenRouter ProviderID = "openrouter"

	// ProviderDeepSeek is DeepSeek's chat-completions streaming API
	ProviderDeepSeek ProviderID = "deepseek"

	// ProviderQwen is Alibaba's DashScope OpenAI-compatible streaming API
	ProviderQwen ProviderID = "qwen"

	// ProviderOllama is Ollama's line-delimited generate API
	ProviderOllama ProviderID = "ollama"

	// ProviderLMStudio is LM Studio's OpenAI-compatible streaming API
	ProviderLMStudio ProviderID = "lmstudio"

	// ProviderLorem is the mock Lorem chunk source for testing
	ProviderLorem ProviderID = "lorem"
)

// String returns the string representation of the provider ID
func (p ProviderID) String() string {
	return string(p)
}

// IsValid returns true if the provider ID is a known provider
func (p ProviderID) IsValid() bool {
	switch p {
	case ProviderAnthropic, ProviderOpenRouter, ProviderDeepSeek,
		ProviderQwen, ProviderOllama, ProviderLMStudio, ProviderLorem:
		return true
	default:
		return false
	}
}
