package insight

import "fmt"

// Supported model providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// NewCompleter returns the client for provider, or nil when no API key is
// set so that generation falls back to the deterministic insight.
func NewCompleter(provider string, opts ClientOptions) (Completer, error) {
	if opts.APIKey == "" {
		return nil, nil
	}
	switch provider {
	case ProviderAnthropic, "":
		return NewAnthropicClient(opts), nil
	case ProviderGemini:
		return NewGeminiClient(opts), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", provider)
	}
}
