package llm

import (
	"fmt"
	"strings"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/config"
)

// Provider is a supported chat-completion backend
type Provider int

const (
	ProviderOpenAI Provider = iota + 1
	ProviderDeepSeek
)

func (p Provider) String() string {
	switch p {
	case ProviderOpenAI:
		return "openai"
	case ProviderDeepSeek:
		return "deepseek"
	default:
		return "unknown"
	}
}

// ParseProvider maps a configured name onto a Provider
func ParseProvider(name string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "openai":
		return ProviderOpenAI, nil
	case "deepseek":
		return ProviderDeepSeek, nil
	default:
		return 0, fmt.Errorf("unknown AI provider %q", name)
	}
}

// ProviderSpec is everything the request builder needs to talk to one provider
type ProviderSpec struct {
	Provider        Provider
	BaseURL         string
	Model           string
	APIKey          string
	MaxTokens       int
	MaxContentChars int
	Temperature     float64
	TopP            float64
}

// SpecFor resolves the provider settings from configuration
func SpecFor(cfg config.AIConfig) (ProviderSpec, error) {
	provider, err := ParseProvider(cfg.Provider)
	if err != nil {
		return ProviderSpec{}, err
	}

	switch provider {
	case ProviderOpenAI:
		return ProviderSpec{
			Provider:        ProviderOpenAI,
			BaseURL:         cfg.OpenAIBaseURL,
			Model:           cfg.OpenAIModel,
			APIKey:          cfg.OpenAIAPIKey,
			MaxTokens:       4096,
			MaxContentChars: 120000,
			Temperature:     0.2,
			TopP:            1,
		}, nil
	default:
		return ProviderSpec{
			Provider:        ProviderDeepSeek,
			BaseURL:         cfg.DeepSeekURL,
			Model:           cfg.DeepSeekModel,
			APIKey:          cfg.DeepSeekAPIKey,
			MaxTokens:       8192,
			MaxContentChars: 60000,
			Temperature:     0.2,
			TopP:            1,
		}, nil
	}
}
