package repositories

import (
	"context"
)

// ChatCompleter sends one system + user prompt to a language model
type ChatCompleter interface {
	Complete(ctx context.Context, system, user string) (string, error)

	// ContentLimit is the largest content, in characters, one request may carry
	ContentLimit() int

	// ProviderName identifies the backing provider
	ProviderName() string
}
