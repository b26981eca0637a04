// Package crossencoder provides the cross-encoder scorer collaborator
// used to rerank search candidates.
//
// A cross-encoder scores a (query, document) pair jointly, which is more
// precise than independently-encoded similarity but far more expensive,
// so it only runs over a small candidate set. Implementations include an
// OpenAI-backed client, a local term-frequency client and a mock for
// tests; remote clients can be wrapped in a circuit breaker.
package crossencoder

import (
	"context"
	"fmt"
)

// RankedPassage is one scored passage; higher means more relevant.
type RankedPassage struct {
	Passage string  `json:"passage"`
	Score   float64 `json:"score"`
}

// Client scores passages against a query. Rank returns one scored
// passage per input, aligned with the input positions, so callers can
// join scores back to their candidates by index even when two passages
// share the same content. Ordering is the caller's concern.
type Client interface {
	Rank(ctx context.Context, query string, passages []string) ([]RankedPassage, error)
}

// Provider selects a cross-encoder implementation.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderLocal  Provider = "local"
	ProviderMock   Provider = "mock"
	ProviderNone   Provider = "none"
)

// Config holds common cross-encoder settings.
type Config struct {
	Model          string
	APIKey         string
	BaseURL        string
	MaxConcurrency int
}

// NewClient builds a cross-encoder for the given provider. ProviderNone
// returns (nil, nil): the caller treats a nil client as an absent
// capability and degrades reranking rather than failing.
func NewClient(provider Provider, config Config) (Client, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIClient(config)
	case ProviderLocal:
		return NewLocalClient(), nil
	case ProviderMock:
		return NewMockClient(nil), nil
	case ProviderNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown cross-encoder provider %q", provider)
	}
}
