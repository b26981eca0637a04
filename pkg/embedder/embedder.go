// Package embedder defines the embedding-model collaborator.
//
// Some embedding families encode stored documents and queries differently
// (asymmetric retrieval), so the interface exposes two entry points
// instead of one. Implementations for symmetric models simply route both
// through the same encoder.
package embedder

import (
	"context"
)

// Client turns text into vectors.
type Client interface {
	// EmbedPassages encodes documents for storage.
	EmbedPassages(ctx context.Context, texts []string) ([][]float32, error)
	// EmbedQuery encodes a search query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	// Dimensions returns the embedding width.
	Dimensions() int
}

// Config holds common embedder settings.
type Config struct {
	Model         string
	APIKey        string
	BaseURL       string
	Dimensions    int
	PassagePrefix string
	QueryPrefix   string
}
