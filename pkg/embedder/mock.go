package embedder

import (
	"context"
	"hash/fnv"
	"strings"

	"github.com/JFK/kagura-ai-sub000/pkg/utils"
)

// MockClient is a deterministic embedder for tests: each token is hashed
// into a fixed-width bag-of-words vector, so texts sharing terms land
// close together under cosine similarity while production models stay out
// of the test loop.
type MockClient struct {
	dims        int
	queryOffset bool
}

// NewMockClient creates a mock embedder with the given vector width.
func NewMockClient(dims int) *MockClient {
	if dims <= 0 {
		dims = 64
	}
	return &MockClient{dims: dims}
}

// EmbedPassages encodes each text as a normalized hashed bag of words.
func (m *MockClient) EmbedPassages(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vectors[i] = m.encode(t)
	}
	return vectors, nil
}

// EmbedQuery encodes a query with the same hashing as passages; the two
// entry points stay distinct so callers exercise the asymmetric contract.
func (m *MockClient) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return m.encode(text), nil
}

// Dimensions returns the configured vector width.
func (m *MockClient) Dimensions() int { return m.dims }

func (m *MockClient) encode(text string) []float32 {
	vec := make([]float32, m.dims)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[int(h.Sum32())%m.dims]++
	}
	if n := utils.Normalize(vec); n != nil {
		return n
	}
	return vec
}
