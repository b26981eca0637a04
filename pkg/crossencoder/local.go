package crossencoder

import (
	"context"
	"math"
	"strings"
)

// LocalClient implements Client with cosine similarity over term-frequency
// vectors. No model, no network; useful as a cheap default when neither a
// remote scorer nor a local model runtime is installed.
type LocalClient struct{}

// NewLocalClient creates a local term-frequency cross-encoder.
func NewLocalClient() *LocalClient {
	return &LocalClient{}
}

// Rank scores each passage by term-frequency cosine similarity with the
// query, in input order.
func (c *LocalClient) Rank(_ context.Context, query string, passages []string) ([]RankedPassage, error) {
	queryVec := termFrequencies(query)

	ranked := make([]RankedPassage, len(passages))
	for i, p := range passages {
		ranked[i] = RankedPassage{Passage: p, Score: tfCosine(queryVec, termFrequencies(p))}
	}
	return ranked, nil
}

func termFrequencies(text string) map[string]float64 {
	freqs := make(map[string]float64)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		freqs[tok]++
	}
	return freqs
}

func tfCosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for term, fa := range a {
		normA += fa * fa
		if fb, ok := b[term]; ok {
			dot += fa * fb
		}
	}
	for _, fb := range b {
		normB += fb * fb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
