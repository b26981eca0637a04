package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JFK/kagura-ai-sub000/pkg/crossencoder"
	"github.com/JFK/kagura-ai-sub000/pkg/types"
)

func fusedCandidates() []types.FusedCandidate {
	return []types.FusedCandidate{
		{ID: "a", Content: "first passage", FusedScore: 0.03, Metadata: types.MemoryMetadata{Importance: 0.9}},
		{ID: "b", Content: "second passage", FusedScore: 0.02},
		{ID: "c", Content: "third passage", FusedScore: 0.01},
	}
}

func TestRerankReordersByScorer(t *testing.T) {
	mock := crossencoder.NewMockClient(map[string]float64{
		"third passage":  0.9,
		"first passage":  0.5,
		"second passage": 0.1,
	})
	r := NewReranker(mock, nil)

	out, reranked := r.Rerank(context.Background(), "query", fusedCandidates(), 2)
	require.True(t, reranked)
	require.Len(t, out, 2)
	assert.Equal(t, "c", out[0].ID)
	assert.Equal(t, "a", out[1].ID)
	// Original metadata survives rescoring.
	assert.Equal(t, 0.9, out[1].Metadata.Importance)
}

// positionalScorer scores each passage by its input position, ignoring
// content entirely.
type positionalScorer struct{ scores []float64 }

func (s *positionalScorer) Rank(_ context.Context, _ string, passages []string) ([]crossencoder.RankedPassage, error) {
	var ranked []crossencoder.RankedPassage
	for i, p := range passages {
		if i >= len(s.scores) {
			break
		}
		ranked = append(ranked, crossencoder.RankedPassage{Passage: p, Score: s.scores[i]})
	}
	return ranked, nil
}

func TestRerankDuplicateContentKeepsPerCandidateScores(t *testing.T) {
	candidates := []types.FusedCandidate{
		{ID: "a", Content: "same passage", FusedScore: 0.03},
		{ID: "b", Content: "same passage", FusedScore: 0.02},
		{ID: "c", Content: "other passage", FusedScore: 0.01},
	}
	r := NewReranker(&positionalScorer{scores: []float64{0.2, 0.9, 0.5}}, nil)

	// The join is by index, so candidates sharing content never alias
	// one score, and repeated runs agree.
	for i := 0; i < 5; i++ {
		out, reranked := r.Rerank(context.Background(), "query", candidates, 3)
		require.True(t, reranked)
		require.Len(t, out, 3)
		assert.Equal(t, "b", out[0].ID)
		assert.Equal(t, 0.9, out[0].FusedScore)
		assert.Equal(t, "c", out[1].ID)
		assert.Equal(t, "a", out[2].ID)
	}
}

func TestRerankDegradesOnShortScorerReply(t *testing.T) {
	r := NewReranker(&positionalScorer{scores: []float64{0.5}}, nil)

	// A scorer reply that does not cover every candidate cannot be
	// joined back, so the fused order survives.
	out, reranked := r.Rerank(context.Background(), "query", fusedCandidates()[:2], 2)
	assert.False(t, reranked)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)
}

func TestRerankDegradesWithoutScorer(t *testing.T) {
	r := NewReranker(nil, nil)

	out, reranked := r.Rerank(context.Background(), "query", fusedCandidates(), 2)
	assert.False(t, reranked)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "b", out[1].ID)
}

func TestRerankDegradesOnScorerError(t *testing.T) {
	mock := crossencoder.NewMockClient(nil)
	mock.Err = errors.New("model unavailable")
	r := NewReranker(mock, nil)

	out, reranked := r.Rerank(context.Background(), "query", fusedCandidates(), 3)
	assert.False(t, reranked)
	assert.Equal(t, "a", out[0].ID)
}

func TestRerankDegradesOnCancelledContext(t *testing.T) {
	mock := crossencoder.NewMockClient(map[string]float64{"third passage": 1})
	r := NewReranker(mock, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, reranked := r.Rerank(ctx, "query", fusedCandidates(), 3)
	assert.False(t, reranked)
	assert.Equal(t, "a", out[0].ID)
	assert.Zero(t, mock.Calls)
}
