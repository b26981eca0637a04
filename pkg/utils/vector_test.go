package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-3, 0}), 1e-9)

	// Degenerate inputs score zero instead of erroring.
	assert.Zero(t, CosineSimilarity([]float32{1, 0}, []float32{1}))
	assert.Zero(t, CosineSimilarity(nil, nil))
	assert.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}

func TestNormalize(t *testing.T) {
	got := Normalize([]float32{3, 4})
	require.Len(t, got, 2)
	assert.InDelta(t, 0.6, float64(got[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(got[1]), 1e-6)

	assert.Nil(t, Normalize(nil))
	assert.Nil(t, Normalize([]float32{0, 0}))
}

func scoredIDs(items []ScoredItem[string]) []string {
	ids := make([]string, len(items))
	for i, s := range items {
		ids[i] = s.Item
	}
	return ids
}

func TestTopKByScoreSelectsHighest(t *testing.T) {
	items := []ScoredItem[string]{
		{Item: "a", Score: 0.1},
		{Item: "b", Score: 0.9},
		{Item: "c", Score: 0.5},
		{Item: "d", Score: 0.7},
		{Item: "e", Score: 0.3},
	}

	// k < n exercises the heap path.
	top := TopKByScore(items, 3, nil)
	assert.Equal(t, []string{"b", "d", "c"}, scoredIDs(top))

	// k >= n returns everything, sorted.
	all := TopKByScore(items, 10, nil)
	assert.Equal(t, []string{"b", "d", "c", "e", "a"}, scoredIDs(all))

	assert.Nil(t, TopKByScore(items, 0, nil))
	assert.Nil(t, TopKByScore[string](nil, 3, nil))
}

func TestTopKByScoreTieComparator(t *testing.T) {
	items := []ScoredItem[string]{
		{Item: "z", Score: 0.5},
		{Item: "m", Score: 0.5},
		{Item: "a", Score: 0.5},
		{Item: "q", Score: 0.1},
	}
	tie := func(a, b string) bool { return a < b }

	// Equal scores resolve through the comparator on both paths, so the
	// same two survivors come back regardless of input order.
	top := TopKByScore(items, 2, tie)
	assert.Equal(t, []string{"a", "m"}, scoredIDs(top))

	reversed := []ScoredItem[string]{items[2], items[1], items[0], items[3]}
	assert.Equal(t, scoredIDs(top), scoredIDs(TopKByScore(reversed, 2, tie)))

	all := TopKByScore(items, 4, tie)
	assert.Equal(t, []string{"a", "m", "z", "q"}, scoredIDs(all))
}
