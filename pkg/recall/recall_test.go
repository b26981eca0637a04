package recall

import (
	"testing"
	"time"

	"github.com/JFK/kagura-ai-sub000/pkg/types"
	"github.com/stretchr/testify/assert"
)

func metaWith(accessCount int, lastAccess time.Time, importance float64) types.MemoryMetadata {
	la := lastAccess
	return types.MemoryMetadata{
		Importance:     importance,
		CreatedAt:      lastAccess.Add(-24 * time.Hour),
		UpdatedAt:      lastAccess.Add(-24 * time.Hour),
		AccessCount:    accessCount,
		LastAccessedAt: &la,
	}
}

func TestFrequencyMonotonicity(t *testing.T) {
	now := time.Now()
	s := NewScorer(Config{})

	low := s.Score(metaWith(1, now, 0.5), 0.4, now)
	high := s.Score(metaWith(5, now, 0.5), 0.4, now)

	assert.GreaterOrEqual(t, high, low)
}

func TestRecencyNeverIncreasesWithElapsedTime(t *testing.T) {
	now := time.Now()
	s := NewScorer(Config{HalfLife: time.Hour})

	fresh := s.Score(metaWith(2, now.Add(-time.Minute), 0.5), 0.4, now)
	stale := s.Score(metaWith(2, now.Add(-48*time.Hour), 0.5), 0.4, now)

	assert.GreaterOrEqual(t, fresh, stale)
}

func TestRecencyHalvesAtHalfLife(t *testing.T) {
	now := time.Now()
	s := NewScorer(Config{HalfLife: time.Hour})

	meta := metaWith(0, now.Add(-time.Hour), 0)
	assert.InDelta(t, 0.5, s.RecencyScore(meta, now), 1e-9)
}

func TestRecencyFallsBackWithoutAccess(t *testing.T) {
	now := time.Now()
	s := NewScorer(Config{HalfLife: time.Hour})

	meta := types.MemoryMetadata{CreatedAt: now.Add(-time.Hour)}
	assert.InDelta(t, 0.5, s.RecencyScore(meta, now), 1e-9)

	// Never-touched, zero-time metadata scores zero recency.
	assert.Equal(t, 0.0, s.RecencyScore(types.MemoryMetadata{}, now))
}

func TestFrequencyScoreBounds(t *testing.T) {
	assert.Equal(t, 0.0, FrequencyScore(0))
	assert.Equal(t, 0.0, FrequencyScore(-3))

	prev := 0.0
	for _, n := range []int{1, 2, 5, 10, 100, 10000} {
		score := FrequencyScore(n)
		assert.Greater(t, score, prev)
		assert.Less(t, score, 1.0)
		prev = score
	}
}

func TestWeightsAreConfiguration(t *testing.T) {
	now := time.Now()
	meta := metaWith(10, now, 1.0)

	relevanceOnly := NewScorer(Config{Weights: Weights{Relevance: 1}})
	assert.InDelta(t, 0.3, relevanceOnly.Score(meta, 0.3, now), 1e-9)

	importanceOnly := NewScorer(Config{Weights: Weights{Importance: 1}})
	assert.InDelta(t, 1.0, importanceOnly.Score(meta, 0.3, now), 1e-9)
}

func TestSurfaceRanksByProactiveScore(t *testing.T) {
	now := time.Now()
	s := NewScorer(Config{HalfLife: time.Hour})

	items := []types.MemoryItem{
		{ID: "stale", Metadata: metaWith(1, now.Add(-72*time.Hour), 0.1)},
		{ID: "hot", Metadata: metaWith(20, now.Add(-time.Minute), 0.9)},
		{ID: "mild", Metadata: metaWith(3, now.Add(-2*time.Hour), 0.5)},
	}

	top := s.Surface(items, 2, now)

	assert.Len(t, top, 2)
	assert.Equal(t, "hot", top[0].ID)
	assert.Equal(t, "mild", top[1].ID)
}
