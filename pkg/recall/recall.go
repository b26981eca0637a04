// Package recall blends retrieval relevance with recency, frequency and
// importance signals into a single recall score.
//
// The same scorer drives two operations: adjusting a retrieval ranking,
// and proactive recall with no query at all ("what matters now"). Signal
// weights are configuration, never hardcoded.
package recall

import (
	"math"
	"sort"
	"time"

	"github.com/JFK/kagura-ai-sub000/pkg/types"
	"github.com/JFK/kagura-ai-sub000/pkg/utils"
)

// Weights controls the blend of the four signals. They need not sum to 1;
// the scorer normalizes by the total.
type Weights struct {
	Relevance  float64 `mapstructure:"relevance" json:"relevance"`
	Recency    float64 `mapstructure:"recency" json:"recency"`
	Frequency  float64 `mapstructure:"frequency" json:"frequency"`
	Importance float64 `mapstructure:"importance" json:"importance"`
}

// DefaultWeights favors relevance while letting the other signals break
// near-ties.
func DefaultWeights() Weights {
	return Weights{Relevance: 0.6, Recency: 0.15, Frequency: 0.1, Importance: 0.15}
}

// Config holds the scorer's tunables.
type Config struct {
	Weights Weights
	// HalfLife is the elapsed time at which the recency signal halves.
	HalfLife time.Duration
}

// Scorer computes recall scores. Zero-value weights fall back to
// DefaultWeights and a 7-day half-life.
type Scorer struct {
	weights  Weights
	halfLife time.Duration
}

// NewScorer creates a scorer from config.
func NewScorer(cfg Config) *Scorer {
	w := cfg.Weights
	if w.Relevance == 0 && w.Recency == 0 && w.Frequency == 0 && w.Importance == 0 {
		w = DefaultWeights()
	}
	halfLife := cfg.HalfLife
	if halfLife <= 0 {
		halfLife = 7 * 24 * time.Hour
	}
	return &Scorer{weights: w, halfLife: halfLife}
}

// Score blends baseRelevance with the item's recency, frequency and
// importance signals at the given instant. Holding everything else fixed,
// the result never decreases with access count and never increases with
// elapsed time since last access.
func (s *Scorer) Score(meta types.MemoryMetadata, baseRelevance float64, now time.Time) float64 {
	total := s.weights.Relevance + s.weights.Recency + s.weights.Frequency + s.weights.Importance
	if total == 0 {
		return baseRelevance
	}

	weighted := s.weights.Relevance*baseRelevance +
		s.weights.Recency*s.RecencyScore(meta, now) +
		s.weights.Frequency*FrequencyScore(meta.AccessCount) +
		s.weights.Importance*meta.Importance
	return weighted / total
}

// ProactiveScore ranks an item with no query: recency, frequency and
// importance only, renormalized over their weights.
func (s *Scorer) ProactiveScore(meta types.MemoryMetadata, now time.Time) float64 {
	total := s.weights.Recency + s.weights.Frequency + s.weights.Importance
	if total == 0 {
		return 0
	}

	weighted := s.weights.Recency*s.RecencyScore(meta, now) +
		s.weights.Frequency*FrequencyScore(meta.AccessCount) +
		s.weights.Importance*meta.Importance
	return weighted / total
}

// RecencyScore decays exponentially with time since last access, halving
// every HalfLife. Items never accessed fall back to their update or
// creation time. Result is in (0, 1].
func (s *Scorer) RecencyScore(meta types.MemoryMetadata, now time.Time) float64 {
	ref := meta.CreatedAt
	if !meta.UpdatedAt.IsZero() {
		ref = meta.UpdatedAt
	}
	if meta.LastAccessedAt != nil {
		ref = *meta.LastAccessedAt
	}
	if ref.IsZero() {
		return 0
	}

	elapsed := now.Sub(ref)
	if elapsed <= 0 {
		return 1
	}
	return math.Exp2(-float64(elapsed) / float64(s.halfLife))
}

// FrequencyScore maps an access count monotonically into [0, 1) using
// log1p saturation: early accesses matter most, later ones add less.
func FrequencyScore(accessCount int) float64 {
	if accessCount <= 0 {
		return 0
	}
	l := math.Log1p(float64(accessCount))
	return l / (l + 1)
}

// Surface ranks items by proactive recall score and returns the top
// limit, most relevant first. Ties are broken by id for reproducibility.
func (s *Scorer) Surface(items []types.MemoryItem, limit int, now time.Time) []types.MemoryItem {
	scored := make([]utils.ScoredItem[types.MemoryItem], len(items))
	for i, item := range items {
		scored[i] = utils.ScoredItem[types.MemoryItem]{
			Item:  item,
			Score: s.ProactiveScore(item.Metadata, now),
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Item.ID < scored[j].Item.ID
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	result := make([]types.MemoryItem, len(scored))
	for i, sc := range scored {
		result[i] = sc.Item
	}
	return result
}
