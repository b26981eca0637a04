package search

import (
	"context"
	"log/slog"
	"sort"

	"github.com/JFK/kagura-ai-sub000/pkg/crossencoder"
	"github.com/JFK/kagura-ai-sub000/pkg/types"
)

// Reranker re-scores fused candidates against the raw query with a
// cross-encoder. The scorer is an optional capability: a nil client means
// reranking is absent, and Rerank degrades to the pre-rerank order
// instead of failing.
type Reranker struct {
	client crossencoder.Client
	logger *slog.Logger
}

// NewReranker wraps a cross-encoder client. client may be nil.
func NewReranker(client crossencoder.Client, logger *slog.Logger) *Reranker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reranker{client: client, logger: logger}
}

// Available reports whether a cross-encoder is configured.
func (r *Reranker) Available() bool {
	return r != nil && r.client != nil
}

// Rerank scores each candidate's content against the query, sorts
// descending by cross-encoder score and truncates to topK. All original
// metadata survives on each candidate. The boolean reports whether
// reranking actually ran: on an absent scorer, a scorer error or a
// cancelled context the input order is returned (truncated) with false.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []types.FusedCandidate, topK int) ([]types.FusedCandidate, bool) {
	if topK <= 0 || topK > len(candidates) {
		topK = len(candidates)
	}

	if !r.Available() {
		return candidates[:topK], false
	}
	if err := ctx.Err(); err != nil {
		r.logger.Warn("rerank skipped, context done", "error", err)
		return candidates[:topK], false
	}

	passages := make([]string, len(candidates))
	for i, c := range candidates {
		passages[i] = c.Content
	}
	ranked, err := r.client.Rank(ctx, query, passages)
	if err != nil {
		r.logger.Warn("rerank failed, returning fused order", "error", err)
		return candidates[:topK], false
	}
	if len(ranked) != len(candidates) {
		r.logger.Warn("rerank skipped, scorer returned wrong passage count",
			"want", len(candidates), "got", len(ranked))
		return candidates[:topK], false
	}

	// Scores come back aligned with the input, so the join is by index:
	// candidates with identical content keep their own scores.
	rescored := make([]types.FusedCandidate, len(candidates))
	copy(rescored, candidates)
	for i := range rescored {
		rescored[i].FusedScore = ranked[i].Score
	}
	sort.Slice(rescored, func(i, j int) bool {
		if rescored[i].FusedScore != rescored[j].FusedScore {
			return rescored[i].FusedScore > rescored[j].FusedScore
		}
		return rescored[i].ID < rescored[j].ID
	})
	return rescored[:topK], true
}
