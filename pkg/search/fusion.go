// Package search implements the retrieval pipeline: fan-out to the
// lexical and vector indices, reciprocal rank fusion, optional
// cross-encoder reranking, recall adjustment and graph expansion.
package search

import (
	"sort"

	"github.com/JFK/kagura-ai-sub000/pkg/types"
)

// DefaultRankConstant is the k in the RRF formula 1/(k+rank). 60 keeps a
// rank-1 item from a single list from dominating items well ranked in
// both lists.
const DefaultRankConstant = 60

// Fuse merges two independently ranked candidate lists with Reciprocal
// Rank Fusion. Ranks are 1-based list positions; for each distinct id,
// fusedScore = sum over lists containing it of 1/(k + rank). RRF is
// rank-based, so the two lists' native scores never need to be
// comparable. The result is sorted descending by fused score, ties
// broken by id.
func Fuse(listA, listB []types.SearchCandidate, k int) []types.FusedCandidate {
	if k <= 0 {
		k = DefaultRankConstant
	}

	merged := make(map[string]*types.FusedCandidate)
	accumulate := func(list []types.SearchCandidate) {
		for i, c := range list {
			fc, ok := merged[c.ID]
			if !ok {
				fc = &types.FusedCandidate{
					ID:       c.ID,
					Content:  c.Content,
					Metadata: c.Metadata,
				}
				merged[c.ID] = fc
			}
			fc.FusedScore += 1.0 / float64(k+i+1)
			if !fc.HasSource(c.Source) {
				fc.Sources = append(fc.Sources, c.Source)
			}
		}
	}
	accumulate(listA)
	accumulate(listB)

	fused := make([]types.FusedCandidate, 0, len(merged))
	for _, fc := range merged {
		fused = append(fused, *fc)
	}
	sort.Slice(fused, func(i, j int) bool {
		if fused[i].FusedScore != fused[j].FusedScore {
			return fused[i].FusedScore > fused[j].FusedScore
		}
		return fused[i].ID < fused[j].ID
	})
	return fused
}
