package types

import (
	"time"
)

// SourceList identifies which index produced a search candidate.
type SourceList string

const (
	SourceVector  SourceList = "vector"
	SourceLexical SourceList = "lexical"
)

// MemoryMetadata carries the per-item signals used for recall scoring.
type MemoryMetadata struct {
	Tags           []string   `json:"tags,omitempty"`
	Importance     float64    `json:"importance"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	AccessCount    int        `json:"access_count"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
}

// MemoryItem is a stored unit of memory. ID is the join key across the
// lexical index, the vector index and the persistent store, so it must be
// stable and unique within a scope.
type MemoryItem struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Scope    string         `json:"scope"`
	Metadata MemoryMetadata `json:"metadata"`
}

// ClampImportance forces Importance into [0, 1]. Applied on every write.
func (m *MemoryItem) ClampImportance() {
	if m.Metadata.Importance < 0 {
		m.Metadata.Importance = 0
	}
	if m.Metadata.Importance > 1 {
		m.Metadata.Importance = 1
	}
}

// Touch records an access: bumps the access counter and refreshes the
// last-accessed timestamp. Callers decide when this side effect happens.
func (m *MemoryItem) Touch(now time.Time) {
	m.Metadata.AccessCount++
	t := now
	m.Metadata.LastAccessedAt = &t
}

// SearchCandidate is a single result from one index, before fusion.
// RelevanceScore is index-native (BM25 score or cosine similarity) and is
// not comparable across sources; Rank is the 1-based position in the
// source list and is what fusion operates on.
type SearchCandidate struct {
	ID             string         `json:"id"`
	Content        string         `json:"content"`
	RelevanceScore float64        `json:"relevance_score"`
	Rank           int            `json:"rank"`
	Source         SourceList     `json:"source"`
	Metadata       MemoryMetadata `json:"metadata"`
}

// FusedCandidate is the result of merging the per-index candidate lists.
// Sources records which lists contributed; Metadata is the union of
// whichever source(s) produced the candidate.
type FusedCandidate struct {
	ID         string         `json:"id"`
	Content    string         `json:"content"`
	FusedScore float64        `json:"fused_score"`
	Sources    []SourceList   `json:"sources"`
	Metadata   MemoryMetadata `json:"metadata"`
}

// HasSource reports whether the given list contributed to this candidate.
func (f FusedCandidate) HasSource(s SourceList) bool {
	for _, src := range f.Sources {
		if src == s {
			return true
		}
	}
	return false
}

// RelatedItem annotates a ranked result with a graph neighbor. Related
// items supplement the primary ranking, they are never mixed into it.
type RelatedItem struct {
	ID       string   `json:"id"`
	Type     NodeType `json:"type"`
	EdgeType EdgeType `json:"edge_type"`
}

// RankedResult is one entry of the final ranking returned by HybridSearch.
type RankedResult struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Score    float64        `json:"score"`
	Sources  []SourceList   `json:"sources"`
	Metadata MemoryMetadata `json:"metadata"`
	Related  []RelatedItem  `json:"related,omitempty"`
}

// SearchResults is the full response of a hybrid search. Reranked reports
// whether the cross-encoder stage actually ran; callers and tests rely on
// it to observe graceful degradation.
type SearchResults struct {
	Query    string         `json:"query"`
	Results  []RankedResult `json:"results"`
	Reranked bool           `json:"reranked"`
	Total    int            `json:"total"`
}
