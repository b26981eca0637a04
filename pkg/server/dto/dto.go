// Package dto defines the request and response shapes of the HTTP API.
package dto

import (
	"errors"
	"strings"

	"github.com/JFK/kagura-ai-sub000/pkg/types"
)

// MaxContentLength bounds stored content size.
const MaxContentLength = 65536

var (
	// ErrContentTooLong is returned when content exceeds MaxContentLength.
	ErrContentTooLong = errors.New("content exceeds maximum length")
)

// StoreRequest creates or replaces a memory item.
type StoreRequest struct {
	ID         string   `json:"id" binding:"required"`
	Content    string   `json:"content" binding:"required"`
	Tags       []string `json:"tags,omitempty"`
	Importance float64  `json:"importance"`
}

// Validate performs validation on StoreRequest.
func (r *StoreRequest) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("id cannot be empty")
	}
	if strings.TrimSpace(r.Content) == "" {
		return errors.New("content cannot be empty")
	}
	if len(r.Content) > MaxContentLength {
		return ErrContentTooLong
	}
	return nil
}

// SearchRequest runs a hybrid search.
type SearchRequest struct {
	Query         string `json:"query" binding:"required"`
	TopK          int    `json:"top_k,omitempty"`
	CandidatesK   int    `json:"candidates_k,omitempty"`
	Mode          string `json:"mode,omitempty"` // hybrid, vector, lexical
	Rerank        bool   `json:"rerank,omitempty"`
	ExpandRelated bool   `json:"expand_related,omitempty"`
}

// Validate performs validation on SearchRequest.
func (r *SearchRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return errors.New("query cannot be empty")
	}
	switch r.Mode {
	case "", "hybrid", "vector", "lexical":
		return nil
	default:
		return errors.New("mode must be hybrid, vector or lexical")
	}
}

// RelateRequest records a relationship edge.
type RelateRequest struct {
	Source   string `json:"source" binding:"required"`
	Target   string `json:"target" binding:"required"`
	EdgeType string `json:"edge_type" binding:"required"`
}

// NodeRequest registers a graph node.
type NodeRequest struct {
	ID         string         `json:"id" binding:"required"`
	Type       string         `json:"type" binding:"required"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Result is a generic API result envelope.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SearchResponse wraps the search results.
type SearchResponse struct {
	Query    string               `json:"query"`
	Results  []types.RankedResult `json:"results"`
	Reranked bool                 `json:"reranked"`
	Total    int                  `json:"total"`
}

// SurfaceResponse lists proactively recalled items.
type SurfaceResponse struct {
	Items []types.MemoryItem `json:"items"`
}

// RelatedResponse lists graph neighbors.
type RelatedResponse struct {
	NodeID  string            `json:"node_id"`
	Related []types.GraphNode `json:"related"`
}

// ReconcileResponse reports a consistency sweep.
type ReconcileResponse struct {
	Repairs int `json:"repairs"`
}
