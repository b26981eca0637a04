package kagura

import (
	"context"

	"github.com/JFK/kagura-ai-sub000/pkg/search"
	"github.com/JFK/kagura-ai-sub000/pkg/types"
)

// HybridSearch runs the full retrieval pipeline over this client's scope:
// concurrent lexical and vector search, rank fusion, optional reranking,
// recall adjustment and graph expansion. Zero-valued options fall back to
// the client's configured defaults.
func (c *Client) HybridSearch(ctx context.Context, query string, opts search.Options) (*types.SearchResults, error) {
	merged := c.defaults
	if opts.Mode != "" {
		merged.Mode = opts.Mode
	}
	if opts.TopK > 0 {
		merged.TopK = opts.TopK
	}
	if opts.CandidatesK > 0 {
		merged.CandidatesK = opts.CandidatesK
	}
	if opts.RankConstant > 0 {
		merged.RankConstant = opts.RankConstant
	}
	if opts.BranchTimeout > 0 {
		merged.BranchTimeout = opts.BranchTimeout
	}
	if opts.Rerank {
		merged.Rerank = true
	}
	if opts.ExpandRelated {
		merged.ExpandRelated = true
	}

	return c.searcher.Search(ctx, query, c.scope, merged)
}

// VectorSearch is HybridSearch restricted to the vector index.
func (c *Client) VectorSearch(ctx context.Context, query string, topK int) (*types.SearchResults, error) {
	return c.HybridSearch(ctx, query, search.Options{Mode: search.ModeVector, TopK: topK})
}

// LexicalSearch is HybridSearch restricted to the lexical index.
func (c *Client) LexicalSearch(ctx context.Context, query string, topK int) (*types.SearchResults, error) {
	return c.HybridSearch(ctx, query, search.Options{Mode: search.ModeLexical, TopK: topK})
}
