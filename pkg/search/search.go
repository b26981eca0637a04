package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/JFK/kagura-ai-sub000/pkg/embedder"
	"github.com/JFK/kagura-ai-sub000/pkg/graph"
	"github.com/JFK/kagura-ai-sub000/pkg/lexical"
	"github.com/JFK/kagura-ai-sub000/pkg/recall"
	"github.com/JFK/kagura-ai-sub000/pkg/types"
	"github.com/JFK/kagura-ai-sub000/pkg/utils"
	"github.com/JFK/kagura-ai-sub000/pkg/vector"
)

// Mode selects which indices a search consults.
type Mode string

const (
	ModeHybrid  Mode = "hybrid"
	ModeVector  Mode = "vector"
	ModeLexical Mode = "lexical"
)

const (
	// DefaultTopK is the result count when the caller does not set one.
	DefaultTopK = 10
	// DefaultCandidatesK bounds each index branch before fusion.
	DefaultCandidatesK = 50
	// DefaultBranchTimeout bounds one index branch; on expiry that
	// branch contributes nothing instead of failing the query.
	DefaultBranchTimeout = 2 * time.Second

	// rerankExpansion widens the candidate set handed to the
	// cross-encoder beyond topK so reranking has room to promote.
	rerankExpansion = 3

	defaultEmbedCacheSize = 512
)

// Options tune a single search call. Zero values take the defaults above.
type Options struct {
	Mode          Mode
	TopK          int
	CandidatesK   int
	RankConstant  int
	BranchTimeout time.Duration

	// ExpandRelated annotates each result with its one-hop graph
	// neighbors. Related items supplement the ranking, they are never
	// mixed into it.
	ExpandRelated bool

	// Rerank enables the cross-encoder stage when a scorer is
	// configured. Absence of a scorer degrades, it never fails.
	Rerank bool
}

func (o *Options) applyDefaults() {
	if o.Mode == "" {
		o.Mode = ModeHybrid
	}
	if o.TopK <= 0 {
		o.TopK = DefaultTopK
	}
	if o.CandidatesK <= 0 {
		o.CandidatesK = DefaultCandidatesK
	}
	if o.RankConstant <= 0 {
		o.RankConstant = DefaultRankConstant
	}
	if o.BranchTimeout <= 0 {
		o.BranchTimeout = DefaultBranchTimeout
	}
}

// SearcherConfig wires the pipeline's collaborators. Lexical, Vectors and
// Embedder are required; Reranker, Recall and Graph are optional.
type SearcherConfig struct {
	Lexical  *lexical.Index
	Vectors  vector.Index
	Embedder embedder.Client
	Reranker *Reranker
	Recall   *recall.Scorer
	Graph    *graph.Store

	Logger         *slog.Logger
	EmbedCacheSize int
	Clock          func() time.Time
}

// Searcher coordinates the retrieval stages into one Search operation.
type Searcher struct {
	lexical  *lexical.Index
	vectors  vector.Index
	embedder embedder.Client
	reranker *Reranker
	recall   *recall.Scorer
	graph    *graph.Store

	embedCache *lru.Cache[string, []float32]
	logger     *slog.Logger
	clock      func() time.Time
}

// NewSearcher validates the required collaborators and builds a
// Searcher. Missing required collaborators surface here as a
// ConfigurationError, never later mid-query.
func NewSearcher(cfg SearcherConfig) (*Searcher, error) {
	if cfg.Lexical == nil {
		return nil, &types.ConfigurationError{Field: "lexical", Reason: "lexical index is required"}
	}
	if cfg.Vectors == nil {
		return nil, &types.ConfigurationError{Field: "vectors", Reason: "vector index is required"}
	}
	if cfg.Embedder == nil {
		return nil, &types.ConfigurationError{Field: "embedder", Reason: "embedding client is required"}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Reranker == nil {
		cfg.Reranker = NewReranker(nil, cfg.Logger)
	}
	if cfg.Recall == nil {
		cfg.Recall = recall.NewScorer(recall.Config{})
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	size := cfg.EmbedCacheSize
	if size <= 0 {
		size = defaultEmbedCacheSize
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("search: embed cache: %w", err)
	}
	return &Searcher{
		lexical:    cfg.Lexical,
		vectors:    cfg.Vectors,
		embedder:   cfg.Embedder,
		reranker:   cfg.Reranker,
		recall:     cfg.Recall,
		graph:      cfg.Graph,
		embedCache: cache,
		logger:     cfg.Logger,
		clock:      cfg.Clock,
	}, nil
}

// Search runs the full pipeline: concurrent lexical and vector branches,
// rank fusion, optional reranking, recall adjustment and optional graph
// expansion. Final ties are broken by id so identical inputs always
// produce identical output.
func (s *Searcher) Search(ctx context.Context, query, scope string, opts Options) (*types.SearchResults, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts.applyDefaults()

	lexResults, vecResults := s.fanOut(ctx, query, scope, opts)

	fused := Fuse(lexResults, vecResults, opts.RankConstant)

	reranked := false
	if opts.Rerank {
		limit := opts.TopK * rerankExpansion
		if limit < len(fused) {
			fused = fused[:limit]
		}
		fused, reranked = s.reranker.Rerank(ctx, query, fused, len(fused))
	}

	results := s.adjust(fused, opts.TopK)

	if opts.ExpandRelated && s.graph != nil {
		now := s.clock()
		for i := range results {
			results[i].Related = s.graph.RelatedWithEdges(results[i].ID, graph.QueryOptions{AtTime: &now})
		}
	}

	return &types.SearchResults{
		Query:    query,
		Results:  results,
		Reranked: reranked,
		Total:    len(results),
	}, nil
}

// fanOut issues the two index branches concurrently, each bounded by the
// branch timeout. A failed or timed-out branch degrades to an empty
// contribution.
func (s *Searcher) fanOut(ctx context.Context, query, scope string, opts Options) (lex, vec []types.SearchCandidate) {
	branches := []func() ([]types.SearchCandidate, error){
		func() ([]types.SearchCandidate, error) {
			if opts.Mode == ModeVector {
				return nil, nil
			}
			return s.lexical.SearchScoped(query, scope, opts.CandidatesK, 0), nil
		},
		func() ([]types.SearchCandidate, error) {
			if opts.Mode == ModeLexical {
				return nil, nil
			}
			branchCtx, cancel := context.WithTimeout(ctx, opts.BranchTimeout)
			defer cancel()
			return s.vectorBranch(branchCtx, query, scope, opts.CandidatesK)
		},
	}

	results, errs := utils.ExecuteWithResults(ctx, len(branches), branches...)
	for i, err := range errs {
		if err != nil {
			branch := "lexical"
			if i == 1 {
				branch = "vector"
			}
			s.logger.Warn("search branch degraded to empty", "branch", branch, "error", err)
			results[i] = nil
		}
	}
	return results[0], results[1]
}

func (s *Searcher) vectorBranch(ctx context.Context, query, scope string, k int) ([]types.SearchCandidate, error) {
	emb, ok := s.embedCache.Get(query)
	if !ok {
		var err error
		emb, err = s.embedder.EmbedQuery(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		s.embedCache.Add(query, emb)
	}

	hits, err := s.vectors.Search(ctx, emb, k, scope)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	candidates := make([]types.SearchCandidate, len(hits))
	for i, h := range hits {
		candidates[i] = types.SearchCandidate{
			ID:             h.ID,
			Content:        h.Content,
			RelevanceScore: h.Score,
			Rank:           i + 1,
			Source:         types.SourceVector,
			Metadata:       h.Metadata,
		}
	}
	return candidates, nil
}

// adjust blends the pipeline score with recency, frequency and
// importance, then sorts and truncates to topK. Pipeline scores are
// normalized by the list maximum first so RRF sums and cross-encoder
// probabilities feed the blend on the same [0,1] footing.
func (s *Searcher) adjust(fused []types.FusedCandidate, topK int) []types.RankedResult {
	now := s.clock()

	var maxScore float64
	for _, fc := range fused {
		if fc.FusedScore > maxScore {
			maxScore = fc.FusedScore
		}
	}

	results := make([]types.RankedResult, len(fused))
	for i, fc := range fused {
		rel := fc.FusedScore
		if maxScore > 0 {
			rel /= maxScore
		}
		results[i] = types.RankedResult{
			ID:       fc.ID,
			Content:  fc.Content,
			Score:    s.recall.Score(fc.Metadata, rel, now),
			Sources:  fc.Sources,
			Metadata: fc.Metadata,
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if topK < len(results) {
		results = results[:topK]
	}
	return results
}
