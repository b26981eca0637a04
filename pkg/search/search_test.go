package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JFK/kagura-ai-sub000/pkg/crossencoder"
	"github.com/JFK/kagura-ai-sub000/pkg/embedder"
	"github.com/JFK/kagura-ai-sub000/pkg/graph"
	"github.com/JFK/kagura-ai-sub000/pkg/lexical"
	"github.com/JFK/kagura-ai-sub000/pkg/recall"
	"github.com/JFK/kagura-ai-sub000/pkg/types"
	"github.com/JFK/kagura-ai-sub000/pkg/vector"
)

// relevanceOnly keeps recency/frequency/importance out of the blend so
// ranking assertions depend only on the pipeline score.
func relevanceOnly() *recall.Scorer {
	return recall.NewScorer(recall.Config{Weights: recall.Weights{Relevance: 1}})
}

func newTestSearcher(t *testing.T, cfg SearcherConfig) *Searcher {
	t.Helper()
	if cfg.Lexical == nil {
		cfg.Lexical = lexical.NewIndex()
	}
	if cfg.Vectors == nil {
		cfg.Vectors = vector.NewMemoryIndex()
	}
	if cfg.Embedder == nil {
		cfg.Embedder = embedder.NewMockClient(0)
	}
	if cfg.Recall == nil {
		cfg.Recall = relevanceOnly()
	}
	s, err := NewSearcher(cfg)
	require.NoError(t, err)
	return s
}

// seedCorpus indexes the given items into both indices under one scope.
func seedCorpus(t *testing.T, s *Searcher, scope string, items map[string]string) {
	t.Helper()
	ctx := context.Background()
	for id, content := range items {
		s.lexical.Add(lexical.Document{ID: id, Content: content, Scope: scope})
		emb, err := s.embedder.EmbedPassages(ctx, []string{content})
		require.NoError(t, err)
		require.NoError(t, s.vectors.Store(ctx, vector.Entry{
			ID: id, Content: content, Scope: scope, Embedding: emb[0],
		}))
	}
}

func TestNewSearcherRequiresCollaborators(t *testing.T) {
	var cerr *types.ConfigurationError

	_, err := NewSearcher(SearcherConfig{})
	assert.ErrorAs(t, err, &cerr)

	_, err = NewSearcher(SearcherConfig{Lexical: lexical.NewIndex()})
	assert.ErrorAs(t, err, &cerr)

	_, err = NewSearcher(SearcherConfig{Lexical: lexical.NewIndex(), Vectors: vector.NewMemoryIndex()})
	assert.ErrorAs(t, err, &cerr)
}

func TestSearchEndToEnd(t *testing.T) {
	s := newTestSearcher(t, SearcherConfig{})
	seedCorpus(t, s, "agent1", map[string]string{
		"A": "Python is a great programming language",
		"B": "Bananas are yellow and sweet",
	})

	res, err := s.Search(context.Background(), "Python language", "agent1", Options{
		TopK: 1, CandidatesK: 10,
	})
	require.NoError(t, err)

	require.Len(t, res.Results, 1)
	assert.Equal(t, "A", res.Results[0].ID)
	assert.False(t, res.Reranked)
	assert.Equal(t, 1, res.Total)
}

func TestSearchIsDeterministic(t *testing.T) {
	s := newTestSearcher(t, SearcherConfig{})
	seedCorpus(t, s, "agent1", map[string]string{
		"m1": "golang channels and goroutines",
		"m2": "golang interfaces and generics",
		"m3": "cooking pasta with tomatoes",
	})

	first, err := s.Search(context.Background(), "golang generics", "agent1", Options{TopK: 3})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := s.Search(context.Background(), "golang generics", "agent1", Options{TopK: 3})
		require.NoError(t, err)
		require.Equal(t, first.Results, again.Results)
	}
}

func TestSearchScopeIsPrecondition(t *testing.T) {
	s := newTestSearcher(t, SearcherConfig{})
	seedCorpus(t, s, "agent1", map[string]string{"A": "Python is a great programming language"})
	seedCorpus(t, s, "agent2", map[string]string{"B": "Python tooling and packaging"})

	res, err := s.Search(context.Background(), "Python", "agent2", Options{TopK: 10})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "B", res.Results[0].ID)
}

func TestSearchModes(t *testing.T) {
	s := newTestSearcher(t, SearcherConfig{})
	seedCorpus(t, s, "agent1", map[string]string{
		"A": "Python is a great programming language",
		"B": "Bananas are yellow and sweet",
	})

	for _, mode := range []Mode{ModeHybrid, ModeVector, ModeLexical} {
		res, err := s.Search(context.Background(), "Python language", "agent1", Options{
			Mode: mode, TopK: 1,
		})
		require.NoError(t, err, "mode %s", mode)
		require.Len(t, res.Results, 1, "mode %s", mode)
		assert.Equal(t, "A", res.Results[0].ID, "mode %s", mode)
	}
}

func TestSearchModeRestrictsSources(t *testing.T) {
	s := newTestSearcher(t, SearcherConfig{})
	seedCorpus(t, s, "agent1", map[string]string{"A": "Python is a great programming language"})

	res, err := s.Search(context.Background(), "Python", "agent1", Options{Mode: ModeLexical})
	require.NoError(t, err)
	require.NotEmpty(t, res.Results)
	assert.Equal(t, []types.SourceList{types.SourceLexical}, res.Results[0].Sources)

	res, err = s.Search(context.Background(), "Python", "agent1", Options{Mode: ModeVector})
	require.NoError(t, err)
	require.NotEmpty(t, res.Results)
	assert.Equal(t, []types.SourceList{types.SourceVector}, res.Results[0].Sources)
}

func TestSearchHybridRecordsBothSources(t *testing.T) {
	s := newTestSearcher(t, SearcherConfig{})
	seedCorpus(t, s, "agent1", map[string]string{"A": "Python is a great programming language"})

	res, err := s.Search(context.Background(), "Python language", "agent1", Options{})
	require.NoError(t, err)
	require.NotEmpty(t, res.Results)
	assert.ElementsMatch(t, []types.SourceList{types.SourceLexical, types.SourceVector}, res.Results[0].Sources)
}

func TestSearchRerankFlagObservable(t *testing.T) {
	mock := crossencoder.NewMockClient(map[string]float64{
		"Bananas are yellow and sweet":           0.9,
		"Python is a great programming language": 0.1,
	})
	s := newTestSearcher(t, SearcherConfig{Reranker: NewReranker(mock, nil)})
	seedCorpus(t, s, "agent1", map[string]string{
		"A": "Python is a great programming language",
		"B": "Bananas are yellow and sweet",
	})

	// With a scorer present the flag reports true and the scorer's order
	// wins over fusion.
	res, err := s.Search(context.Background(), "Python language", "agent1", Options{TopK: 2, Rerank: true})
	require.NoError(t, err)
	assert.True(t, res.Reranked)
	assert.Equal(t, "B", res.Results[0].ID)

	// Without a scorer the same call degrades, observably.
	plain := newTestSearcher(t, SearcherConfig{})
	seedCorpus(t, plain, "agent1", map[string]string{
		"A": "Python is a great programming language",
		"B": "Bananas are yellow and sweet",
	})
	res, err = plain.Search(context.Background(), "Python language", "agent1", Options{TopK: 2, Rerank: true})
	require.NoError(t, err)
	assert.False(t, res.Reranked)
	assert.Equal(t, "A", res.Results[0].ID)
}

func TestSearchGraphExpansion(t *testing.T) {
	g := graph.NewStore()
	require.NoError(t, g.AddNode("A", types.NodeMemory, nil))
	require.NoError(t, g.AddNode("topic-py", types.NodeTopic, nil))
	require.NoError(t, g.AddEdge("A", "topic-py", types.EdgeRelatedTo, graph.EdgeOptions{}))

	s := newTestSearcher(t, SearcherConfig{Graph: g})
	seedCorpus(t, s, "agent1", map[string]string{"A": "Python is a great programming language"})

	res, err := s.Search(context.Background(), "Python", "agent1", Options{TopK: 1, ExpandRelated: true})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	require.Len(t, res.Results[0].Related, 1)
	assert.Equal(t, "topic-py", res.Results[0].Related[0].ID)
	assert.Equal(t, types.EdgeRelatedTo, res.Results[0].Related[0].EdgeType)
}

func TestSearchRecallAdjustmentBreaksNearTies(t *testing.T) {
	// Both items match the query equally; importance decides.
	s := newTestSearcher(t, SearcherConfig{
		Recall: recall.NewScorer(recall.Config{Weights: recall.Weights{Relevance: 0.5, Importance: 0.5}}),
	})
	ctx := context.Background()
	for id, importance := range map[string]float64{"low": 0.1, "high": 0.9} {
		meta := types.MemoryMetadata{Importance: importance, CreatedAt: time.Now()}
		s.lexical.Add(lexical.Document{ID: id, Content: "same identical content", Scope: "agent1", Metadata: meta})
		emb, err := s.embedder.EmbedPassages(ctx, []string{"same identical content"})
		require.NoError(t, err)
		require.NoError(t, s.vectors.Store(ctx, vector.Entry{
			ID: id, Content: "same identical content", Scope: "agent1", Embedding: emb[0], Metadata: meta,
		}))
	}

	res, err := s.Search(ctx, "identical content", "agent1", Options{TopK: 2})
	require.NoError(t, err)
	require.Len(t, res.Results, 2)
	assert.Equal(t, "high", res.Results[0].ID)
}

func TestSearchCancelledContext(t *testing.T) {
	s := newTestSearcher(t, SearcherConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Search(ctx, "anything", "agent1", Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearchEmptyScopeReturnsEmpty(t *testing.T) {
	s := newTestSearcher(t, SearcherConfig{})

	res, err := s.Search(context.Background(), "anything", "empty-scope", Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Results)
	assert.Zero(t, res.Total)
}
