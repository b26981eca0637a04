package kagura

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JFK/kagura-ai-sub000/pkg/crossencoder"
	"github.com/JFK/kagura-ai-sub000/pkg/embedder"
	"github.com/JFK/kagura-ai-sub000/pkg/kv"
	"github.com/JFK/kagura-ai-sub000/pkg/recall"
	"github.com/JFK/kagura-ai-sub000/pkg/search"
	"github.com/JFK/kagura-ai-sub000/pkg/types"
	"github.com/JFK/kagura-ai-sub000/pkg/vector"
)

func newTestClient(t *testing.T, mutate func(*Config)) (*Client, *kv.MemoryStore) {
	t.Helper()
	store := kv.NewMemoryStore()
	cfg := Config{
		Scope:    "agent1",
		Store:    store,
		Embedder: embedder.NewMockClient(0),
		Recall:   recall.Config{Weights: recall.Weights{Relevance: 1}},
	}
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := New(context.Background(), cfg)
	require.NoError(t, err)
	return c, store
}

func TestNewRequiresStoreAndEmbedder(t *testing.T) {
	var cerr *types.ConfigurationError

	_, err := New(context.Background(), Config{})
	assert.ErrorAs(t, err, &cerr)

	_, err = New(context.Background(), Config{Store: kv.NewMemoryStore()})
	assert.ErrorAs(t, err, &cerr)
}

func TestStoreAndHybridSearchEndToEnd(t *testing.T) {
	c, _ := newTestClient(t, nil)
	ctx := context.Background()

	require.NoError(t, c.Store(ctx, &types.MemoryItem{ID: "A", Content: "Python is a great programming language"}))
	require.NoError(t, c.Store(ctx, &types.MemoryItem{ID: "B", Content: "Bananas are yellow and sweet"}))

	res, err := c.HybridSearch(ctx, "Python language", search.Options{TopK: 1, CandidatesK: 10})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "A", res.Results[0].ID)
	assert.False(t, res.Reranked)
}

func TestStoreClampsImportanceAndSetsTimestamps(t *testing.T) {
	c, store := newTestClient(t, nil)
	ctx := context.Background()

	item := &types.MemoryItem{ID: "m1", Content: "note", Metadata: types.MemoryMetadata{Importance: 3.5}}
	require.NoError(t, c.Store(ctx, item))

	stored, err := store.Get(ctx, "agent1", "m1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, stored.Metadata.Importance)
	assert.False(t, stored.Metadata.CreatedAt.IsZero())
	assert.False(t, stored.Metadata.UpdatedAt.IsZero())
}

func TestStoreReplacesExisting(t *testing.T) {
	c, _ := newTestClient(t, nil)
	ctx := context.Background()

	require.NoError(t, c.Store(ctx, &types.MemoryItem{ID: "m1", Content: "Python tips"}))
	require.NoError(t, c.Store(ctx, &types.MemoryItem{ID: "m1", Content: "Rust tips"}))

	res, err := c.LexicalSearch(ctx, "Rust", 5)
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "m1", res.Results[0].ID)

	res, err = c.LexicalSearch(ctx, "Python", 5)
	require.NoError(t, err)
	assert.Empty(t, res.Results)
}

func TestRecallTouchSemantics(t *testing.T) {
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	c, _ := newTestClient(t, func(cfg *Config) {
		cfg.Clock = func() time.Time { return now }
	})
	ctx := context.Background()

	require.NoError(t, c.Store(ctx, &types.MemoryItem{ID: "m1", Content: "note"}))

	// Untouched recall does not record an access.
	item, err := c.Recall(ctx, "m1", false)
	require.NoError(t, err)
	assert.Zero(t, item.Metadata.AccessCount)
	assert.Nil(t, item.Metadata.LastAccessedAt)

	item, err = c.Recall(ctx, "m1", true)
	require.NoError(t, err)
	assert.Equal(t, 1, item.Metadata.AccessCount)
	require.NotNil(t, item.Metadata.LastAccessedAt)
	assert.Equal(t, now, *item.Metadata.LastAccessedAt)

	// The touch persisted.
	item, err = c.Recall(ctx, "m1", false)
	require.NoError(t, err)
	assert.Equal(t, 1, item.Metadata.AccessCount)

	_, err = c.Recall(ctx, "ghost", false)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestForgetRemovesEverywhere(t *testing.T) {
	c, store := newTestClient(t, nil)
	ctx := context.Background()

	require.NoError(t, c.Store(ctx, &types.MemoryItem{ID: "m1", Content: "Python tips"}))
	require.NoError(t, c.Forget(ctx, "m1"))

	_, err := store.Get(ctx, "agent1", "m1")
	assert.ErrorIs(t, err, types.ErrNotFound)

	res, err := c.HybridSearch(ctx, "Python", search.Options{TopK: 5})
	require.NoError(t, err)
	assert.Empty(t, res.Results)
}

func TestForgetPartialFailureAndReconcile(t *testing.T) {
	c, store := newTestClient(t, nil)
	ctx := context.Background()

	require.NoError(t, c.Store(ctx, &types.MemoryItem{ID: "m1", Content: "Python tips"}))

	store.FailDelete = errors.New("backend offline")
	err := c.Forget(ctx, "m1")
	var perr *types.PartialDeleteError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "m1", perr.ID)

	// The sweep repairs the divergence once the backend recovers.
	store.FailDelete = nil
	repairs, err := c.Reconcile(ctx)
	require.NoError(t, err)
	assert.Positive(t, repairs)

	_, err = store.Get(ctx, "agent1", "m1")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestReconcileReindexesMissingItems(t *testing.T) {
	c, store := newTestClient(t, nil)
	ctx := context.Background()

	require.NoError(t, c.Store(ctx, &types.MemoryItem{ID: "m1", Content: "Python tips"}))

	// Simulate index loss.
	c.lexical.Clear()
	require.NoError(t, c.vectors.Delete(ctx, "m1"))
	c.embMu.Lock()
	delete(c.embeddings, "m1")
	c.embMu.Unlock()

	repairs, err := c.Reconcile(ctx)
	require.NoError(t, err)
	assert.Positive(t, repairs)

	res, err := c.HybridSearch(ctx, "Python", search.Options{TopK: 5})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)

	// Store still holds the item.
	_, err = store.Get(ctx, "agent1", "m1")
	assert.NoError(t, err)
}

func TestReconcileRepairsStaleVectorAfterFailedUpdate(t *testing.T) {
	vec := vector.NewMemoryIndex()
	c, _ := newTestClient(t, func(cfg *Config) { cfg.Vectors = vec })
	ctx := context.Background()

	require.NoError(t, c.Store(ctx, &types.MemoryItem{ID: "m1", Content: "Python tips"}))

	// The update persists but the vector write fails, leaving the index
	// serving the previous version.
	vec.FailStore = errors.New("index offline")
	require.NoError(t, c.Store(ctx, &types.MemoryItem{ID: "m1", Content: "Rust tips"}))
	vec.FailStore = nil

	repairs, err := c.Reconcile(ctx)
	require.NoError(t, err)
	assert.Positive(t, repairs)

	res, err := c.VectorSearch(ctx, "Rust tips", 1)
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "Rust tips", res.Results[0].Content)
}

func TestWarmStartIndexesPersistedItems(t *testing.T) {
	store := kv.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "agent1", &types.MemoryItem{ID: "m1", Content: "Python tips"}))

	c, err := New(ctx, Config{
		Scope:    "agent1",
		Store:    store,
		Embedder: embedder.NewMockClient(0),
		Recall:   recall.Config{Weights: recall.Weights{Relevance: 1}},
	})
	require.NoError(t, err)

	res, err := c.HybridSearch(ctx, "Python", search.Options{TopK: 5})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "m1", res.Results[0].ID)
}

func TestSurfaceOrdersByProactiveScore(t *testing.T) {
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	c, _ := newTestClient(t, func(cfg *Config) {
		cfg.Clock = func() time.Time { return now }
		cfg.Recall = recall.Config{Weights: recall.Weights{Importance: 1}}
	})
	ctx := context.Background()

	require.NoError(t, c.Store(ctx, &types.MemoryItem{
		ID: "low", Content: "minor note", Metadata: types.MemoryMetadata{Importance: 0.1},
	}))
	require.NoError(t, c.Store(ctx, &types.MemoryItem{
		ID: "high", Content: "critical note", Metadata: types.MemoryMetadata{Importance: 0.9},
	}))

	items, err := c.Surface(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "high", items[0].ID)
}

func TestRerankDegradationObservable(t *testing.T) {
	c, _ := newTestClient(t, nil)
	ctx := context.Background()
	require.NoError(t, c.Store(ctx, &types.MemoryItem{ID: "A", Content: "Python is a great programming language"}))

	res, err := c.HybridSearch(ctx, "Python", search.Options{TopK: 1, Rerank: true})
	require.NoError(t, err)
	assert.False(t, res.Reranked)

	// With a scorer configured the flag flips.
	c2, _ := newTestClient(t, func(cfg *Config) {
		cfg.Reranker = crossencoder.NewMockClient(map[string]float64{
			"Python is a great programming language": 0.8,
		})
	})
	require.NoError(t, c2.Store(ctx, &types.MemoryItem{ID: "A", Content: "Python is a great programming language"}))
	res, err = c2.HybridSearch(ctx, "Python", search.Options{TopK: 1, Rerank: true})
	require.NoError(t, err)
	assert.True(t, res.Reranked)
}

func TestGraphAnnotation(t *testing.T) {
	c, _ := newTestClient(t, nil)
	ctx := context.Background()

	require.NoError(t, c.Store(ctx, &types.MemoryItem{ID: "A", Content: "Python is a great programming language"}))
	require.NoError(t, c.AddNode("A", types.NodeMemory, nil))
	require.NoError(t, c.AddNode("topic-python", types.NodeTopic, nil))
	require.NoError(t, c.Relate("A", "topic-python", types.EdgeRelatedTo))

	res, err := c.HybridSearch(ctx, "Python", search.Options{TopK: 1, ExpandRelated: true})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	require.Len(t, res.Results[0].Related, 1)
	assert.Equal(t, "topic-python", res.Results[0].Related[0].ID)
}

func TestTemporalUnrelate(t *testing.T) {
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	c, _ := newTestClient(t, func(cfg *Config) {
		cfg.Clock = func() time.Time { return now }
	})

	require.NoError(t, c.AddNode("A", types.NodeMemory, nil))
	require.NoError(t, c.AddNode("T", types.NodeTopic, nil))
	require.NoError(t, c.Relate("A", "T", types.EdgeRelatedTo))

	before := now
	now = now.Add(time.Hour)
	assert.Equal(t, 1, c.Unrelate("A", "T"))

	// Gone from the current view, still visible at the earlier instant.
	now = now.Add(time.Minute)
	assert.Empty(t, c.Related("A", 1))
	assert.Len(t, c.RelatedAt("A", 1, before.Add(time.Minute)), 1)
}

func TestGraphExportImportRoundTrip(t *testing.T) {
	c, _ := newTestClient(t, nil)
	require.NoError(t, c.AddNode("U", types.NodeUser, nil))
	require.NoError(t, c.AddNode("T", types.NodeTopic, nil))
	require.NoError(t, c.Relate("U", "T", types.EdgeWorksOn))

	data, err := c.ExportGraph()
	require.NoError(t, err)

	c2, _ := newTestClient(t, nil)
	require.NoError(t, c2.ImportGraph(data))
	assert.Len(t, c2.Related("U", 1), 1)
	assert.Equal(t, 1, c2.UserPattern("U").TopicCount)
}
