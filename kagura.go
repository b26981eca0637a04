package kagura

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/JFK/kagura-ai-sub000/pkg/crossencoder"
	"github.com/JFK/kagura-ai-sub000/pkg/embedder"
	"github.com/JFK/kagura-ai-sub000/pkg/graph"
	"github.com/JFK/kagura-ai-sub000/pkg/kv"
	"github.com/JFK/kagura-ai-sub000/pkg/lexical"
	"github.com/JFK/kagura-ai-sub000/pkg/recall"
	"github.com/JFK/kagura-ai-sub000/pkg/search"
	"github.com/JFK/kagura-ai-sub000/pkg/types"
	"github.com/JFK/kagura-ai-sub000/pkg/vector"
)

// Config holds configuration for the memory client.
type Config struct {
	// Scope isolates this client's items from other agents sharing the
	// same store. Defaults to "default".
	Scope string

	// Store is the persistent backend. Required.
	Store kv.Store
	// Embedder turns content into vectors. Required.
	Embedder embedder.Client

	// Vectors overrides the nearest-neighbor index. Defaults to the
	// in-process index.
	Vectors vector.Index
	// Reranker is the optional cross-encoder; nil disables reranking.
	Reranker crossencoder.Client

	// Recall tunes the recall scorer.
	Recall recall.Config
	// SearchDefaults seeds each search call's options.
	SearchDefaults search.Options
	// EmbedCacheSize bounds the query embedding cache.
	EmbedCacheSize int

	Logger *slog.Logger
	Clock  func() time.Time
}

// Client owns one agent's memory: the persistent store, both retrieval
// indices, the relationship graph and the search pipeline over them.
type Client struct {
	scope    string
	store    kv.Store
	lexical  *lexical.Index
	vectors  vector.Index
	embedder embedder.Client
	graph    *graph.Store
	searcher *search.Searcher
	recall   *recall.Scorer
	defaults search.Options

	// embeddings caches each item's stored vector so metadata refreshes
	// and reconciliation never re-embed unchanged content.
	embMu      sync.RWMutex
	embeddings map[string][]float32

	// pending holds ids whose multi-store delete partially failed; the
	// reconcile sweep retries them.
	pendingMu sync.Mutex
	pending   map[string]struct{}

	locks  [64]sync.Mutex
	logger *slog.Logger
	clock  func() time.Time
}

// New validates the configuration and builds a Client. Items already in
// the store for the scope are loaded into both indices, so a restarted
// process searches its old memories immediately.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Store == nil {
		return nil, &types.ConfigurationError{Field: "store", Reason: "persistent store is required"}
	}
	if cfg.Embedder == nil {
		return nil, &types.ConfigurationError{Field: "embedder", Reason: "embedding client is required"}
	}
	if cfg.Scope == "" {
		cfg.Scope = "default"
	}
	if cfg.Vectors == nil {
		cfg.Vectors = vector.NewMemoryIndex()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	c := &Client{
		scope:      cfg.Scope,
		store:      cfg.Store,
		lexical:    lexical.NewIndex(),
		vectors:    cfg.Vectors,
		embedder:   cfg.Embedder,
		graph:      graph.NewStore(graph.WithClock(cfg.Clock)),
		recall:     recall.NewScorer(cfg.Recall),
		defaults:   cfg.SearchDefaults,
		embeddings: make(map[string][]float32),
		pending:    make(map[string]struct{}),
		logger:     cfg.Logger,
		clock:      cfg.Clock,
	}

	searcher, err := search.NewSearcher(search.SearcherConfig{
		Lexical:  c.lexical,
		Vectors:  c.vectors,
		Embedder: c.embedder,
		Reranker: search.NewReranker(cfg.Reranker, cfg.Logger),
		Recall:   c.recall,
		Graph:    c.graph,
		Logger:   cfg.Logger,
		Clock:    cfg.Clock,

		EmbedCacheSize: cfg.EmbedCacheSize,
	})
	if err != nil {
		return nil, err
	}
	c.searcher = searcher

	if err := c.warmStart(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Scope returns the owner scope this client operates in.
func (c *Client) Scope() string { return c.scope }

// Graph exposes the relationship graph for direct queries.
func (c *Client) Graph() *graph.Store { return c.graph }

// Close releases the persistent store.
func (c *Client) Close() error {
	return c.store.Close()
}

// warmStart re-indexes every persisted item for the scope.
func (c *Client) warmStart(ctx context.Context) error {
	items, err := c.store.All(ctx, c.scope)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = item.Content
	}
	embs, err := c.embedder.EmbedPassages(ctx, texts)
	if err != nil {
		return err
	}

	for i, item := range items {
		c.lexical.Add(lexical.Document{
			ID: item.ID, Content: item.Content, Scope: c.scope, Metadata: item.Metadata,
		})
		if err := c.vectors.Store(ctx, vector.Entry{
			ID: item.ID, Content: item.Content, Scope: c.scope,
			Embedding: embs[i], Metadata: item.Metadata,
		}); err != nil {
			return err
		}
		c.embMu.Lock()
		c.embeddings[item.ID] = embs[i]
		c.embMu.Unlock()
	}
	c.logger.Info("memory warm start complete", "scope", c.scope, "items", len(items))
	return nil
}

// lockFor serializes writers to the same item id; writers to different
// ids proceed concurrently.
func (c *Client) lockFor(id string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(id))
	return &c.locks[h.Sum32()%uint32(len(c.locks))]
}
