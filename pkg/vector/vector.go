// Package vector defines the semantic nearest-neighbor index collaborator
// and provides an in-process brute-force implementation.
//
// The engine only depends on the Index interface; a production deployment
// can plug in an external vector database without touching the retrieval
// pipeline.
package vector

import (
	"context"
	"sync"

	"github.com/JFK/kagura-ai-sub000/pkg/types"
	"github.com/JFK/kagura-ai-sub000/pkg/utils"
)

// Hit is one nearest-neighbor result. Score is cosine similarity in
// [-1, 1]; higher is closer.
type Hit struct {
	ID       string
	Content  string
	Score    float64
	Metadata types.MemoryMetadata
}

// Entry is the unit of storage.
type Entry struct {
	ID        string
	Content   string
	Scope     string
	Embedding []float32
	Metadata  types.MemoryMetadata
}

// Index is the nearest-neighbor search collaborator.
type Index interface {
	Store(ctx context.Context, entry Entry) error
	// Search returns up to k hits for the query embedding, most similar
	// first. A non-empty scope restricts the candidate set before ranking.
	Search(ctx context.Context, queryEmbedding []float32, k int, scope string) ([]Hit, error)
	Delete(ctx context.Context, ids ...string) error
	Count() int
}

// MemoryIndex is a brute-force cosine-similarity index. It is the default
// backend and the test double: exact, deterministic, O(n) per query.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[string]Entry

	// FailStore, when set, makes every Store call return this error.
	// Tests use it to exercise index-divergence repair paths.
	FailStore error
}

// NewMemoryIndex creates an empty in-process index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{entries: make(map[string]Entry)}
}

// Store inserts or replaces an entry.
func (m *MemoryIndex) Store(_ context.Context, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailStore != nil {
		return m.FailStore
	}
	m.entries[entry.ID] = entry
	return nil
}

// Search scans all in-scope entries and returns the k most similar.
// Equal scores are ordered by id so repeated queries are reproducible.
func (m *MemoryIndex) Search(_ context.Context, queryEmbedding []float32, k int, scope string) ([]Hit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(queryEmbedding) == 0 || k <= 0 {
		return []Hit{}, nil
	}

	scored := make([]utils.ScoredItem[Entry], 0, len(m.entries))
	for _, e := range m.entries {
		if scope != "" && e.Scope != scope {
			continue
		}
		scored = append(scored, utils.ScoredItem[Entry]{
			Item:  e,
			Score: utils.CosineSimilarity(queryEmbedding, e.Embedding),
		})
	}
	top := utils.TopKByScore(scored, k, func(a, b Entry) bool { return a.ID < b.ID })
	hits := make([]Hit, len(top))
	for i, s := range top {
		hits[i] = Hit{
			ID:       s.Item.ID,
			Content:  s.Item.Content,
			Score:    s.Score,
			Metadata: s.Item.Metadata,
		}
	}
	return hits, nil
}

// Delete removes entries by id. Absent ids are ignored.
func (m *MemoryIndex) Delete(_ context.Context, ids ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		delete(m.entries, id)
	}
	return nil
}

// Count returns the number of stored entries.
func (m *MemoryIndex) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}

// Contains reports whether id is stored.
func (m *MemoryIndex) Contains(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.entries[id]
	return ok
}
