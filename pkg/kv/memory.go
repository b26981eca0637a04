package kv

import (
	"context"
	"sort"
	"sync"

	"github.com/JFK/kagura-ai-sub000/pkg/types"
)

// MemoryStore keeps items in process memory. It is used by tests and by
// agents that do not need persistence across restarts.
type MemoryStore struct {
	mu     sync.RWMutex
	scopes map[string]map[string]*types.MemoryItem

	// FailDelete forces Delete to return this error when set. Tests use
	// it to exercise partial-failure handling in multi-store deletes.
	FailDelete error
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{scopes: make(map[string]map[string]*types.MemoryItem)}
}

func (s *MemoryStore) Put(ctx context.Context, scope string, item *types.MemoryItem) error {
	if item == nil || item.ID == "" {
		return &types.ValidationError{Op: "put", Reason: "item must have a non-empty ID"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.scopes[scope]
	if !ok {
		bucket = make(map[string]*types.MemoryItem)
		s.scopes[scope] = bucket
	}
	clone := *item
	bucket[item.ID] = &clone
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, scope, id string) (*types.MemoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.scopes[scope][id]
	if !ok {
		return nil, types.ErrNotFound
	}
	clone := *item
	return &clone, nil
}

func (s *MemoryStore) Delete(ctx context.Context, scope, id string) error {
	if s.FailDelete != nil {
		return s.FailDelete
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.scopes[scope], id)
	return nil
}

func (s *MemoryStore) ListIDs(ctx context.Context, scope string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.scopes[scope]))
	for id := range s.scopes[scope] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) All(ctx context.Context, scope string) ([]*types.MemoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]*types.MemoryItem, 0, len(s.scopes[scope]))
	for _, item := range s.scopes[scope] {
		clone := *item
		items = append(items, &clone)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s *MemoryStore) Close() error { return nil }
