package kagura

import (
	"context"
	"fmt"

	"github.com/JFK/kagura-ai-sub000/pkg/lexical"
	"github.com/JFK/kagura-ai-sub000/pkg/types"
	"github.com/JFK/kagura-ai-sub000/pkg/vector"
)

// Store persists a memory item and indexes it for lexical and vector
// retrieval. Importance is clamped to [0,1] and timestamps are filled on
// every write; storing an existing id replaces the previous version in
// all three stores.
func (c *Client) Store(ctx context.Context, item *types.MemoryItem) error {
	if item == nil || item.ID == "" {
		return &types.ValidationError{Op: "store", Reason: "item must have a non-empty ID"}
	}

	mu := c.lockFor(item.ID)
	mu.Lock()
	defer mu.Unlock()

	now := c.clock()
	item.Scope = c.scope
	item.ClampImportance()
	if item.Metadata.CreatedAt.IsZero() {
		item.Metadata.CreatedAt = now
	}
	item.Metadata.UpdatedAt = now

	embs, err := c.embedder.EmbedPassages(ctx, []string{item.Content})
	if err != nil {
		return fmt.Errorf("embed content for %s: %w", item.ID, err)
	}

	// The persistent store is the source of truth, so it is written
	// first; index writes that fail afterwards are repairable by the
	// reconcile sweep.
	if err := c.store.Put(ctx, c.scope, item); err != nil {
		return fmt.Errorf("persist %s: %w", item.ID, err)
	}

	c.lexical.Add(lexical.Document{
		ID: item.ID, Content: item.Content, Scope: c.scope, Metadata: item.Metadata,
	})
	if err := c.vectors.Store(ctx, vector.Entry{
		ID: item.ID, Content: item.Content, Scope: c.scope,
		Embedding: embs[0], Metadata: item.Metadata,
	}); err != nil {
		// Drop any embedding cached for a previous version of the id, so
		// the reconcile sweep sees the item as missing from the vector
		// index instead of trusting the stale entry. The item stays
		// searchable lexically until the sweep re-indexes it.
		c.embMu.Lock()
		delete(c.embeddings, item.ID)
		c.embMu.Unlock()
		c.logger.Error("vector index write failed, item left for reconcile", "id", item.ID, "error", err)
		return nil
	}

	c.embMu.Lock()
	c.embeddings[item.ID] = embs[0]
	c.embMu.Unlock()
	return nil
}

// Recall returns the item by id. With touch set, the access is recorded
// (access count and last-accessed time) and the refreshed metadata is
// written through to the store and both indices.
func (c *Client) Recall(ctx context.Context, id string, touch bool) (*types.MemoryItem, error) {
	if !touch {
		return c.store.Get(ctx, c.scope, id)
	}

	mu := c.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	item, err := c.store.Get(ctx, c.scope, id)
	if err != nil {
		return nil, err
	}
	item.Touch(c.clock())
	if err := c.store.Put(ctx, c.scope, item); err != nil {
		return nil, fmt.Errorf("persist touch for %s: %w", id, err)
	}
	c.refreshIndexMetadata(ctx, item)
	return item, nil
}

// Forget removes an item from the persistent store, the lexical index
// and the vector index. The three systems are independent, so a failure
// in one after success in another leaves the stores divergent; such
// partial failures are logged, reported as a PartialDeleteError and
// queued for the reconcile sweep rather than being papered over.
func (c *Client) Forget(ctx context.Context, id string) error {
	mu := c.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	return c.forgetLocked(ctx, id)
}

func (c *Client) forgetLocked(ctx context.Context, id string) error {
	var errs []error

	c.lexical.Remove(id)

	if err := c.vectors.Delete(ctx, id); err != nil {
		errs = append(errs, fmt.Errorf("vector index: %w", err))
	}
	if err := c.store.Delete(ctx, c.scope, id); err != nil {
		errs = append(errs, fmt.Errorf("persistent store: %w", err))
	}

	c.embMu.Lock()
	delete(c.embeddings, id)
	c.embMu.Unlock()

	if len(errs) > 0 {
		c.markPending(id)
		c.logger.Error("partial delete, queued for reconcile", "id", id, "failures", len(errs))
		return &types.PartialDeleteError{ID: id, Errors: errs}
	}
	return nil
}

// Surface returns the items that matter most right now with no query at
// all: recall scoring without a relevance signal.
func (c *Client) Surface(ctx context.Context, limit int) ([]types.MemoryItem, error) {
	stored, err := c.store.All(ctx, c.scope)
	if err != nil {
		return nil, err
	}
	items := make([]types.MemoryItem, len(stored))
	for i, item := range stored {
		items[i] = *item
	}
	return c.recall.Surface(items, limit, c.clock()), nil
}

// Reconcile sweeps the three stores back into agreement: queued partial
// deletes are retried, and indices are repaired to match the persistent
// store (the source of truth). It returns the number of repairs applied.
func (c *Client) Reconcile(ctx context.Context) (int, error) {
	repairs := 0

	// Retry deletes that previously failed part-way.
	for _, id := range c.takePending() {
		mu := c.lockFor(id)
		mu.Lock()
		err := c.forgetLocked(ctx, id)
		mu.Unlock()
		if err != nil {
			c.logger.Warn("reconcile delete still failing", "id", id, "error", err)
			continue
		}
		repairs++
	}

	items, err := c.store.All(ctx, c.scope)
	if err != nil {
		return repairs, err
	}
	persisted := make(map[string]*types.MemoryItem, len(items))
	for _, item := range items {
		persisted[item.ID] = item
	}

	// Remove lexical entries the store no longer has, then re-index
	// persisted items missing from either index.
	for _, id := range c.lexical.IDs() {
		if _, ok := persisted[id]; !ok {
			c.lexical.Remove(id)
			repairs++
		}
	}
	for id, item := range persisted {
		inLexical := c.lexical.Contains(id)
		c.embMu.RLock()
		emb, inVector := c.embeddings[id]
		c.embMu.RUnlock()

		if inLexical && inVector {
			continue
		}
		if !inLexical {
			c.lexical.Add(lexical.Document{
				ID: id, Content: item.Content, Scope: c.scope, Metadata: item.Metadata,
			})
			repairs++
		}
		if !inVector {
			embs, err := c.embedder.EmbedPassages(ctx, []string{item.Content})
			if err != nil {
				c.logger.Warn("reconcile re-embed failed", "id", id, "error", err)
				continue
			}
			emb = embs[0]
			repairs++
		}
		if err := c.vectors.Store(ctx, vector.Entry{
			ID: id, Content: item.Content, Scope: c.scope, Embedding: emb, Metadata: item.Metadata,
		}); err != nil {
			c.logger.Warn("reconcile vector write failed", "id", id, "error", err)
			continue
		}
		c.embMu.Lock()
		c.embeddings[id] = emb
		c.embMu.Unlock()
	}

	if repairs > 0 {
		c.logger.Info("reconcile sweep applied repairs", "scope", c.scope, "repairs", repairs)
	}
	return repairs, nil
}

// refreshIndexMetadata pushes updated metadata into both indices using
// the cached embedding, so recall signals stay consistent across stores.
func (c *Client) refreshIndexMetadata(ctx context.Context, item *types.MemoryItem) {
	c.lexical.Add(lexical.Document{
		ID: item.ID, Content: item.Content, Scope: c.scope, Metadata: item.Metadata,
	})

	c.embMu.RLock()
	emb, ok := c.embeddings[item.ID]
	c.embMu.RUnlock()
	if !ok {
		return
	}
	if err := c.vectors.Store(ctx, vector.Entry{
		ID: item.ID, Content: item.Content, Scope: c.scope, Embedding: emb, Metadata: item.Metadata,
	}); err != nil {
		c.logger.Warn("vector metadata refresh failed", "id", item.ID, "error", err)
	}
}

func (c *Client) markPending(id string) {
	c.pendingMu.Lock()
	c.pending[id] = struct{}{}
	c.pendingMu.Unlock()
}

func (c *Client) takePending() []string {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	ids := make([]string, 0, len(c.pending))
	for id := range c.pending {
		ids = append(ids, id)
	}
	c.pending = make(map[string]struct{})
	return ids
}
