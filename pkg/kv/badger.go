package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/JFK/kagura-ai-sub000/pkg/types"
)

const itemKeyPrefix = "item:"

// BadgerStore is a Badger-backed persistent store for memory items.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) a Badger database per the config.
func NewBadgerStore(config *StoreConfig) (*BadgerStore, error) {
	if config.DataDir == "" && !config.InMemory {
		return nil, &types.ConfigurationError{Field: "store.data_dir", Reason: "required for the badger backend"}
	}

	opts := badger.DefaultOptions(config.DataDir).WithLogger(nil)
	if config.InMemory {
		opts = opts.WithInMemory(true).WithDir("").WithValueDir("")
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("kv: open badger at %q: %w", config.DataDir, err)
	}
	return &BadgerStore{db: db}, nil
}

func itemKey(scope, id string) []byte {
	return []byte(fmt.Sprintf("%s%s:%s", itemKeyPrefix, scope, id))
}

func scopePrefix(scope string) []byte {
	return []byte(fmt.Sprintf("%s%s:", itemKeyPrefix, scope))
}

// Put persists a memory item to Badger.
func (s *BadgerStore) Put(ctx context.Context, scope string, item *types.MemoryItem) error {
	if item == nil || item.ID == "" {
		return &types.ValidationError{Op: "put", Reason: "item must have a non-empty ID"}
	}
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("kv: marshal item %s: %w", item.ID, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(itemKey(scope, item.ID), data)
	})
}

// Get retrieves a memory item by ID within the scope.
func (s *BadgerStore) Get(ctx context.Context, scope, id string) (*types.MemoryItem, error) {
	var item types.MemoryItem
	err := s.db.View(func(txn *badger.Txn) error {
		entry, err := txn.Get(itemKey(scope, id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return types.ErrNotFound
			}
			return err
		}
		return entry.Value(func(val []byte) error {
			return json.Unmarshal(val, &item)
		})
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete removes a memory item. Missing items are ignored.
func (s *BadgerStore) Delete(ctx context.Context, scope, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(itemKey(scope, id))
	})
}

// ListIDs returns every item ID in the scope, sorted.
func (s *BadgerStore) ListIDs(ctx context.Context, scope string) ([]string, error) {
	prefix := scopePrefix(scope)
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			ids = append(ids, strings.TrimPrefix(key, string(prefix)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

// All returns every item in the scope.
func (s *BadgerStore) All(ctx context.Context, scope string) ([]*types.MemoryItem, error) {
	var items []*types.MemoryItem
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = scopePrefix(scope)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var item types.MemoryItem
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &item)
			}); err != nil {
				return err
			}
			items = append(items, &item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Close closes the underlying Badger database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
