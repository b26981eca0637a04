// Package kv provides persistent storage for memory items. Two backends
// are available: an embedded Badger database for durable deployments and
// an in-memory map for tests and ephemeral agents.
package kv

import (
	"context"
	"fmt"

	"github.com/JFK/kagura-ai-sub000/pkg/types"
)

// Store persists memory items keyed by ID within an owner scope. A scope
// isolates one agent's (or tenant's) items from another's; implementations
// must never return items from a different scope.
type Store interface {
	// Put writes or replaces the item under its ID.
	Put(ctx context.Context, scope string, item *types.MemoryItem) error

	// Get returns the item with the given ID, or types.ErrNotFound.
	Get(ctx context.Context, scope, id string) (*types.MemoryItem, error)

	// Delete removes the item. Deleting a missing item is not an error.
	Delete(ctx context.Context, scope, id string) error

	// ListIDs returns every item ID in the scope, sorted.
	ListIDs(ctx context.Context, scope string) ([]string, error)

	// All returns every item in the scope.
	All(ctx context.Context, scope string) ([]*types.MemoryItem, error)

	Close() error
}

// StoreType selects the storage backend.
type StoreType string

const (
	// StoreTypeBadger uses an embedded Badger database on disk.
	StoreTypeBadger StoreType = "badger"
	// StoreTypeMemory keeps items in process memory only.
	StoreTypeMemory StoreType = "memory"
)

// StoreConfig configures the storage backend.
type StoreConfig struct {
	// Type is the backend type: "badger" or "memory" (default).
	Type StoreType `json:"type,omitempty" mapstructure:"type"`

	// DataDir is the directory for Badger data files (badger type only).
	DataDir string `json:"data_dir,omitempty" mapstructure:"data_dir"`

	// InMemory runs Badger without disk persistence (badger type only).
	InMemory bool `json:"in_memory,omitempty" mapstructure:"in_memory"`
}

// NewStore creates a Store based on the configuration. An empty type
// defaults to the in-memory backend.
func NewStore(config *StoreConfig) (Store, error) {
	if config == nil {
		config = &StoreConfig{}
	}

	switch config.Type {
	case StoreTypeBadger:
		return NewBadgerStore(config)

	case StoreTypeMemory, "":
		return NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unsupported store type: %s (supported: badger, memory)", config.Type)
	}
}
