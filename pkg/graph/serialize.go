package graph

import (
	"encoding/json"
	"fmt"

	"github.com/JFK/kagura-ai-sub000/pkg/types"
)

const snapshotVersion = 1

type snapshot struct {
	Version int               `json:"version"`
	Nodes   []types.GraphNode `json:"nodes"`
	Edges   []types.GraphEdge `json:"edges"`
}

// Serialize encodes the full graph, invalidated edges included, as JSON.
// The adjacency lists are derived state and are rebuilt on load.
func (s *Store) Serialize() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		Version: snapshotVersion,
		Nodes:   s.nodes,
		Edges:   s.edges,
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize graph: %w", err)
	}
	return data, nil
}

// Deserialize reconstructs a Store from Serialize output. The result is
// isomorphic to the original: identical node and edge attributes, with
// adjacency rebuilt from the edge list.
func Deserialize(data []byte, opts ...Option) (*Store, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to deserialize graph: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported graph snapshot version %d", snap.Version)
	}

	s := NewStore(opts...)
	if err := s.load(snap); err != nil {
		return nil, err
	}
	return s, nil
}

// Restore replaces this store's contents in place with a snapshot, so
// existing references to the store observe the imported graph.
func (s *Store) Restore(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to deserialize graph: %w", err)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("unsupported graph snapshot version %d", snap.Version)
	}

	restored := NewStore(WithClock(s.clock))
	if err := restored.load(snap); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = restored.nodes
	s.nodeIndex = restored.nodeIndex
	s.edges = restored.edges
	s.out = restored.out
	s.in = restored.in
	return nil
}

func (s *Store) load(snap snapshot) error {
	s.nodes = snap.Nodes
	for i, n := range s.nodes {
		if !n.Type.Valid() {
			return fmt.Errorf("snapshot node %q has unknown type %q", n.ID, n.Type)
		}
		s.nodeIndex[n.ID] = i
	}
	for _, e := range snap.Edges {
		srcIdx, ok := s.nodeIndex[e.SourceID]
		if !ok {
			return fmt.Errorf("snapshot edge %s references missing source node", e.String())
		}
		dstIdx, ok := s.nodeIndex[e.TargetID]
		if !ok {
			return fmt.Errorf("snapshot edge %s references missing target node", e.String())
		}
		s.edges = append(s.edges, e)
		edgeIdx := len(s.edges) - 1
		s.out[srcIdx] = append(s.out[srcIdx], edgeIdx)
		s.in[dstIdx] = append(s.in[dstIdx], edgeIdx)
	}
	return nil
}
