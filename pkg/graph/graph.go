// Package graph implements the typed, temporally versioned relationship
// graph over memory, user, topic and interaction nodes.
//
// Nodes and edges live in an in-process arena addressed by stable
// handles; adjacency is kept as index lists, so cross-subsystem
// references are handle lookups rather than pointers. Edges are
// append-only: a contradicted relationship is soft-invalidated by
// closing its validity window, never deleted, so history survives.
package graph

import (
	"sync"
	"time"

	"github.com/JFK/kagura-ai-sub000/pkg/types"
)

// Store is the shared mutable graph. All methods are safe for concurrent
// use; mutations never leave dangling edges because endpoints are
// validated at creation time and nodes are never removed.
type Store struct {
	mu        sync.RWMutex
	nodes     []types.GraphNode
	nodeIndex map[string]int // node id -> arena index
	edges     []types.GraphEdge
	out       map[int][]int // node index -> outgoing edge indices
	in        map[int][]int // node index -> incoming edge indices
	clock     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock substitutes the time source; tests use this to pin temporal
// validity windows.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

// NewStore creates an empty graph.
func NewStore(opts ...Option) *Store {
	s := &Store{
		nodeIndex: make(map[string]int),
		out:       make(map[int][]int),
		in:        make(map[int][]int),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddNode creates a node, or upserts attributes if a node with the same
// id and type already exists. A type change is rejected: node type is
// immutable after creation.
func (s *Store) AddNode(id string, nodeType types.NodeType, attrs map[string]any) error {
	if !nodeType.Valid() {
		return &types.ValidationError{Op: "add node", Reason: "unknown node type " + string(nodeType)}
	}
	if id == "" {
		return &types.ValidationError{Op: "add node", Reason: "empty node id"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, ok := s.nodeIndex[id]; ok {
		existing := &s.nodes[idx]
		if existing.Type != nodeType {
			return &types.ValidationError{
				Op:     "add node",
				Reason: "node " + id + " already exists with type " + string(existing.Type),
			}
		}
		if existing.Attributes == nil && len(attrs) > 0 {
			existing.Attributes = make(map[string]any, len(attrs))
		}
		for k, v := range attrs {
			existing.Attributes[k] = v
		}
		return nil
	}

	copied := make(map[string]any, len(attrs))
	for k, v := range attrs {
		copied[k] = v
	}
	s.nodes = append(s.nodes, types.GraphNode{
		ID:         id,
		Type:       nodeType,
		Attributes: copied,
		CreatedAt:  s.clock(),
	})
	s.nodeIndex[id] = len(s.nodes) - 1
	return nil
}

// EdgeOptions carries the optional fields of AddEdge. Zero values select
// the defaults: weight 1.0, confidence 1.0, ValidFrom = now, open-ended
// validity.
type EdgeOptions struct {
	Weight     float64
	ValidFrom  time.Time
	ValidUntil *time.Time
	Confidence float64
	Source     string
}

// AddEdge appends a directed typed edge. Both endpoints must already
// exist and the type must belong to the closed edge-type set; otherwise
// the mutation is rejected and the store is unchanged.
func (s *Store) AddEdge(srcID, dstID string, edgeType types.EdgeType, opts EdgeOptions) error {
	if !edgeType.Valid() {
		return &types.ValidationError{Op: "add edge", Reason: "unknown edge type " + string(edgeType)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	srcIdx, ok := s.nodeIndex[srcID]
	if !ok {
		return &types.ValidationError{Op: "add edge", Reason: "source node " + srcID + " does not exist"}
	}
	dstIdx, ok := s.nodeIndex[dstID]
	if !ok {
		return &types.ValidationError{Op: "add edge", Reason: "target node " + dstID + " does not exist"}
	}

	now := s.clock()
	edge := types.GraphEdge{
		SourceID:   srcID,
		TargetID:   dstID,
		Type:       edgeType,
		Weight:     opts.Weight,
		ValidFrom:  opts.ValidFrom,
		ValidUntil: opts.ValidUntil,
		Confidence: opts.Confidence,
		Source:     opts.Source,
		CreatedAt:  now,
	}
	if edge.Weight == 0 {
		edge.Weight = 1.0
	}
	if edge.Confidence == 0 {
		edge.Confidence = 1.0
	}
	if edge.ValidFrom.IsZero() {
		edge.ValidFrom = now
	}

	s.edges = append(s.edges, edge)
	edgeIdx := len(s.edges) - 1
	s.out[srcIdx] = append(s.out[srcIdx], edgeIdx)
	s.in[dstIdx] = append(s.in[dstIdx], edgeIdx)
	return nil
}

// Invalidate closes the validity window of every edge from src to dst
// still valid at the given instant, including edges whose explicit
// ValidUntil lies in the future. Windows only tighten: an edge already
// closed at or before the instant keeps its original ValidUntil, making
// repeated invalidation a no-op. A zero time means now. Returns the
// number of edges invalidated.
func (s *Store) Invalidate(srcID, dstID string, at time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if at.IsZero() {
		at = s.clock()
	}

	srcIdx, ok := s.nodeIndex[srcID]
	if !ok {
		return 0
	}

	invalidated := 0
	for _, edgeIdx := range s.out[srcIdx] {
		e := &s.edges[edgeIdx]
		if e.TargetID != dstID || e.InvalidatedBy(at) {
			continue
		}
		until := at
		e.ValidUntil = &until
		invalidated++
	}
	return invalidated
}

// IsValidAt reports whether any edge from src to dst is valid at t.
func (s *Store) IsValidAt(srcID, dstID string, t time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	srcIdx, ok := s.nodeIndex[srcID]
	if !ok {
		return false
	}
	for _, edgeIdx := range s.out[srcIdx] {
		e := &s.edges[edgeIdx]
		if e.TargetID == dstID && e.ValidAt(t) {
			return true
		}
	}
	return false
}

// GetNode returns the node with the given id.
func (s *Store) GetNode(id string) (types.GraphNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.nodeIndex[id]
	if !ok {
		return types.GraphNode{}, types.ErrNotFound
	}
	return s.nodes[idx], nil
}

// HasNode reports whether a node with the given id exists.
func (s *Store) HasNode(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.nodeIndex[id]
	return ok
}

// EdgesBetween returns all edges from src to dst, including invalidated
// ones; provenance is part of the contract.
func (s *Store) EdgesBetween(srcID, dstID string) []types.GraphEdge {
	s.mu.RLock()
	defer s.mu.RUnlock()

	srcIdx, ok := s.nodeIndex[srcID]
	if !ok {
		return nil
	}
	var result []types.GraphEdge
	for _, edgeIdx := range s.out[srcIdx] {
		if s.edges[edgeIdx].TargetID == dstID {
			result = append(result, s.edges[edgeIdx])
		}
	}
	return result
}

// NodeCount returns the number of nodes.
func (s *Store) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.nodes)
}

// EdgeCount returns the number of edges, invalidated included.
func (s *Store) EdgeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.edges)
}
