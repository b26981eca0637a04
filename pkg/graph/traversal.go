package graph

import (
	"sort"
	"time"

	"github.com/JFK/kagura-ai-sub000/pkg/types"
)

// QueryOptions filters a traversal.
type QueryOptions struct {
	// RelFilters restricts traversal to the given edge types. Empty means
	// all types.
	RelFilters []types.EdgeType
	// AtTime evaluates temporal validity at the given instant. Nil means
	// traverse every edge regardless of validity.
	AtTime *time.Time
}

// QueryGraph expands breadth-first from the seed set for at most hops
// hops. The graph is directed but discovery is undirected: both outgoing
// and incoming edges are followed. Visited nodes are never re-expanded and
// expansion stops early once a hop contributes nothing new. Nonexistent
// seeds are skipped, so querying from an unknown seed yields an empty
// subgraph rather than an error.
//
// The result is the induced subgraph: every visited node plus the
// (filter-passing) edges connecting visited nodes to each other.
func (s *Store) QueryGraph(seedIDs []string, hops int, opts QueryOptions) *types.Subgraph {
	s.mu.RLock()
	defer s.mu.RUnlock()

	visited := make(map[int]struct{})
	frontier := make([]int, 0, len(seedIDs))
	for _, id := range seedIDs {
		if idx, ok := s.nodeIndex[id]; ok {
			if _, seen := visited[idx]; !seen {
				visited[idx] = struct{}{}
				frontier = append(frontier, idx)
			}
		}
	}

	for hop := 0; hop < hops && len(frontier) > 0; hop++ {
		var next []int
		for _, nodeIdx := range frontier {
			for _, edgeIdx := range s.neighborsLocked(nodeIdx) {
				if !s.edgePassesLocked(edgeIdx, opts) {
					continue
				}
				e := &s.edges[edgeIdx]
				for _, endpoint := range []string{e.SourceID, e.TargetID} {
					otherIdx := s.nodeIndex[endpoint]
					if _, seen := visited[otherIdx]; !seen {
						visited[otherIdx] = struct{}{}
						next = append(next, otherIdx)
					}
				}
			}
		}
		frontier = next
	}

	return s.induceLocked(visited, opts)
}

// GetRelated returns the nodes reachable from nodeID within depth hops,
// optionally restricted to a single relationship type. The seed itself is
// excluded. Results are ordered by id for reproducibility.
func (s *Store) GetRelated(nodeID string, depth int, relType ...types.EdgeType) []types.GraphNode {
	opts := QueryOptions{}
	if len(relType) > 0 {
		opts.RelFilters = relType
	}
	sub := s.QueryGraph([]string{nodeID}, depth, opts)

	related := make([]types.GraphNode, 0, len(sub.Nodes))
	for _, n := range sub.Nodes {
		if n.ID != nodeID {
			related = append(related, n)
		}
	}
	return related
}

// RelatedWithEdges returns each one-hop neighbor of nodeID together with
// the type of the edge that reaches it, for annotating search results.
func (s *Store) RelatedWithEdges(nodeID string, opts QueryOptions) []types.RelatedItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nodeIdx, ok := s.nodeIndex[nodeID]
	if !ok {
		return nil
	}

	seen := make(map[string]struct{})
	var items []types.RelatedItem
	for _, edgeIdx := range s.neighborsLocked(nodeIdx) {
		if !s.edgePassesLocked(edgeIdx, opts) {
			continue
		}
		e := &s.edges[edgeIdx]
		otherID := e.TargetID
		if otherID == nodeID {
			otherID = e.SourceID
		}
		if otherID == nodeID {
			continue // self-loop
		}
		if _, dup := seen[otherID]; dup {
			continue
		}
		seen[otherID] = struct{}{}
		other := s.nodes[s.nodeIndex[otherID]]
		items = append(items, types.RelatedItem{
			ID:       otherID,
			Type:     other.Type,
			EdgeType: e.Type,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

// neighborsLocked returns the indices of all edges touching the node.
func (s *Store) neighborsLocked(nodeIdx int) []int {
	outEdges := s.out[nodeIdx]
	inEdges := s.in[nodeIdx]
	all := make([]int, 0, len(outEdges)+len(inEdges))
	all = append(all, outEdges...)
	all = append(all, inEdges...)
	return all
}

func (s *Store) edgePassesLocked(edgeIdx int, opts QueryOptions) bool {
	e := &s.edges[edgeIdx]
	if opts.AtTime != nil && !e.ValidAt(*opts.AtTime) {
		return false
	}
	if len(opts.RelFilters) == 0 {
		return true
	}
	for _, t := range opts.RelFilters {
		if e.Type == t {
			return true
		}
	}
	return false
}

// induceLocked builds the subgraph induced by the visited node set.
func (s *Store) induceLocked(visited map[int]struct{}, opts QueryOptions) *types.Subgraph {
	sub := &types.Subgraph{
		Nodes: make([]types.GraphNode, 0, len(visited)),
		Edges: []types.GraphEdge{},
	}

	indices := make([]int, 0, len(visited))
	for idx := range visited {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return s.nodes[indices[i]].ID < s.nodes[indices[j]].ID })
	for _, idx := range indices {
		sub.Nodes = append(sub.Nodes, s.nodes[idx])
	}

	for edgeIdx := range s.edges {
		if !s.edgePassesLocked(edgeIdx, opts) {
			continue
		}
		e := &s.edges[edgeIdx]
		_, srcIn := visited[s.nodeIndex[e.SourceID]]
		_, dstIn := visited[s.nodeIndex[e.TargetID]]
		if srcIn && dstIn {
			sub.Edges = append(sub.Edges, *e)
		}
	}
	return sub
}
