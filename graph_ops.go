package kagura

import (
	"time"

	"github.com/JFK/kagura-ai-sub000/pkg/graph"
	"github.com/JFK/kagura-ai-sub000/pkg/types"
)

// AddNode registers a node in the relationship graph. Memory nodes share
// ids with stored items so graph expansion can annotate search results.
func (c *Client) AddNode(id string, nodeType types.NodeType, attrs map[string]any) error {
	return c.graph.AddNode(id, nodeType, attrs)
}

// Relate records a directed, typed relationship valid from now on. Both
// endpoints must already exist.
func (c *Client) Relate(srcID, dstID string, edgeType types.EdgeType) error {
	return c.graph.AddEdge(srcID, dstID, edgeType, graph.EdgeOptions{})
}

// Unrelate closes the validity window of the active edges between two
// nodes as of now. History is kept; nothing is deleted.
func (c *Client) Unrelate(srcID, dstID string) int {
	return c.graph.Invalidate(srcID, dstID, c.clock())
}

// Related returns nodes reachable from the given node within depth hops
// through currently-valid edges, excluding the node itself.
func (c *Client) Related(nodeID string, depth int, relType ...types.EdgeType) []types.GraphNode {
	return c.RelatedAt(nodeID, depth, c.clock(), relType...)
}

// RelatedAt is Related evaluated against the graph as it was at t.
func (c *Client) RelatedAt(nodeID string, depth int, t time.Time, relType ...types.EdgeType) []types.GraphNode {
	opts := graph.QueryOptions{AtTime: &t}
	if len(relType) > 0 {
		opts.RelFilters = relType
	}
	sub := c.graph.QueryGraph([]string{nodeID}, depth, opts)
	out := make([]types.GraphNode, 0, len(sub.Nodes))
	for _, n := range sub.Nodes {
		if n.ID != nodeID {
			out = append(out, n)
		}
	}
	return out
}

// UserPattern summarizes a user node's topics, interactions and memories.
func (c *Client) UserPattern(userID string) graph.UserPattern {
	return c.graph.AnalyzeUserPattern(userID)
}

// ExportGraph serializes the relationship graph to JSON.
func (c *Client) ExportGraph() ([]byte, error) {
	return c.graph.Serialize()
}

// ImportGraph replaces the relationship graph's contents with a
// previously exported snapshot.
func (c *Client) ImportGraph(data []byte) error {
	return c.graph.Restore(data)
}
