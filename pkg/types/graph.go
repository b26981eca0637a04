package types

import (
	"fmt"
	"time"
)

// NodeType is the closed set of graph node kinds.
type NodeType string

const (
	NodeMemory      NodeType = "memory"
	NodeUser        NodeType = "user"
	NodeTopic       NodeType = "topic"
	NodeInteraction NodeType = "interaction"
)

// Valid reports whether t is a member of the closed node-type set.
func (t NodeType) Valid() bool {
	switch t {
	case NodeMemory, NodeUser, NodeTopic, NodeInteraction:
		return true
	}
	return false
}

// EdgeType is the closed set of relationship kinds.
type EdgeType string

const (
	EdgeRelatedTo   EdgeType = "related_to"
	EdgeDependsOn   EdgeType = "depends_on"
	EdgeLearnedFrom EdgeType = "learned_from"
	EdgeInfluences  EdgeType = "influences"
	EdgeWorksOn     EdgeType = "works_on"
)

// Valid reports whether t is a member of the closed edge-type set.
func (t EdgeType) Valid() bool {
	switch t {
	case EdgeRelatedTo, EdgeDependsOn, EdgeLearnedFrom, EdgeInfluences, EdgeWorksOn:
		return true
	}
	return false
}

// GraphNode is a typed node in the relationship graph. Type is immutable
// after creation.
type GraphNode struct {
	ID         string         `json:"id"`
	Type       NodeType       `json:"type"`
	Attributes map[string]any `json:"attributes,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// GraphEdge is a directed, temporally versioned relationship. Edges are
// append-only: invalidation sets ValidUntil instead of deleting, so the
// full history of a relationship survives contradictions.
type GraphEdge struct {
	SourceID   string     `json:"source_id"`
	TargetID   string     `json:"target_id"`
	Type       EdgeType   `json:"type"`
	Weight     float64    `json:"weight"`
	ValidFrom  time.Time  `json:"valid_from"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
	Confidence float64    `json:"confidence"`
	Source     string     `json:"source,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ValidAt reports whether the edge's validity window covers t:
// ValidFrom <= t < ValidUntil, with a nil ValidUntil meaning still valid.
func (e *GraphEdge) ValidAt(t time.Time) bool {
	if t.Before(e.ValidFrom) {
		return false
	}
	if e.ValidUntil == nil {
		return true
	}
	return t.Before(*e.ValidUntil)
}

// InvalidatedBy reports whether the edge's window is already closed at
// or before t. An edge with a future ValidUntil is still valid at t and
// may be invalidated earlier; the window only ever tightens.
func (e *GraphEdge) InvalidatedBy(t time.Time) bool {
	return e.ValidUntil != nil && !e.ValidUntil.After(t)
}

func (e *GraphEdge) String() string {
	return fmt.Sprintf("%s -[%s]-> %s", e.SourceID, e.Type, e.TargetID)
}

// Subgraph is the induced result of a graph traversal: all visited nodes
// plus the edges connecting them.
type Subgraph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}
