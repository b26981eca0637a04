package graph

import (
	"sort"
	"time"

	"github.com/JFK/kagura-ai-sub000/pkg/types"
)

// UserPattern is a derived, read-only view of a user's activity in the
// graph. It is recomputed from nodes and edges on every call; nothing
// about it is stored separately.
type UserPattern struct {
	UserID           string               `json:"user_id"`
	TopicCount       int                  `json:"topic_count"`
	InteractionCount int                  `json:"interaction_count"`
	MemoryCount      int                  `json:"memory_count"`
	EdgesByType      map[types.EdgeType]int `json:"edges_by_type"`
	TopTopics        []string             `json:"top_topics"`
}

// AnalyzeUserPattern summarizes a user's neighborhood: counts of reachable
// topics, interactions and memories within two hops, a histogram of the
// user's direct edges by type, and the topics touched by the most edges.
func (s *Store) AnalyzeUserPattern(userID string) UserPattern {
	pattern := UserPattern{
		UserID:      userID,
		EdgesByType: make(map[types.EdgeType]int),
	}

	sub := s.QueryGraph([]string{userID}, 2, QueryOptions{})
	topicEdges := make(map[string]int)
	for _, n := range sub.Nodes {
		switch n.Type {
		case types.NodeTopic:
			pattern.TopicCount++
		case types.NodeInteraction:
			pattern.InteractionCount++
		case types.NodeMemory:
			pattern.MemoryCount++
		}
	}
	for _, e := range sub.Edges {
		if e.SourceID == userID || e.TargetID == userID {
			pattern.EdgesByType[e.Type]++
		}
		for _, endpoint := range []string{e.SourceID, e.TargetID} {
			if node, err := s.GetNode(endpoint); err == nil && node.Type == types.NodeTopic {
				topicEdges[endpoint]++
			}
		}
	}

	type topicScore struct {
		id    string
		count int
	}
	scores := make([]topicScore, 0, len(topicEdges))
	for id, count := range topicEdges {
		scores = append(scores, topicScore{id, count})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].count != scores[j].count {
			return scores[i].count > scores[j].count
		}
		return scores[i].id < scores[j].id
	})
	for i, ts := range scores {
		if i >= 5 {
			break
		}
		pattern.TopTopics = append(pattern.TopTopics, ts.id)
	}
	return pattern
}

// GetUserTopics returns the topic nodes currently connected to the user
// within two hops, ordered by id.
func (s *Store) GetUserTopics(userID string) []types.GraphNode {
	now := s.clock()
	return s.nodesOfType(userID, types.NodeTopic, &now)
}

// GetUserInteractions returns the interaction nodes connected to the
// user within two hops, ordered by id. History is included: invalidated
// edges still link a user to interactions that happened.
func (s *Store) GetUserInteractions(userID string) []types.GraphNode {
	return s.nodesOfType(userID, types.NodeInteraction, nil)
}

func (s *Store) nodesOfType(seedID string, nodeType types.NodeType, atTime *time.Time) []types.GraphNode {
	sub := s.QueryGraph([]string{seedID}, 2, QueryOptions{AtTime: atTime})
	var result []types.GraphNode
	for _, n := range sub.Nodes {
		if n.Type == nodeType {
			result = append(result, n)
		}
	}
	return result
}
