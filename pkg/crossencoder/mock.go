package crossencoder

import "context"

// MockClient is a deterministic Client for tests. Scores come from the
// configured map (keyed by passage); unknown passages score 0. A non-nil
// Err makes every Rank call fail, which is how degradation paths are
// exercised.
type MockClient struct {
	Scores map[string]float64
	Err    error
	Calls  int
}

// NewMockClient creates a mock scorer with fixed passage scores.
func NewMockClient(scores map[string]float64) *MockClient {
	if scores == nil {
		scores = make(map[string]float64)
	}
	return &MockClient{Scores: scores}
}

// Rank returns the configured score for each passage, in input order.
func (m *MockClient) Rank(_ context.Context, _ string, passages []string) ([]RankedPassage, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}

	ranked := make([]RankedPassage, len(passages))
	for i, p := range passages {
		ranked[i] = RankedPassage{Passage: p, Score: m.Scores[p]}
	}
	return ranked, nil
}
