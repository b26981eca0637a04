package crossencoder

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerConfig controls the circuit breaker around a remote scorer.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	ReadyToTripRatio float64
}

// BreakerClient wraps a Client with a circuit breaker so a failing remote
// scorer trips open instead of slowing every search. While the breaker is
// open, Rank fails fast and the reranker degrades to pre-rerank order.
type BreakerClient struct {
	client Client
	cb     *gobreaker.CircuitBreaker
}

// NewBreakerClient wraps client with circuit breaking.
func NewBreakerClient(client Client, cfg BreakerConfig) *BreakerClient {
	if cfg.ReadyToTripRatio <= 0 {
		cfg.ReadyToTripRatio = 0.6
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	st := gobreaker.Settings{
		Name:        "crossencoder",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= cfg.ReadyToTripRatio
		},
	}
	return &BreakerClient{client: client, cb: gobreaker.NewCircuitBreaker(st)}
}

// Rank implements Client.
func (c *BreakerClient) Rank(ctx context.Context, query string, passages []string) ([]RankedPassage, error) {
	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.client.Rank(ctx, query, passages)
	})
	if err != nil {
		return nil, err
	}
	return result.([]RankedPassage), nil
}
