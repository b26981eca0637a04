package crossencoder

import (
	"context"
	"fmt"
	"math"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient implements Client by running a boolean relevance classifier
// prompt for each passage and ranking on the "True" token's
// log-probability. Passages are scored concurrently under a semaphore.
type OpenAIClient struct {
	client    *openai.Client
	config    Config
	semaphore chan struct{}
}

// NewOpenAIClient creates an OpenAI-backed cross-encoder.
func NewOpenAIClient(config Config) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("openai cross-encoder: api key is required")
	}
	if config.Model == "" {
		config.Model = openai.GPT4oMini
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 10
	}

	cfg := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		cfg.BaseURL = config.BaseURL
	}
	return &OpenAIClient{
		client:    openai.NewClientWithConfig(cfg),
		config:    config,
		semaphore: make(chan struct{}, config.MaxConcurrency),
	}, nil
}

// Rank scores every passage against the query concurrently and returns
// the scores in input order.
func (c *OpenAIClient) Rank(ctx context.Context, query string, passages []string) ([]RankedPassage, error) {
	if len(passages) == 0 {
		return []RankedPassage{}, nil
	}

	type result struct {
		score float64
		err   error
	}
	results := make([]result, len(passages))
	var wg sync.WaitGroup

	for i, passage := range passages {
		wg.Add(1)
		go func(idx int, p string) {
			defer wg.Done()

			select {
			case c.semaphore <- struct{}{}:
				defer func() { <-c.semaphore }()
			case <-ctx.Done():
				results[idx] = result{err: ctx.Err()}
				return
			}

			score, err := c.scorePassage(ctx, query, p)
			results[idx] = result{score: score, err: err}
		}(i, passage)
	}
	wg.Wait()

	ranked := make([]RankedPassage, len(passages))
	for i, r := range results {
		if r.err != nil {
			return nil, fmt.Errorf("failed to score passage %d: %w", i, r.err)
		}
		ranked[i] = RankedPassage{Passage: passages[i], Score: r.score}
	}
	return ranked, nil
}

func (c *OpenAIClient) scorePassage(ctx context.Context, query, passage string) (float64, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an expert tasked with determining whether the passage is relevant to the query",
			},
			{
				Role: openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(`Respond with "True" if PASSAGE is relevant to QUERY and "False" otherwise.
<PASSAGE>
%s
</PASSAGE>
<QUERY>
%s
</QUERY>`, passage, query),
			},
		},
		MaxTokens:   1,
		Temperature: 0,
		LogProbs:    true,
		TopLogProbs: 2,
	})
	if err != nil {
		return 0, err
	}
	if len(resp.Choices) == 0 {
		return 0, fmt.Errorf("no completion returned")
	}

	choice := resp.Choices[0]
	if choice.LogProbs != nil && len(choice.LogProbs.Content) > 0 {
		for _, top := range choice.LogProbs.Content[0].TopLogProbs {
			if top.Token == "True" || top.Token == " True" {
				return math.Exp(top.LogProb), nil
			}
		}
		// "True" absent from the top tokens: complement of the winner.
		return 1 - math.Exp(choice.LogProbs.Content[0].LogProb), nil
	}

	// Log-probabilities unavailable; fall back to the classifier verdict.
	if choice.Message.Content == "True" {
		return 1, nil
	}
	return 0, nil
}
