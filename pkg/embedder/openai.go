package embedder

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIDimensions = 1536

// OpenAIClient implements Client using the OpenAI embeddings API or any
// compatible endpoint (set BaseURL for local servers).
type OpenAIClient struct {
	client *openai.Client
	config Config
}

// NewOpenAIClient creates an OpenAI-backed embedder.
func NewOpenAIClient(config Config) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("openai embedder: api key is required")
	}
	if config.Model == "" {
		config.Model = string(openai.SmallEmbedding3)
	}
	if config.Dimensions == 0 {
		config.Dimensions = defaultOpenAIDimensions
	}

	cfg := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		cfg.BaseURL = config.BaseURL
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg), config: config}, nil
}

// EmbedPassages encodes documents, applying the configured passage prefix
// for asymmetric models.
func (c *OpenAIClient) EmbedPassages(ctx context.Context, texts []string) ([][]float32, error) {
	inputs := make([]string, len(texts))
	for i, t := range texts {
		inputs[i] = c.config.PassagePrefix + strings.ReplaceAll(t, "\n", " ")
	}
	return c.embed(ctx, inputs)
}

// EmbedQuery encodes a query, applying the configured query prefix.
func (c *OpenAIClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.embed(ctx, []string{c.config.QueryPrefix + strings.ReplaceAll(text, "\n", " ")})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("openai embedder: no embedding returned")
	}
	return vectors[0], nil
}

// Dimensions returns the embedding width.
func (c *OpenAIClient) Dimensions() int { return c.config.Dimensions }

func (c *OpenAIClient) embed(ctx context.Context, inputs []string) ([][]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: inputs,
		Model: openai.EmbeddingModel(c.config.Model),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}
