package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JFK/kagura-ai-sub000/pkg/kv"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("KAGURA_STORE_TYPE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, kv.StoreTypeBadger, cfg.Store.Type)
	assert.Equal(t, "none", cfg.Reranker.Provider)
	assert.Equal(t, 0.6, cfg.Recall.Weights.Relevance)
	assert.Equal(t, 60, cfg.Search.RankConstant)
	assert.Equal(t, 50, cfg.Search.CandidatesK)
	assert.Equal(t, 168, cfg.Recall.HalfLifeHours)
}

func TestEnvOverrides(t *testing.T) {
	viper.Reset()
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("KAGURA_STORE_TYPE", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.Embedding.APIKey)
	assert.Equal(t, "sk-test", cfg.Reranker.APIKey)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, kv.StoreTypeMemory, cfg.Store.Type)
}

func TestDurationHelpers(t *testing.T) {
	cfg := &Config{}
	cfg.Search.BranchTimeoutMS = 1500
	cfg.Recall.HalfLifeHours = 24

	assert.Equal(t, "1.5s", cfg.Search.BranchTimeout().String())
	assert.Equal(t, "24h0m0s", cfg.Recall.HalfLife().String())
}
