// Package config loads application configuration from file, environment
// and defaults via viper.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"

	"github.com/JFK/kagura-ai-sub000/pkg/kv"
	"github.com/JFK/kagura-ai-sub000/pkg/recall"
)

// Config holds all configuration for the application.
type Config struct {
	// Scope names the agent whose memories this process serves.
	Scope     string          `mapstructure:"scope"`
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	Store     kv.StoreConfig  `mapstructure:"store"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Reranker  RerankerConfig  `mapstructure:"reranker"`
	Recall    RecallConfig    `mapstructure:"recall"`
	Search    SearchConfig    `mapstructure:"search"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// EmbeddingConfig holds embedding provider configuration.
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"` // openai, mock
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	Dimensions int    `mapstructure:"dimensions"`
}

// RerankerConfig holds cross-encoder configuration.
type RerankerConfig struct {
	Provider       string `mapstructure:"provider"` // openai, local, mock, none
	Model          string `mapstructure:"model"`
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	MaxConcurrency int    `mapstructure:"max_concurrency"`
	Breaker        bool   `mapstructure:"breaker"`
}

// RecallConfig holds recall scoring configuration.
type RecallConfig struct {
	Weights       recall.Weights `mapstructure:"weights"`
	HalfLifeHours int            `mapstructure:"half_life_hours"`
}

// HalfLife returns the configured half-life as a duration.
func (c RecallConfig) HalfLife() time.Duration {
	return time.Duration(c.HalfLifeHours) * time.Hour
}

// SearchConfig holds retrieval pipeline defaults.
type SearchConfig struct {
	TopK            int  `mapstructure:"top_k"`
	CandidatesK     int  `mapstructure:"candidates_k"`
	RankConstant    int  `mapstructure:"rank_constant"`
	BranchTimeoutMS int  `mapstructure:"branch_timeout_ms"`
	Rerank          bool `mapstructure:"rerank"`
	ExpandRelated   bool `mapstructure:"expand_related"`
	EmbedCacheSize  int  `mapstructure:"embed_cache_size"`
}

// BranchTimeout returns the configured per-branch timeout.
func (c SearchConfig) BranchTimeout() time.Duration {
	return time.Duration(c.BranchTimeoutMS) * time.Millisecond
}

// TelemetryConfig holds telemetry configuration.
type TelemetryConfig struct {
	ParquetPath string `mapstructure:"parquet_path"`
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("scope", "default")

	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	// Store defaults
	viper.SetDefault("store.type", "badger")
	viper.SetDefault("store.data_dir", "./kagura_db")

	// Embedding defaults
	viper.SetDefault("embedding.provider", "openai")
	viper.SetDefault("embedding.model", "text-embedding-3-small")
	viper.SetDefault("embedding.dimensions", 1536)

	// Reranker defaults: absent unless explicitly configured
	viper.SetDefault("reranker.provider", "none")
	viper.SetDefault("reranker.max_concurrency", 4)

	// Recall defaults
	viper.SetDefault("recall.weights.relevance", 0.6)
	viper.SetDefault("recall.weights.recency", 0.15)
	viper.SetDefault("recall.weights.frequency", 0.1)
	viper.SetDefault("recall.weights.importance", 0.15)
	viper.SetDefault("recall.half_life_hours", 168)

	// Search defaults
	viper.SetDefault("search.top_k", 10)
	viper.SetDefault("search.candidates_k", 50)
	viper.SetDefault("search.rank_constant", 60)
	viper.SetDefault("search.branch_timeout_ms", 2000)
	viper.SetDefault("search.rerank", false)
	viper.SetDefault("search.expand_related", true)
	viper.SetDefault("search.embed_cache_size", 512)

	// Telemetry defaults
	home, err := os.UserHomeDir()
	if err == nil {
		viper.SetDefault("telemetry.parquet_path", fmt.Sprintf("%s/.kagura/telemetry", home))
	}
}

// overrideWithEnv overrides config with environment variables.
func overrideWithEnv(config *Config) {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		if config.Embedding.APIKey == "" {
			config.Embedding.APIKey = apiKey
		}
		if config.Reranker.APIKey == "" {
			config.Reranker.APIKey = apiKey
		}
	}

	if scope := os.Getenv("KAGURA_SCOPE"); scope != "" {
		config.Scope = scope
	}

	// Store settings
	if storeType := os.Getenv("KAGURA_STORE_TYPE"); storeType != "" {
		config.Store.Type = kv.StoreType(storeType)
	}
	if dataDir := os.Getenv("KAGURA_STORE_DIR"); dataDir != "" {
		config.Store.DataDir = dataDir
	}

	// Server settings
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	// Telemetry settings
	if path := os.Getenv("TELEMETRY_PARQUET_PATH"); path != "" {
		config.Telemetry.ParquetPath = path
	}
}
