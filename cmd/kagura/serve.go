package kagura

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	root "github.com/JFK/kagura-ai-sub000" // aliased: this command package shares the name
	"github.com/JFK/kagura-ai-sub000/pkg/config"
	"github.com/JFK/kagura-ai-sub000/pkg/crossencoder"
	"github.com/JFK/kagura-ai-sub000/pkg/embedder"
	"github.com/JFK/kagura-ai-sub000/pkg/kv"
	"github.com/JFK/kagura-ai-sub000/pkg/logger"
	"github.com/JFK/kagura-ai-sub000/pkg/recall"
	"github.com/JFK/kagura-ai-sub000/pkg/search"
	"github.com/JFK/kagura-ai-sub000/pkg/server"
	"github.com/JFK/kagura-ai-sub000/pkg/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Kagura HTTP server",
	Long: `Start the Kagura HTTP server to provide REST API access to agent memory.

The server provides endpoints for:
- Storing, recalling and forgetting memories
- Hybrid search over the memory corpus
- Managing the relationship graph
- Health checks

Configuration can be provided through config files, environment variables, or command-line flags.`,
	RunE: runServe,
}

var (
	serverHost string
	serverPort int
	serverMode string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	// Server-specific flags
	serveCmd.Flags().StringVar(&serverHost, "host", "localhost", "Server host")
	serveCmd.Flags().IntVar(&serverPort, "port", 8080, "Server port")
	serveCmd.Flags().StringVar(&serverMode, "mode", "debug", "Server mode (debug, release, test)")

	// Scope flag
	serveCmd.Flags().String("scope", "default", "Agent scope served by this process")

	// Store flags
	serveCmd.Flags().String("store-type", "badger", "Store backend (badger, memory)")
	serveCmd.Flags().String("store-dir", "./kagura_db", "Store data directory")

	// Embedding flags
	serveCmd.Flags().String("embedding-provider", "openai", "Embedding provider (openai, mock)")
	serveCmd.Flags().String("embedding-model", "text-embedding-3-small", "Embedding model")
	serveCmd.Flags().String("embedding-api-key", "", "Embedding API key")
	serveCmd.Flags().String("embedding-base-url", "", "Embedding base URL")

	// Reranker flags
	serveCmd.Flags().String("reranker-provider", "none", "Cross-encoder provider (openai, local, mock, none)")
	serveCmd.Flags().String("reranker-model", "", "Cross-encoder model")
	serveCmd.Flags().String("reranker-api-key", "", "Cross-encoder API key")

	// Telemetry flags
	serveCmd.Flags().String("telemetry-parquet-path", "", "Path to directory for telemetry (error records)")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with command-line flags
	overrideConfigWithFlags(cmd, cfg)

	// Validate configuration
	if err := validateServeConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log := logger.NewDefaultLogger(logger.ParseLevel(cfg.Log.Level))

	// Error tracking via Parquet
	var parquetHandler *telemetry.ParquetHandler
	if cfg.Telemetry.ParquetPath != "" {
		parquetHandler, err = telemetry.NewParquetHandler(log.Handler(), cfg.Telemetry.ParquetPath)
		if err != nil {
			fmt.Printf("Warning: Failed to initialize error tracking: %v\n", err)
		} else {
			log = slog.New(parquetHandler)
			fmt.Println("Error tracking enabled at:", cfg.Telemetry.ParquetPath)
		}
	}

	// Initialize memory client
	fmt.Println("Initializing Kagura...")
	client, err := initializeClient(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize Kagura: %w", err)
	}
	defer client.Close()

	// Create and setup server
	srv := server.New(cfg, client, log)
	srv.Setup()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal: %v\n", sig)

		// Create shutdown context with timeout
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Shutdown server
		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		if parquetHandler != nil {
			if err := parquetHandler.Flush(); err != nil {
				fmt.Printf("Warning: Failed to flush telemetry: %v\n", err)
			}
		}

		fmt.Println("Server stopped gracefully")
		return nil
	}
}

func overrideConfigWithFlags(cmd *cobra.Command, cfg *config.Config) {
	// Server flags
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serverHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serverPort
	}
	if cmd.Flags().Changed("mode") {
		cfg.Server.Mode = serverMode
	}

	// Scope flag
	if cmd.Flags().Changed("scope") {
		cfg.Scope, _ = cmd.Flags().GetString("scope")
	}

	// Store flags
	if cmd.Flags().Changed("store-type") {
		storeType, _ := cmd.Flags().GetString("store-type")
		cfg.Store.Type = kv.StoreType(storeType)
	}
	if cmd.Flags().Changed("store-dir") {
		cfg.Store.DataDir, _ = cmd.Flags().GetString("store-dir")
	}

	// Embedding flags
	if cmd.Flags().Changed("embedding-provider") {
		cfg.Embedding.Provider, _ = cmd.Flags().GetString("embedding-provider")
	}
	if cmd.Flags().Changed("embedding-model") {
		cfg.Embedding.Model, _ = cmd.Flags().GetString("embedding-model")
	}
	if cmd.Flags().Changed("embedding-api-key") {
		cfg.Embedding.APIKey, _ = cmd.Flags().GetString("embedding-api-key")
	}
	if cmd.Flags().Changed("embedding-base-url") {
		cfg.Embedding.BaseURL, _ = cmd.Flags().GetString("embedding-base-url")
	}

	// Reranker flags
	if cmd.Flags().Changed("reranker-provider") {
		cfg.Reranker.Provider, _ = cmd.Flags().GetString("reranker-provider")
	}
	if cmd.Flags().Changed("reranker-model") {
		cfg.Reranker.Model, _ = cmd.Flags().GetString("reranker-model")
	}
	if cmd.Flags().Changed("reranker-api-key") {
		cfg.Reranker.APIKey, _ = cmd.Flags().GetString("reranker-api-key")
	}

	// Telemetry flags
	if cmd.Flags().Changed("telemetry-parquet-path") {
		cfg.Telemetry.ParquetPath, _ = cmd.Flags().GetString("telemetry-parquet-path")
	}
}

func validateServeConfig(cfg *config.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Server.Port)
	}
	if cfg.Store.Type == kv.StoreTypeBadger && cfg.Store.DataDir == "" {
		return fmt.Errorf("store data directory is required for badger")
	}
	if cfg.Embedding.Provider == "openai" && cfg.Embedding.APIKey == "" {
		return fmt.Errorf("embedding API key is required (set OPENAI_API_KEY)")
	}
	return nil
}

func initializeClient(cfg *config.Config, log *slog.Logger) (*root.Client, error) {
	// Initialize persistent store
	store, err := kv.NewStore(&cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	// Initialize embedder client
	var embedderClient embedder.Client
	switch cfg.Embedding.Provider {
	case "openai":
		embedderClient, err = embedder.NewOpenAIClient(embedder.Config{
			Model:      cfg.Embedding.Model,
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Dimensions: cfg.Embedding.Dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create embedder: %w", err)
		}
	case "mock":
		embedderClient = embedder.NewMockClient(cfg.Embedding.Dimensions)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
	}

	// Initialize cross-encoder; "none" yields a nil client and search
	// degrades to fused order.
	rerankerClient, err := crossencoder.NewClient(crossencoder.Provider(cfg.Reranker.Provider), crossencoder.Config{
		Model:          cfg.Reranker.Model,
		APIKey:         cfg.Reranker.APIKey,
		BaseURL:        cfg.Reranker.BaseURL,
		MaxConcurrency: cfg.Reranker.MaxConcurrency,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cross-encoder: %w", err)
	}
	if rerankerClient != nil && cfg.Reranker.Breaker {
		rerankerClient = crossencoder.NewBreakerClient(rerankerClient, crossencoder.BreakerConfig{})
	}

	client, err := root.New(context.Background(), root.Config{
		Scope:    cfg.Scope,
		Store:    store,
		Embedder: embedderClient,
		Reranker: rerankerClient,
		Recall: recall.Config{
			Weights:  cfg.Recall.Weights,
			HalfLife: cfg.Recall.HalfLife(),
		},
		SearchDefaults: search.Options{
			TopK:          cfg.Search.TopK,
			CandidatesK:   cfg.Search.CandidatesK,
			RankConstant:  cfg.Search.RankConstant,
			BranchTimeout: cfg.Search.BranchTimeout(),
			Rerank:        cfg.Search.Rerank,
			ExpandRelated: cfg.Search.ExpandRelated,
		},
		EmbedCacheSize: cfg.Search.EmbedCacheSize,
		Logger:         log,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create memory client: %w", err)
	}

	fmt.Printf("Kagura initialized for scope %q with store: %s\n", cfg.Scope, cfg.Store.Type)
	fmt.Printf("Embedding provider: %s, model: %s\n", cfg.Embedding.Provider, cfg.Embedding.Model)
	if rerankerClient != nil {
		fmt.Printf("Reranker provider: %s\n", cfg.Reranker.Provider)
	}

	return client, nil
}
