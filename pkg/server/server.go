// Package server exposes the memory client over HTTP with gin.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	kagura "github.com/JFK/kagura-ai-sub000"
	"github.com/JFK/kagura-ai-sub000/pkg/config"
	"github.com/JFK/kagura-ai-sub000/pkg/server/handlers"
	"github.com/JFK/kagura-ai-sub000/pkg/types"
)

// Server is the HTTP server.
type Server struct {
	config *config.Config
	router *gin.Engine
	client *kagura.Client
	server *http.Server
	logger *slog.Logger
}

// New creates a new server instance.
func New(cfg *config.Config, client *kagura.Client, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{config: cfg, client: client, logger: logger}
}

// Setup sets up the server routes and middleware.
func (s *Server) Setup() {
	gin.SetMode(s.config.Server.Mode)

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware())
	s.router.Use(contextMiddleware(s.client.Scope()))

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
}

// Router exposes the configured routes, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.client)
	memoryHandler := handlers.NewMemoryHandler(s.client)
	retrieveHandler := handlers.NewRetrieveHandler(s.client)
	graphHandler := handlers.NewGraphHandler(s.client)

	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/live", healthHandler.LivenessCheck)

	v1 := s.router.Group("/api/v1")
	{
		memories := v1.Group("/memories")
		{
			memories.POST("", memoryHandler.Store)
			memories.POST("/reconcile", memoryHandler.Reconcile)
			memories.GET("/:id", memoryHandler.Recall)
			memories.DELETE("/:id", memoryHandler.Forget)
		}

		v1.POST("/search", retrieveHandler.Search)
		v1.GET("/surface", retrieveHandler.Surface)

		graphGroup := v1.Group("/graph")
		{
			graphGroup.POST("/nodes", graphHandler.AddNode)
			graphGroup.POST("/edges", graphHandler.Relate)
			graphGroup.DELETE("/edges/:source/:target", graphHandler.Unrelate)
			graphGroup.GET("/related/:id", graphHandler.Related)
			graphGroup.GET("/export", graphHandler.Export)
			graphGroup.POST("/import", graphHandler.Import)
		}
	}
}

// Start starts the server.
func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop stops the server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping server")
	return s.server.Shutdown(ctx)
}

// corsMiddleware adds CORS headers.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// contextMiddleware tags each request context with the owner scope and a
// correlation id so telemetry can attribute errors.
func contextMiddleware(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ctx = context.WithValue(ctx, types.ContextKeyScope, scope)
		ctx = context.WithValue(ctx, types.ContextKeyRequestID, uuid.New().String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
