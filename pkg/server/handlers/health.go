package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	kagura "github.com/JFK/kagura-ai-sub000"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	client *kagura.Client
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(client *kagura.Client) *HealthHandler {
	return &HealthHandler{client: client}
}

// HealthCheck handles GET /health.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "scope": h.client.Scope()})
}

// LivenessCheck handles GET /live.
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}
