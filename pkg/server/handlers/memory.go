// Package handlers implements the HTTP endpoint handlers.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	kagura "github.com/JFK/kagura-ai-sub000"
	"github.com/JFK/kagura-ai-sub000/pkg/server/dto"
	"github.com/JFK/kagura-ai-sub000/pkg/types"
)

// MemoryHandler handles memory item CRUD requests.
type MemoryHandler struct {
	client *kagura.Client
}

// NewMemoryHandler creates a new memory handler.
func NewMemoryHandler(client *kagura.Client) *MemoryHandler {
	return &MemoryHandler{client: client}
}

// Store handles POST /api/v1/memories.
func (h *MemoryHandler) Store(c *gin.Context) {
	var req dto.StoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Result{Error: err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.Result{Error: err.Error()})
		return
	}

	item := &types.MemoryItem{
		ID:      req.ID,
		Content: req.Content,
		Metadata: types.MemoryMetadata{
			Tags:       req.Tags,
			Importance: req.Importance,
		},
	}
	if err := h.client.Store(c.Request.Context(), item); err != nil {
		c.JSON(http.StatusInternalServerError, dto.Result{Error: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, dto.Result{Success: true, Data: item})
}

// Recall handles GET /api/v1/memories/:id. The touch query parameter
// controls whether the access is recorded.
func (h *MemoryHandler) Recall(c *gin.Context) {
	touch, _ := strconv.ParseBool(c.DefaultQuery("touch", "true"))

	item, err := h.client.Recall(c.Request.Context(), c.Param("id"), touch)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.Result{Error: "memory not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.Result{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: item})
}

// Forget handles DELETE /api/v1/memories/:id. A partial delete reports
// 502 so the caller knows the stores diverged; the reconcile sweep will
// retry.
func (h *MemoryHandler) Forget(c *gin.Context) {
	err := h.client.Forget(c.Request.Context(), c.Param("id"))
	if err != nil {
		var perr *types.PartialDeleteError
		if errors.As(err, &perr) {
			c.JSON(http.StatusBadGateway, dto.Result{Error: perr.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.Result{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true})
}

// Reconcile handles POST /api/v1/memories/reconcile.
func (h *MemoryHandler) Reconcile(c *gin.Context) {
	repairs, err := h.client.Reconcile(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.Result{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: dto.ReconcileResponse{Repairs: repairs}})
}
