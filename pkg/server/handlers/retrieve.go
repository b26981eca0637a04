package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	kagura "github.com/JFK/kagura-ai-sub000"
	"github.com/JFK/kagura-ai-sub000/pkg/search"
	"github.com/JFK/kagura-ai-sub000/pkg/server/dto"
)

// RetrieveHandler handles search and proactive recall requests.
type RetrieveHandler struct {
	client *kagura.Client
}

// NewRetrieveHandler creates a new retrieve handler.
func NewRetrieveHandler(client *kagura.Client) *RetrieveHandler {
	return &RetrieveHandler{client: client}
}

// Search handles POST /api/v1/search.
func (h *RetrieveHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Result{Error: err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.Result{Error: err.Error()})
		return
	}

	results, err := h.client.HybridSearch(c.Request.Context(), req.Query, search.Options{
		Mode:          search.Mode(req.Mode),
		TopK:          req.TopK,
		CandidatesK:   req.CandidatesK,
		Rerank:        req.Rerank,
		ExpandRelated: req.ExpandRelated,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.Result{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.SearchResponse{
		Query:    results.Query,
		Results:  results.Results,
		Reranked: results.Reranked,
		Total:    results.Total,
	})
}

// Surface handles GET /api/v1/surface?limit=n.
func (h *RetrieveHandler) Surface(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, dto.Result{Error: "limit must be a positive integer"})
		return
	}

	items, err := h.client.Surface(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.Result{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.SurfaceResponse{Items: items})
}
