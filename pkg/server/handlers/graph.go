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

// GraphHandler handles relationship graph requests.
type GraphHandler struct {
	client *kagura.Client
}

// NewGraphHandler creates a new graph handler.
func NewGraphHandler(client *kagura.Client) *GraphHandler {
	return &GraphHandler{client: client}
}

// AddNode handles POST /api/v1/graph/nodes.
func (h *GraphHandler) AddNode(c *gin.Context) {
	var req dto.NodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Result{Error: err.Error()})
		return
	}
	if err := h.client.AddNode(req.ID, types.NodeType(req.Type), req.Attributes); err != nil {
		h.writeGraphError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.Result{Success: true})
}

// Relate handles POST /api/v1/graph/edges.
func (h *GraphHandler) Relate(c *gin.Context) {
	var req dto.RelateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Result{Error: err.Error()})
		return
	}
	if err := h.client.Relate(req.Source, req.Target, types.EdgeType(req.EdgeType)); err != nil {
		h.writeGraphError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.Result{Success: true})
}

// Unrelate handles DELETE /api/v1/graph/edges/:source/:target. Edges are
// invalidated as of now, never removed.
func (h *GraphHandler) Unrelate(c *gin.Context) {
	count := h.client.Unrelate(c.Param("source"), c.Param("target"))
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: gin.H{"invalidated": count}})
}

// Related handles GET /api/v1/graph/related/:id?depth=n.
func (h *GraphHandler) Related(c *gin.Context) {
	depth, err := strconv.Atoi(c.DefaultQuery("depth", "1"))
	if err != nil || depth <= 0 {
		c.JSON(http.StatusBadRequest, dto.Result{Error: "depth must be a positive integer"})
		return
	}

	id := c.Param("id")
	c.JSON(http.StatusOK, dto.RelatedResponse{
		NodeID:  id,
		Related: h.client.Related(id, depth),
	})
}

// Export handles GET /api/v1/graph/export.
func (h *GraphHandler) Export(c *gin.Context) {
	data, err := h.client.ExportGraph()
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.Result{Error: err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

// Import handles POST /api/v1/graph/import.
func (h *GraphHandler) Import(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Result{Error: err.Error()})
		return
	}
	if err := h.client.ImportGraph(data); err != nil {
		c.JSON(http.StatusBadRequest, dto.Result{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true})
}

func (h *GraphHandler) writeGraphError(c *gin.Context, err error) {
	var verr *types.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusUnprocessableEntity, dto.Result{Error: verr.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, dto.Result{Error: err.Error()})
}
