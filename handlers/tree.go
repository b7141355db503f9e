package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/ammiranda/forest/models"
	"github.com/ammiranda/forest/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TreeService is the set of tree operations served over HTTP
type TreeService interface {
	FindAllTrees(ctx context.Context) ([]*models.Node, error)
	FindNodeByID(ctx context.Context, id int64) (*models.Node, error)
	CreateNode(ctx context.Context, label string, parentID *int64) (*models.Node, error)
	DeleteNodeByID(ctx context.Context, id int64) (*models.NodeSummary, error)
}

// TreeHandler handles tree-related HTTP requests
type TreeHandler struct {
	svc    TreeService
	logger *zap.Logger
}

// NewTreeHandler creates a new TreeHandler instance
func NewTreeHandler(svc TreeService, logger *zap.Logger) *TreeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TreeHandler{
		svc:    svc,
		logger: logger,
	}
}

// Register mounts the tree routes on r
func (h *TreeHandler) Register(r gin.IRouter) {
	r.GET("/tree", h.GetTrees)
	r.GET("/tree/:id", h.GetNode)
	r.POST("/tree", h.CreateNode)
	r.DELETE("/tree/:id", h.DeleteNode)
}

// GetTrees returns all trees in the store
func (h *TreeHandler) GetTrees(c *gin.Context) {
	trees, err := h.svc.FindAllTrees(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, trees)
}

// GetNode returns a single node with its full subtree
func (h *TreeHandler) GetNode(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	tree, err := h.svc.FindNodeByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}

// CreateNode creates a new node in the tree
func (h *TreeHandler) CreateNode(c *gin.Context) {
	var req models.CreateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	node, err := h.svc.CreateNode(c.Request.Context(), req.Label, req.ParentID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, node)
}

// DeleteNode deletes a node together with its subtree
func (h *TreeHandler) DeleteNode(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	deleted, err := h.svc.DeleteNodeByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, deleted)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer"})
		return 0, false
	}
	return id, true
}

// StatusFor maps a service error to an HTTP status code
func StatusFor(err error) int {
	switch {
	case service.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidLabel):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *TreeHandler) writeError(c *gin.Context, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
