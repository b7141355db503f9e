package lambda

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/ammiranda/forest/handlers"
	"github.com/ammiranda/forest/models"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
)

const basePath = "/api/tree"

// Handler serves the tree API from API Gateway proxy events
type Handler struct {
	svc    handlers.TreeService
	logger *zap.Logger
}

// NewHandler creates a new Handler with the given service
func NewHandler(svc handlers.TreeService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		svc:    svc,
		logger: logger,
	}
}

// Handle processes API Gateway events
func (h *Handler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	path := strings.TrimSuffix(request.Path, "/")

	switch {
	case path == basePath && request.HTTPMethod == http.MethodGet:
		return h.handleGetTrees(ctx)
	case path == basePath && request.HTTPMethod == http.MethodPost:
		return h.handleCreateNode(ctx, request)
	case strings.HasPrefix(path, basePath+"/"):
		id, err := strconv.ParseInt(strings.TrimPrefix(path, basePath+"/"), 10, 64)
		if err != nil || id <= 0 {
			return errorResponse(http.StatusBadRequest, "id must be a positive integer"), nil
		}
		switch request.HTTPMethod {
		case http.MethodGet:
			return h.handleGetNode(ctx, id)
		case http.MethodDelete:
			return h.handleDeleteNode(ctx, id)
		}
	}

	return errorResponse(http.StatusNotFound, "Not found"), nil
}

func (h *Handler) handleGetTrees(ctx context.Context) (events.APIGatewayProxyResponse, error) {
	trees, err := h.svc.FindAllTrees(ctx)
	if err != nil {
		return h.serviceError(err), nil
	}
	return jsonResponse(http.StatusOK, trees), nil
}

func (h *Handler) handleGetNode(ctx context.Context, id int64) (events.APIGatewayProxyResponse, error) {
	tree, err := h.svc.FindNodeByID(ctx, id)
	if err != nil {
		return h.serviceError(err), nil
	}
	return jsonResponse(http.StatusOK, tree), nil
}

func (h *Handler) handleCreateNode(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var req models.CreateNodeRequest
	if err := json.Unmarshal([]byte(request.Body), &req); err != nil {
		return errorResponse(http.StatusBadRequest, "Invalid request: "+err.Error()), nil
	}

	if err := req.Validate(); err != nil {
		return errorResponse(http.StatusBadRequest, err.Error()), nil
	}

	node, err := h.svc.CreateNode(ctx, req.Label, req.ParentID)
	if err != nil {
		return h.serviceError(err), nil
	}
	return jsonResponse(http.StatusCreated, node), nil
}

func (h *Handler) handleDeleteNode(ctx context.Context, id int64) (events.APIGatewayProxyResponse, error) {
	deleted, err := h.svc.DeleteNodeByID(ctx, id)
	if err != nil {
		return h.serviceError(err), nil
	}
	return jsonResponse(http.StatusOK, deleted), nil
}

func (h *Handler) serviceError(err error) events.APIGatewayProxyResponse {
	status := handlers.StatusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.Error(err))
		return errorResponse(status, "internal server error")
	}
	return errorResponse(status, err.Error())
}

func jsonResponse(status int, body any) events.APIGatewayProxyResponse {
	data, err := json.Marshal(body)
	if err != nil {
		return errorResponse(http.StatusInternalServerError, "Failed to marshal response: "+err.Error())
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(data),
	}
}

func errorResponse(status int, message string) events.APIGatewayProxyResponse {
	data, _ := json.Marshal(map[string]string{"error": message})
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(data),
	}
}
