package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammiranda/forest/models"
	"github.com/ammiranda/forest/repository"
	"github.com/ammiranda/forest/service"
)

func setupRouter(t *testing.T) (*gin.Engine, *repository.MemoryRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepository()
	require.NoError(t, repo.Initialize(context.Background()))
	t.Cleanup(func() {
		if err := repo.Cleanup(context.Background()); err != nil {
			t.Errorf("Failed to cleanup repository: %v", err)
		}
	})

	return NewRouter(service.NewTreeService(repo), nil), repo
}

func perform(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func ptr(id int64) *int64 {
	return &id
}

func TestGetTrees(t *testing.T) {
	router, repo := setupRouter(t)

	_, err := repo.Insert(context.Background(), "root", nil)
	require.NoError(t, err)

	w := perform(router, http.MethodGet, "/api/tree", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var trees []*models.Node
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &trees))
	assert.Equal(t, []*models.Node{models.NewNode(1, "root")}, trees)
}

func TestGetTreesEmpty(t *testing.T) {
	router, _ := setupRouter(t)

	w := perform(router, http.MethodGet, "/api/tree", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestCreateNode(t *testing.T) {
	router, repo := setupRouter(t)

	root, err := repo.Insert(context.Background(), "root", nil)
	require.NoError(t, err)

	w := perform(router, http.MethodPost, "/api/tree", models.CreateNodeRequest{
		Label:    "child",
		ParentID: &root.ID,
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id": 2, "label": "child", "children": []}`, w.Body.String())

	w = perform(router, http.MethodGet, "/api/tree/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id": 1, "label": "root", "children": [{"id": 2, "label": "child", "children": []}]}`, w.Body.String())
}

func TestCreateRootNode(t *testing.T) {
	router, _ := setupRouter(t)

	w := perform(router, http.MethodPost, "/api/tree", map[string]any{"label": "root"})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id": 1, "label": "root", "children": []}`, w.Body.String())
}

func TestCreateNodeInvalidInput(t *testing.T) {
	router, repo := setupRouter(t)

	testCases := []struct {
		name     string
		payload  any
		expected int
	}{
		{
			name:     "Empty label",
			payload:  models.CreateNodeRequest{Label: ""},
			expected: http.StatusBadRequest,
		},
		{
			name:     "Blank label",
			payload:  models.CreateNodeRequest{Label: "   "},
			expected: http.StatusBadRequest,
		},
		{
			name:     "Label too long",
			payload:  models.CreateNodeRequest{Label: strings.Repeat("a", 256)},
			expected: http.StatusBadRequest,
		},
		{
			name:     "Negative parent ID",
			payload:  models.CreateNodeRequest{Label: "test", ParentID: ptr(-1)},
			expected: http.StatusBadRequest,
		},
		{
			name:     "Zero parent ID",
			payload:  models.CreateNodeRequest{Label: "test", ParentID: ptr(0)},
			expected: http.StatusBadRequest,
		},
		{
			name:     "Malformed body",
			payload:  "not an object",
			expected: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := perform(router, http.MethodPost, "/api/tree", tc.payload)
			assert.Equal(t, tc.expected, w.Code)
		})
	}
	assert.Equal(t, 0, repo.Len())
}

func TestCreateNodeNonExistentParent(t *testing.T) {
	router, repo := setupRouter(t)

	w := perform(router, http.MethodPost, "/api/tree", models.CreateNodeRequest{
		Label:    "orphan",
		ParentID: ptr(999),
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error": "parent node with ID 999 not found"}`, w.Body.String())
	assert.Equal(t, 0, repo.Len())
}

func TestCreateNodeDeepNesting(t *testing.T) {
	router, repo := setupRouter(t)

	root, err := repo.Insert(context.Background(), "root", nil)
	require.NoError(t, err)

	lastID := root.ID
	for i := 0; i < 10; i++ {
		w := perform(router, http.MethodPost, "/api/tree", models.CreateNodeRequest{
			Label:    fmt.Sprintf("level_%d", i+1),
			ParentID: ptr(lastID),
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var created models.Node
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		lastID = created.ID
	}

	w := perform(router, http.MethodGet, fmt.Sprintf("/api/tree/%d", root.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var tree models.Node
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tree))

	depth := 0
	for node := &tree; len(node.Children) > 0; node = node.Children[0] {
		depth++
		assert.Len(t, node.Children, 1)
		assert.Equal(t, fmt.Sprintf("level_%d", depth), node.Children[0].Label)
	}
	assert.Equal(t, 10, depth)
	assert.Equal(t, 11, repo.Len())
}

func TestGetNodeNotFound(t *testing.T) {
	router, _ := setupRouter(t)

	w := perform(router, http.MethodGet, "/api/tree/42", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error": "node with ID 42 not found"}`, w.Body.String())
}

func TestInvalidID(t *testing.T) {
	router, _ := setupRouter(t)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		for _, id := range []string{"abc", "0", "-3"} {
			w := perform(router, method, "/api/tree/"+id, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code, "%s %s", method, id)
		}
	}
}

func TestDeleteNode(t *testing.T) {
	router, repo := setupRouter(t)
	ctx := context.Background()

	root, err := repo.Insert(ctx, "root", nil)
	require.NoError(t, err)
	child, err := repo.Insert(ctx, "child", &root.ID)
	require.NoError(t, err)
	_, err = repo.Insert(ctx, "grandchild", &child.ID)
	require.NoError(t, err)

	w := perform(router, http.MethodDelete, fmt.Sprintf("/api/tree/%d", child.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id": 2, "label": "child"}`, w.Body.String())

	w = perform(router, http.MethodGet, "/api/tree", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id": 1, "label": "root", "children": []}]`, w.Body.String())

	w = perform(router, http.MethodDelete, fmt.Sprintf("/api/tree/%d", child.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// failingService fails every call with a storage error
type failingService struct{}

var errStoreDown = &service.StorageError{Op: "find roots", Err: errors.New("connection refused")}

func (failingService) FindAllTrees(ctx context.Context) ([]*models.Node, error) {
	return nil, errStoreDown
}

func (failingService) FindNodeByID(ctx context.Context, id int64) (*models.Node, error) {
	return nil, errStoreDown
}

func (failingService) CreateNode(ctx context.Context, label string, parentID *int64) (*models.Node, error) {
	return nil, errStoreDown
}

func (failingService) DeleteNodeByID(ctx context.Context, id int64) (*models.NodeSummary, error) {
	return nil, errStoreDown
}

func TestStorageFailureIsInternalError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(failingService{}, nil)

	w := perform(router, http.MethodGet, "/api/tree", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error": "internal server error"}`, w.Body.String())

	w = perform(router, http.MethodPost, "/api/tree", map[string]any{"label": "x"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusFor(&service.NodeNotFoundError{ID: 1}))
	assert.Equal(t, http.StatusNotFound, StatusFor(&service.ParentNotFoundError{ParentID: 1}))
	assert.Equal(t, http.StatusBadRequest, StatusFor(service.ErrInvalidLabel))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errStoreDown))
}

func TestRequestID(t *testing.T) {
	router, _ := setupRouter(t)

	w := perform(router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	req, _ := http.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}
