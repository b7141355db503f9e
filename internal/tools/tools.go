// Package tools exposes the tree operations as Model Context Protocol tools
// that answer with short natural-language summaries.
package tools

import (
	"context"
	"fmt"
	"math"

	"github.com/ammiranda/forest/models"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// TreeService is the set of tree operations exposed as tools
type TreeService interface {
	FindAllTrees(ctx context.Context) ([]*models.Node, error)
	FindNodeByID(ctx context.Context, id int64) (*models.Node, error)
	CreateNode(ctx context.Context, label string, parentID *int64) (*models.Node, error)
	DeleteNodeByID(ctx context.Context, id int64) (*models.NodeSummary, error)
}

// NewServer creates an MCP server with every tree tool registered
func NewServer(svc TreeService, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"forest-mcp",
		version,
		server.WithToolCapabilities(true),
	)
	Register(s, svc)
	return s
}

// Register adds the tree tools to s
func Register(s *server.MCPServer, svc TreeService) {
	s.AddTool(findAllTreesTool(), findAllTreesHandler(svc))
	s.AddTool(createNodeTool(), createNodeHandler(svc))
	s.AddTool(findNodeByIDTool(), findNodeByIDHandler(svc))
	s.AddTool(deleteNodeByIDTool(), deleteNodeByIDHandler(svc))
}

// --- find-all-trees ---

func findAllTreesTool() mcp.Tool {
	return mcp.NewTool("find-all-trees",
		mcp.WithDescription("Finds all trees"),
	)
}

func findAllTreesHandler(svc TreeService) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		trees, err := svc.FindAllTrees(ctx)
		if err != nil {
			return toolError(err)
		}

		children := 0
		for _, tree := range trees {
			children += len(tree.Children)
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"There are in total %d root nodes, and all of them have %d children nodes", len(trees), children,
		)), nil
	}
}

// --- create-new-node ---

func createNodeTool() mcp.Tool {
	return mcp.NewTool("create-new-node",
		mcp.WithDescription("Create a new node. Omit parentId to create a root node."),
		mcp.WithString("label",
			mcp.Description("Label of the new node"),
			mcp.Required(),
		),
		mcp.WithNumber("parentId",
			mcp.Description("ID of the parent node"),
		),
	)
}

func createNodeHandler(svc TreeService) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		label := req.GetString("label", "")

		parentID, err := optionalID(req, "parentId")
		if err != nil {
			return toolError(err)
		}

		node, err := svc.CreateNode(ctx, label, parentID)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(fmt.Sprintf("Created %s with id %d", node.Label, node.ID)), nil
	}
}

// --- find-node-by-id ---

func findNodeByIDTool() mcp.Tool {
	return mcp.NewTool("find-node-by-id",
		mcp.WithDescription("Find a node by id"),
		mcp.WithNumber("id",
			mcp.Description("ID of the node"),
			mcp.Required(),
		),
	)
}

func findNodeByIDHandler(svc TreeService) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := requiredID(req, "id")
		if err != nil {
			return toolError(err)
		}

		node, err := svc.FindNodeByID(ctx, id)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"Node with id %d has label %s, and it has %d children.", node.ID, node.Label, len(node.Children),
		)), nil
	}
}

// --- delete-node-by-id ---

func deleteNodeByIDTool() mcp.Tool {
	return mcp.NewTool("delete-node-by-id",
		mcp.WithDescription("Delete a node by id together with all of its descendants"),
		mcp.WithNumber("id",
			mcp.Description("ID of the node"),
			mcp.Required(),
		),
	)
}

func deleteNodeByIDHandler(svc TreeService) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := requiredID(req, "id")
		if err != nil {
			return toolError(err)
		}

		deleted, err := svc.DeleteNodeByID(ctx, id)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"Node with id %d and label %s has been deleted along with their children.", deleted.ID, deleted.Label,
		)), nil
	}
}

// optionalID reads an integral id argument. A missing or null argument
// yields nil.
func optionalID(req mcp.CallToolRequest, key string) (*int64, error) {
	raw, ok := req.GetArguments()[key]
	if !ok || raw == nil {
		return nil, nil
	}
	id, err := toID(key, raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func requiredID(req mcp.CallToolRequest, key string) (int64, error) {
	raw, ok := req.GetArguments()[key]
	if !ok || raw == nil {
		return 0, fmt.Errorf("required argument %q not found", key)
	}
	return toID(key, raw)
}

// toID accepts JSON numbers with no fractional part
func toID(key string, raw any) (int64, error) {
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || v > math.MaxInt64 || v < math.MinInt64 {
			return 0, fmt.Errorf("argument %q must be an integer, got %v", key, v)
		}
		return int64(v), nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	default:
		return 0, fmt.Errorf("argument %q must be a number, got %T", key, raw)
	}
}

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}
