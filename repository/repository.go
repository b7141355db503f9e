package repository

import (
	"context"
	"errors"
)

// Node is a single row of the nodes table. Children are not stored on the
// row; they are every row whose ParentID equals ID.
type Node struct {
	ID       int64  // Unique identifier assigned by the store
	Label    string // Display name of the node
	ParentID *int64 // Optional reference to the parent node's ID, nil for roots
}

// IsRoot reports whether the node has no parent.
func (n *Node) IsRoot() bool {
	return n.ParentID == nil
}

// Repository defines the node store consumed by the tree service.
// Implementations return rows in insertion (id) order.
type Repository interface {
	// Initialize performs any necessary setup for the repository.
	// This may include establishing database connections or running
	// schema migrations.
	Initialize(ctx context.Context) error

	// Cleanup releases any resources held by the repository.
	Cleanup(ctx context.Context) error

	// FindRoots returns all nodes without a parent.
	FindRoots(ctx context.Context) ([]*Node, error)

	// FindByID retrieves a single node without resolving its children.
	// Returns ErrNodeNotFound if no node exists with the given ID.
	FindByID(ctx context.Context, id int64) (*Node, error)

	// FindChildren returns the direct children of the node with the given ID.
	// Returns ErrNodeNotFound if the node itself does not exist, so callers
	// can tell a leaf apart from a node that has disappeared.
	FindChildren(ctx context.Context, id int64) ([]*Node, error)

	// Exists reports whether a node with the given ID exists.
	Exists(ctx context.Context, id int64) (bool, error)

	// Insert persists a new node and returns it with its assigned ID.
	// Returns ErrNodeNotFound if parentID references a missing node.
	Insert(ctx context.Context, label string, parentID *int64) (*Node, error)

	// DeleteSubtree removes the node and all of its descendants and returns
	// the node as it was before deletion.
	// Returns ErrNodeNotFound if no node exists with the given ID.
	DeleteSubtree(ctx context.Context, id int64) (*Node, error)
}

// SubtreeFinder is implemented by stores that can load a whole subtree in a
// single round-trip.
type SubtreeFinder interface {
	// FindSubtree returns the node followed by all of its descendants.
	// Every descendant appears after its parent. Returns ErrNodeNotFound if
	// the node does not exist.
	FindSubtree(ctx context.Context, id int64) ([]*Node, error)
}

// Common errors
var (
	// ErrNodeNotFound is returned when a requested node does not exist
	ErrNodeNotFound = errors.New("node not found")
	// ErrInvalidInput is returned when the input parameters are invalid
	ErrInvalidInput = errors.New("invalid input")
)
