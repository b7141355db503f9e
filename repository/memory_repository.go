package repository

import (
	"context"
	"strings"
	"sync"
)

// MemoryRepository implements Repository in process memory. Rows are kept in
// insertion order and IDs are never reused.
type MemoryRepository struct {
	mu     sync.RWMutex
	nodes  map[int64]*Node
	order  []int64
	nextID int64
}

// NewMemoryRepository creates a new in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nodes:  make(map[int64]*Node),
		nextID: 1,
	}
}

// Initialize performs any necessary setup
func (m *MemoryRepository) Initialize(ctx context.Context) error {
	return nil
}

// Cleanup drops every node
func (m *MemoryRepository) Cleanup(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes = make(map[int64]*Node)
	m.order = nil
	return nil
}

// Len returns the number of stored nodes
func (m *MemoryRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.nodes)
}

// FindRoots returns all nodes without a parent
func (m *MemoryRepository) FindRoots(ctx context.Context) ([]*Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.collect(func(n *Node) bool { return n.ParentID == nil }), nil
}

// FindByID retrieves a node by ID
func (m *MemoryRepository) FindByID(ctx context.Context, id int64) (*Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	node, ok := m.nodes[id]
	if !ok {
		return nil, ErrNodeNotFound
	}
	return copyNode(node), nil
}

// FindChildren returns the direct children of a node
func (m *MemoryRepository) FindChildren(ctx context.Context, id int64) ([]*Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.nodes[id]; !ok {
		return nil, ErrNodeNotFound
	}
	return m.collect(func(n *Node) bool {
		return n.ParentID != nil && *n.ParentID == id
	}), nil
}

// FindSubtree returns the node followed by all of its descendants
func (m *MemoryRepository) FindSubtree(ctx context.Context, id int64) ([]*Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	root, ok := m.nodes[id]
	if !ok {
		return nil, ErrNodeNotFound
	}

	result := []*Node{copyNode(root)}
	for _, parentID := range m.descendantIDs(id) {
		result = append(result, copyNode(m.nodes[parentID]))
	}
	return result, nil
}

// Exists reports whether a node exists
func (m *MemoryRepository) Exists(ctx context.Context, id int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.nodes[id]
	return ok, nil
}

// Insert creates a new node
func (m *MemoryRepository) Insert(ctx context.Context, label string, parentID *int64) (*Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(label) == "" {
		return nil, ErrInvalidInput
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if parentID != nil {
		if _, ok := m.nodes[*parentID]; !ok {
			return nil, ErrNodeNotFound
		}
	}

	node := &Node{
		ID:       m.nextID,
		Label:    label,
		ParentID: copyID(parentID),
	}
	m.nextID++

	m.nodes[node.ID] = node
	m.order = append(m.order, node.ID)

	return copyNode(node), nil
}

// DeleteSubtree deletes a node and all of its descendants
func (m *MemoryRepository) DeleteSubtree(ctx context.Context, id int64) (*Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	node, ok := m.nodes[id]
	if !ok {
		return nil, ErrNodeNotFound
	}

	deleted := map[int64]bool{id: true}
	for _, descendantID := range m.descendantIDs(id) {
		deleted[descendantID] = true
	}
	for nodeID := range deleted {
		delete(m.nodes, nodeID)
	}

	remaining := m.order[:0]
	for _, nodeID := range m.order {
		if !deleted[nodeID] {
			remaining = append(remaining, nodeID)
		}
	}
	m.order = remaining

	return copyNode(node), nil
}

// descendantIDs walks the subtree below id breadth-first. Callers must hold mu.
func (m *MemoryRepository) descendantIDs(id int64) []int64 {
	var result []int64
	queue := []int64{id}
	for len(queue) > 0 {
		currentID := queue[0]
		queue = queue[1:]

		for _, nodeID := range m.order {
			node := m.nodes[nodeID]
			if node.ParentID != nil && *node.ParentID == currentID {
				result = append(result, nodeID)
				queue = append(queue, nodeID)
			}
		}
	}
	return result
}

// collect returns copies of the nodes matching keep, in insertion order.
// Callers must hold mu.
func (m *MemoryRepository) collect(keep func(*Node) bool) []*Node {
	result := make([]*Node, 0)
	for _, id := range m.order {
		if node := m.nodes[id]; keep(node) {
			result = append(result, copyNode(node))
		}
	}
	return result
}

func copyNode(n *Node) *Node {
	return &Node{
		ID:       n.ID,
		Label:    n.Label,
		ParentID: copyID(n.ParentID),
	}
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
