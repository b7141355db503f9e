package models

// Node is one node of an assembled tree with its children expanded recursively
type Node struct {
	ID       int64   `json:"id" dynamodbav:"id"`
	Label    string  `json:"label" dynamodbav:"label"`
	Children []*Node `json:"children" dynamodbav:"children"`
}

// NewNode creates a new node with no children
func NewNode(id int64, label string) *Node {
	return &Node{
		ID:       id,
		Label:    label,
		Children: make([]*Node, 0),
	}
}

// AddChild adds a child node to the current node
func (n *Node) AddChild(child *Node) {
	n.Children = append(n.Children, child)
}

// NodeSummary identifies a node without its children
type NodeSummary struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}
