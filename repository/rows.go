package repository

import (
	"database/sql"
	"fmt"
)

// scanNodes reads every (id, label, parent_id) row into nodes
func scanNodes(rows *sql.Rows) ([]*Node, error) {
	defer rows.Close()

	nodes := make([]*Node, 0)
	for rows.Next() {
		var node Node
		var parentID sql.NullInt64
		if err := rows.Scan(&node.ID, &node.Label, &parentID); err != nil {
			return nil, fmt.Errorf("error scanning node: %w", err)
		}
		if parentID.Valid {
			node.ParentID = &parentID.Int64
		}
		nodes = append(nodes, &node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nodes: %w", err)
	}
	return nodes, nil
}

// scanChildren reads the rows of a parent LEFT JOIN children query. No rows
// means the parent is missing; a single all-NULL row means it has no children.
func scanChildren(rows *sql.Rows) ([]*Node, error) {
	defer rows.Close()

	parentSeen := false
	children := make([]*Node, 0)
	for rows.Next() {
		parentSeen = true

		var id, parentID sql.NullInt64
		var label sql.NullString
		if err := rows.Scan(&id, &label, &parentID); err != nil {
			return nil, fmt.Errorf("error scanning child node: %w", err)
		}
		if !id.Valid {
			continue
		}
		child := &Node{ID: id.Int64, Label: label.String}
		if parentID.Valid {
			child.ParentID = &parentID.Int64
		}
		children = append(children, child)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating child nodes: %w", err)
	}
	if !parentSeen {
		return nil, ErrNodeNotFound
	}
	return children, nil
}
