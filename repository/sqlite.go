package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ammiranda/forest/migrations"

	"github.com/mattn/go-sqlite3"
)

// SQLiteRepository implements Repository using SQLite. Foreign keys are
// enabled per connection so ON DELETE CASCADE removes descendants.
type SQLiteRepository struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteRepository creates a new SQLite repository backed by the file at dbPath
func NewSQLiteRepository(dbPath string) *SQLiteRepository {
	return &SQLiteRepository{
		dbPath: dbPath,
	}
}

// Initialize opens the database file and runs migrations
func (r *SQLiteRepository) Initialize(ctx context.Context) error {
	if dir := filepath.Dir(r.dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", r.dbPath))
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}
	// A single connection serializes writers and keeps the pragma in effect
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("error pinging database: %w", err)
	}

	if err := migrations.Up(db, migrations.SQLite); err != nil {
		db.Close()
		return err
	}

	r.db = db
	return nil
}

// Cleanup closes the database connection
func (r *SQLiteRepository) Cleanup(ctx context.Context) error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// FindRoots returns all nodes without a parent
func (r *SQLiteRepository) FindRoots(ctx context.Context) ([]*Node, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, label, parent_id FROM nodes WHERE parent_id IS NULL ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("error getting root nodes: %w", err)
	}
	return scanNodes(rows)
}

// FindByID retrieves a node by ID
func (r *SQLiteRepository) FindByID(ctx context.Context, id int64) (*Node, error) {
	return r.findByID(ctx, r.db, id)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *SQLiteRepository) findByID(ctx context.Context, q queryRower, id int64) (*Node, error) {
	var node Node
	var parentID sql.NullInt64
	err := q.QueryRowContext(ctx, "SELECT id, label, parent_id FROM nodes WHERE id = ?", id).
		Scan(&node.ID, &node.Label, &parentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNodeNotFound
		}
		return nil, fmt.Errorf("error getting node: %w", err)
	}
	if parentID.Valid {
		node.ParentID = &parentID.Int64
	}
	return &node, nil
}

// FindChildren returns the direct children of a node
func (r *SQLiteRepository) FindChildren(ctx context.Context, id int64) ([]*Node, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.label, c.parent_id
		FROM nodes p
		LEFT JOIN nodes c ON c.parent_id = p.id
		WHERE p.id = ?
		ORDER BY c.id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("error getting child nodes: %w", err)
	}
	return scanChildren(rows)
}

// FindSubtree loads the node and all of its descendants with a recursive CTE
func (r *SQLiteRepository) FindSubtree(ctx context.Context, id int64) ([]*Node, error) {
	rows, err := r.db.QueryContext(ctx, `
		WITH RECURSIVE subtree(id, label, parent_id, depth) AS (
			SELECT id, label, parent_id, 0 FROM nodes WHERE id = ?
			UNION ALL
			SELECT n.id, n.label, n.parent_id, s.depth + 1 FROM nodes n
			INNER JOIN subtree s ON n.parent_id = s.id
		)
		SELECT id, label, parent_id FROM subtree ORDER BY depth, id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("error getting subtree: %w", err)
	}
	nodes, err := scanNodes(rows)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, ErrNodeNotFound
	}
	return nodes, nil
}

// Exists checks if a node exists
func (r *SQLiteRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM nodes WHERE id = ?)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking node existence: %w", err)
	}
	return exists, nil
}

// Insert creates a new node in the database
func (r *SQLiteRepository) Insert(ctx context.Context, label string, parentID *int64) (*Node, error) {
	if strings.TrimSpace(label) == "" {
		return nil, ErrInvalidInput
	}

	result, err := r.db.ExecContext(ctx, "INSERT INTO nodes (label, parent_id) VALUES (?, ?)", label, parentID)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
			return nil, ErrNodeNotFound
		}
		return nil, fmt.Errorf("error creating node: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("error reading node id: %w", err)
	}
	return &Node{ID: id, Label: label, ParentID: copyID(parentID)}, nil
}

// DeleteSubtree deletes a node; the foreign key cascade removes its descendants
func (r *SQLiteRepository) DeleteSubtree(ctx context.Context, id int64) (*Node, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	node, err := r.findByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM nodes WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("error deleting node: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing delete: %w", err)
	}
	return node, nil
}
