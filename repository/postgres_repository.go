package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ammiranda/forest/config"
	"github.com/ammiranda/forest/migrations"

	"github.com/lib/pq"
)

// foreignKeyViolation is the PostgreSQL SQLSTATE for a foreign key violation
const foreignKeyViolation = "23503"

// PostgresRepository implements Repository using PostgreSQL. Cascade delete
// is enforced by the ON DELETE CASCADE constraint on parent_id.
type PostgresRepository struct {
	db     *sql.DB
	config *config.DatabaseConfig
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfgProvider config.Provider) (*PostgresRepository, error) {
	cfg, err := config.GetDatabaseConfig(ctx, cfgProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to get database config: %w", err)
	}

	return &PostgresRepository{
		config: cfg,
	}, nil
}

// Initialize opens the connection pool and runs migrations
func (r *PostgresRepository) Initialize(ctx context.Context) error {
	db, err := sql.Open("postgres", r.config.ConnectionString())
	if err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("error pinging database: %w", err)
	}

	// Migrations run on their own pool, closed afterwards with the
	// connection the migration driver pins
	migrationDB, err := sql.Open("postgres", r.config.ConnectionString())
	if err != nil {
		db.Close()
		return fmt.Errorf("error connecting to database for migrations: %w", err)
	}
	if err := migrations.UpAndClose(migrationDB, migrations.Postgres); err != nil {
		db.Close()
		return err
	}

	r.db = db
	return nil
}

// Cleanup closes the database connection
func (r *PostgresRepository) Cleanup(ctx context.Context) error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// FindRoots returns all nodes without a parent
func (r *PostgresRepository) FindRoots(ctx context.Context) ([]*Node, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, label, parent_id FROM nodes WHERE parent_id IS NULL ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("error getting root nodes: %w", err)
	}
	return scanNodes(rows)
}

// FindByID retrieves a node by ID
func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*Node, error) {
	var node Node
	var parentID sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		"SELECT id, label, parent_id FROM nodes WHERE id = $1",
		id,
	).Scan(&node.ID, &node.Label, &parentID)
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
func (r *PostgresRepository) FindChildren(ctx context.Context, id int64) ([]*Node, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.label, c.parent_id
		FROM nodes p
		LEFT JOIN nodes c ON c.parent_id = p.id
		WHERE p.id = $1
		ORDER BY c.id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("error getting child nodes: %w", err)
	}
	return scanChildren(rows)
}

// FindSubtree loads the node and all of its descendants with a recursive CTE
func (r *PostgresRepository) FindSubtree(ctx context.Context, id int64) ([]*Node, error) {
	rows, err := r.db.QueryContext(ctx, `
		WITH RECURSIVE subtree AS (
			SELECT id, label, parent_id, 0 AS depth FROM nodes WHERE id = $1
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
func (r *PostgresRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM nodes WHERE id = $1)",
		id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking node existence: %w", err)
	}
	return exists, nil
}

// Insert creates a new node in the database
func (r *PostgresRepository) Insert(ctx context.Context, label string, parentID *int64) (*Node, error) {
	if strings.TrimSpace(label) == "" {
		return nil, ErrInvalidInput
	}

	var id int64
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO nodes (label, parent_id) VALUES ($1, $2) RETURNING id",
		label, parentID,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			return nil, ErrNodeNotFound
		}
		return nil, fmt.Errorf("error creating node: %w", err)
	}
	return &Node{ID: id, Label: label, ParentID: copyID(parentID)}, nil
}

// DeleteSubtree deletes a node; the foreign key cascade removes its descendants
func (r *PostgresRepository) DeleteSubtree(ctx context.Context, id int64) (*Node, error) {
	var node Node
	var parentID sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		"DELETE FROM nodes WHERE id = $1 RETURNING id, label, parent_id",
		id,
	).Scan(&node.ID, &node.Label, &parentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNodeNotFound
		}
		return nil, fmt.Errorf("error deleting node: %w", err)
	}
	if parentID.Valid {
		node.ParentID = &parentID.Int64
	}
	return &node, nil
}
