// Package service assembles adjacency-list rows into trees and enforces the
// invariants of node creation and deletion.
package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ammiranda/forest/cache"
	"github.com/ammiranda/forest/models"
	"github.com/ammiranda/forest/repository"

	"go.uber.org/zap"
)

// TreeService implements the four tree operations on top of a node store
type TreeService struct {
	repo      repository.Repository
	assembler *Assembler
	cache     cache.CacheProvider
	logger    *zap.Logger
	timeout   time.Duration

	// cacheMu orders cache fills against invalidations. generation counts
	// invalidations so a fill built from rows read before a write is dropped.
	cacheMu    sync.Mutex
	generation uint64
}

// Option configures a TreeService
type Option func(*TreeService)

// WithAssembler replaces the default sequential recursive assembler
func WithAssembler(a *Assembler) Option {
	return func(s *TreeService) {
		s.assembler = a
	}
}

// WithCache enables read-through caching of FindAllTrees
func WithCache(c cache.CacheProvider) Option {
	return func(s *TreeService) {
		s.cache = c
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *TreeService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTimeout bounds every operation, including all of its store calls.
// Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(s *TreeService) {
		s.timeout = d
	}
}

// NewTreeService creates a TreeService backed by repo
func NewTreeService(repo repository.Repository, opts ...Option) *TreeService {
	s := &TreeService{
		repo:   repo,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.assembler == nil {
		s.assembler = NewAssembler(repo)
	}
	return s
}

func (s *TreeService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// FindAllTrees returns every root node with its full subtree, in store order.
// An empty store yields an empty slice.
func (s *TreeService) FindAllTrees(ctx context.Context) ([]*models.Node, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if s.cache != nil {
		if trees, found := s.cache.GetTrees(ctx); found {
			s.logger.Debug("Served trees from cache", zap.Int("roots", len(trees)))
			return trees, nil
		}
	}

	generation := s.cacheGeneration()

	roots, err := s.repo.FindRoots(ctx)
	if err != nil {
		return nil, s.storageFailure("find roots", err)
	}

	trees, err := s.assembler.ExpandAll(ctx, roots)
	if err != nil {
		s.logFailure("Failed to assemble trees", err)
		return nil, err
	}

	s.fillCache(ctx, generation, trees)

	s.logger.Debug("Assembled trees", zap.Int("roots", len(trees)))
	return trees, nil
}

// FindNodeByID returns the node with its full descendant subtree
func (s *TreeService) FindNodeByID(ctx context.Context, id int64) (*models.Node, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	node, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNodeNotFound) {
			s.logger.Warn("Node not found", zap.Int64("node_id", id))
			return nil, &NodeNotFoundError{ID: id}
		}
		return nil, s.storageFailure("find node", err)
	}

	tree, err := s.assembler.Expand(ctx, node)
	if err != nil {
		s.logFailure("Failed to assemble node", err, zap.Int64("node_id", id))
		return nil, err
	}

	s.logger.Debug("Found node", zap.Int64("node_id", id), zap.Int("children", len(tree.Children)))
	return tree, nil
}

// CreateNode inserts a node under parentID, or as a new root when parentID
// is nil. A missing parent fails with ParentNotFoundError before any write.
func (s *TreeService) CreateNode(ctx context.Context, label string, parentID *int64) (*models.Node, error) {
	if strings.TrimSpace(label) == "" {
		return nil, ErrInvalidLabel
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if parentID != nil {
		exists, err := s.repo.Exists(ctx, *parentID)
		if err != nil {
			return nil, s.storageFailure("check parent", err)
		}
		if !exists {
			s.logger.Warn("Parent node not found", zap.Int64("parent_id", *parentID))
			return nil, &ParentNotFoundError{ParentID: *parentID}
		}
	}

	node, err := s.repo.Insert(ctx, label, parentID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNodeNotFound) && parentID != nil:
			// The parent was deleted between the check and the insert
			s.logger.Warn("Parent node removed before insert", zap.Int64("parent_id", *parentID))
			return nil, &ParentNotFoundError{ParentID: *parentID}
		case errors.Is(err, repository.ErrInvalidInput):
			return nil, ErrInvalidLabel
		default:
			return nil, s.storageFailure("insert node", err)
		}
	}

	s.invalidate(ctx)

	fields := []zap.Field{zap.Int64("node_id", node.ID), zap.String("label", node.Label)}
	if parentID != nil {
		fields = append(fields, zap.Int64("parent_id", *parentID))
	}
	s.logger.Info("Created node", fields...)

	return models.NewNode(node.ID, node.Label), nil
}

// DeleteNodeByID removes the node and its whole subtree and returns the node
// as it was before deletion.
func (s *TreeService) DeleteNodeByID(ctx context.Context, id int64) (*models.NodeSummary, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNodeNotFound) {
			s.logger.Warn("Node not found for delete", zap.Int64("node_id", id))
			return nil, &NodeNotFoundError{ID: id}
		}
		return nil, s.storageFailure("find node", err)
	}

	deleted, err := s.repo.DeleteSubtree(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNodeNotFound) {
			s.logger.Warn("Node removed before delete", zap.Int64("node_id", id))
			return nil, &NodeNotFoundError{ID: id}
		}
		return nil, s.storageFailure("delete subtree", err)
	}

	s.invalidate(ctx)

	s.logger.Info("Deleted node with subtree", zap.Int64("node_id", deleted.ID), zap.String("label", deleted.Label))
	return &models.NodeSummary{ID: deleted.ID, Label: deleted.Label}, nil
}

func (s *TreeService) cacheGeneration() uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.generation
}

// fillCache stores trees unless a write was invalidated after generation
// was read, in which case trees may predate that write.
func (s *TreeService) fillCache(ctx context.Context, generation uint64, trees []*models.Node) {
	if s.cache == nil {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if s.generation != generation {
		s.logger.Debug("Skipped caching trees read before a write")
		return
	}
	s.cache.SetTrees(ctx, trees)
}

// invalidate drops the cached forest. A failure is logged, not returned:
// the write has already been committed.
func (s *TreeService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	s.generation++
	if err := s.cache.InvalidateCache(ctx); err != nil {
		s.logger.Warn("Failed to invalidate tree cache", zap.Error(err))
	}
}

func (s *TreeService) storageFailure(op string, err error) error {
	s.logger.Error("Storage failure", zap.String("op", op), zap.Error(err))
	return &StorageError{Op: op, Err: err}
}

func (s *TreeService) logFailure(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	if IsNotFound(err) {
		s.logger.Warn(msg, fields...)
		return
	}
	s.logger.Error(msg, fields...)
}
