package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ammiranda/forest/models"
	"github.com/ammiranda/forest/repository"

	"golang.org/x/sync/errgroup"
)

// Strategy selects how a subtree is loaded from the store
type Strategy string

const (
	// StrategyRecursive issues one FindChildren call per node and expands
	// sibling subtrees concurrently.
	StrategyRecursive Strategy = "recursive"
	// StrategyBatched loads each subtree with a single FindSubtree call and
	// assembles it in memory. Stores without SubtreeFinder fall back to
	// StrategyRecursive.
	StrategyBatched Strategy = "batched"
)

// Assembler turns adjacency-list rows into nested trees
type Assembler struct {
	repo        repository.Repository
	strategy    Strategy
	concurrency int
}

// AssemblerOption configures an Assembler
type AssemblerOption func(*Assembler)

// WithStrategy sets the expansion strategy
func WithStrategy(s Strategy) AssemblerOption {
	return func(a *Assembler) {
		a.strategy = s
	}
}

// WithConcurrency bounds the number of expansions running at once. One
// means fully sequential.
func WithConcurrency(n int) AssemblerOption {
	return func(a *Assembler) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// NewAssembler creates an Assembler reading from repo
func NewAssembler(repo repository.Repository, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		repo:        repo,
		strategy:    StrategyRecursive,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Expand resolves the full descendant subtree of node
func (a *Assembler) Expand(ctx context.Context, node *repository.Node) (*models.Node, error) {
	return a.expand(ctx, node, a.slots())
}

// ExpandAll expands every node independently. The result order matches the
// input order regardless of concurrency.
func (a *Assembler) ExpandAll(ctx context.Context, nodes []*repository.Node) ([]*models.Node, error) {
	return a.expandAll(ctx, nodes, a.slots())
}

// slots holds one token per extra goroutine the expansion may start
func (a *Assembler) slots() chan struct{} {
	return make(chan struct{}, a.concurrency-1)
}

func (a *Assembler) expand(ctx context.Context, node *repository.Node, slots chan struct{}) (*models.Node, error) {
	if a.strategy == StrategyBatched {
		if finder, ok := a.repo.(repository.SubtreeFinder); ok {
			return a.expandBatched(ctx, finder, node)
		}
	}
	return a.expandRecursive(ctx, node, slots)
}

func (a *Assembler) expandRecursive(ctx context.Context, node *repository.Node, slots chan struct{}) (*models.Node, error) {
	children, err := a.repo.FindChildren(ctx, node.ID)
	if err != nil {
		return nil, expansionError(node.ID, err)
	}

	result := models.NewNode(node.ID, node.Label)
	if len(children) == 0 {
		return result, nil
	}

	expanded, err := a.expandAll(ctx, children, slots)
	if err != nil {
		return nil, err
	}
	result.Children = expanded
	return result, nil
}

// expandAll runs an expansion per node, in a new goroutine while a slot is
// free and inline otherwise, so nested calls never wait on each other.
func (a *Assembler) expandAll(ctx context.Context, nodes []*repository.Node, slots chan struct{}) ([]*models.Node, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]*models.Node, len(nodes))
	g, gctx := errgroup.WithContext(ctx)

	var interrupted error
	for i, node := range nodes {
		if err := gctx.Err(); err != nil {
			interrupted = err
			break
		}

		select {
		case slots <- struct{}{}:
			g.Go(func() error {
				defer func() { <-slots }()
				expanded, err := a.expand(gctx, node, slots)
				if err != nil {
					return err
				}
				results[i] = expanded
				return nil
			})
		default:
			expanded, err := a.expand(gctx, node, slots)
			if err != nil {
				// A failed goroutine cancels gctx first; report its error, not the cancellation
				groupFailed := gctx.Err() != nil
				cancel()
				if werr := g.Wait(); werr != nil && groupFailed {
					return nil, werr
				}
				return nil, err
			}
			results[i] = expanded
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if interrupted != nil {
		return nil, &StorageError{Op: "expand", Err: interrupted}
	}
	return results, nil
}

func (a *Assembler) expandBatched(ctx context.Context, finder repository.SubtreeFinder, node *repository.Node) (*models.Node, error) {
	rows, err := finder.FindSubtree(ctx, node.ID)
	if err != nil {
		return nil, expansionError(node.ID, err)
	}

	root := models.NewNode(rows[0].ID, rows[0].Label)
	index := map[int64]*models.Node{root.ID: root}

	for _, row := range rows[1:] {
		if row.ParentID == nil {
			return nil, &StorageError{Op: "expand", Err: fmt.Errorf("subtree row %d has no parent", row.ID)}
		}
		parent, ok := index[*row.ParentID]
		if !ok {
			return nil, &StorageError{Op: "expand", Err: fmt.Errorf("subtree row %d precedes its parent %d", row.ID, *row.ParentID)}
		}
		child := models.NewNode(row.ID, row.Label)
		parent.AddChild(child)
		index[child.ID] = child
	}
	return root, nil
}

func expansionError(id int64, err error) error {
	if errors.Is(err, repository.ErrNodeNotFound) {
		return &NodeNotFoundError{ID: id}
	}
	return &StorageError{Op: "expand", Err: err}
}
