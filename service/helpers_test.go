package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ammiranda/forest/repository"

	"github.com/stretchr/testify/require"
)

var errStoreDown = errors.New("connection refused")

// failingRepository wraps a repository and fails the named method
type failingRepository struct {
	repository.Repository
	failOn string
}

func (f *failingRepository) FindRoots(ctx context.Context) ([]*repository.Node, error) {
	if f.failOn == "FindRoots" {
		return nil, errStoreDown
	}
	return f.Repository.FindRoots(ctx)
}

func (f *failingRepository) FindChildren(ctx context.Context, id int64) ([]*repository.Node, error) {
	if f.failOn == "FindChildren" {
		return nil, errStoreDown
	}
	return f.Repository.FindChildren(ctx, id)
}

func (f *failingRepository) Exists(ctx context.Context, id int64) (bool, error) {
	if f.failOn == "Exists" {
		return false, errStoreDown
	}
	return f.Repository.Exists(ctx, id)
}

func (f *failingRepository) Insert(ctx context.Context, label string, parentID *int64) (*repository.Node, error) {
	if f.failOn == "Insert" {
		return nil, errStoreDown
	}
	return f.Repository.Insert(ctx, label, parentID)
}

func (f *failingRepository) DeleteSubtree(ctx context.Context, id int64) (*repository.Node, error) {
	if f.failOn == "DeleteSubtree" {
		return nil, errStoreDown
	}
	return f.Repository.DeleteSubtree(ctx, id)
}

// blockingRepository never answers FindRoots before the context ends
type blockingRepository struct {
	repository.Repository
}

func (b *blockingRepository) FindRoots(ctx context.Context) ([]*repository.Node, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// gatedRepository holds its first FindRoots call after the rows are read,
// until release is closed
type gatedRepository struct {
	repository.Repository
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func newGatedRepository(repo repository.Repository) *gatedRepository {
	return &gatedRepository{
		Repository: repo,
		read:       make(chan struct{}),
		release:    make(chan struct{}),
	}
}

func (g *gatedRepository) FindRoots(ctx context.Context) ([]*repository.Node, error) {
	roots, err := g.Repository.FindRoots(ctx)
	g.once.Do(func() {
		close(g.read)
		<-g.release
	})
	return roots, err
}

// recursiveOnly hides the SubtreeFinder implementation of the wrapped store
type recursiveOnly struct {
	repository.Repository
}

func ptr(id int64) *int64 {
	return &id
}

// seed inserts root(1) -> child(2) -> grandchild(3) plus a second root(4)
// with two children (5, 6).
func seed(t *testing.T, repo repository.Repository) {
	t.Helper()
	ctx := context.Background()

	rows := []struct {
		label    string
		parentID *int64
	}{
		{"root", nil},
		{"child", ptr(1)},
		{"grandchild", ptr(2)},
		{"second", nil},
		{"left", ptr(4)},
		{"right", ptr(4)},
	}
	for _, row := range rows {
		_, err := repo.Insert(ctx, row.label, row.parentID)
		require.NoError(t, err)
	}
}
