package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(id int64) *int64 {
	return &id
}

func labels(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Label
	}
	return out
}

// testRepositoryContract runs the behavior every Repository must share
func testRepositoryContract(t *testing.T, newRepo func(t *testing.T) Repository) {
	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		repo := newRepo(t)

		roots, err := repo.FindRoots(ctx)
		require.NoError(t, err)
		assert.Empty(t, roots)

		_, err = repo.FindByID(ctx, 1)
		assert.ErrorIs(t, err, ErrNodeNotFound)
	})

	t.Run("insert and read", func(t *testing.T) {
		repo := newRepo(t)

		root, err := repo.Insert(ctx, "root", nil)
		require.NoError(t, err)
		assert.True(t, root.IsRoot())

		child, err := repo.Insert(ctx, "child", &root.ID)
		require.NoError(t, err)
		require.NotNil(t, child.ParentID)
		assert.Equal(t, root.ID, *child.ParentID)
		assert.False(t, child.IsRoot())

		other, err := repo.Insert(ctx, "other", nil)
		require.NoError(t, err)

		roots, err := repo.FindRoots(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"root", "other"}, labels(roots))

		found, err := repo.FindByID(ctx, child.ID)
		require.NoError(t, err)
		assert.Equal(t, child, found)

		children, err := repo.FindChildren(ctx, root.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"child"}, labels(children))

		leaf, err := repo.FindChildren(ctx, other.ID)
		require.NoError(t, err)
		assert.Empty(t, leaf)

		exists, err := repo.Exists(ctx, child.ID)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.Exists(ctx, other.ID+100)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("children of a missing node", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.FindChildren(ctx, 404)
		assert.ErrorIs(t, err, ErrNodeNotFound)
	})

	t.Run("insert rejects missing parent and blank label", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Insert(ctx, "orphan", ptr(999))
		assert.ErrorIs(t, err, ErrNodeNotFound)

		_, err = repo.Insert(ctx, "   ", nil)
		assert.ErrorIs(t, err, ErrInvalidInput)

		roots, err := repo.FindRoots(ctx)
		require.NoError(t, err)
		assert.Empty(t, roots)
	})

	t.Run("delete cascades", func(t *testing.T) {
		repo := newRepo(t)

		root, err := repo.Insert(ctx, "root", nil)
		require.NoError(t, err)
		child, err := repo.Insert(ctx, "child", &root.ID)
		require.NoError(t, err)
		grandchild, err := repo.Insert(ctx, "grandchild", &child.ID)
		require.NoError(t, err)
		keep, err := repo.Insert(ctx, "keep", nil)
		require.NoError(t, err)

		deleted, err := repo.DeleteSubtree(ctx, child.ID)
		require.NoError(t, err)
		assert.Equal(t, "child", deleted.Label)
		require.NotNil(t, deleted.ParentID)
		assert.Equal(t, root.ID, *deleted.ParentID)

		for _, id := range []int64{child.ID, grandchild.ID} {
			exists, err := repo.Exists(ctx, id)
			require.NoError(t, err)
			assert.False(t, exists, "node %d should be gone", id)
		}

		children, err := repo.FindChildren(ctx, root.ID)
		require.NoError(t, err)
		assert.Empty(t, children)

		_, err = repo.DeleteSubtree(ctx, child.ID)
		assert.ErrorIs(t, err, ErrNodeNotFound)

		_, err = repo.FindByID(ctx, keep.ID)
		assert.NoError(t, err)
	})

	t.Run("ids are not reused", func(t *testing.T) {
		repo := newRepo(t)

		first, err := repo.Insert(ctx, "first", nil)
		require.NoError(t, err)
		last, err := repo.Insert(ctx, "last", nil)
		require.NoError(t, err)

		_, err = repo.DeleteSubtree(ctx, last.ID)
		require.NoError(t, err)

		next, err := repo.Insert(ctx, "next", nil)
		require.NoError(t, err)
		assert.Greater(t, next.ID, last.ID)
		assert.Greater(t, last.ID, first.ID)
	})

	t.Run("subtree lists parents before children", func(t *testing.T) {
		repo := newRepo(t)

		finder, ok := repo.(SubtreeFinder)
		require.True(t, ok)

		root, err := repo.Insert(ctx, "root", nil)
		require.NoError(t, err)
		a, err := repo.Insert(ctx, "a", &root.ID)
		require.NoError(t, err)
		_, err = repo.Insert(ctx, "b", &root.ID)
		require.NoError(t, err)
		_, err = repo.Insert(ctx, "a1", &a.ID)
		require.NoError(t, err)
		_, err = repo.Insert(ctx, "unrelated", nil)
		require.NoError(t, err)

		subtree, err := finder.FindSubtree(ctx, root.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"root", "a", "b", "a1"}, labels(subtree))

		seen := map[int64]bool{}
		for i, n := range subtree {
			if i > 0 {
				require.NotNil(t, n.ParentID)
				assert.True(t, seen[*n.ParentID], "parent of %d listed after it", n.ID)
			}
			seen[n.ID] = true
		}

		_, err = finder.FindSubtree(ctx, 999)
		assert.ErrorIs(t, err, ErrNodeNotFound)
	})
}
