// Package storetest holds the behavioral test suite every store.Store
// implementation must pass.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/catgraph/pkg/category"
	cgerrors "github.com/matzehuels/catgraph/pkg/errors"
	"github.com/matzehuels/catgraph/pkg/store"
)

// Run runs the suite. newStore must return an empty store; it is called
// once per subtest.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		s := newStore(t)
		root, err := s.Create(ctx, store.NewCategory{Name: "Animals", Description: "all of them"})
		require.NoError(t, err)
		assert.Positive(t, root.ID)
		assert.Nil(t, root.ParentID)

		child, err := s.Create(ctx, store.NewCategory{Name: "Cats", ParentID: category.Ptr(root.ID)})
		require.NoError(t, err)
		require.NotNil(t, child.ParentID)
		assert.Equal(t, root.ID, *child.ParentID)

		d, err := s.Get(ctx, root.ID)
		require.NoError(t, err)
		assert.Equal(t, "Animals", d.Name)
		assert.Equal(t, "all of them", d.Description)
		assert.Zero(t, d.SimilarCount)
	})

	t.Run("create validates", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Create(ctx, store.NewCategory{Name: "  "})
		assert.True(t, cgerrors.Is(err, cgerrors.ErrCodeInvalidName), "got %v", err)

		_, err = s.Create(ctx, store.NewCategory{Name: "Orphan", ParentID: category.Ptr(999)})
		assert.True(t, cgerrors.Is(err, cgerrors.ErrCodeCategoryNotFound), "got %v", err)
	})

	t.Run("get unknown", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, 42)
		assert.True(t, cgerrors.Is(err, cgerrors.ErrCodeCategoryNotFound), "got %v", err)
	})

	t.Run("list pages in id order", func(t *testing.T) {
		s := newStore(t)
		batch := make([]store.NewCategory, 7)
		for i := range batch {
			batch[i] = store.NewCategory{Name: string(rune('A' + i))}
		}
		ids, err := s.CreateMany(ctx, batch)
		require.NoError(t, err)
		require.Len(t, ids, 7)

		p1, err := s.List(ctx, 1, 3)
		require.NoError(t, err)
		assert.Equal(t, 7, p1.Total)
		assert.True(t, p1.HasNext())
		require.Len(t, p1.Items, 3)
		assert.Equal(t, ids[0], p1.Items[0].ID)

		p3, err := s.List(ctx, 3, 3)
		require.NoError(t, err)
		require.Len(t, p3.Items, 1)
		assert.Equal(t, ids[6], p3.Items[0].ID)
		assert.False(t, p3.HasNext())

		pd, err := s.List(ctx, 1, 0)
		require.NoError(t, err)
		assert.Equal(t, store.DefaultPageSize, pd.PageSize)

		_, err = s.List(ctx, 0, 10)
		assert.True(t, cgerrors.Is(err, cgerrors.ErrCodeInvalidPage), "got %v", err)
		_, err = s.List(ctx, 1, cgerrors.MaxPageSize+1)
		assert.True(t, cgerrors.Is(err, cgerrors.ErrCodeInvalidPage), "got %v", err)
	})

	t.Run("create many with batch parents", func(t *testing.T) {
		s := newStore(t)
		ids, err := s.CreateMany(ctx, []store.NewCategory{
			{Name: "root"},
			{Name: "child", ParentID: category.Ptr(-1)},
			{Name: "grandchild", ParentID: category.Ptr(-2)},
		})
		require.NoError(t, err)

		nodes, err := s.ListNodes(ctx)
		require.NoError(t, err)
		require.Len(t, nodes, 3)
		assert.Equal(t, ids[1], *nodes[2].ParentID)

		_, err = s.CreateMany(ctx, []store.NewCategory{{Name: "bad", ParentID: category.Ptr(-1)}})
		assert.True(t, cgerrors.Is(err, cgerrors.ErrCodeInvalidInput), "got %v", err)
	})

	t.Run("move", func(t *testing.T) {
		s := newStore(t)
		// a <- b <- c
		ids, err := s.CreateMany(ctx, []store.NewCategory{
			{Name: "a"},
			{Name: "b", ParentID: category.Ptr(-1)},
			{Name: "c", ParentID: category.Ptr(-2)},
		})
		require.NoError(t, err)
		a, b, c := ids[0], ids[1], ids[2]

		_, err = s.Move(ctx, a, category.Ptr(c))
		assert.True(t, cgerrors.Is(err, cgerrors.ErrCodeCycle), "moving under a descendant: %v", err)
		_, err = s.Move(ctx, a, category.Ptr(a))
		assert.True(t, cgerrors.Is(err, cgerrors.ErrCodeCycle), "moving under itself: %v", err)
		_, err = s.Move(ctx, a, category.Ptr(999))
		assert.True(t, cgerrors.Is(err, cgerrors.ErrCodeCategoryNotFound), "unknown parent: %v", err)
		_, err = s.Move(ctx, 999, nil)
		assert.True(t, cgerrors.Is(err, cgerrors.ErrCodeCategoryNotFound), "unknown node: %v", err)

		moved, err := s.Move(ctx, c, category.Ptr(a))
		require.NoError(t, err)
		assert.Equal(t, a, *moved.ParentID)

		moved, err = s.Move(ctx, b, nil)
		require.NoError(t, err)
		assert.Nil(t, moved.ParentID)
	})

	t.Run("link is idempotent and canonical", func(t *testing.T) {
		s := newStore(t)
		ids, err := s.CreateMany(ctx, []store.NewCategory{{Name: "x"}, {Name: "y"}, {Name: "z"}})
		require.NoError(t, err)
		x, y, z := ids[0], ids[1], ids[2]

		created, err := s.Link(ctx, y, x)
		require.NoError(t, err)
		assert.True(t, created)

		created, err = s.Link(ctx, x, y)
		require.NoError(t, err)
		assert.False(t, created, "reverse link must not create a second edge")

		_, err = s.Link(ctx, x, x)
		assert.True(t, cgerrors.Is(err, cgerrors.ErrCodeInvalidInput), "self link: %v", err)
		_, err = s.Link(ctx, x, 999)
		assert.True(t, cgerrors.Is(err, cgerrors.ErrCodeCategoryNotFound), "unknown target: %v", err)

		_, err = s.Link(ctx, z, y)
		require.NoError(t, err)

		pairs, err := s.ListPairs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []category.Pair{{From: x, To: y}, {From: y, To: z}}, pairs)

		similar, err := s.Similar(ctx, y)
		require.NoError(t, err)
		assert.Equal(t, []category.ID{x, z}, similar)

		d, err := s.Get(ctx, y)
		require.NoError(t, err)
		assert.Equal(t, 2, d.SimilarCount)

		removed, err := s.Unlink(ctx, y, x)
		require.NoError(t, err)
		assert.True(t, removed)
		removed, err = s.Unlink(ctx, x, y)
		require.NoError(t, err)
		assert.False(t, removed)
	})

	t.Run("bulk similarities", func(t *testing.T) {
		s := newStore(t)
		ids, err := s.CreateMany(ctx, []store.NewCategory{{Name: "1"}, {Name: "2"}, {Name: "3"}})
		require.NoError(t, err)
		a, b, c := ids[0], ids[1], ids[2]

		batch := []category.Pair{
			{From: a, To: b},
			{From: b, To: a},
			{From: a, To: b},
			{From: c, To: c},
			{From: c, To: 999},
			{From: c, To: a},
		}
		n, err := s.AddSimilarities(ctx, batch)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = s.AddSimilarities(ctx, batch)
		require.NoError(t, err)
		assert.Zero(t, n, "re-submitting a batch must insert nothing")

		pairs, err := s.ListPairs(ctx)
		require.NoError(t, err)
		assert.Len(t, pairs, 2)
	})

	t.Run("delete detaches children and drops links", func(t *testing.T) {
		s := newStore(t)
		ids, err := s.CreateMany(ctx, []store.NewCategory{
			{Name: "parent"},
			{Name: "child", ParentID: category.Ptr(-1)},
			{Name: "peer"},
		})
		require.NoError(t, err)
		_, err = s.Link(ctx, ids[0], ids[2])
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, ids[0]))
		err = s.Delete(ctx, ids[0])
		assert.True(t, cgerrors.Is(err, cgerrors.ErrCodeCategoryNotFound), "second delete: %v", err)

		d, err := s.Get(ctx, ids[1])
		require.NoError(t, err)
		assert.Nil(t, d.ParentID)

		pairs, err := s.ListPairs(ctx)
		require.NoError(t, err)
		assert.Empty(t, pairs)
	})

	t.Run("insert nodes keeps ids", func(t *testing.T) {
		s := newStore(t)
		err := s.InsertNodes(ctx, []category.Node{
			{ID: 20, Name: "child", ParentID: category.Ptr(10)},
			{ID: 10, Name: "root"},
			{ID: 30, Name: "stale", ParentID: category.Ptr(77)},
		})
		require.NoError(t, err)

		nodes, err := s.ListNodes(ctx)
		require.NoError(t, err)
		require.Len(t, nodes, 3)
		assert.Equal(t, category.ID(10), nodes[0].ID)
		assert.Equal(t, category.ID(10), *nodes[1].ParentID)
		assert.Nil(t, nodes[2].ParentID, "unknown parent should be dropped")

		err = s.InsertNodes(ctx, []category.Node{{ID: 10, Name: "again"}})
		assert.True(t, cgerrors.Is(err, cgerrors.ErrCodeInvalidInput), "duplicate id: %v", err)

		next, err := s.Create(ctx, store.NewCategory{Name: "next"})
		require.NoError(t, err)
		assert.Greater(t, next.ID, category.ID(30))
	})

	t.Run("clear resets ids", func(t *testing.T) {
		s := newStore(t)
		ids, err := s.CreateMany(ctx, []store.NewCategory{{Name: "a"}, {Name: "b"}})
		require.NoError(t, err)
		_, err = s.Link(ctx, ids[0], ids[1])
		require.NoError(t, err)

		require.NoError(t, s.Clear(ctx))

		snap, err := store.Load(ctx, s)
		require.NoError(t, err)
		assert.Empty(t, snap.Nodes)
		assert.Empty(t, snap.Pairs)

		n, err := s.Create(ctx, store.NewCategory{Name: "fresh"})
		require.NoError(t, err)
		assert.Equal(t, category.ID(1), n.ID)
	})
}
