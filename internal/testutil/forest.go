// Package testutil seeds in-memory node tables for engine and store tests.
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hierdb/mptree"
	"github.com/hierdb/mptree/internal/store"
)

// TreeNode describes one node of a seeded test forest.
type TreeNode struct {
	Name     string
	Children []TreeNode
}

// N builds a TreeNode literal.
func N(name string, children ...TreeNode) TreeNode {
	return TreeNode{Name: name, Children: children}
}

// Options returns a test configuration over a "nodes" table.
func Options(t *testing.T, opts ...mptree.Option) *mptree.Options {
	t.Helper()
	o, err := mptree.NewOptions("nodes", "id", "parent_id", opts...)
	require.NoError(t, err)
	return o
}

// OpenStore opens an in-memory SQLite store with the node table created.
func OpenStore(t *testing.T, o *mptree.Options) *store.Store {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.CreateTreeTable(context.Background(), o))
	return st
}

// Seed inserts a forest in declaration order and returns node ids keyed
// by name. Names must be unique within the fixture.
func Seed(t *testing.T, st *store.Store, o *mptree.Options, roots ...TreeNode) map[string]int64 {
	t.Helper()
	ids := make(map[string]int64)
	ctx := context.Background()
	err := st.WithTx(ctx, func(ex mptree.Executor) error {
		for _, root := range roots {
			if err := seedNode(ctx, st, ex, o, nil, root, ids); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	return ids
}

func seedNode(ctx context.Context, st *store.Store, ex mptree.Executor,
	o *mptree.Options, parentID *int64, node TreeNode, ids map[string]int64) error {

	id, err := st.InsertNode(ctx, ex, o, parentID, node.Name)
	if err != nil {
		return err
	}
	ids[node.Name] = id
	for _, child := range node.Children {
		if err := seedNode(ctx, st, ex, o, &id, child, ids); err != nil {
			return err
		}
	}
	return nil
}

// Fetch loads one node row by id.
func Fetch(t *testing.T, st *store.Store, o *mptree.Options, id int64) mptree.Node {
	t.Helper()
	n, err := mptree.FetchNode(context.Background(), st.Executor(), o, id)
	require.NoError(t, err)
	return n
}

// Snapshot loads every node row in (tree_id, path) order.
func Snapshot(t *testing.T, st *store.Store, o *mptree.Options) []mptree.Node {
	t.Helper()
	nodes, err := mptree.FetchAll(context.Background(), st.Executor(), o)
	require.NoError(t, err)
	return nodes
}

// RequireIntact fails the test if the stored forest violates any
// structural invariant.
func RequireIntact(t *testing.T, st *store.Store, o *mptree.Options) {
	t.Helper()
	errs := mptree.CheckInvariants(Snapshot(t, st, o), o)
	for _, err := range errs {
		t.Error(err)
	}
	if len(errs) > 0 {
		t.FailNow()
	}
}
