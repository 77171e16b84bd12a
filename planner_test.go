package mptree_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hierdb/mptree"
	"github.com/hierdb/mptree/internal/testutil"
)

func TestPlanInsertRoots(t *testing.T) {
	o := testutil.Options(t)
	st := testutil.OpenStore(t, o)
	ids := testutil.Seed(t, st, o, testutil.N("a"), testutil.N("b"), testutil.N("c"))

	for i, name := range []string{"a", "b", "c"} {
		n := testutil.Fetch(t, st, o, ids[name])
		assert.EqualValues(t, i+1, n.TreeID, "roots get sequential tree ids")
		assert.Equal(t, "", n.Path)
		assert.Equal(t, 0, n.Depth)
		assert.True(t, n.Root())
	}
}

func TestPlanInsertChildSlots(t *testing.T) {
	o := testutil.Options(t, mptree.WithStepLen(2))
	st := testutil.OpenStore(t, o)
	ids := testutil.Seed(t, st, o,
		testutil.N("r", testutil.N("a"), testutil.N("b"), testutil.N("c")))

	want := map[string]string{"a": "00", "b": "01", "c": "02"}
	for name, path := range want {
		n := testutil.Fetch(t, st, o, ids[name])
		assert.Equal(t, path, n.Path, "child %s", name)
		assert.Equal(t, 1, n.Depth)
		assert.EqualValues(t, 1, n.TreeID)
	}
}

func TestPlanInsertChildrenLimit(t *testing.T) {
	o := testutil.Options(t, mptree.WithStepLen(1))
	st := testutil.OpenStore(t, o)
	ids := testutil.Seed(t, st, o, testutil.N("r"))
	rootID := ids["r"]

	ctx := context.Background()
	err := st.WithTx(ctx, func(ex mptree.Executor) error {
		for i := int64(0); i < o.MaxChildren(); i++ {
			if _, err := st.InsertNode(ctx, ex, o, &rootID, fmt.Sprintf("c%d", i)); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err, "the parent has exactly MaxChildren slots")

	err = st.WithTx(ctx, func(ex mptree.Executor) error {
		_, err := st.InsertNode(ctx, ex, o, &rootID, "one too many")
		return err
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, mptree.ErrTooManyChildren)
	assert.ErrorIs(t, err, mptree.ErrPathOverflow, "limit errors share the overflow base")
}

func TestPlanInsertDepthLimit(t *testing.T) {
	o := testutil.Options(t, mptree.WithStepLen(1), mptree.WithPathLen(3))
	require.Equal(t, 4, o.MaxDepth())

	st := testutil.OpenStore(t, o)
	ids := testutil.Seed(t, st, o,
		testutil.N("l1", testutil.N("l2", testutil.N("l3", testutil.N("l4")))))

	deepest := ids["l4"]
	err := st.WithTx(context.Background(), func(ex mptree.Executor) error {
		_, err := st.InsertNode(context.Background(), ex, o, &deepest, "l5")
		return err
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, mptree.ErrPathTooDeep)
}

func TestPlanInsertUnknownParent(t *testing.T) {
	o := testutil.Options(t)
	st := testutil.OpenStore(t, o)

	missing := int64(999)
	plan := o.PlanInsert(&missing)
	_, err := plan.Resolve(context.Background(), st.Executor())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

// Resolve must pin its first outcome: a later call returns the same
// position even after the table has moved on.
func TestPlanResolveMemoized(t *testing.T) {
	o := testutil.Options(t)
	st := testutil.OpenStore(t, o)
	ids := testutil.Seed(t, st, o, testutil.N("r", testutil.N("a")))
	rootID := ids["r"]

	ctx := context.Background()
	plan := o.PlanInsert(&rootID)
	first, err := plan.Resolve(ctx, st.Executor())
	require.NoError(t, err)
	require.Equal(t, "001", first.Path)

	err = st.WithTx(ctx, func(ex mptree.Executor) error {
		_, err := st.InsertNode(ctx, ex, o, &rootID, "b")
		return err
	})
	require.NoError(t, err)

	second, err := plan.Resolve(ctx, st.Executor())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
