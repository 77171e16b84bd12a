package mptree

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nodeAt(id, treeID int64, path string) Node {
	n := Node{ID: id, TreeID: treeID, Path: path, Depth: len(path) / 3}
	return n
}

func walkDepthFirst(it *TreeIter[Node], level int, out *[]string) {
	for {
		n, children, ok := it.Next()
		if !ok {
			return
		}
		*out = append(*out, fmt.Sprintf("%d@%d", n.ID, level))
		if children != nil {
			walkDepthFirst(children, level+1, out)
		}
	}
}

func TestNodeTreeIter(t *testing.T) {
	// Two trees, (tree_id, path) order. The second root follows a leaf two
	// levels down, so the iterator has to close two levels at once.
	flat := []Node{
		nodeAt(1, 1, ""),
		nodeAt(2, 1, "000"),
		nodeAt(3, 1, "000000"),
		nodeAt(4, 1, "000001"),
		nodeAt(5, 1, "001"),
		nodeAt(6, 2, ""),
		nodeAt(7, 2, "000"),
	}

	var got []string
	walkDepthFirst(NodeTreeIter(flat), 0, &got)

	assert.Equal(t, []string{
		"1@0", "2@1", "3@2", "4@2", "5@1", "6@0", "7@1",
	}, got)
}

func TestNodeTreeIterEmitsEveryRowOnce(t *testing.T) {
	flat := []Node{
		nodeAt(1, 1, ""),
		nodeAt(2, 1, "000"),
		nodeAt(3, 1, "000000"),
		nodeAt(4, 1, "001"),
		nodeAt(5, 2, ""),
	}

	var got []string
	walkDepthFirst(NodeTreeIter(flat), 0, &got)
	require.Len(t, got, len(flat))

	seen := make(map[string]bool, len(got))
	for _, entry := range got {
		require.False(t, seen[entry], "row %s yielded twice", entry)
		seen[entry] = true
	}
}

func TestNodeTreeIterLeaves(t *testing.T) {
	flat := []Node{nodeAt(1, 1, ""), nodeAt(2, 1, "000")}

	it := NodeTreeIter(flat)
	root, children, ok := it.Next()
	require.True(t, ok)
	require.EqualValues(t, 1, root.ID)
	require.NotNil(t, children)

	leaf, grandchildren, ok := children.Next()
	require.True(t, ok)
	require.EqualValues(t, 2, leaf.ID)
	assert.Nil(t, grandchildren, "leaf must not get a child iterator")

	_, _, ok = children.Next()
	assert.False(t, ok)
	_, _, ok = it.Next()
	assert.False(t, ok, "root's children were consumed, input is exhausted")
}

func TestNodeTreeIterEmpty(t *testing.T) {
	_, _, ok := NodeTreeIter(nil).Next()
	assert.False(t, ok)
}

// The generic form works for any row type the caller brings.
func TestNewTreeIterCustomType(t *testing.T) {
	type row struct {
		name  string
		depth int
	}
	flat := []row{{"a", 0}, {"b", 1}, {"c", 1}}

	it := NewTreeIter(flat, func(parent, child row) bool {
		return child.depth == parent.depth+1
	})

	a, kids, ok := it.Next()
	require.True(t, ok)
	require.Equal(t, "a", a.name)
	require.NotNil(t, kids)

	var names []string
	for {
		n, _, ok := kids.Next()
		if !ok {
			break
		}
		names = append(names, n.name)
	}
	assert.Equal(t, []string{"b", "c"}, names)
}
