package mptree

// TreeIter turns a flat node sequence, sorted by (tree_id, path), back into
// a nested structure in one forward pass. Next yields each node together
// with an iterator over its children; that child iterator shares the same
// underlying cursor, so the pairs must be consumed depth first — drain a
// node's children before asking for its next sibling. Consuming out of
// order does not fail, it silently misattributes the remaining rows.
//
// Parent/child is decided purely by adjacency: a row is a child of the
// most recent still-open row exactly when both share a tree id and its
// depth is one greater. Every input row is yielded exactly once.
type TreeIter[T any] struct {
	cursor *treeCursor[T]
	parent *T // nil for the top-level iterator
}

type treeCursor[T any] struct {
	items   []T
	pos     int
	isChild func(parent, child T) bool
}

func (c *treeCursor[T]) pending() bool { return c.pos < len(c.items) }

func (c *treeCursor[T]) nextIsChildOf(parent T) bool {
	return c.pending() && c.isChild(parent, c.items[c.pos])
}

// NewTreeIter wraps flat, which must already be sorted by (tree_id, path)
// ascending, with isChild deciding the adjacency relation.
func NewTreeIter[T any](flat []T, isChild func(parent, child T) bool) *TreeIter[T] {
	return &TreeIter[T]{cursor: &treeCursor[T]{items: flat, isChild: isChild}}
}

// NodeTreeIter is NewTreeIter specialized to Node rows, with the canonical
// adjacency rule: same tree, depth exactly one deeper.
func NodeTreeIter(nodes []Node) *TreeIter[Node] {
	return NewTreeIter(nodes, func(parent, child Node) bool {
		return parent.TreeID == child.TreeID && child.Depth == parent.Depth+1
	})
}

// Next advances the shared cursor by one row. children is nil for leaves.
// For a child iterator, ok turns false once the cursor leaves the parent's
// children; for the top-level iterator, once the input is exhausted.
func (it *TreeIter[T]) Next() (node T, children *TreeIter[T], ok bool) {
	c := it.cursor
	if it.parent != nil && !c.nextIsChildOf(*it.parent) {
		var zero T
		return zero, nil, false
	}
	if !c.pending() {
		var zero T
		return zero, nil, false
	}
	node = c.items[c.pos]
	c.pos++
	if c.nextIsChildOf(node) {
		n := node
		children = &TreeIter[T]{cursor: c, parent: &n}
	}
	return node, children, true
}
