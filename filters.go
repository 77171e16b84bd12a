package mptree

import "fmt"

// Filter is a WHERE fragment with its positional arguments. Values are
// never interpolated into the SQL text; every comparison uses a `?`
// placeholder.
type Filter struct {
	Where string
	Args  []any
}

// neverFilter matches no rows.
var neverFilter = Filter{Where: "1 = 0"}

// FilterDescendants builds the predicate for the subtree under a node with
// the given tree id and path. Instead of a prefix scan the subtree is the
// half-open path range up to the node's next sibling slot:
//
//	tree_id = T AND path > P AND path < IncPath(P)
//
// andSelf relaxes the lower bound to >= so the node itself matches. When
// the node occupies the last representable slot the upper bound is omitted;
// nothing can sort after its subtree within the tree.
func (o *Options) FilterDescendants(treeID int64, path string, andSelf bool) Filter {
	cmp := ">"
	if andSelf {
		cmp = ">="
	}
	f := Filter{
		Where: fmt.Sprintf("%s = ? AND %s %s ?", o.TreeIDColumn, o.PathColumn, cmp),
		Args:  []any{treeID, path},
	}
	if next, err := IncPath(path, o.StepLen); err == nil {
		f.Where += fmt.Sprintf(" AND %s < ?", o.PathColumn)
		f.Args = append(f.Args, next)
	}
	return f
}

// FilterChildren narrows FilterDescendants to the immediate children: the
// descendant range one level below the node.
//
// The adjacency relation (parent_id = ?) would select the same rows, but
// this shape is guaranteed to hit the (tree_id, path) unique index while
// the parent column may carry no index at all.
func (o *Options) FilterChildren(treeID int64, path string, depth int) Filter {
	f := o.FilterDescendants(treeID, path, false)
	f.Where += fmt.Sprintf(" AND %s = ?", o.DepthColumn)
	f.Args = append(f.Args, depth+1)
	return f
}

// FilterAncestors builds the predicate for the chain of nodes above a node:
// rows in the same tree whose path is a prefix of the node's path. The
// prefix test is anchored at the start of the candidate row's path; depth
// bounds keep the node itself out unless andSelf is set.
func (o *Options) FilterAncestors(treeID int64, path string, depth int, andSelf bool) Filter {
	cmp := "<"
	if andSelf {
		cmp = "<="
	}
	return Filter{
		Where: fmt.Sprintf("%s = ? AND ? LIKE %s || '%%' AND %s %s ?",
			o.TreeIDColumn, o.PathColumn, o.DepthColumn, cmp),
		Args: []any{treeID, path, depth},
	}
}

// FilterParent matches the single parent row, or nothing for a root.
func (o *Options) FilterParent(parentID *int64) Filter {
	if parentID == nil {
		return neverFilter
	}
	return Filter{
		Where: fmt.Sprintf("%s = ?", o.PKColumn),
		Args:  []any{*parentID},
	}
}
