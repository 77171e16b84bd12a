package mptree

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Columns returns the managed column list in scan order:
// pk, parent id, tree id, path, depth.
func (o *Options) Columns() string {
	return strings.Join([]string{
		o.PKColumn, o.ParentIDColumn, o.TreeIDColumn, o.PathColumn, o.DepthColumn,
	}, ", ")
}

// orderByPath is the canonical ordering of any multi-node result set.
// Emitting rows by (tree_id, path) ascending is what makes the results
// consumable by TreeIter.
func (o *Options) orderByPath() string {
	return fmt.Sprintf(" ORDER BY %s, %s", o.TreeIDColumn, o.PathColumn)
}

func (o *Options) selectWhere(f Filter) (string, []any) {
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s%s",
		o.Columns(), o.Table, f.Where, o.orderByPath()), f.Args
}

// QueryAll selects every node of every tree in (tree_id, path) order.
func (o *Options) QueryAll() (string, []any) {
	return fmt.Sprintf("SELECT %s FROM %s%s", o.Columns(), o.Table, o.orderByPath()), nil
}

// QueryDescendants selects a node's subtree in path order.
func (o *Options) QueryDescendants(treeID int64, path string, andSelf bool) (string, []any) {
	return o.selectWhere(o.FilterDescendants(treeID, path, andSelf))
}

// QueryChildren selects a node's immediate children in path order.
func (o *Options) QueryChildren(treeID int64, path string, depth int) (string, []any) {
	return o.selectWhere(o.FilterChildren(treeID, path, depth))
}

// QueryAncestors selects a node's ancestor chain ordered root first.
func (o *Options) QueryAncestors(treeID int64, path string, depth int, andSelf bool) (string, []any) {
	f := o.FilterAncestors(treeID, path, depth, andSelf)
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s",
		o.Columns(), o.Table, f.Where, o.DepthColumn), f.Args
}

// ScanNodes drains rows produced by one of the Query* statements.
func ScanNodes(rows *sql.Rows) ([]Node, error) {
	defer rows.Close()

	var nodes []Node
	for rows.Next() {
		var n Node
		var parentID sql.NullInt64
		if err := rows.Scan(&n.ID, &parentID, &n.TreeID, &n.Path, &n.Depth); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		if parentID.Valid {
			n.ParentID = &parentID.Int64
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}
	return nodes, nil
}

// FetchAll loads the whole forest in (tree_id, path) order.
func FetchAll(ctx context.Context, ex Executor, o *Options) ([]Node, error) {
	query, args := o.QueryAll()
	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query all nodes: %w", err)
	}
	return ScanNodes(rows)
}

// FetchNode loads one node row by primary key.
func FetchNode(ctx context.Context, ex Executor, o *Options, id int64) (Node, error) {
	n := Node{ID: id}
	var parentID sql.NullInt64
	err := ex.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT %s, %s, %s, %s FROM %s WHERE %s = ?",
		o.ParentIDColumn, o.TreeIDColumn, o.PathColumn, o.DepthColumn, o.Table, o.PKColumn,
	), id).Scan(&parentID, &n.TreeID, &n.Path, &n.Depth)
	if err != nil {
		return Node{}, fmt.Errorf("fetch node %d: %w", id, err)
	}
	if parentID.Valid {
		n.ParentID = &parentID.Int64
	}
	return n, nil
}

// FetchDescendants loads a node's subtree in path order.
func FetchDescendants(ctx context.Context, ex Executor, o *Options, n Node, andSelf bool) ([]Node, error) {
	query, args := o.QueryDescendants(n.TreeID, n.Path, andSelf)
	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query descendants of %d: %w", n.ID, err)
	}
	return ScanNodes(rows)
}
