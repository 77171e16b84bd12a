package mptree

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Engine implements subtree mutations over one configured tree table:
// delete, detach, the four move variants and the full-forest rebuild.
//
// Every method is a sequence of statements against the supplied Executor
// and must run inside one externally managed transaction. A returned error
// means the transaction holds a partially shifted forest and must be rolled
// back; no step is retried internally.
type Engine struct {
	opts *Options
}

// NewEngine returns an engine bound to the table described by opts.
func NewEngine(opts *Options) *Engine {
	return &Engine{opts: opts}
}

// Options returns the configuration the engine was built with.
func (e *Engine) Options() *Options { return e.opts }

// newOpToken tags one mutation's log records for correlation.
func newOpToken() string {
	return uuid.Must(uuid.NewV7()).String()
}

// nodeRow is the per-node state the mutation paths work from.
type nodeRow struct {
	id       int64
	parentID sql.NullInt64
	treeID   int64
	path     string
	depth    int
}

func (e *Engine) lookup(ctx context.Context, ex Executor, id int64) (nodeRow, error) {
	o := e.opts
	n := nodeRow{id: id}
	err := ex.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT %s, %s, %s, %s FROM %s WHERE %s = ?",
		o.ParentIDColumn, o.TreeIDColumn, o.PathColumn, o.DepthColumn, o.Table, o.PKColumn,
	), id).Scan(&n.parentID, &n.treeID, &n.path, &n.depth)
	if errors.Is(err, sql.ErrNoRows) {
		return nodeRow{}, fmt.Errorf("node %d not found", id)
	}
	if err != nil {
		return nodeRow{}, fmt.Errorf("lookup node %d: %w", id, err)
	}
	return n, nil
}

// currentPath re-reads a node's path. Needed after a pull, which may have
// shifted the node itself.
func (e *Engine) currentPath(ctx context.Context, ex Executor, id int64) (string, error) {
	o := e.opts
	var path string
	err := ex.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = ?", o.PathColumn, o.Table, o.PKColumn,
	), id).Scan(&path)
	if err != nil {
		return "", fmt.Errorf("reread path of node %d: %w", id, err)
	}
	return path, nil
}

func (e *Engine) finish(op, token string, err error, attrs ...any) error {
	if err != nil {
		mutationErrors.WithLabelValues(op).Inc()
		return err
	}
	mutationsTotal.WithLabelValues(op).Inc()
	slog.Info(op, append([]any{"op", token}, attrs...)...)
	return nil
}

// DeleteSubtree removes the node and all its descendants, then pulls the
// following siblings up so no gap is left and no child slots stay wasted
// on deleted paths.
//
// Backing stores that cannot defer foreign key checks to the end of a
// statement must cascade child rows on delete themselves (ON DELETE
// CASCADE); the engine issues a single range delete.
func (e *Engine) DeleteSubtree(ctx context.Context, ex Executor, nodeID int64) error {
	token := newOpToken()
	n, err := e.lookup(ctx, ex, nodeID)
	if err != nil {
		return e.finish("delete subtree", token, err)
	}
	f := e.opts.FilterDescendants(n.treeID, n.path, true)
	if _, err := ex.ExecContext(ctx, fmt.Sprintf(
		"DELETE FROM %s WHERE %s", e.opts.Table, f.Where,
	), f.Args...); err != nil {
		return e.finish("delete subtree", token, fmt.Errorf("delete subtree %d: %w", nodeID, err))
	}
	err = e.pullNodes(ctx, ex, pullUp, n.treeID, n.path, n.depth)
	return e.finish("delete subtree", token, err, "node", nodeID, "tree", n.treeID)
}

// DetachSubtree splits the node and its descendants off into a new distinct
// tree with the next unused tree id. The node must not already be a root.
func (e *Engine) DetachSubtree(ctx context.Context, ex Executor, nodeID int64) error {
	token := newOpToken()
	n, err := e.lookup(ctx, ex, nodeID)
	if err != nil {
		return e.finish("detach subtree", token, err)
	}
	if !n.parentID.Valid {
		return e.finish("detach subtree", token,
			fmt.Errorf("node %d is already a root of its own tree", nodeID))
	}
	var newTreeID int64
	err = ex.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT MAX(%s) + 1 FROM %s", e.opts.TreeIDColumn, e.opts.Table,
	)).Scan(&newTreeID)
	if err != nil {
		return e.finish("detach subtree", token, fmt.Errorf("allocate tree id: %w", err))
	}
	err = e.reparent(ctx, ex, nodeID, nil, newTreeID, "", 0, n.treeID, n.path, n.depth)
	return e.finish("detach subtree", token, err, "node", nodeID, "new_tree", newTreeID)
}

// MoveSubtreeBefore moves the node's subtree to be the immediately
// preceding sibling of anchor. The anchor must not be a root: the order of
// distinct trees is undefined, use DetachSubtree to split a tree off.
func (e *Engine) MoveSubtreeBefore(ctx context.Context, ex Executor, nodeID, anchorID int64) error {
	return e.moveBySibling(ctx, ex, "move subtree before", nodeID, anchorID, false)
}

// MoveSubtreeAfter moves the node's subtree to be the immediately following
// sibling of anchor. Fails with ErrTooManyChildren when the anchor occupies
// the last slot its parent can address.
func (e *Engine) MoveSubtreeAfter(ctx context.Context, ex Executor, nodeID, anchorID int64) error {
	return e.moveBySibling(ctx, ex, "move subtree after", nodeID, anchorID, true)
}

func (e *Engine) moveBySibling(ctx context.Context, ex Executor, op string, nodeID, anchorID int64, after bool) error {
	token := newOpToken()
	node, anchor, err := e.prepareMove(ctx, ex, nodeID, anchorID)
	if err != nil {
		return e.finish(op, token, err)
	}
	if !anchor.parentID.Valid {
		return e.finish(op, token,
			fmt.Errorf("anchor %d is a root; trees are unordered, use DetachSubtree", anchorID))
	}

	target := anchor.path
	if after {
		target, err = IncPath(anchor.path, e.opts.StepLen)
		if err != nil {
			// The anchor sits in the last representable slot.
			return e.finish(op, token, fmt.Errorf("move node %d after %d: %w",
				nodeID, anchorID, ErrTooManyChildren))
		}
	}

	// Vacate the target slot, shifting the anchor's tail of siblings out.
	if err := e.pullNodes(ctx, ex, pullDown, anchor.treeID, target, anchor.depth); err != nil {
		return e.finish(op, token, err)
	}
	// The node may have been one of those shifted siblings (or live under
	// one); its path from prepareMove can be stale now.
	oldPath, err := e.currentPath(ctx, ex, nodeID)
	if err != nil {
		return e.finish(op, token, err)
	}
	err = e.reparent(ctx, ex, nodeID, &anchor.parentID.Int64, anchor.treeID, target,
		anchor.depth, node.treeID, oldPath, node.depth)
	return e.finish(op, token, err, "node", nodeID, "anchor", anchorID)
}

// MoveSubtreeToTop makes the node's subtree the first child of newParent.
func (e *Engine) MoveSubtreeToTop(ctx context.Context, ex Executor, nodeID, newParentID int64) error {
	token := newOpToken()
	node, parent, err := e.prepareMove(ctx, ex, nodeID, newParentID)
	if err != nil {
		return e.finish("move subtree to top", token, err)
	}
	newPath := parent.path + firstSegment(e.opts.StepLen)
	newDepth := parent.depth + 1

	if err := e.pullNodes(ctx, ex, pullDown, parent.treeID, newPath, newDepth); err != nil {
		return e.finish("move subtree to top", token, err)
	}
	oldPath, err := e.currentPath(ctx, ex, nodeID)
	if err != nil {
		return e.finish("move subtree to top", token, err)
	}
	err = e.reparent(ctx, ex, nodeID, &newParentID, parent.treeID, newPath, newDepth,
		node.treeID, oldPath, node.depth)
	return e.finish("move subtree to top", token, err, "node", nodeID, "parent", newParentID)
}

// MoveSubtreeToBottom makes the node's subtree the last child of newParent.
// Fails with ErrTooManyChildren when the parent's slots are exhausted.
func (e *Engine) MoveSubtreeToBottom(ctx context.Context, ex Executor, nodeID, newParentID int64) error {
	token := newOpToken()
	node, parent, err := e.prepareMove(ctx, ex, nodeID, newParentID)
	if err != nil {
		return e.finish("move subtree to bottom", token, err)
	}
	newDepth := parent.depth + 1

	f := e.opts.FilterChildren(parent.treeID, parent.path, parent.depth)
	var lastChildPath string
	err = ex.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s ORDER BY %s DESC LIMIT 1",
		e.opts.PathColumn, e.opts.Table, f.Where, e.opts.PathColumn,
	), f.Args...).Scan(&lastChildPath)

	var newPath string
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// No children yet, the node takes the first slot.
		newPath = parent.path + firstSegment(e.opts.StepLen)
	case err != nil:
		return e.finish("move subtree to bottom", token,
			fmt.Errorf("last child of %d: %w", newParentID, err))
	default:
		newPath, err = IncPath(lastChildPath, e.opts.StepLen)
		if err != nil {
			return e.finish("move subtree to bottom", token,
				fmt.Errorf("move node %d under %d: %w", nodeID, newParentID, ErrTooManyChildren))
		}
	}
	// Appending past the current last child: nothing to vacate, no pull.
	err = e.reparent(ctx, ex, nodeID, &newParentID, parent.treeID, newPath, newDepth,
		node.treeID, node.path, node.depth)
	return e.finish("move subtree to bottom", token, err, "node", nodeID, "parent", newParentID)
}

// prepareMove loads the node being moved and the anchor (sibling or new
// parent) and rejects moves that would land a node inside its own subtree,
// before anything is written. The anchor is inside the node's subtree
// exactly when both share a tree and the node's path prefixes the anchor's;
// equality of the two ids is the degenerate case of the same test.
func (e *Engine) prepareMove(ctx context.Context, ex Executor, nodeID, anchorID int64) (node, anchor nodeRow, err error) {
	if node, err = e.lookup(ctx, ex, nodeID); err != nil {
		return
	}
	if anchor, err = e.lookup(ctx, ex, anchorID); err != nil {
		return
	}
	if node.treeID == anchor.treeID && strings.HasPrefix(anchor.path, node.path) {
		err = fmt.Errorf("move node %d to %d: %w", nodeID, anchorID, ErrMovingToDescendant)
	}
	return
}

// reparent rewrites the subtree rooted at nodeID into its new position:
// the root row's parent reference changes, the whole subtree's tree id,
// depth and path are rewritten in one bulk statement, and the siblings
// following the old location are pulled up over the gap.
func (e *Engine) reparent(ctx context.Context, ex Executor, nodeID int64, newParentID *int64,
	newTreeID int64, newPath string, newDepth int,
	oldTreeID int64, oldPath string, oldDepth int) error {

	o := e.opts
	var parentArg any
	if newParentID != nil {
		parentArg = *newParentID
	}
	if _, err := ex.ExecContext(ctx, fmt.Sprintf(
		"UPDATE %s SET %s = ? WHERE %s = ?", o.Table, o.ParentIDColumn, o.PKColumn,
	), parentArg, nodeID); err != nil {
		return fmt.Errorf("set parent of node %d: %w", nodeID, err)
	}
	if err := e.updateSubtree(ctx, ex, newTreeID, newPath, newDepth,
		oldTreeID, oldPath, oldDepth); err != nil {
		return err
	}
	return e.pullNodes(ctx, ex, pullUp, oldTreeID, oldPath, oldDepth)
}

// updateSubtree rewrites tree id, depth and path for every row of the
// subtree that used to sit at (oldTreeID, oldPath). Depth moves by a
// constant delta; the path swaps its first oldDepth segments for newPath.
// Only string surgery happens here, no slot arithmetic.
func (e *Engine) updateSubtree(ctx context.Context, ex Executor,
	newTreeID int64, newPath string, newDepth int,
	oldTreeID int64, oldPath string, oldDepth int) error {

	o := e.opts
	f := o.FilterDescendants(oldTreeID, oldPath, true)
	query := fmt.Sprintf(
		"UPDATE %[1]s SET %[2]s = ?, %[3]s = %[3]s + ?, %[4]s = ? || substr(%[4]s, ?) WHERE %[5]s",
		o.Table, o.TreeIDColumn, o.DepthColumn, o.PathColumn, f.Where,
	)
	args := append([]any{newTreeID, newDepth - oldDepth, newPath, oldDepth*o.StepLen + 1}, f.Args...)
	if _, err := ex.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update subtree at %d:%q: %w", oldTreeID, oldPath, err)
	}
	return nil
}

type pullDirection int

const (
	pullUp pullDirection = iota
	pullDown
)

// pullNodes shifts every sibling subtree at (treeID, depth) whose root path
// is >= fromPath by one slot: down to open a gap at fromPath, up to close
// one. Roots have no ordered siblings, so depth zero is a no-op.
//
// Slot arithmetic cannot be expressed portably in SQL, so the siblings are
// shifted one by one, each with the same bulk rewrite reparent uses. The
// order matters: pulling down walks the selection backwards so a subtree
// never lands on a still-occupied slot, and the outermost shift is where a
// full parent shows up as ErrTooManyChildren. Pulling up walks forward,
// each subtree dropping into the slot its predecessor just left.
func (e *Engine) pullNodes(ctx context.Context, ex Executor, dir pullDirection,
	treeID int64, fromPath string, depth int) error {

	if depth == 0 {
		return nil
	}
	o := e.opts

	where := fmt.Sprintf("%s = ? AND %s >= ? AND %s = ?",
		o.TreeIDColumn, o.PathColumn, o.DepthColumn)
	args := []any{treeID, fromPath, depth}
	if parentPath := fromPath[:len(fromPath)-o.StepLen]; parentPath != "" {
		if bound, err := IncPath(parentPath, o.StepLen); err == nil {
			where += fmt.Sprintf(" AND %s < ?", o.PathColumn)
			args = append(args, bound)
		} else {
			// The parent occupies the last slot of its own window, so no
			// range bound exists; keep cousins out with a prefix test.
			where += fmt.Sprintf(" AND %s LIKE ? || '%%'", o.PathColumn)
			args = append(args, parentPath)
		}
	}

	rows, err := ex.QueryContext(ctx, fmt.Sprintf(
		"SELECT %s, %s FROM %s WHERE %s ORDER BY %s",
		o.PKColumn, o.PathColumn, o.Table, where, o.PathColumn,
	), args...)
	if err != nil {
		return fmt.Errorf("select siblings from %q: %w", fromPath, err)
	}
	type sibling struct {
		id   int64
		path string
	}
	var siblings []sibling
	for rows.Next() {
		var s sibling
		if err := rows.Scan(&s.id, &s.path); err != nil {
			rows.Close()
			return fmt.Errorf("scan sibling: %w", err)
		}
		siblings = append(siblings, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate siblings: %w", err)
	}

	var prevPath string
	switch dir {
	case pullDown:
		if len(siblings) == 0 {
			return nil
		}
		for i, j := 0, len(siblings)-1; i < j; i, j = i+1, j-1 {
			siblings[i], siblings[j] = siblings[j], siblings[i]
		}
		prevPath, err = IncPath(siblings[0].path, o.StepLen)
		if err != nil {
			// The last sibling already sits in the last slot.
			return fmt.Errorf("pull down at %q: %w", fromPath, ErrTooManyChildren)
		}
	case pullUp:
		prevPath = fromPath
	}

	// Strictly sequential: each shift's destination is the previous shift's
	// source, freshly written.
	for _, s := range siblings {
		slog.Debug("pulling sibling subtree",
			"node", s.id, "from", s.path, "to", prevPath, "tree", treeID)
		if err := e.updateSubtree(ctx, ex, treeID, prevPath, depth, treeID, s.path, depth); err != nil {
			return err
		}
		prevPath = s.path
	}
	return nil
}

// RebuildAllTrees recomputes tree id, path and depth for every row from
// nothing but the parent references. Roots get sequential tree ids in
// orderBy order (primary key if empty) and each node's children are packed
// into slots from the lowest up, recursively.
//
// Rebuilding rewrites paths in place, so the (tree_id, path) unique index
// will pass through transient duplicates on engines that check per row;
// callers may drop the index first and recreate it after (see the store's
// index helpers).
func (e *Engine) RebuildAllTrees(ctx context.Context, ex Executor, orderBy string) error {
	token := newOpToken()
	o := e.opts
	if orderBy == "" {
		orderBy = o.PKColumn
	}
	if !identPattern.MatchString(orderBy) {
		return e.finish("rebuild all trees", token,
			fmt.Errorf("invalid order-by column %q", orderBy))
	}

	roots, err := e.selectIDs(ctx, ex, fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s IS NULL ORDER BY %s",
		o.PKColumn, o.Table, o.ParentIDColumn, orderBy,
	))
	if err != nil {
		return e.finish("rebuild all trees", token, fmt.Errorf("select roots: %w", err))
	}
	for i, rootID := range roots {
		treeID := int64(i + 1)
		if _, err := ex.ExecContext(ctx, fmt.Sprintf(
			"UPDATE %s SET %s = ?, %s = '', %s = 0 WHERE %s = ?",
			o.Table, o.TreeIDColumn, o.PathColumn, o.DepthColumn, o.PKColumn,
		), treeID, rootID); err != nil {
			return e.finish("rebuild all trees", token,
				fmt.Errorf("reset root %d: %w", rootID, err))
		}
		if err := e.rebuildSubtree(ctx, ex, rootID, "", 0, treeID, orderBy); err != nil {
			return e.finish("rebuild all trees", token, err)
		}
		rebuiltTrees.Inc()
	}
	return e.finish("rebuild all trees", token, nil, "trees", len(roots))
}

// rebuildSubtree assigns sequential slots to rootID's children in orderBy
// order and recurses depth first.
func (e *Engine) rebuildSubtree(ctx context.Context, ex Executor, rootID int64,
	rootPath string, rootDepth int, treeID int64, orderBy string) error {

	o := e.opts
	children, err := e.selectIDs(ctx, ex, fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = ? ORDER BY %s",
		o.PKColumn, o.Table, o.ParentIDColumn, orderBy,
	), rootID)
	if err != nil {
		return fmt.Errorf("select children of %d: %w", rootID, err)
	}

	path := rootPath + firstSegment(o.StepLen)
	depth := rootDepth + 1
	for i, childID := range children {
		if i > 0 {
			if path, err = IncPath(path, o.StepLen); err != nil {
				return fmt.Errorf("rebuild under %d: %w", rootID, ErrTooManyChildren)
			}
		}
		if _, err := ex.ExecContext(ctx, fmt.Sprintf(
			"UPDATE %s SET %s = ?, %s = ?, %s = ? WHERE %s = ?",
			o.Table, o.PathColumn, o.DepthColumn, o.TreeIDColumn, o.PKColumn,
		), path, depth, treeID, childID); err != nil {
			return fmt.Errorf("rebuild node %d: %w", childID, err)
		}
		if err := e.rebuildSubtree(ctx, ex, childID, path, depth, treeID, orderBy); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) selectIDs(ctx context.Context, ex Executor, query string, args ...any) ([]int64, error) {
	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
