package mptree

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Position is the resolved (tree_id, path, depth) triple for a node row.
type Position struct {
	TreeID int64
	Path   string
	Depth  int
}

// InsertPlan is the deferred position computation for a node about to be
// inserted. The plan is created before the physical insert (the parent may
// itself be uncommitted work in the same transaction) and resolved exactly
// once, when the insert statement needs the column values.
//
// Resolve memoizes its outcome, success or failure, so the two insert-time
// hook points (compute values, then materialize them back onto the object)
// observe the same result.
//
// The last-child lookup underneath is a read-then-write race against
// concurrent inserts below the same parent; callers serialize externally.
type InsertPlan struct {
	opts     *Options
	parentID *int64

	resolved bool
	pos      Position
	err      error
}

// PlanInsert creates the deferred position for a new node. A nil parentID
// plans a new root.
func (o *Options) PlanInsert(parentID *int64) *InsertPlan {
	return &InsertPlan{opts: o, parentID: parentID}
}

// Resolve computes the position on first call and returns the memoized
// result thereafter.
//
// Roots get the next unused tree id, an empty path and depth zero. Children
// get the slot after the parent's current last child, or the first slot if
// there is none; ErrTooManyChildren when the parent's slots are exhausted,
// ErrPathTooDeep when the new path would not fit the path column.
func (p *InsertPlan) Resolve(ctx context.Context, ex Executor) (Position, error) {
	if p.resolved {
		return p.pos, p.err
	}
	p.pos, p.err = p.compute(ctx, ex)
	p.resolved = true
	return p.pos, p.err
}

func (p *InsertPlan) compute(ctx context.Context, ex Executor) (Position, error) {
	if p.parentID == nil {
		return p.computeRoot(ctx, ex)
	}
	return p.computeChild(ctx, ex, *p.parentID)
}

func (p *InsertPlan) computeRoot(ctx context.Context, ex Executor) (Position, error) {
	o := p.opts
	var maxTreeID sql.NullInt64
	err := ex.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT MAX(%s) FROM %s", o.TreeIDColumn, o.Table,
	)).Scan(&maxTreeID)
	if err != nil {
		return Position{}, fmt.Errorf("plan root insert: %w", err)
	}
	treeID := int64(1)
	if maxTreeID.Valid {
		treeID = maxTreeID.Int64 + 1
	}
	return Position{TreeID: treeID, Path: "", Depth: 0}, nil
}

// computeChild reads the parent's position and the current last child path
// in one statement, so both come from the same snapshot.
func (p *InsertPlan) computeChild(ctx context.Context, ex Executor, parentID int64) (Position, error) {
	o := p.opts
	var (
		treeID        int64
		depth         int
		parentPath    string
		lastChildPath sql.NullString
	)
	err := ex.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT %[2]s, %[3]s + 1, %[4]s,
			(SELECT MAX(c.%[4]s) FROM %[1]s c WHERE c.%[5]s = ?)
		FROM %[1]s WHERE %[6]s = ?`,
		o.Table, o.TreeIDColumn, o.DepthColumn, o.PathColumn, o.ParentIDColumn, o.PKColumn,
	), parentID, parentID).Scan(&treeID, &depth, &parentPath, &lastChildPath)
	if errors.Is(err, sql.ErrNoRows) {
		return Position{}, fmt.Errorf("plan insert: parent node %d not found", parentID)
	}
	if err != nil {
		return Position{}, fmt.Errorf("plan insert under %d: %w", parentID, err)
	}

	var path string
	if lastChildPath.String == "" {
		// First child takes the lowest slot.
		path = parentPath + firstSegment(o.StepLen)
	} else {
		path, err = IncPath(lastChildPath.String, o.StepLen)
		if err != nil {
			return Position{}, fmt.Errorf("plan insert under %d: %w", parentID, ErrTooManyChildren)
		}
	}
	// Independent of the children limit: the slot may exist but not fit.
	if len(path) > o.PathLen {
		return Position{}, fmt.Errorf("plan insert under %d: %w", parentID, ErrPathTooDeep)
	}
	return Position{TreeID: treeID, Path: path, Depth: depth}, nil
}
