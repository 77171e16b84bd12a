package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hierdb/mptree"
)

// NameColumn is the one payload column of the store-managed node table.
const NameColumn = "name"

// CreateTreeTable creates the node table described by opts, plus the
// required unique index over (tree_id, path). Idempotent.
func (s *Store) CreateTreeTable(ctx context.Context, o *mptree.Options) error {
	var pk, collate string
	if s.Postgres() {
		pk = "BIGSERIAL PRIMARY KEY"
		collate = ` COLLATE "C"`
	} else {
		pk = "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %[1]s (
	%[2]s %[3]s,
	%[4]s BIGINT NULL REFERENCES %[1]s(%[2]s) ON DELETE CASCADE,
	%[5]s TEXT NOT NULL DEFAULT '',
	%[6]s BIGINT NOT NULL,
	%[7]s VARCHAR(%[8]d)%[9]s NOT NULL,
	%[10]s INTEGER NOT NULL
)`,
		o.Table, o.PKColumn, pk, o.ParentIDColumn, NameColumn,
		o.TreeIDColumn, o.PathColumn, o.PathLen, collate, o.DepthColumn,
	)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", o.Table, err)
	}
	return s.CreatePathIndex(ctx, o)
}

// CreatePathIndex creates the unique (tree_id, path) index. Needed after a
// DropPathIndex around a full rebuild, or when arming an existing table.
func (s *Store) CreatePathIndex(ctx context.Context, o *mptree.Options) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(
		"CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s, %s)",
		o.PathIndexName(), o.Table, o.TreeIDColumn, o.PathColumn,
	))
	if err != nil {
		return fmt.Errorf("create path index: %w", err)
	}
	return nil
}

// DropPathIndex drops the unique (tree_id, path) index. A full rebuild
// rewrites paths in place and may pass through transient duplicates, so
// dropping the index around it is both a correctness and a speed measure.
func (s *Store) DropPathIndex(ctx context.Context, o *mptree.Options) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf("DROP INDEX IF EXISTS %s", o.PathIndexName()))
	if err != nil {
		return fmt.Errorf("drop path index: %w", err)
	}
	return nil
}

// InsertNode plans and writes one node row. The position triple is
// resolved immediately before the insert statement, mirroring the
// before/after physical-insert hook pair: plan, resolve, materialize.
func (s *Store) InsertNode(ctx context.Context, ex mptree.Executor, o *mptree.Options,
	parentID *int64, name string) (int64, error) {

	plan := o.PlanInsert(parentID)
	pos, err := plan.Resolve(ctx, ex)
	if err != nil {
		return 0, err
	}

	var parentArg any
	if parentID != nil {
		parentArg = *parentID
	}
	insert := fmt.Sprintf(
		"INSERT INTO %s (%s, %s, %s, %s, %s) VALUES (?, ?, ?, ?, ?)",
		o.Table, o.ParentIDColumn, NameColumn, o.TreeIDColumn, o.PathColumn, o.DepthColumn,
	)
	args := []any{parentArg, name, pos.TreeID, pos.Path, pos.Depth}

	if s.Postgres() {
		var id int64
		err := ex.QueryRowContext(ctx, insert+fmt.Sprintf(" RETURNING %s", o.PKColumn), args...).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("insert node: %w", err)
		}
		return id, nil
	}
	res, err := ex.ExecContext(ctx, insert, args...)
	if err != nil {
		return 0, fmt.Errorf("insert node: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert node id: %w", err)
	}
	return id, nil
}

// NamedNode is a node row plus the store's payload column.
type NamedNode struct {
	mptree.Node
	Name string
}

// FetchNamedNodes loads the forest with names, in (tree_id, path) order,
// ready for NewTreeIter.
func FetchNamedNodes(ctx context.Context, ex mptree.Executor, o *mptree.Options) ([]NamedNode, error) {
	rows, err := ex.QueryContext(ctx, fmt.Sprintf(
		"SELECT %s, %s FROM %s ORDER BY %s, %s",
		o.Columns(), NameColumn, o.Table, o.TreeIDColumn, o.PathColumn,
	))
	if err != nil {
		return nil, fmt.Errorf("query named nodes: %w", err)
	}
	defer rows.Close()

	var nodes []NamedNode
	for rows.Next() {
		var n NamedNode
		var parentID sql.NullInt64
		if err := rows.Scan(&n.ID, &parentID, &n.TreeID, &n.Path, &n.Depth, &n.Name); err != nil {
			return nil, fmt.Errorf("scan named node: %w", err)
		}
		if parentID.Valid {
			n.ParentID = &parentID.Int64
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate named nodes: %w", err)
	}
	return nodes, nil
}
