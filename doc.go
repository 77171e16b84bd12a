// Package mptree stores and manipulates trees in flat relational tables
// using the Materialized Path technique.
//
// Every node row carries three extra columns next to its primary key and
// parent reference: a tree id grouping the nodes of one tree in the forest,
// a path string built from fixed-width base-36 segments (one segment per
// ancestor level), and a depth. Descendants, children and ancestors then
// resolve to single range predicates over the (tree_id, path) unique index
// instead of recursive queries.
//
// ARCHITECTURE:
//
// The package splits into a handful of layers, leaves first:
//
//   - codec.go: pure path-segment arithmetic (IncPath).
//   - options.go: the schema descriptor and the derived tree limits.
//   - filters.go / query.go: predicate and query builders, pure functions
//     of a node's (tree_id, path, depth).
//   - planner.go: deferred computation of a new node's position.
//   - engine.go: subtree mutations (delete, detach, move, rebuild) built
//     from the filters plus a sequential sibling "pull".
//   - iterator.go: single-pass reconstruction of nested trees from flat,
//     (tree_id, path)-ordered query results.
//
// All database access goes through the Executor interface, satisfied by
// *sql.DB and *sql.Tx. The engine never opens transactions itself: every
// mutation is a sequence of statements that the caller must run inside one
// transaction and roll back as a whole on error.
//
// Concurrent mutations of the same tree are not serialized internally.
// The new-root tree id and last-child path lookups are read-then-write and
// rely on caller-provided locking or isolation.
package mptree

import (
	"context"
	"database/sql"
)

// Executor is the backing-store primitive the engine consumes. *sql.DB and
// *sql.Tx both satisfy it; mutations should be handed a transaction.
//
// Statements are built with `?` placeholders. Stores whose driver uses a
// different placeholder style (Postgres) must rebind; see internal/store.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Node is one tree row in the five semantic columns the engine manages.
// A nil ParentID marks a root.
type Node struct {
	ID       int64
	ParentID *int64
	TreeID   int64
	Path     string
	Depth    int
}

// Root reports whether the node is the root of its tree.
func (n Node) Root() bool { return n.ParentID == nil }
