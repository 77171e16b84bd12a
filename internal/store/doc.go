// Package store provides the SQL backing store for mptree node tables.
//
// Two drivers are supported:
//
//   - SQLite (default): WAL mode, NORMAL synchronous, 5-second busy
//     timeout, foreign keys on, single writer connection.
//   - Postgres via the pgx stdlib driver.
//
// The engine builds statements with `?` placeholders; on Postgres the
// store's Executor wrappers rebind them to $1..$N before execution, so the
// engine itself stays dialect-free.
//
// The store also owns the concrete node-table DDL used by the CLI: primary
// key, nullable self-referencing parent, a name column, the three managed
// tree columns and the required unique index over (tree_id, path). The
// path column is created with byte collation (Postgres COLLATE "C"; the
// SQLite default already compares bytes), which the range predicates
// depend on.
package store
