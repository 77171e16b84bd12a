package mptree

import (
	"fmt"
	"regexp"
	"strings"
)

// Default column names for the three managed tree columns.
const (
	DefaultPathColumn   = "mp_path"
	DefaultDepthColumn  = "mp_depth"
	DefaultTreeIDColumn = "mp_tree_id"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Options describes one tree table: its name, the five semantic columns and
// the path geometry. It is the process-wide configuration every builder and
// the engine consume.
//
// Options must not change after the first node row is persisted: StepLen,
// PathLen and the column roles are baked into every stored path, and
// changing them corrupts existing trees. This is a precondition, not
// enforced at runtime.
//
// The path column's collation must compare bytes in byte order (SQLite
// default, Postgres COLLATE "C"). A locale collation silently breaks the
// sibling ordering that range predicates rely on.
type Options struct {
	Table          string
	PKColumn       string
	ParentIDColumn string
	PathColumn     string
	DepthColumn    string
	TreeIDColumn   string

	// StepLen is the number of characters per path segment, PathLen the
	// capacity of the path column. Together with the alphabet size they fix
	// the two tree limits, MaxChildren and MaxDepth.
	StepLen int
	PathLen int
}

// Option adjusts non-default Options fields in NewOptions.
type Option func(*Options)

// WithPathColumn overrides the path column name.
func WithPathColumn(name string) Option { return func(o *Options) { o.PathColumn = name } }

// WithDepthColumn overrides the depth column name.
func WithDepthColumn(name string) Option { return func(o *Options) { o.DepthColumn = name } }

// WithTreeIDColumn overrides the tree id column name.
func WithTreeIDColumn(name string) Option { return func(o *Options) { o.TreeIDColumn = name } }

// WithStepLen overrides the segment width. Larger steps allow more children
// per node at the cost of nesting depth.
func WithStepLen(steplen int) Option { return func(o *Options) { o.StepLen = steplen } }

// WithPathLen overrides the path column capacity.
func WithPathLen(pathlen int) Option { return func(o *Options) { o.PathLen = pathlen } }

// NewOptions validates a schema descriptor and returns the frozen
// configuration. The primary key must be a single integer column and the
// parent column a nullable self-reference to it; both are the caller's
// schema to guarantee, only the names are checked here.
func NewOptions(table, pkColumn, parentIDColumn string, opts ...Option) (*Options, error) {
	o := &Options{
		Table:          table,
		PKColumn:       pkColumn,
		ParentIDColumn: parentIDColumn,
		PathColumn:     DefaultPathColumn,
		DepthColumn:    DefaultDepthColumn,
		TreeIDColumn:   DefaultTreeIDColumn,
		StepLen:        DefaultStepLen,
		PathLen:        DefaultPathLen,
	}
	for _, opt := range opts {
		opt(o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Options) validate() error {
	names := []string{o.Table, o.PKColumn, o.ParentIDColumn,
		o.PathColumn, o.DepthColumn, o.TreeIDColumn}
	for _, name := range names {
		if !identPattern.MatchString(name) {
			return fmt.Errorf("invalid identifier %q", name)
		}
	}
	seen := make(map[string]bool, len(names)-1)
	for _, name := range names[1:] {
		lower := strings.ToLower(name)
		if seen[lower] {
			return fmt.Errorf("column %q used for more than one role", name)
		}
		seen[lower] = true
	}
	if o.StepLen < 1 {
		return fmt.Errorf("steplen must be positive, got %d", o.StepLen)
	}
	if o.PathLen < o.StepLen {
		return fmt.Errorf("pathlen %d cannot hold a single %d-character segment", o.PathLen, o.StepLen)
	}
	return nil
}

// MaxChildren is the number of distinct child slots under one node:
// len(Alphabet) raised to StepLen.
func (o *Options) MaxChildren() int64 {
	n := int64(1)
	for i := 0; i < o.StepLen; i++ {
		n *= int64(len(Alphabet))
	}
	return n
}

// MaxDepth is the deepest level a node can sit at, counting the root as
// level one: PathLen/StepLen full segments plus the root itself.
func (o *Options) MaxDepth() int {
	return o.PathLen/o.StepLen + 1
}

// PathIndexName is the conventional name of the required unique index over
// (tree_id, path).
func (o *Options) PathIndexName() string {
	return strings.Join([]string{o.Table, o.TreeIDColumn, o.PathColumn}, "__")
}
