package mptree

import (
	"errors"
	"fmt"
)

// The error taxonomy mirrors the two independent tree limits plus the one
// structural precondition on moves. ErrTooManyChildren and ErrPathTooDeep
// both wrap ErrPathOverflow, so errors.Is(err, ErrPathOverflow) matches any
// position that path arithmetic cannot represent.
var (
	// ErrPathOverflow is the base error for path calculations: the requested
	// position does not fit the path encoding.
	ErrPathOverflow = errors.New("mptree: path overflow")

	// ErrTooManyChildren reports that a parent already holds the maximum
	// number of child slots (Options.MaxChildren). Raised at insert time and
	// by any move that must allocate a sibling slot past the last one.
	ErrTooManyChildren = fmt.Errorf("%w: too many children", ErrPathOverflow)

	// ErrPathTooDeep reports that the new node's path would exceed the
	// configured path column capacity (Options.PathLen). Raised only at
	// insert time.
	ErrPathTooDeep = fmt.Errorf("%w: path too deep", ErrPathOverflow)

	// ErrMovingToDescendant reports an attempt to move a subtree inside
	// itself. Raised before any write happens.
	ErrMovingToDescendant = errors.New("mptree: cannot move a subtree into its own descendant")
)

// IsPathOverflow reports whether err is any path-arithmetic overflow,
// including the two specialized limit errors.
func IsPathOverflow(err error) bool { return errors.Is(err, ErrPathOverflow) }

// IsTooManyChildren reports whether err is the children-limit error.
func IsTooManyChildren(err error) bool { return errors.Is(err, ErrTooManyChildren) }

// IsPathTooDeep reports whether err is the nesting-limit error.
func IsPathTooDeep(err error) bool { return errors.Is(err, ErrPathTooDeep) }
