package mptree

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testForest() []Node {
	id2 := int64(1)
	id3 := int64(1)
	id4 := int64(3)
	return []Node{
		{ID: 1, TreeID: 1, Path: "", Depth: 0},
		{ID: 2, ParentID: &id2, TreeID: 1, Path: "000", Depth: 1},
		{ID: 3, ParentID: &id3, TreeID: 1, Path: "001", Depth: 1},
		{ID: 4, ParentID: &id4, TreeID: 1, Path: "001000", Depth: 2},
		{ID: 5, TreeID: 2, Path: "", Depth: 0},
	}
}

func TestCheckInvariantsClean(t *testing.T) {
	o, err := NewOptions("nodes", "id", "parent_id")
	require.NoError(t, err)

	assert.Empty(t, CheckInvariants(testForest(), o))
}

func TestCheckInvariantsViolations(t *testing.T) {
	o, err := NewOptions("nodes", "id", "parent_id")
	require.NoError(t, err)

	corrupt := func(mutate func(nodes []Node) []Node) []Node {
		return mutate(testForest())
	}

	tests := []struct {
		name string
		rows []Node
		want string
	}{
		{
			"duplicate position",
			corrupt(func(n []Node) []Node { n[2].Path = "000"; return n }),
			"share position",
		},
		{
			"ragged path",
			corrupt(func(n []Node) []Node { n[1].Path = "00"; return n }),
			"not whole segments",
		},
		{
			"depth mismatch",
			corrupt(func(n []Node) []Node { n[1].Depth = 2; return n }),
			"does not match path",
		},
		{
			"path beyond capacity",
			corrupt(func(n []Node) []Node {
				n[3].Path = strings.Repeat("0", 258)
				n[3].Depth = 86
				return n
			}),
			"exceeds pathlen",
		},
		{
			"symbol outside the alphabet",
			corrupt(func(n []Node) []Node { n[1].Path = "00a"; return n }),
			"outside the alphabet",
		},
		{
			"root with a path",
			corrupt(func(n []Node) []Node { n[0].Path = "000"; n[0].Depth = 1; return n }),
			"non-root position",
		},
		{
			"missing parent",
			corrupt(func(n []Node) []Node { bad := int64(99); n[1].ParentID = &bad; return n }),
			"missing parent",
		},
		{
			"tree id differs from parent",
			corrupt(func(n []Node) []Node { n[3].TreeID = 2; return n }),
			"differs from parent",
		},
		{
			"two roots in one tree",
			corrupt(func(n []Node) []Node { n[4].TreeID = 1; return n }),
			"has 2 roots",
		},
		{
			"child outside parent segment",
			corrupt(func(n []Node) []Node { n[3].Path = "000000"; return n }),
			"plus one segment",
		},
		{
			"non-positive tree id",
			corrupt(func(n []Node) []Node { n[4].TreeID = 0; return n }),
			"non-positive tree id",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := CheckInvariants(tt.rows, o)
			require.NotEmpty(t, errs)
			found := false
			for _, err := range errs {
				if strings.Contains(err.Error(), tt.want) {
					found = true
				}
			}
			assert.True(t, found, "no violation mentions %q in %v", tt.want, errs)
		})
	}
}
