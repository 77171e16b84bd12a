package mptree

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

func TestFilterSQL(t *testing.T) {
	o, err := NewOptions("nodes", "id", "parent_id")
	require.NoError(t, err)
	parentID := int64(42)

	tests := []struct {
		name   string
		filter Filter
	}{
		{"descendants", o.FilterDescendants(1, "000", false)},
		{"descendants_and_self", o.FilterDescendants(1, "000", true)},
		{"descendants_last_slot", o.FilterDescendants(5, "ZZZ", false)},
		{"children", o.FilterChildren(1, "000", 1)},
		{"ancestors", o.FilterAncestors(1, "000001002", 3, false)},
		{"ancestors_and_self", o.FilterAncestors(1, "000001002", 3, true)},
		{"parent", o.FilterParent(&parentID)},
		{"parent_of_root", o.FilterParent(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := goldie.New(t)
			g.Assert(t, tt.name, []byte(fmt.Sprintf("%s\nargs: %v\n", tt.filter.Where, tt.filter.Args)))
		})
	}
}

// A root's descendant range must span every non-root path of the tree.
func TestFilterDescendantsOfRoot(t *testing.T) {
	o, err := NewOptions("nodes", "id", "parent_id")
	require.NoError(t, err)

	f := o.FilterDescendants(7, "", false)
	require.Len(t, f.Args, 2, "a root has no next-sibling bound")
	require.Equal(t, int64(7), f.Args[0])
	require.Equal(t, "", f.Args[1])
}
