package mptree

import (
	"fmt"
	"sort"
	"strings"
)

// CheckInvariants verifies the structural invariants of a whole forest
// snapshot and returns one error per violation (nil slice when clean):
//
//  1. (tree_id, path) is unique.
//  2. A node's path is its parent's path plus exactly one segment.
//  3. Sibling segments are distinct and sorted in alphabet order (implied
//     by 1 and byte order of the snapshot's paths).
//  4. depth == len(path)/steplen and a node shares its parent's tree id.
//  5. len(path) <= pathlen.
//
// The snapshot should contain every row of the table; missing parents are
// reported, not skipped.
func CheckInvariants(nodes []Node, o *Options) []error {
	var errs []error
	report := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	byID := make(map[int64]Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	type slot struct {
		treeID int64
		path   string
	}
	seen := make(map[slot]int64, len(nodes))

	for _, n := range nodes {
		key := slot{n.TreeID, n.Path}
		if prev, dup := seen[key]; dup {
			report("nodes %d and %d share position %d:%q", prev, n.ID, n.TreeID, n.Path)
		}
		seen[key] = n.ID

		if len(n.Path)%o.StepLen != 0 {
			report("node %d path %q is not whole segments", n.ID, n.Path)
			continue
		}
		if n.Depth != len(n.Path)/o.StepLen {
			report("node %d depth %d does not match path %q", n.ID, n.Depth, n.Path)
		}
		if len(n.Path) > o.PathLen {
			report("node %d path %q exceeds pathlen %d", n.ID, n.Path, o.PathLen)
		}
		for _, c := range n.Path {
			if !strings.ContainsRune(Alphabet, c) {
				report("node %d path %q contains %q outside the alphabet", n.ID, n.Path, c)
			}
		}

		if n.ParentID == nil {
			if n.Path != "" || n.Depth != 0 {
				report("root %d has non-root position %q depth %d", n.ID, n.Path, n.Depth)
			}
			continue
		}
		parent, exists := byID[*n.ParentID]
		if !exists {
			report("node %d references missing parent %d", n.ID, *n.ParentID)
			continue
		}
		if parent.TreeID != n.TreeID {
			report("node %d tree %d differs from parent %d tree %d",
				n.ID, n.TreeID, parent.ID, parent.TreeID)
		}
		if !strings.HasPrefix(n.Path, parent.Path) || len(n.Path) != len(parent.Path)+o.StepLen {
			report("node %d path %q is not parent %q plus one segment", n.ID, n.Path, parent.Path)
		}
	}

	// Tree ids must be positive and each tree needs exactly one root.
	rootsPerTree := make(map[int64]int)
	for _, n := range nodes {
		if n.TreeID < 1 {
			report("node %d has non-positive tree id %d", n.ID, n.TreeID)
		}
		if n.ParentID == nil {
			rootsPerTree[n.TreeID]++
		}
	}
	trees := make([]int64, 0, len(rootsPerTree))
	for treeID := range rootsPerTree {
		trees = append(trees, treeID)
	}
	sort.Slice(trees, func(i, j int) bool { return trees[i] < trees[j] })
	for _, treeID := range trees {
		if rootsPerTree[treeID] > 1 {
			report("tree %d has %d roots", treeID, rootsPerTree[treeID])
		}
	}
	return errs
}
