package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xlab/treeprint"

	"github.com/hierdb/mptree"
	"github.com/hierdb/mptree/internal/store"
)

// NewTreeCommand creates the tree command.
func NewTreeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tree [ID]",
		Short: "Render the forest, or the subtree rooted at ID",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, o, err := rootOpts.openEnv()
			if err != nil {
				return err
			}
			defer st.Close()

			nodes, err := store.FetchNamedNodes(cmd.Context(), st.Executor(), o)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				rootID, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid node id %q", args[0])
				}
				nodes, err = subtreeOf(nodes, rootID)
				if err != nil {
					return err
				}
			}
			RenderForest(cmd.OutOrStdout(), nodes)
			return nil
		},
	}
}

// subtreeOf narrows a (tree_id, path)-ordered snapshot to the subtree
// rooted at id, root included. Order is preserved.
func subtreeOf(nodes []store.NamedNode, id int64) ([]store.NamedNode, error) {
	var root *store.NamedNode
	for i := range nodes {
		if nodes[i].ID == id {
			root = &nodes[i]
			break
		}
	}
	if root == nil {
		return nil, fmt.Errorf("node %d not found", id)
	}
	var subtree []store.NamedNode
	for _, n := range nodes {
		if n.TreeID == root.TreeID && strings.HasPrefix(n.Path, root.Path) {
			subtree = append(subtree, n)
		}
	}
	return subtree, nil
}

// RenderForest prints one ASCII tree per top-level node in the snapshot,
// which must be sorted by (tree_id, path).
func RenderForest(w io.Writer, nodes []store.NamedNode) {
	it := mptree.NewTreeIter(nodes, func(parent, child store.NamedNode) bool {
		return parent.TreeID == child.TreeID && child.Depth == parent.Depth+1
	})
	for {
		n, children, ok := it.Next()
		if !ok {
			return
		}
		root := treeprint.NewWithRoot(nodeLabel(n))
		renderChildren(root, children)
		fmt.Fprint(w, root.String())
	}
}

func renderChildren(branch treeprint.Tree, it *mptree.TreeIter[store.NamedNode]) {
	if it == nil {
		return
	}
	for {
		n, children, ok := it.Next()
		if !ok {
			return
		}
		renderChildren(branch.AddBranch(nodeLabel(n)), children)
	}
}

func nodeLabel(n store.NamedNode) string {
	return fmt.Sprintf("%s [%d]", n.Name, n.ID)
}
