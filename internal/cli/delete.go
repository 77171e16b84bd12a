package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hierdb/mptree"
)

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete the subtree rooted at ID and close the sibling gap",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nodeID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid node id %q", args[0])
			}

			st, o, err := rootOpts.openEnv()
			if err != nil {
				return err
			}
			defer st.Close()

			eng := mptree.NewEngine(o)
			return st.WithTx(cmd.Context(), func(ex mptree.Executor) error {
				return eng.DeleteSubtree(cmd.Context(), ex, nodeID)
			})
		},
	}
}
