package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hierdb/mptree"
)

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	var parentID int64

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Insert a node, as a root or as the last child of --parent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, o, err := rootOpts.openEnv()
			if err != nil {
				return err
			}
			defer st.Close()

			var parent *int64
			if cmd.Flags().Changed("parent") {
				parent = &parentID
			}

			var id int64
			err = st.WithTx(cmd.Context(), func(ex mptree.Executor) error {
				id, err = st.InsertNode(cmd.Context(), ex, o, parent, args[0])
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added node %d\n", id)
			return nil
		},
	}

	cmd.Flags().Int64Var(&parentID, "parent", 0, "parent node id (omit for a new root)")
	return cmd
}
