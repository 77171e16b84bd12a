package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hierdb/mptree"
)

// NewRebuildCommand creates the rebuild command.
func NewRebuildCommand(rootOpts *RootOptions) *cobra.Command {
	var orderBy string

	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Recompute every tree id, path and depth from the parent links",
		Long: `Recompute the managed columns of every row from the parent id
relation alone, packing children into the lowest slots. Use after bulk
imports that only set parent ids, or to repair corrupted paths.

The unique path index is dropped for the duration of the rebuild and
recreated afterwards, since rewriting paths in place can pass through
transient duplicates.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, o, err := rootOpts.openEnv()
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			if err := st.DropPathIndex(ctx, o); err != nil {
				return err
			}
			eng := mptree.NewEngine(o)
			err = st.WithTx(ctx, func(ex mptree.Executor) error {
				return eng.RebuildAllTrees(ctx, ex, orderBy)
			})
			if err != nil {
				return err
			}
			if err := st.CreatePathIndex(ctx, o); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "rebuild complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&orderBy, "order-by", "", "column deciding sibling order (default: primary key)")
	return cmd
}
