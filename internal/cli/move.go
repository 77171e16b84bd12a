package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hierdb/mptree"
)

// NewMoveCommand creates the move command.
func NewMoveCommand(rootOpts *RootOptions) *cobra.Command {
	var before, after, top, bottom int64

	cmd := &cobra.Command{
		Use:   "move ID",
		Short: "Move a subtree relative to a sibling or under a new parent",
		Long: `Move the subtree rooted at ID. Exactly one target flag is required:

  --before SIBLING   place it immediately before SIBLING
  --after SIBLING    place it immediately after SIBLING
  --top PARENT       make it the first child of PARENT
  --bottom PARENT    make it the last child of PARENT`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nodeID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid node id %q", args[0])
			}

			set := 0
			for _, name := range []string{"before", "after", "top", "bottom"} {
				if cmd.Flags().Changed(name) {
					set++
				}
			}
			if set != 1 {
				return fmt.Errorf("exactly one of --before, --after, --top, --bottom is required")
			}

			st, o, err := rootOpts.openEnv()
			if err != nil {
				return err
			}
			defer st.Close()

			eng := mptree.NewEngine(o)
			return st.WithTx(cmd.Context(), func(ex mptree.Executor) error {
				ctx := cmd.Context()
				switch {
				case cmd.Flags().Changed("before"):
					return eng.MoveSubtreeBefore(ctx, ex, nodeID, before)
				case cmd.Flags().Changed("after"):
					return eng.MoveSubtreeAfter(ctx, ex, nodeID, after)
				case cmd.Flags().Changed("top"):
					return eng.MoveSubtreeToTop(ctx, ex, nodeID, top)
				default:
					return eng.MoveSubtreeToBottom(ctx, ex, nodeID, bottom)
				}
			})
		},
	}

	cmd.Flags().Int64Var(&before, "before", 0, "sibling to place the subtree before")
	cmd.Flags().Int64Var(&after, "after", 0, "sibling to place the subtree after")
	cmd.Flags().Int64Var(&top, "top", 0, "parent whose first child the subtree becomes")
	cmd.Flags().Int64Var(&bottom, "bottom", 0, "parent whose last child the subtree becomes")
	return cmd
}
