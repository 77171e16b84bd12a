package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hierdb/mptree"
)

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the structural invariants of every stored tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, o, err := rootOpts.openEnv()
			if err != nil {
				return err
			}
			defer st.Close()

			nodes, err := mptree.FetchAll(cmd.Context(), st.Executor(), o)
			if err != nil {
				return err
			}
			violations := mptree.CheckInvariants(nodes, o)
			for _, v := range violations {
				fmt.Fprintln(cmd.ErrOrStderr(), v)
			}
			if len(violations) > 0 {
				return fmt.Errorf("%d invariant violation(s) in %d node(s)", len(violations), len(nodes))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d node(s)\n", len(nodes))
			return nil
		},
	}
}
