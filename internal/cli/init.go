package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the node table and its unique path index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, o, err := rootOpts.openEnv()
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.CreateTreeTable(cmd.Context(), o); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "initialized table %s\n", o.Table)
			return nil
		},
	}
}
