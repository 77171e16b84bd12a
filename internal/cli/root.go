package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hierdb/mptree"
	"github.com/hierdb/mptree/internal/store"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	DBPath     string
	ConfigPath string
	Verbose    bool
}

// NewRootCommand creates the root command for the mptree CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "mptree",
		Short: "Materialized path trees over a flat SQL table",
		Long: `Manage hierarchies stored as materialized path rows in a single
relational table: create the table, insert nodes, move and delete whole
subtrees, verify structural invariants and rebuild paths from the
adjacency relation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.Verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: level,
			})))
		},
	}

	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "tree.db", "SQLite database path")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "CUE tree configuration (built-in defaults when omitted)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewTreeCommand(opts))
	cmd.AddCommand(NewMoveCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewDetachCommand(opts))
	cmd.AddCommand(NewRebuildCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewLoadCommand(opts))

	return cmd
}

// openEnv resolves the tree configuration and opens the backing store.
// The caller owns the store and must Close it.
func (o *RootOptions) openEnv() (*store.Store, *mptree.Options, error) {
	treeOpts, err := LoadConfig(o.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(o.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return st, treeOpts, nil
}
