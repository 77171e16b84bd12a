package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hierdb/mptree"
	"github.com/hierdb/mptree/internal/store"
)

// FixtureNode is one node of a YAML forest fixture.
type FixtureNode struct {
	Name     string        `yaml:"name"`
	Children []FixtureNode `yaml:"children"`
}

// Fixture is a YAML forest fixture: a list of root nodes.
type Fixture struct {
	Forest []FixtureNode `yaml:"forest"`
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load FIXTURE",
		Short: "Seed the table from a YAML forest fixture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading fixture: %w", err)
			}
			var fixture Fixture
			if err := yaml.Unmarshal(data, &fixture); err != nil {
				return fmt.Errorf("parsing fixture: %w", err)
			}

			st, o, err := rootOpts.openEnv()
			if err != nil {
				return err
			}
			defer st.Close()

			var count int
			err = st.WithTx(cmd.Context(), func(ex mptree.Executor) error {
				for _, root := range fixture.Forest {
					n, err := insertFixtureNode(cmd.Context(), st, ex, o, nil, root)
					if err != nil {
						return err
					}
					count += n
				}
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d node(s)\n", count)
			return nil
		},
	}
}

func insertFixtureNode(ctx context.Context, st *store.Store, ex mptree.Executor,
	o *mptree.Options, parentID *int64, node FixtureNode) (int, error) {

	id, err := st.InsertNode(ctx, ex, o, parentID, node.Name)
	if err != nil {
		return 0, fmt.Errorf("inserting %q: %w", node.Name, err)
	}
	count := 1
	for _, child := range node.Children {
		n, err := insertFixtureNode(ctx, st, ex, o, &id, child)
		if err != nil {
			return 0, err
		}
		count += n
	}
	return count, nil
}
