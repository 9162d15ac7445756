package commands

import (
	"context"

	"github.com/spf13/cobra"

	"tableflip.dev/grid/pkg/commands/options"
	"tableflip.dev/grid/pkg/runner/peek"
)

func addPeek(topLevel *cobra.Command) {
	to := &options.TableOptions{}

	cmd := &cobra.Command{
		Use:   "peek",
		Short: "Fetch one page and inspect it column by column.",
		Example: `
grid peek --endpoint http://localhost:8080/api/items
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(to)
			if err != nil {
				return err
			}
			p := peek.UI{Service: svc}
			return p.Do(context.Background())
		},
	}

	options.AddTableArgs(cmd, to)
	options.AddStateArgs(cmd, to)

	topLevel.AddCommand(cmd)
}
