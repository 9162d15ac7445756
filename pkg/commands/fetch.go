package commands

import (
	"context"

	"github.com/spf13/cobra"

	"tableflip.dev/grid/pkg/commands/options"
	"tableflip.dev/grid/pkg/runner/fetch"
)

func addFetch(topLevel *cobra.Command) {
	to := &options.TableOptions{}
	oo := &options.OutputOptions{}

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch one page of rows and print it.",
		Example: `
grid fetch --endpoint http://localhost:8080/api/items
grid fetch -e http://localhost:8080/api/items -s tuna --sort-by name --order desc
grid fetch -e http://localhost:8080/api/datatables -m datatables -p 3 -n 25
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(to)
			if err != nil {
				return err
			}
			f := fetch.Fetch{
				Service: svc,
				Wide:    oo.Wide,
				NoColor: oo.NoColor,
			}
			return f.Do(context.Background())
		},
	}

	options.AddTableArgs(cmd, to)
	options.AddStateArgs(cmd, to)
	options.AddOutputArgs(cmd, oo)

	topLevel.AddCommand(cmd)
}
