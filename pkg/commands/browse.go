package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/grid/pkg/commands/options"
	"tableflip.dev/grid/pkg/runner/browse"
)

func addBrowse(topLevel *cobra.Command) {
	to := &options.TableOptions{}
	bo := &options.BrowseOptions{}

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse a data endpoint interactively.",
		Example: `
grid browse --endpoint http://localhost:8080/api/items
grid browse -e http://localhost:8080/api/datatables -m datatables --method POST
grid browse -e https://example.com/api/units -c 'id:ID,name:Name,*status:Status' --refresh 30s
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(to)
			if err != nil {
				return err
			}

			opts := browse.DefaultOptions()
			opts.AutoRefresh = bo.Refresh
			opts.ShowSearch = !bo.NoSearch
			opts.Selectable = !bo.NoSelect
			opts.ShowPagination = !bo.NoPaginate
			opts.ShowInfo = !bo.NoInfo

			return browse.Run(svc, opts)
		},
	}

	options.AddTableArgs(cmd, to)
	options.AddStateArgs(cmd, to)
	options.AddBrowseArgs(cmd, bo)

	topLevel.AddCommand(cmd)
}
