package commands

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"tableflip.dev/grid/pkg/server"
)

func addServe(topLevel *cobra.Command) {
	addr := ":8080"
	rows := 112
	verbose := false

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a synthetic dataset for trying out the client.",
		Long: "Serve hosts a small endpoint that answers in every response " +
			"shape the client understands: DataTables envelopes on " +
			"/api/datatables, plain items on /api/items, a wrapped " +
			"envelope on /api/wrapped, a bare array on /api/bare, and " +
			"a deliberately malformed payload on /api/broken.",
		Example: `
grid serve
grid serve --addr :9090 --rows 500
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logrus.New()
			log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}
			return server.New(rows, log).Run(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", addr, "Listen address.")
	cmd.Flags().IntVar(&rows, "rows", rows, "Dataset size.")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging.")

	topLevel.AddCommand(cmd)
}
