package options

import "github.com/spf13/cobra"

// OutputOptions captures common print flags.
type OutputOptions struct {
	Wide    bool
	NoColor bool
}

// AddOutputArgs wires the print flags on the provided command.
func AddOutputArgs(cmd *cobra.Command, o *OutputOptions) {
	cmd.Flags().BoolVarP(&o.Wide, "wide", "w", false,
		"Do not truncate wide columns.")
	cmd.Flags().BoolVar(&o.NoColor, "no-color", false,
		"Disable colored output.")
}
