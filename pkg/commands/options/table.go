// Package options defines shared flag helpers for CLI commands.
package options

import (
	"time"

	"github.com/spf13/cobra"
)

// TableOptions captures how one table instance binds to its endpoint.
type TableOptions struct {
	Endpoint string
	Mode     string
	Method   string
	Key      string
	Columns  string
	ID       string
	Href     string

	PerPage   int
	Page      int
	SortBy    string
	SortOrder string
	Search    string

	NoPersist bool
}

// AddTableArgs wires the endpoint and protocol flags on the command.
func AddTableArgs(cmd *cobra.Command, o *TableOptions) {
	cmd.Flags().StringVarP(&o.Endpoint, "endpoint", "e", "",
		"Data endpoint URL.")
	_ = cmd.MarkFlagRequired("endpoint")
	cmd.Flags().StringVarP(&o.Mode, "mode", "m", "simple",
		"Request protocol mode, one of 'simple' or 'datatables'.")
	cmd.Flags().StringVar(&o.Method, "method", "GET",
		"HTTP method, GET or POST.")
	cmd.Flags().StringVar(&o.Key, "key", "",
		"State key for persisted table state; derived from the endpoint when empty.")
	cmd.Flags().StringVarP(&o.Columns, "columns", "c", "",
		"Comma separated columns, each 'key[:Label]', '*key' pins, '~key' disables sorting. Inferred from the first row when empty.")
	cmd.Flags().StringVar(&o.ID, "id", "id",
		"Row field used as the primary key.")
	cmd.Flags().StringVar(&o.Href, "href", "",
		"Row action URL template; '{id}' is replaced with the row's primary key.")
	cmd.Flags().BoolVar(&o.NoPersist, "no-persist", false,
		"Do not restore or persist table state.")
}

// AddStateArgs registers the initial-state override flags.
func AddStateArgs(cmd *cobra.Command, o *TableOptions) {
	cmd.Flags().IntVarP(&o.PerPage, "per-page", "n", 0,
		"Rows per page.")
	cmd.Flags().IntVarP(&o.Page, "page", "p", 0,
		"Page to fetch.")
	cmd.Flags().StringVar(&o.SortBy, "sort-by", "",
		"Column key to sort by.")
	cmd.Flags().StringVar(&o.SortOrder, "order", "asc",
		"Sort order, asc or desc.")
	cmd.Flags().StringVarP(&o.Search, "search", "s", "",
		"Search term.")
}

// BrowseOptions switches the interactive widgets.
type BrowseOptions struct {
	Refresh    time.Duration
	NoSearch   bool
	NoSelect   bool
	NoPaginate bool
	NoInfo     bool
}

// AddBrowseArgs registers the interactive-only flags.
func AddBrowseArgs(cmd *cobra.Command, o *BrowseOptions) {
	cmd.Flags().DurationVar(&o.Refresh, "refresh", 0,
		"Auto-refresh interval, e.g. 30s. Off when zero.")
	cmd.Flags().BoolVar(&o.NoSearch, "no-search", false,
		"Disable the search box.")
	cmd.Flags().BoolVar(&o.NoSelect, "no-select", false,
		"Disable row selection.")
	cmd.Flags().BoolVar(&o.NoPaginate, "no-paginate", false,
		"Disable the pagination controls.")
	cmd.Flags().BoolVar(&o.NoInfo, "no-info", false,
		"Disable the info line.")
}
