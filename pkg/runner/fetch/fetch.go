package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"

	"tableflip.dev/grid/pkg/app"
	"tableflip.dev/grid/pkg/page"
	"tableflip.dev/grid/pkg/printers"
	"tableflip.dev/grid/pkg/state"
)

// Fetch runs one request cycle and pretty-prints the resulting page.
type Fetch struct {
	Service *app.Service
	Wide    bool
	NoColor bool
}

func (n *Fetch) Do(ctx context.Context) error {
	if n.Service == nil {
		return errors.New("can not fetch, no service")
	}

	q := n.Service.Query()
	n.Service.State.NextSeq()
	p, err := n.Service.Fetch(ctx, q)
	if err != nil {
		if !errors.Is(err, page.ErrUnrecognizedShape) {
			return err
		}
		// Fail-soft: unrecognized payloads degrade to an empty table.
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	pp := printers.PrettyPrint{Wide: n.Wide, NoColor: n.NoColor}

	fmt.Println("")
	pp.Title(n.Service.Endpoint)
	pp.Page(n.Service.Columns, p, n.Service.State.SortColumn(),
		n.Service.State.SortDirection() == state.Asc)
	pp.Info(n.Service.State.Page(), n.Service.State.PerPage(), p)

	if err == nil {
		n.Service.PersistState()
	}
	return nil
}
