package printers

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/mattn/go-isatty"

	"tableflip.dev/grid/pkg/glyph"
	"tableflip.dev/grid/pkg/grid"
	"tableflip.dev/grid/pkg/page"
)

// PrettyPrint renders one fetched page as an aligned table on stdout.
type PrettyPrint struct {
	Wide    bool
	NoColor bool
}

// Title prints the endpoint or table title, bold and underlined.
func (pp *PrettyPrint) Title(title string) {
	pp.setup()
	t := color.New(color.Bold, color.Underline)
	_, _ = t.Println(title)
}

// Info prints the classic range line, e.g.
// "Showing 11 to 20 of 73 rows (filtered from 112)".
func (pp *PrettyPrint) Info(pageNo, perPage int, p page.Page) {
	pp.setup()
	c := color.New(color.Faint)

	if len(p.Rows) == 0 {
		_, _ = c.Println("Showing 0 rows")
		return
	}

	first := (pageNo-1)*perPage + 1
	last := first + len(p.Rows) - 1
	_, _ = c.Printf("Showing %d to %d of %d rows", first, last, p.FilteredRecords)
	if p.FilteredRecords != p.TotalRecords {
		_, _ = c.Printf(" (filtered from %d)", p.TotalRecords)
	}
	_, _ = c.Println("")
}

// Page prints the rows under their column headers. A sort marker is added
// to the header of sortBy when set.
func (pp *PrettyPrint) Page(cols []grid.Column, p page.Page, sortBy string, asc bool) {
	pp.setup()

	if len(cols) == 0 {
		cols = grid.Infer(p.Rows)
	}
	if len(cols) == 0 {
		f := color.New(color.Faint, color.Italic)
		_, _ = f.Print(" none\n\n")
		return
	}

	table := uitable.New()
	table.MaxColWidth = 40
	if pp.Wide {
		table.MaxColWidth = 120
	}

	headers := make([]interface{}, 0, len(cols))
	for _, c := range cols {
		h := c.Label
		if c.FieldKey == grid.SelectKey {
			h = glyph.Unchecked.String()
		}
		if sortBy != "" && grid.NormalizeKey(c.FieldKey) == grid.NormalizeKey(sortBy) {
			mark := glyph.SortAsc
			if !asc {
				mark = glyph.SortDesc
			}
			h = fmt.Sprintf("%s %s", h, mark)
		}
		headers = append(headers, h)
	}
	table.AddRow(headers...)

	for _, row := range p.Rows {
		cells := make([]interface{}, 0, len(cols))
		for _, c := range cols {
			cells = append(cells, grid.RenderCell(c, row))
		}
		table.AddRow(cells...)
	}

	fmt.Println(table)
	fmt.Println("")
}

func (pp *PrettyPrint) setup() {
	if pp.NoColor || !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
}
