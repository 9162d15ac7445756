package peek

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/marcusolsson/tui-go"

	"tableflip.dev/grid/pkg/app"
	"tableflip.dev/grid/pkg/glyph"
	"tableflip.dev/grid/pkg/grid"
	"tableflip.dev/grid/pkg/page"
)

// UI is a static one-page viewer: it fetches the current page once and
// shows it in a tui-go table, columns pane on the left. No re-fetching, no
// editing; for that use the browse runner.
type UI struct {
	Service *app.Service

	cache page.Page
	cols  []grid.Column

	dirty int

	fields     *tui.Table
	fieldTitle string
	fieldView  *tui.Box

	rows      *tui.Table
	rowsView  *tui.Box
	rowsTitle string
}

func (d *UI) Do(ctx context.Context) error {
	if d.Service == nil {
		return errors.New("can not peek, no service")
	}

	q := d.Service.Query()
	d.Service.State.NextSeq()
	p, err := d.Service.Fetch(ctx, q)
	if err != nil && !errors.Is(err, page.ErrUnrecognizedShape) {
		return err
	}
	d.cache = p
	d.cols = d.Service.Columns
	if len(d.cols) == 0 {
		d.cols = grid.Infer(p.Rows)
	}

	fTable := tui.NewTable(1, 0)

	fields := tui.NewVBox(
		fTable,
		tui.NewSpacer(),
	)
	fields.SetBorder(true)
	fields.SetSizePolicy(tui.Preferred, tui.Expanding)

	rTable := tui.NewTable(1, 0)
	rTable.SetFocused(true)
	rTable.SetSizePolicy(tui.Expanding, tui.Maximum)

	status := tui.NewStatusBar("")
	status.SetPermanentText(`Use left or right arrows to navigate, 'k' for key, ESC or 'q' to QUIT`)

	rows := tui.NewVBox(rTable)
	rows.SetBorder(true)
	rows.SetSizePolicy(tui.Expanding, tui.Maximum)

	selector := tui.NewHBox(fields, rows)

	root := tui.NewVBox(
		selector,
		tui.NewSpacer(),
		status,
	)

	key := keyUI()
	key.SetBorder(true)
	key.SetTitle("key")

	popup := tui.NewVBox(
		tui.NewHBox(key, tui.NewSpacer()),
		tui.NewSpacer(),
		status,
	)

	ui, err := tui.New(root)
	if err != nil {
		return err
	}

	d.fields = fTable
	d.fieldTitle = "columns"
	d.fieldView = fields
	d.rows = rTable
	d.rowsView = rows
	d.rowsTitle = fmt.Sprintf("%d of %d rows", len(p.Rows), p.FilteredRecords)
	d.dirty = -1

	d.populateFields()

	fTable.OnSelectionChanged(func(table *tui.Table) {
		d.populateRows()
	})

	isKey := false
	ui.SetKeybinding("k", func() {
		if isKey {
			ui.SetWidget(root)
			isKey = false
		} else {
			ui.SetWidget(popup)
			isKey = true
		}
	})

	ui.SetKeybinding("Left", func() {
		d.focusFields()
	})

	ui.SetKeybinding("Right", func() {
		d.focusRows()
	})

	ui.SetKeybinding("Esc", func() { ui.Quit() })
	ui.SetKeybinding("q", func() { ui.Quit() })

	d.populateRows()
	d.focusRows()

	if err := ui.Run(); err != nil {
		return err
	}
	return nil
}

func (d *UI) focusFields() {
	d.fields.SetFocused(true)
	d.fieldView.SetTitle(strings.ToUpper(d.fieldTitle))

	d.rows.SetFocused(false)
	d.rowsView.SetTitle("")
}

func (d *UI) focusRows() {
	d.fields.SetFocused(false)
	d.fieldView.SetTitle(d.fieldTitle)

	d.rows.SetFocused(true)
	d.rowsView.SetTitle(d.rowsTitle)
}

func (d *UI) populateFields() {
	d.fields.RemoveRows()
	d.fields.Select(0)

	for _, c := range d.cols {
		label := c.Label
		if c.Sticky {
			label = glyph.Sticky.String() + " " + label
		}
		d.fields.AppendRow(tui.NewLabel(label))
	}
}

// populateRows shows every row's value for the selected column next to the
// row's primary key.
func (d *UI) populateRows() {
	selected := d.fields.Selected()
	if selected < 0 || selected >= len(d.cols) {
		return
	}

	if d.dirty != selected {
		d.rows.RemoveRows()
		col := d.cols[selected]
		for _, r := range d.cache.Rows {
			d.rows.AppendRow(tui.NewLabel(fmt.Sprintf("%s  %s",
				r.Field(d.Service.IDKey()), grid.RenderCell(col, r))))
		}
		d.dirty = selected
	}
}

func keyUI() *tui.Box {
	marks := make([]tui.Widget, 0)

	marks = append(marks, tui.NewLabel("Marks"))

	for _, v := range glyph.DefaultGlyphs() {
		if v.Symbol == "" {
			continue
		}
		marks = append(marks, tui.NewLabel(fmt.Sprintf("%s  %s", v.Symbol, v.Meaning)))
	}
	marks = append(marks, tui.NewSpacer())

	return tui.NewVBox(marks...)
}
