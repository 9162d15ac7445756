package browse

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/v2/table"
	"github.com/charmbracelet/bubbles/v2/textinput"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/muesli/reflow/truncate"

	"tableflip.dev/grid/pkg/app"
	"tableflip.dev/grid/pkg/glyph"
	"tableflip.dev/grid/pkg/grid"
	"tableflip.dev/grid/pkg/page"
	"tableflip.dev/grid/pkg/selection"
)

// Fetch phases
type phase int

const (
	phaseIdle phase = iota
	phaseLoading
	phaseRendered
	phaseFailed
)

// Input modes
type mode int

const (
	modeNormal mode = iota
	modeSearch
)

// debounceWindow is how long search input must stay idle before the term
// commits and a fetch dispatches. Keystrokes inside the window coalesce
// into a single request.
const debounceWindow = 300 * time.Millisecond

var perPageSteps = []int{10, 25, 50, 100}

// Options switches the optional widgets. A disabled widget degrades
// silently: its keys do nothing and it is not drawn.
type Options struct {
	ShowSearch     bool
	ShowPagination bool
	ShowInfo       bool
	ShowPerPage    bool
	Selectable     bool

	// AutoRefresh re-fetches on this interval when > 0. Ticks never
	// stack: a new tick is armed only after the previous one fired.
	AutoRefresh time.Duration
}

// DefaultOptions enables every widget and leaves auto-refresh off.
func DefaultOptions() Options {
	return Options{
		ShowSearch:     true,
		ShowPagination: true,
		ShowInfo:       true,
		ShowPerPage:    true,
		Selectable:     true,
	}
}

// Model contains UI state
type Model struct {
	svc  *app.Service
	ctx  context.Context
	opts Options

	phase phase
	mode  mode

	tbl    table.Model
	search textinput.Model

	page    page.Page
	cols    []grid.Column
	errText string
	status  string

	// debounceToken invalidates pending debounce ticks; only the tick
	// carrying the latest token commits the search.
	debounceToken int
	// refreshToken does the same for auto-refresh ticks.
	refreshToken int

	termWidth  int
	termHeight int
	quitting   bool
}

// messages
type errMsg struct{ err error }
type pageLoadedMsg struct {
	seq  uint64
	page page.Page
	err  error
}
type searchDebounceMsg struct{ token int }
type autoRefreshMsg struct{ token int }

// New creates a browse model for the Service. Columns come from the
// service config; when selection is enabled the checkbox column is
// injected up front.
func New(svc *app.Service, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "search"
	ti.CharLimit = 128
	ti.Prompt = ""

	cols := svc.Columns
	if opts.Selectable {
		cols = grid.InjectSelect(cols)
	}

	st := table.DefaultStyles()
	st.Header = st.Header.Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true)
	st.Selected = st.Selected.Reverse(true)

	tbl := table.New(table.WithFocused(true), table.WithHeight(20))
	tbl.SetStyles(st)

	m := Model{
		svc:    svc,
		ctx:    context.Background(),
		opts:   opts,
		phase:  phaseIdle,
		mode:   modeNormal,
		tbl:    tbl,
		search: ti,
		cols:   cols,
		status: "NORMAL: h/l page, j/k move, 1-9 sort, / search, space select, a all, r refresh, q quit",
	}
	if svc.State.Search() != "" {
		m.search.SetValue(svc.State.Search())
	}
	return m
}

// Init dispatches the initial load.
func (m Model) Init() tea.Cmd {
	var cmd tea.Cmd
	m.dispatch(&cmd)
	return cmd
}

// dispatch captures the current state as a query, issues the sequence
// token, and starts the fetch. Runs on the event flow; only the returned
// command leaves it.
func (m *Model) dispatch(cmd *tea.Cmd) {
	q := m.svc.Query()
	seq := m.svc.State.NextSeq()
	m.phase = phaseLoading

	svc, ctx := m.svc, m.ctx
	*cmd = func() tea.Msg {
		p, err := svc.Fetch(ctx, q)
		return pageLoadedMsg{seq: seq, page: p, err: err}
	}
}

// Update handles messages and keybindings
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	skipTableRouting := false

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.termWidth = msg.Width
		m.termHeight = msg.Height
		m.applySizes()
		m.syncTable()

	case errMsg:
		m.status = "ERR: " + msg.err.Error()

	case pageLoadedMsg:
		cmds = append(cmds, m.applyPage(msg)...)

	case searchDebounceMsg:
		if msg.token == m.debounceToken {
			var cmd tea.Cmd
			m.commitSearch(&cmd)
			cmds = append(cmds, cmd)
		}

	case autoRefreshMsg:
		if msg.token == m.refreshToken && !m.quitting && m.phase != phaseLoading {
			var cmd tea.Cmd
			m.dispatch(&cmd)
			cmds = append(cmds, cmd)
		}

	case tea.KeyPressMsg:
		switch m.mode {
		case modeSearch:
			skipTableRouting = true
			switch msg.String() {
			case "enter":
				// Commit immediately; invalidate the pending tick.
				m.debounceToken++
				m.mode = modeNormal
				m.search.Blur()
				var cmd tea.Cmd
				m.commitSearch(&cmd)
				cmds = append(cmds, cmd)
			case "esc":
				m.mode = modeNormal
				m.search.Blur()
				m.search.SetValue(m.svc.State.Search())
				m.status = "Search cancelled"
			default:
				before := m.search.Value()
				var cmd tea.Cmd
				m.search, cmd = m.search.Update(msg)
				cmds = append(cmds, cmd)
				if m.search.Value() != before {
					m.debounceToken++
					token := m.debounceToken
					cmds = append(cmds, tea.Tick(debounceWindow, func(time.Time) tea.Msg {
						return searchDebounceMsg{token: token}
					}))
				}
			}

		case modeNormal:
			switch msg.String() {
			case "/":
				if m.opts.ShowSearch {
					m.mode = modeSearch
					if cmd := m.search.Focus(); cmd != nil {
						cmds = append(cmds, cmd)
					}
					cmds = append(cmds, textinput.Blink)
					m.status = "SEARCH: enter commits, esc cancels"
					skipTableRouting = true
				}

			case "h", "left":
				cmds = append(cmds, m.gotoPage(m.svc.State.Page()-1))
			case "l", "right":
				cmds = append(cmds, m.gotoPage(m.svc.State.Page()+1))
			case "g":
				cmds = append(cmds, m.gotoPage(1))
			case "G":
				cmds = append(cmds, m.gotoPage(m.totalPages()))

			case "+", "=":
				cmds = append(cmds, m.stepPerPage(1))
			case "-":
				cmds = append(cmds, m.stepPerPage(-1))

			case "1", "2", "3", "4", "5", "6", "7", "8", "9":
				cmds = append(cmds, m.sortByNumber(int(msg.String()[0] - '0')))

			case " ", "space":
				m.toggleSelection()
			case "a":
				m.toggleSelectAll()

			case "enter":
				m.runAction(&cmds)

			case "r":
				var cmd tea.Cmd
				m.dispatch(&cmd)
				cmds = append(cmds, cmd)
				m.status = "Refreshing"

			case "q", "esc", "ctrl+c":
				m.quitting = true
				m.refreshToken++
				cmds = append(cmds, tea.Quit)
			}
		}
	}

	if m.mode == modeNormal && !skipTableRouting {
		var cmd tea.Cmd
		m.tbl, cmd = m.tbl.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// applyPage reconciles a finished fetch against the latest dispatched
// sequence token. Anything stale is dropped on the floor: a newer request
// is in flight or already rendered.
func (m *Model) applyPage(msg pageLoadedMsg) []tea.Cmd {
	if msg.seq != m.svc.State.Seq() {
		return nil
	}

	var cmds []tea.Cmd

	if msg.err != nil {
		if errors.Is(msg.err, app.ErrStaleDraw) {
			return nil
		}
		m.phase = phaseFailed
		m.errText = msg.err.Error()
		m.status = "ERR: " + m.errText
	} else {
		m.phase = phaseRendered
		m.page = msg.page
		if !m.hasDataColumns() {
			m.inferColumns()
		}
		// New rows replace the old page; selection is page-scoped.
		m.svc.State.ClearSelection()
		m.syncTable()
		m.status = fmt.Sprintf("Page %d of %d", m.svc.State.Page(), m.totalPages())
		m.svc.PersistState()
	}

	if m.opts.AutoRefresh > 0 && !m.quitting {
		m.refreshToken++
		token := m.refreshToken
		cmds = append(cmds, tea.Tick(m.opts.AutoRefresh, func(time.Time) tea.Msg {
			return autoRefreshMsg{token: token}
		}))
	}
	return cmds
}

func (m *Model) hasDataColumns() bool {
	for _, c := range m.cols {
		if c.FieldKey != grid.SelectKey {
			return true
		}
	}
	return false
}

// inferColumns derives the column set from the first loaded page when none
// was configured. The service shares the inferred set so later requests can
// carry proper column clauses.
func (m *Model) inferColumns() {
	cols := grid.Infer(m.page.Rows)
	if len(cols) == 0 {
		return
	}
	m.svc.Columns = cols
	if m.opts.Selectable {
		cols = grid.InjectSelect(cols)
	}
	m.cols = cols
}

func (m *Model) commitSearch(cmd *tea.Cmd) {
	if !m.svc.State.SetSearch(m.search.Value()) {
		return
	}
	m.dispatch(cmd)
	m.status = "Searching"
}

func (m *Model) gotoPage(n int) tea.Cmd {
	if !m.opts.ShowPagination {
		return nil
	}
	if n > m.totalPages() {
		n = m.totalPages()
	}
	changed, err := m.svc.State.SetPage(n)
	if err != nil || !changed {
		return nil
	}
	var cmd tea.Cmd
	m.dispatch(&cmd)
	return cmd
}

func (m *Model) stepPerPage(dir int) tea.Cmd {
	if !m.opts.ShowPerPage {
		return nil
	}
	cur := m.svc.State.PerPage()
	idx := 0
	for i, n := range perPageSteps {
		if n <= cur {
			idx = i
		}
	}
	idx += dir
	if idx < 0 || idx >= len(perPageSteps) {
		return nil
	}
	if err := m.svc.State.SetPerPage(perPageSteps[idx]); err != nil {
		return nil
	}
	var cmd tea.Cmd
	m.dispatch(&cmd)
	m.status = fmt.Sprintf("%d rows per page", perPageSteps[idx])
	return cmd
}

// sortByNumber treats the digit keys as clicks on the Nth sortable header.
func (m *Model) sortByNumber(n int) tea.Cmd {
	i := 0
	for _, c := range m.cols {
		if c.FieldKey == grid.SelectKey {
			continue
		}
		i++
		if i == n {
			if !c.Sortable {
				m.status = fmt.Sprintf("%s is not sortable", c.Label)
				return nil
			}
			m.svc.State.SetSort(c.FieldKey)
			var cmd tea.Cmd
			m.dispatch(&cmd)
			return cmd
		}
	}
	return nil
}

func (m *Model) currentRow() (page.Row, bool) {
	i := m.tbl.Cursor()
	if i < 0 || i >= len(m.page.Rows) {
		return nil, false
	}
	return m.page.Rows[i], true
}

func (m *Model) toggleSelection() {
	if !m.opts.Selectable {
		return
	}
	row, ok := m.currentRow()
	if !ok {
		return
	}
	id := row.Field(m.svc.IDKey())
	if id == "" {
		return
	}
	if m.svc.State.Toggle(id) {
		m.status = fmt.Sprintf("Selected %s", id)
	} else {
		m.status = fmt.Sprintf("Deselected %s", id)
	}
	m.syncTable()
}

// toggleSelectAll follows the header checkbox: anything but fully checked
// selects the whole visible page, fully checked clears it.
func (m *Model) toggleSelectAll() {
	if !m.opts.Selectable {
		return
	}
	ids := m.page.IDs(m.svc.IDKey())
	if m.svc.SelectAllState(m.page) == selection.Checked {
		m.svc.State.ClearSelection()
		m.status = "Selection cleared"
	} else {
		m.svc.State.SelectAll(ids)
		m.status = fmt.Sprintf("Selected %d rows", len(ids))
	}
	m.syncTable()
}

func (m *Model) runAction(cmds *[]tea.Cmd) {
	row, ok := m.currentRow()
	if !ok || len(m.svc.Actions) == 0 {
		return
	}
	for _, a := range m.svc.Actions {
		if !a.Visible(row) {
			continue
		}
		target, err := m.svc.Dispatch(a, row)
		if err != nil {
			*cmds = append(*cmds, func() tea.Msg { return errMsg{err} })
			return
		}
		if target != "" {
			m.status = fmt.Sprintf("%s: %s", a.Label, target)
		} else {
			m.status = a.Label
		}
		return
	}
	m.status = "No action available for this row"
}

func (m *Model) totalPages() int {
	per := m.svc.State.PerPage()
	if per < 1 {
		return 1
	}
	n := (m.page.FilteredRecords + per - 1) / per
	if n < 1 {
		n = 1
	}
	return n
}

// syncTable rebuilds the bubbles table from the current page, selection
// set, and sort state. Header glyphs carry the sort direction and the
// select-all tri-state.
func (m *Model) syncTable() {
	widths := m.columnWidths()

	cols := make([]table.Column, 0, len(m.cols))
	for i, c := range m.cols {
		cols = append(cols, table.Column{Title: m.headerFor(c), Width: widths[i]})
	}

	rows := make([]table.Row, 0, len(m.page.Rows))
	for _, r := range m.page.Rows {
		cells := make(table.Row, 0, len(m.cols))
		for i, c := range m.cols {
			var cell string
			if c.FieldKey == grid.SelectKey {
				cell = glyph.Unchecked.String()
				if m.svc.State.Selected(r.Field(m.svc.IDKey())) {
					cell = glyph.Checked.String()
				}
			} else {
				cell = truncate.String(grid.RenderCell(c, r), uint(widths[i]))
			}
			cells = append(cells, cell)
		}
		rows = append(rows, cells)
	}

	cursor := m.tbl.Cursor()
	m.tbl.SetColumns(cols)
	m.tbl.SetRows(rows)
	if cursor >= len(rows) {
		cursor = len(rows) - 1
	}
	if cursor >= 0 {
		m.tbl.SetCursor(cursor)
	}
}

func (m *Model) headerFor(c grid.Column) string {
	if c.FieldKey == grid.SelectKey {
		switch m.svc.SelectAllState(m.page) {
		case selection.Checked:
			return glyph.Checked.String()
		case selection.Indeterminate:
			return glyph.Indeterminate.String()
		default:
			return glyph.Unchecked.String()
		}
	}
	h := c.Label
	if c.Sticky {
		h = glyph.Sticky.String() + h
	}
	if grid.NormalizeKey(c.FieldKey) == grid.NormalizeKey(m.svc.State.SortColumn()) {
		if m.svc.State.SortDirection() == "desc" {
			return h + " " + glyph.SortDesc.String()
		}
		return h + " " + glyph.SortAsc.String()
	}
	return h
}

func (m *Model) columnWidths() []int {
	widths := make([]int, len(m.cols))
	avail := m.termWidth
	if avail <= 0 {
		avail = 100
	}
	avail -= 2
	n := 0
	for i, c := range m.cols {
		if c.FieldKey == grid.SelectKey {
			widths[i] = 3
			avail -= 3
			continue
		}
		n++
	}
	if n == 0 {
		return widths
	}
	per := avail/n - 2
	if per < 8 {
		per = 8
	}
	for i, c := range m.cols {
		if c.FieldKey != grid.SelectKey {
			widths[i] = per
		}
	}
	return widths
}

// View renders the table with the optional search, info, and pagination
// widgets around it.
func (m Model) View() string {
	var b strings.Builder

	if m.opts.ShowSearch {
		mark := glyph.Search.String()
		b.WriteString(mark + " " + m.search.View() + "\n\n")
	}

	switch m.phase {
	case phaseLoading:
		b.WriteString(lipgloss.NewStyle().Faint(true).Render("Loading…") + "\n")
	case phaseFailed:
		errStyle := lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)
		b.WriteString(errStyle.Render("Failed to load rows: "+m.errText) + "\n")
	default:
		b.WriteString(m.tbl.View() + "\n")
	}

	if m.opts.ShowInfo {
		b.WriteString(m.infoLine() + "\n")
	}
	if m.opts.ShowPagination {
		b.WriteString(m.paginationLine() + "\n")
	}

	modeStr := map[mode]string{modeNormal: "NORMAL", modeSearch: "SEARCH"}[m.mode]
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).
		Render(fmt.Sprintf("[%s] %s", modeStr, m.status))
	b.WriteString("\n" + status)

	return b.String()
}

func (m Model) infoLine() string {
	faint := lipgloss.NewStyle().Faint(true)
	if len(m.page.Rows) == 0 {
		return faint.Render("Showing 0 rows")
	}
	first := (m.svc.State.Page()-1)*m.svc.State.PerPage() + 1
	last := first + len(m.page.Rows) - 1
	s := fmt.Sprintf("Showing %d to %d of %d rows", first, last, m.page.FilteredRecords)
	if m.page.FilteredRecords != m.page.TotalRecords {
		s += fmt.Sprintf(" (filtered from %d)", m.page.TotalRecords)
	}
	if n := len(m.svc.State.SelectedIDs()); n > 0 {
		s += fmt.Sprintf(", %d selected", n)
	}
	return faint.Render(s)
}

func (m Model) paginationLine() string {
	return lipgloss.NewStyle().Faint(true).
		Render(fmt.Sprintf("‹ %d/%d › (%d per page)",
			m.svc.State.Page(), m.totalPages(), m.svc.State.PerPage()))
}

func (m *Model) applySizes() {
	if m.termWidth == 0 || m.termHeight == 0 {
		return
	}
	height := m.termHeight - 8
	if height < 5 {
		height = 5
	}
	m.tbl.SetHeight(height)
}

// Run starts the program.
func Run(svc *app.Service, opts Options) error {
	p := tea.NewProgram(New(svc, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
