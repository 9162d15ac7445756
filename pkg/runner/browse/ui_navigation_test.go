package browse

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea/v2"

	"tableflip.dev/grid/pkg/grid"
	"tableflip.dev/grid/pkg/page"
	"tableflip.dev/grid/pkg/state"
)

func renderedModel(rows int) Model {
	m := New(testService(), DefaultOptions())
	seq := m.svc.State.NextSeq()
	m.applyPage(pageLoadedMsg{seq: seq, page: testPage(rows)})
	return m
}

func TestGotoPageClamps(t *testing.T) {
	m := renderedModel(10) // 45 filtered rows at 10 per page: 5 pages

	if got := m.totalPages(); got != 5 {
		t.Fatalf("expected 5 pages, got %d", got)
	}
	if cmd := m.gotoPage(99); cmd == nil {
		t.Fatalf("expected clamped navigation to dispatch")
	}
	if m.svc.State.Page() != 5 {
		t.Fatalf("expected clamp to last page, got %d", m.svc.State.Page())
	}
}

func TestGotoPageNoopOnCurrent(t *testing.T) {
	m := renderedModel(10)
	if cmd := m.gotoPage(1); cmd != nil {
		t.Fatalf("navigating to the current page must not re-fetch")
	}
	// Page 0 comes from "h" on the first page; invalid, ignored.
	if cmd := m.gotoPage(0); cmd != nil {
		t.Fatalf("page 0 must be ignored")
	}
}

func TestGotoPageDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.ShowPagination = false
	m := New(testService(), opts)
	if cmd := m.gotoPage(2); cmd != nil || m.svc.State.Page() != 1 {
		t.Fatalf("pagination off must disable the keys")
	}
}

func TestStepPerPage(t *testing.T) {
	m := renderedModel(10)
	if _, err := m.svc.State.SetPage(3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cmd := m.stepPerPage(1); cmd == nil {
		t.Fatalf("expected step up to dispatch")
	}
	if m.svc.State.PerPage() != 25 || m.svc.State.Page() != 1 {
		t.Fatalf("expected 25 per page back on page 1, got %d/%d", m.svc.State.PerPage(), m.svc.State.Page())
	}

	// Walk to the top of the ladder, then past it.
	m.stepPerPage(1)
	m.stepPerPage(1)
	if m.svc.State.PerPage() != 100 {
		t.Fatalf("expected 100 per page, got %d", m.svc.State.PerPage())
	}
	if cmd := m.stepPerPage(1); cmd != nil {
		t.Fatalf("stepping past the largest size must be a no-op")
	}

	if err := m.svc.State.SetPerPage(10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd := m.stepPerPage(-1); cmd != nil {
		t.Fatalf("stepping below the smallest size must be a no-op")
	}
}

func TestSortByNumber(t *testing.T) {
	svc := testService()
	status := grid.Spec("status", "Status")
	status.Sortable = false
	svc.Columns = append(svc.Columns, status)
	m := New(svc, DefaultOptions())

	// Column 2 is "name"; the checkbox column does not count.
	if cmd := m.sortByNumber(2); cmd == nil {
		t.Fatalf("expected sort to dispatch")
	}
	if svc.State.SortColumn() != "name" || svc.State.SortDirection() != state.Asc {
		t.Fatalf("expected name asc, got %s %s", svc.State.SortColumn(), svc.State.SortDirection())
	}

	// Same column again toggles direction, like clicking the header.
	m.sortByNumber(2)
	if svc.State.SortDirection() != state.Desc {
		t.Fatalf("expected desc after second press, got %s", svc.State.SortDirection())
	}

	if cmd := m.sortByNumber(3); cmd != nil {
		t.Fatalf("non-sortable column must not dispatch")
	}
	if svc.State.SortColumn() != "name" {
		t.Fatalf("non-sortable press must not change the sort, got %s", svc.State.SortColumn())
	}

	if cmd := m.sortByNumber(9); cmd != nil {
		t.Fatalf("digit past the last column must be a no-op")
	}
}

func TestToggleSelection(t *testing.T) {
	m := renderedModel(3)

	m.toggleSelection()
	if !m.svc.State.Selected("1") {
		t.Fatalf("expected cursor row selected")
	}
	m.toggleSelection()
	if m.svc.State.Selected("1") {
		t.Fatalf("expected cursor row deselected")
	}
}

func TestToggleSelectionDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.Selectable = false
	m := New(testService(), opts)
	seq := m.svc.State.NextSeq()
	m.applyPage(pageLoadedMsg{seq: seq, page: testPage(3)})

	m.toggleSelection()
	if len(m.svc.State.SelectedIDs()) != 0 {
		t.Fatalf("selection disabled must ignore the key")
	}
}

func TestToggleSelectAll(t *testing.T) {
	m := renderedModel(3)

	// Partial selection: select-all completes the page.
	m.svc.State.Select("1")
	m.toggleSelectAll()
	if got := len(m.svc.State.SelectedIDs()); got != 3 {
		t.Fatalf("expected whole page selected, got %d", got)
	}

	// Fully checked: select-all clears.
	m.toggleSelectAll()
	if got := len(m.svc.State.SelectedIDs()); got != 0 {
		t.Fatalf("expected selection cleared, got %d", got)
	}

	// Empty selection selects everything too.
	m.toggleSelectAll()
	if got := len(m.svc.State.SelectedIDs()); got != 3 {
		t.Fatalf("expected whole page selected, got %d", got)
	}
}

func TestColumnsInferredFromFirstPage(t *testing.T) {
	svc := testService()
	svc.Columns = nil
	m := New(svc, DefaultOptions())

	seq := svc.State.NextSeq()
	m.applyPage(pageLoadedMsg{seq: seq, page: testPage(2)})

	// id first, checkbox column in front; the service shares the set.
	if len(m.cols) != 3 || m.cols[0].FieldKey != grid.SelectKey || m.cols[1].FieldKey != "id" {
		t.Fatalf("unexpected inferred columns: %+v", m.cols)
	}
	if len(svc.Columns) != 2 {
		t.Fatalf("service must carry the inferred data columns, got %+v", svc.Columns)
	}
}

func TestRunActionFirstVisible(t *testing.T) {
	svc := testService()
	var got string
	svc.Actions = []grid.Action{
		{
			Label:     "Hidden",
			Condition: func(page.Row) bool { return false },
			Func:      func(string, page.Row) { t.Fatalf("hidden action must not run") },
		},
		{
			Label: "Open",
			Func:  func(id string, _ page.Row) { got = id },
		},
	}

	m := New(svc, DefaultOptions())
	seq := svc.State.NextSeq()
	m.applyPage(pageLoadedMsg{seq: seq, page: testPage(2)})

	var cmds []tea.Cmd
	m.runAction(&cmds)
	if got != "1" {
		t.Fatalf("expected first visible action on cursor row, got %q", got)
	}
	if m.status != "Open" {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestRunActionHrefTarget(t *testing.T) {
	svc := testService()
	svc.Actions = []grid.Action{{Label: "Edit", Href: "/items/{id}"}}

	m := New(svc, DefaultOptions())
	seq := svc.State.NextSeq()
	m.applyPage(pageLoadedMsg{seq: seq, page: testPage(1)})

	var cmds []tea.Cmd
	m.runAction(&cmds)
	if m.status != "Edit: /items/1" {
		t.Fatalf("expected substituted target in status, got %q", m.status)
	}
}
