// Package state holds the client-side table state: current page, rows per
// page, sort, search, selection, and the protocol correlation counters. All
// mutation goes through setters so the invariants (page >= 1, perPage >= 1,
// lowercased search) hold at every point a fetch can observe them.
package state

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// Direction is a sort direction as it appears on the wire.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

var (
	ErrInvalidPage    = errors.New("state: page must be >= 1")
	ErrInvalidPerPage = errors.New("state: per-page must be >= 1")
)

// Table is the mutable state of one table instance. It is not safe for
// concurrent mutation; all writes are expected on the UI's single event
// flow, with fetches reading an immutable snapshot taken at dispatch time.
type Table struct {
	page    int
	perPage int

	sortColumn    string
	sortDirection Direction

	search string

	selected map[string]bool

	draw int
	seq  uint64
}

// New returns a Table at the first page with the given page size.
func New(perPage int) *Table {
	if perPage < 1 {
		perPage = 10
	}
	return &Table{
		page:          1,
		perPage:       perPage,
		sortDirection: Asc,
		selected:      map[string]bool{},
	}
}

func (t *Table) Page() int                { return t.page }
func (t *Table) PerPage() int             { return t.perPage }
func (t *Table) SortColumn() string       { return t.sortColumn }
func (t *Table) SortDirection() Direction { return t.sortDirection }
func (t *Table) Search() string           { return t.search }

// SetPage moves to page n. It reports whether the page actually changed;
// asking for the current page is a no-op, not an error.
func (t *Table) SetPage(n int) (bool, error) {
	if n < 1 {
		return false, ErrInvalidPage
	}
	if n == t.page {
		return false, nil
	}
	t.page = n
	return true, nil
}

// SetSort sorts by column. Repeated calls on the same column toggle the
// direction asc, desc, asc. The current page index is preserved; the same
// page is re-fetched against the new ordering.
func (t *Table) SetSort(column string) {
	if column == t.sortColumn {
		if t.sortDirection == Asc {
			t.sortDirection = Desc
		} else {
			t.sortDirection = Asc
		}
		return
	}
	t.sortColumn = column
	t.sortDirection = Asc
}

// SetSearch commits a search term. Terms are case-normalized at capture
// time, the page resets to 1 (the old page index is meaningless against a
// new result set), and the selection is cleared. It reports whether the
// stored term changed.
func (t *Table) SetSearch(term string) bool {
	term = strings.ToLower(term)
	if term == t.search {
		return false
	}
	t.search = term
	t.page = 1
	t.ClearSelection()
	return true
}

// SetPerPage changes the page size and resets to the first page.
func (t *Table) SetPerPage(n int) error {
	if n < 1 {
		return ErrInvalidPerPage
	}
	t.perPage = n
	t.page = 1
	return nil
}

// Select marks a row id as selected.
func (t *Table) Select(id string) { t.selected[id] = true }

// Deselect removes a row id from the selection.
func (t *Table) Deselect(id string) { delete(t.selected, id) }

// Toggle flips one row's selection and reports the new state.
func (t *Table) Toggle(id string) bool {
	if t.selected[id] {
		delete(t.selected, id)
		return false
	}
	t.selected[id] = true
	return true
}

func (t *Table) Selected(id string) bool { return t.selected[id] }

// SelectedIDs returns the selected ids in stable order.
func (t *Table) SelectedIDs() []string {
	ids := make([]string, 0, len(t.selected))
	for id := range t.selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SelectAll replaces the selection with exactly the given ids.
func (t *Table) SelectAll(ids []string) {
	t.selected = make(map[string]bool, len(ids))
	for _, id := range ids {
		t.selected[id] = true
	}
}

// ClearSelection empties the selection set. Selection is page-scoped:
// whenever a new page of rows replaces the old one the selection resets.
func (t *Table) ClearSelection() {
	t.selected = map[string]bool{}
}

// NextDraw increments and returns the DataTables draw counter. It strictly
// increases across the lifetime of the instance.
func (t *Table) NextDraw() int {
	t.draw++
	return t.draw
}

// Draw returns the last issued draw counter value.
func (t *Table) Draw() int { return t.draw }

// NextSeq issues the sequence token for an outbound request. A response is
// applied only while its token is still the latest issued; anything older
// is discarded, which stands in for request cancellation.
func (t *Table) NextSeq() uint64 {
	t.seq++
	return t.seq
}

// Seq returns the latest issued sequence token.
func (t *Table) Seq() uint64 { return t.seq }

// Snapshot is the persisted slice of table state. The timestamp is written
// in milliseconds; staleness is enforced by the reader, not the writer.
type Snapshot struct {
	Page      int       `json:"page"`
	PerPage   int       `json:"per_page"`
	SortBy    string    `json:"sort_by,omitempty"`
	SortOrder Direction `json:"sort_order"`
	Search    string    `json:"search"`
	TS        int64     `json:"ts"`
}

// Snapshot captures the persistable state fields with the current time.
func (t *Table) Snapshot() Snapshot {
	return Snapshot{
		Page:      t.page,
		PerPage:   t.perPage,
		SortBy:    t.sortColumn,
		SortOrder: t.sortDirection,
		Search:    t.search,
		TS:        time.Now().UnixMilli(),
	}
}

// Restore applies a previously persisted snapshot, dropping values that
// would violate the invariants. Selection and counters are untouched;
// selection never persists across a restart.
func (t *Table) Restore(s Snapshot) {
	if s.Page >= 1 {
		t.page = s.Page
	}
	if s.PerPage >= 1 {
		t.perPage = s.PerPage
	}
	t.sortColumn = s.SortBy
	if s.SortOrder == Desc {
		t.sortDirection = Desc
	} else {
		t.sortDirection = Asc
	}
	t.search = strings.ToLower(s.Search)
}
