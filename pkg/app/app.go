// Package app wires the fetch cycle together: capture query from state,
// build the request, dispatch it, normalize the payload, and reconcile the
// result against the correlation counters. UIs and CLIs share this layer.
package app

import (
	"context"
	"errors"
	"strings"

	"tableflip.dev/grid/pkg/client"
	"tableflip.dev/grid/pkg/grid"
	"tableflip.dev/grid/pkg/page"
	"tableflip.dev/grid/pkg/persist"
	"tableflip.dev/grid/pkg/protocol"
	"tableflip.dev/grid/pkg/selection"
	"tableflip.dev/grid/pkg/state"
)

// ErrStaleDraw reports a DataTables response whose draw echo does not match
// the issued counter: an out-of-order response. Discard it quietly; a newer
// request is already in flight or rendered.
var ErrStaleDraw = errors.New("app: stale draw echo")

// Service owns one table instance end to end.
type Service struct {
	State       *state.Table
	Columns     []grid.Column
	Actions     []grid.Action
	Registry    grid.Registry
	Persistence persist.Persistence
	Client      *client.Client

	Mode     protocol.Mode
	Method   string
	Endpoint string

	// StateKey keys the persisted snapshot; derived from the endpoint
	// when empty.
	StateKey string

	// PrimaryKey is the row field used as the selection id, "id" when
	// unset.
	PrimaryKey string
}

// Query captures the state slice for one outbound request. In DataTables
// mode this issues the next draw counter; call it exactly once per
// dispatched request.
func (s *Service) Query() protocol.Query {
	q := protocol.Query{
		Page:      s.State.Page(),
		PerPage:   s.State.PerPage(),
		SortBy:    s.State.SortColumn(),
		SortOrder: s.State.SortDirection(),
		Search:    s.State.Search(),
	}
	if s.Mode == protocol.DataTables {
		q.Draw = s.State.NextDraw()
	}
	return q
}

// Fetch runs one request/normalize cycle for the captured query. It is
// side-effect free with respect to state and persistence, so it may run
// off the event flow; the caller applies the result once it is known to be
// current.
func (s *Service) Fetch(ctx context.Context, q protocol.Query) (page.Page, error) {
	if s.Client == nil {
		s.Client = client.New("")
	}
	d, err := protocol.Build(q, s.Columns, s.Mode, s.Method, s.Endpoint)
	if err != nil {
		return page.Page{Rows: []page.Row{}}, err
	}
	payload, err := s.Client.Do(ctx, d)
	if err != nil {
		return page.Page{Rows: []page.Row{}}, err
	}
	p, err := page.Normalize(payload)
	if err != nil {
		return p, err
	}
	if s.Mode == protocol.DataTables && p.Draw != 0 && p.Draw != q.Draw {
		return page.Page{Rows: []page.Row{}}, ErrStaleDraw
	}
	return p, nil
}

// PersistState writes the current snapshot. Called after every successful
// state-changing fetch; never on failure, so a broken fetch cannot clobber
// the last good state.
func (s *Service) PersistState() {
	if s.Persistence == nil {
		return
	}
	s.Persistence.Save(s.key(), s.State.Snapshot())
}

// RestoreState applies the persisted snapshot if one exists and is fresh.
// It reports whether anything was restored.
func (s *Service) RestoreState() bool {
	if s.Persistence == nil {
		return false
	}
	snap, ok := s.Persistence.Load(s.key())
	if !ok {
		return false
	}
	s.State.Restore(snap)
	return true
}

// IDKey returns the primary key field for selection ids.
func (s *Service) IDKey() string {
	if s.PrimaryKey == "" {
		return "id"
	}
	return s.PrimaryKey
}

// SelectAllState derives the select-all tri-state for the rendered page.
func (s *Service) SelectAllState(p page.Page) selection.State {
	sel := map[string]bool{}
	for _, id := range s.State.SelectedIDs() {
		sel[id] = true
	}
	return selection.Of(p.IDs(s.IDKey()), sel)
}

// Dispatch runs a row action against the row's primary key value.
func (s *Service) Dispatch(a grid.Action, row page.Row) (target string, err error) {
	return grid.Dispatch(a, s.Registry, row.Field(s.IDKey()), row)
}

func (s *Service) key() string {
	if s.StateKey != "" {
		return s.StateKey
	}
	k := s.Endpoint
	k = strings.TrimPrefix(k, "http://")
	k = strings.TrimPrefix(k, "https://")
	if i := strings.IndexAny(k, "?#"); i >= 0 {
		k = k[:i]
	}
	r := strings.NewReplacer("/", "-", ":", "-")
	k = strings.Trim(r.Replace(k), "-")
	if k == "" {
		k = "default"
	}
	return "grid-" + k
}
