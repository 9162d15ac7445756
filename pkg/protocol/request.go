// Package protocol builds outbound request descriptors from table state.
// Two request-encoding conventions are supported: a simple REST style and a
// DataTables-style envelope. Building is pure; nothing here performs I/O or
// mutates its inputs.
package protocol

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"tableflip.dev/grid/pkg/grid"
	"tableflip.dev/grid/pkg/state"
)

// Mode selects the request/response envelope convention.
type Mode int

const (
	Simple Mode = iota
	DataTables
)

func (m Mode) String() string {
	if m == DataTables {
		return "datatables"
	}
	return "simple"
}

// ParseMode reads a mode name as supplied on the command line.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "simple":
		return Simple, nil
	case "datatables", "dt":
		return DataTables, nil
	}
	return Simple, fmt.Errorf("protocol: unknown mode %q", s)
}

// Query is the immutable slice of table state one request is built from.
// Capture it at dispatch time; later state mutations must not leak into an
// in-flight request.
type Query struct {
	Page      int
	PerPage   int
	SortBy    string
	SortOrder state.Direction
	Search    string

	// Draw is the DataTables correlation token issued for this request.
	Draw int
}

// Descriptor is a fully-built outbound request: everything the transport
// needs, nothing it has to compute.
type Descriptor struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Build constructs the request descriptor for q against endpoint. The
// column list supplies the order/columns clauses in DataTables mode; the
// synthetic selection column is excluded from both.
func Build(q Query, cols []grid.Column, mode Mode, method, endpoint string) (Descriptor, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}
	if method != http.MethodGet && method != http.MethodPost {
		return Descriptor{}, fmt.Errorf("protocol: unsupported method %q", method)
	}

	d := Descriptor{Method: method, URL: endpoint, Header: http.Header{}}
	d.Header.Set("X-Requested-With", "XMLHttpRequest")

	switch mode {
	case DataTables:
		buildDataTables(&d, q, cols)
	default:
		buildSimple(&d, q)
	}

	if len(d.Body) > 0 {
		d.Header.Set("Content-Type", "application/json")
	}
	return d, nil
}

func buildSimple(d *Descriptor, q Query) {
	if d.Method == http.MethodGet {
		v := url.Values{}
		v.Set("per_page", strconv.Itoa(q.PerPage))
		v.Set("page", strconv.Itoa(q.Page))
		v.Set("search", q.Search)
		v.Set("sort_order", string(q.SortOrder))
		if q.SortBy != "" {
			v.Set("sort_by", q.SortBy)
		}
		d.URL = appendQuery(d.URL, v)
		return
	}

	body := map[string]any{
		"per_page":   q.PerPage,
		"page":       q.Page,
		"search":     q.Search,
		"sort_order": string(q.SortOrder),
	}
	if q.SortBy != "" {
		body["sort_by"] = q.SortBy
	}
	d.Body, _ = json.Marshal(body)
}

// Envelope is the DataTables-style request body.
type Envelope struct {
	Draw    int            `json:"draw"`
	Start   int            `json:"start"`
	Length  int            `json:"length"`
	Search  SearchClause   `json:"search"`
	Order   []OrderClause  `json:"order"`
	Columns []ColumnClause `json:"columns"`
}

type SearchClause struct {
	Value string `json:"value"`
	Regex bool   `json:"regex"`
}

type OrderClause struct {
	Column int    `json:"column"`
	Dir    string `json:"dir"`
}

type ColumnClause struct {
	Data       string `json:"data"`
	Name       string `json:"name"`
	Searchable bool   `json:"searchable"`
	Orderable  bool   `json:"orderable"`
}

func buildDataTables(d *Descriptor, q Query, cols []grid.Column) {
	start := (q.Page - 1) * q.PerPage

	if d.Method == http.MethodGet {
		// GET carries only draw/start/length/search[value]; the
		// order and columns clauses are POST-only. Server-side
		// sorting therefore does not reach a GET endpoint in this
		// mode. Inherited protocol quirk, kept as documented.
		v := url.Values{}
		v.Set("draw", strconv.Itoa(q.Draw))
		v.Set("start", strconv.Itoa(start))
		v.Set("length", strconv.Itoa(q.PerPage))
		v.Set("search[value]", q.Search)
		d.URL = appendQuery(d.URL, v)
		return
	}

	env := Envelope{
		Draw:    q.Draw,
		Start:   start,
		Length:  q.PerPage,
		Search:  SearchClause{Value: q.Search},
		Order:   []OrderClause{},
		Columns: wireColumns(cols),
	}
	if idx := ColumnIndex(cols, q.SortBy); idx >= 0 {
		env.Order = append(env.Order, OrderClause{Column: idx, Dir: string(q.SortOrder)})
	}
	d.Body, _ = json.Marshal(env)
}

// wireColumns maps the configured columns onto the envelope's columns
// array, skipping the synthetic selection column.
func wireColumns(cols []grid.Column) []ColumnClause {
	out := make([]ColumnClause, 0, len(cols))
	for _, c := range cols {
		if c.FieldKey == grid.SelectKey {
			continue
		}
		out = append(out, ColumnClause{
			Data:       c.FieldKey,
			Name:       c.FieldKey,
			Searchable: c.Searchable,
			Orderable:  c.Sortable,
		})
	}
	return out
}

// ColumnIndex resolves the sort column to its index in the envelope's
// columns array, matching the normalized field key first and legacy aliases
// second. -1 means no order clause is sent; callers must treat that as
// "omit the clause", never as a failure.
func ColumnIndex(cols []grid.Column, sortBy string) int {
	if sortBy == "" {
		return -1
	}
	visible := make([]grid.Column, 0, len(cols))
	for _, c := range cols {
		if c.FieldKey != grid.SelectKey {
			visible = append(visible, c)
		}
	}
	return grid.Index(visible, sortBy)
}

// appendQuery attaches encoded parameters to endpoint, preserving any query
// string it already carries.
func appendQuery(endpoint string, v url.Values) string {
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return endpoint + sep + v.Encode()
}
