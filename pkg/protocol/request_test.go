package protocol

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"tableflip.dev/grid/pkg/grid"
	"tableflip.dev/grid/pkg/state"
)

func testColumns() []grid.Column {
	name := grid.Spec("name", "Name")
	name.Aliases = []string{"full_name"}
	status := grid.Spec("status", "Status")
	status.Sortable = false
	return []grid.Column{grid.Spec("id", "ID"), name, status}
}

func queryParams(t *testing.T, raw string) url.Values {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("built URL does not parse: %v", err)
	}
	return u.Query()
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{
		"":           Simple,
		"simple":     Simple,
		"datatables": DataTables,
		"DataTables": DataTables,
		" dt ":       DataTables,
	} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseMode("soap"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestBuildRejectsMethods(t *testing.T) {
	for _, m := range []string{"PUT", "DELETE", "PATCH", "HEAD"} {
		if _, err := Build(Query{Page: 1, PerPage: 10}, nil, Simple, m, "/api"); err == nil {
			t.Fatalf("expected %s to be rejected", m)
		}
	}
}

func TestBuildDefaultsToGet(t *testing.T) {
	d, err := Build(Query{Page: 1, PerPage: 10}, nil, Simple, "", "/api")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Method != http.MethodGet {
		t.Fatalf("expected GET, got %s", d.Method)
	}
	if got := d.Header.Get("X-Requested-With"); got != "XMLHttpRequest" {
		t.Fatalf("expected XHR marker header, got %q", got)
	}
	if d.Header.Get("Content-Type") != "" {
		t.Fatalf("GET must not carry a content type")
	}
}

func TestBuildSimpleGet(t *testing.T) {
	q := Query{Page: 3, PerPage: 25, SortBy: "name", SortOrder: state.Desc, Search: "tuna"}
	d, err := Build(q, nil, Simple, http.MethodGet, "https://api.example.com/rows")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v := queryParams(t, d.URL)
	want := url.Values{
		"page":       {"3"},
		"per_page":   {"25"},
		"search":     {"tuna"},
		"sort_by":    {"name"},
		"sort_order": {"desc"},
	}
	if diff := cmp.Diff(want, v); diff != "" {
		t.Fatalf("params mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildSimpleGetOmitsSortBy(t *testing.T) {
	d, err := Build(Query{Page: 1, PerPage: 10}, nil, Simple, http.MethodGet, "/rows")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := queryParams(t, d.URL)
	if _, ok := v["sort_by"]; ok {
		t.Fatalf("sort_by must be omitted when unset, got %q", v.Get("sort_by"))
	}
	// The remaining params are always present, even when zero-ish.
	for _, key := range []string{"page", "per_page", "search", "sort_order"} {
		if _, ok := v[key]; !ok {
			t.Fatalf("expected %q param, got %v", key, v)
		}
	}
}

func TestBuildPreservesExistingQuery(t *testing.T) {
	d, err := Build(Query{Page: 2, PerPage: 10}, nil, Simple, http.MethodGet, "/rows?tenant=acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(d.URL, "tenant=acme") {
		t.Fatalf("existing query string lost: %s", d.URL)
	}
	if strings.Count(d.URL, "?") != 1 {
		t.Fatalf("expected a single ?, got %s", d.URL)
	}
	if queryParams(t, d.URL).Get("page") != "2" {
		t.Fatalf("page param missing: %s", d.URL)
	}
}

func TestBuildSimplePost(t *testing.T) {
	q := Query{Page: 2, PerPage: 50, SortBy: "name", SortOrder: state.Asc, Search: "x"}
	d, err := Build(q, nil, Simple, http.MethodPost, "/rows")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.URL != "/rows" {
		t.Fatalf("POST must not touch the URL, got %s", d.URL)
	}
	if got := d.Header.Get("Content-Type"); got != "application/json" {
		t.Fatalf("expected JSON content type, got %q", got)
	}

	var body map[string]any
	if err := json.Unmarshal(d.Body, &body); err != nil {
		t.Fatalf("body does not parse: %v", err)
	}
	want := map[string]any{
		"page":       float64(2),
		"per_page":   float64(50),
		"search":     "x",
		"sort_by":    "name",
		"sort_order": "asc",
	}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Fatalf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildDataTablesGet(t *testing.T) {
	q := Query{Page: 3, PerPage: 10, SortBy: "name", SortOrder: state.Desc, Search: "tuna", Draw: 7}
	d, err := Build(q, testColumns(), DataTables, http.MethodGet, "/rows")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v := queryParams(t, d.URL)
	want := url.Values{
		"draw":          {"7"},
		"start":         {"20"},
		"length":        {"10"},
		"search[value]": {"tuna"},
	}
	// Sorting is POST-only in this mode: no order/columns params on GET.
	if diff := cmp.Diff(want, v); diff != "" {
		t.Fatalf("params mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildDataTablesPost(t *testing.T) {
	q := Query{Page: 2, PerPage: 25, SortBy: "name", SortOrder: state.Asc, Search: "t", Draw: 4}
	d, err := Build(q, testColumns(), DataTables, http.MethodPost, "/rows")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var env Envelope
	if err := json.Unmarshal(d.Body, &env); err != nil {
		t.Fatalf("envelope does not parse: %v", err)
	}
	if env.Draw != 4 || env.Start != 25 || env.Length != 25 {
		t.Fatalf("unexpected paging clause: %+v", env)
	}
	if env.Search.Value != "t" || env.Search.Regex {
		t.Fatalf("unexpected search clause: %+v", env.Search)
	}
	if len(env.Order) != 1 || env.Order[0].Column != 1 || env.Order[0].Dir != "asc" {
		t.Fatalf("unexpected order clause: %+v", env.Order)
	}
	if len(env.Columns) != 3 {
		t.Fatalf("expected 3 column clauses, got %+v", env.Columns)
	}
	if env.Columns[2].Data != "status" || env.Columns[2].Orderable {
		t.Fatalf("unexpected status clause: %+v", env.Columns[2])
	}
}

func TestBuildDataTablesPostExcludesSelectColumn(t *testing.T) {
	cols := grid.InjectSelect(testColumns())
	q := Query{Page: 1, PerPage: 10, SortBy: "name", SortOrder: state.Asc, Draw: 1}
	d, err := Build(q, cols, DataTables, http.MethodPost, "/rows")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var env Envelope
	if err := json.Unmarshal(d.Body, &env); err != nil {
		t.Fatalf("envelope does not parse: %v", err)
	}
	for _, c := range env.Columns {
		if c.Data == grid.SelectKey {
			t.Fatalf("selection column leaked into the wire: %+v", env.Columns)
		}
	}
	// Order indexes count data columns only, so "name" stays at 1 even
	// with the checkbox column injected in front.
	if len(env.Order) != 1 || env.Order[0].Column != 1 {
		t.Fatalf("unexpected order clause: %+v", env.Order)
	}
}

func TestBuildDataTablesPostOmitsOrderForUnknownColumn(t *testing.T) {
	q := Query{Page: 1, PerPage: 10, SortBy: "nonexistent", SortOrder: state.Asc, Draw: 1}
	d, err := Build(q, testColumns(), DataTables, http.MethodPost, "/rows")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(d.Body, &env); err != nil {
		t.Fatalf("envelope does not parse: %v", err)
	}
	if len(env.Order) != 0 {
		t.Fatalf("expected empty order for unknown column, got %+v", env.Order)
	}
	if !strings.Contains(string(d.Body), `"order":[]`) {
		t.Fatalf("order must serialize as an empty array, got %s", d.Body)
	}
}

func TestColumnIndexAliases(t *testing.T) {
	cols := testColumns()
	if idx := ColumnIndex(cols, "full_name"); idx != 1 {
		t.Fatalf("expected legacy alias to resolve to 1, got %d", idx)
	}
	if idx := ColumnIndex(cols, "ID"); idx != 0 {
		t.Fatalf("expected case-insensitive match at 0, got %d", idx)
	}
	if idx := ColumnIndex(cols, ""); idx != -1 {
		t.Fatalf("expected -1 for empty sort column, got %d", idx)
	}
}

func TestBuildCaseNormalizedSearchEquivalence(t *testing.T) {
	// Terms are case-normalized where they are captured, so two inputs
	// differing only in case produce byte-identical requests.
	s := state.New(10)
	s.SetSearch("Tuna")
	first, err := Build(Query{Page: s.Page(), PerPage: s.PerPage(), Search: s.Search()}, nil, Simple, http.MethodGet, "/rows")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s.SetSearch("tUNA")
	second, err := Build(Query{Page: s.Page(), PerPage: s.PerPage(), Search: s.Search()}, nil, Simple, http.MethodGet, "/rows")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.URL != second.URL {
		t.Fatalf("case-variant searches built different requests:\n%s\n%s", first.URL, second.URL)
	}
}
