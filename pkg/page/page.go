package page

import "fmt"

// Row is one fetched record, an open mapping from field name to value.
type Row map[string]any

// Field returns the row's value for key rendered as a string, or "" when
// the key is absent or nil.
func (r Row) Field(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// JSON numbers decode as float64; print integers without a fraction.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Page is the canonical result of one fetch cycle. It is replaced wholesale
// on the next fetch, never mutated in place.
type Page struct {
	Rows            []Row `json:"rows"`
	TotalRecords    int   `json:"totalRecords"`
	FilteredRecords int   `json:"filteredRecords"`

	// Draw is the correlation token echoed by DataTables-style servers,
	// zero when the payload carried none.
	Draw int `json:"draw,omitempty"`
}

// IDs collects the named field from every row, skipping rows where it is
// empty. The result is what selection tracking treats as the visible id set.
func (p Page) IDs(key string) []string {
	ids := make([]string, 0, len(p.Rows))
	for _, r := range p.Rows {
		if id := r.Field(key); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
