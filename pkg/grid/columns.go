// Package grid defines the column and row-action configuration of a table
// instance, and the per-cell render path.
package grid

import (
	"sort"
	"strings"

	"tableflip.dev/grid/pkg/page"
)

// SelectKey is the field key of the synthetic checkbox column injected as
// the first column when selection is enabled. It never appears in sort or
// search protocol payloads.
const SelectKey = "_select"

// RenderFunc renders one cell given the raw field value and the whole row.
// It must be pure; a panicking render func falls back to the escaped raw
// value for that cell only.
type RenderFunc func(value any, row page.Row) string

// Column describes one table column. Supplied at construction, immutable
// afterwards.
type Column struct {
	FieldKey   string
	Label      string
	Sticky     bool
	Sortable   bool
	Searchable bool

	// Aliases are legacy field keys still accepted when resolving the
	// sort column against older configurations.
	Aliases []string

	Render RenderFunc
}

// Spec returns a Column with the defaults applied: sortable and searchable
// unless switched off by the caller afterwards.
func Spec(fieldKey, label string) Column {
	return Column{
		FieldKey:   fieldKey,
		Label:      label,
		Sortable:   true,
		Searchable: true,
	}
}

// InjectSelect prepends the synthetic checkbox column. The input slice is
// not mutated.
func InjectSelect(cols []Column) []Column {
	out := make([]Column, 0, len(cols)+1)
	out = append(out, Column{FieldKey: SelectKey})
	return append(out, cols...)
}

// NormalizeKey canonicalizes a field key for comparisons.
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Index locates the column whose field key (or, failing that, one of its
// legacy aliases) matches key. It returns -1 when no column matches; the
// caller treats that as "omit the order clause", not as an error.
func Index(cols []Column, key string) int {
	if key == "" {
		return -1
	}
	want := NormalizeKey(key)
	for i, c := range cols {
		if NormalizeKey(c.FieldKey) == want {
			return i
		}
	}
	for i, c := range cols {
		for _, a := range c.Aliases {
			if NormalizeKey(a) == want {
				return i
			}
		}
	}
	return -1
}

// Infer derives a column set from the first row of a page, id first and the
// rest alphabetical. Used when the caller supplied no column configuration.
func Infer(rows []page.Row) []Column {
	if len(rows) == 0 {
		return nil
	}
	keys := make([]string, 0, len(rows[0]))
	for k := range rows[0] {
		if k == "id" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if _, ok := rows[0]["id"]; ok {
		keys = append([]string{"id"}, keys...)
	}

	cols := make([]Column, 0, len(keys))
	for _, k := range keys {
		cols = append(cols, Spec(k, labelFor(k)))
	}
	return cols
}

// ParseSpecs reads a comma separated column list, each entry
// "key[:Label]". A "*" prefix marks the column sticky, "~" disables
// sorting on it.
func ParseSpecs(s string) []Column {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	cols := make([]Column, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sticky := strings.HasPrefix(part, "*")
		part = strings.TrimPrefix(part, "*")
		noSort := strings.HasPrefix(part, "~")
		part = strings.TrimPrefix(part, "~")

		key, label, ok := strings.Cut(part, ":")
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if !ok || strings.TrimSpace(label) == "" {
			label = labelFor(key)
		}
		c := Spec(key, strings.TrimSpace(label))
		c.Sticky = sticky
		c.Sortable = !noSort
		cols = append(cols, c)
	}
	return cols
}

func labelFor(key string) string {
	key = strings.ReplaceAll(key, "_", " ")
	if key == "" {
		return key
	}
	return strings.ToUpper(key[:1]) + key[1:]
}
