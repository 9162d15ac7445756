package grid

import (
	"errors"
	"fmt"
	"strings"

	"tableflip.dev/grid/pkg/page"
)

// HandlerFunc is a row action callback, invoked with the row's primary key
// value and the full row.
type HandlerFunc func(id string, row page.Row)

// Registry maps action handler names to callbacks. It is an explicit value
// passed at configuration time; there is no ambient global registry.
type Registry map[string]HandlerFunc

// Register binds a handler name. Registering an empty name or nil func is
// ignored.
func (r Registry) Register(name string, fn HandlerFunc) {
	if name == "" || fn == nil {
		return
	}
	r[name] = fn
}

// Action describes one per-row action.
type Action struct {
	Label   string
	Icon    string
	Style   string
	Tooltip string

	// Handler resolution order: Func, then Name looked up in the
	// registry, then Href with the {id} placeholder substituted.
	Func HandlerFunc
	Name string
	Href string

	// Condition gates per-row visibility; nil means always visible.
	Condition func(page.Row) bool
}

// Visible reports whether the action applies to the row.
func (a Action) Visible(row page.Row) bool {
	return a.Condition == nil || a.Condition(row)
}

var ErrNoHandler = errors.New("grid: action has no resolvable handler")

// Dispatch resolves and invokes the action's handler for the row. When the
// action resolves to an href template it does not navigate; the substituted
// target is returned for the caller to act on.
func Dispatch(a Action, reg Registry, id string, row page.Row) (target string, err error) {
	if !a.Visible(row) {
		return "", fmt.Errorf("grid: action %q not available for row %q", a.Label, id)
	}
	if a.Func != nil {
		a.Func(id, row)
		return "", nil
	}
	if a.Name != "" {
		fn, ok := reg[a.Name]
		if !ok {
			return "", fmt.Errorf("grid: action handler %q not registered", a.Name)
		}
		fn(id, row)
		return "", nil
	}
	if a.Href != "" {
		return strings.ReplaceAll(a.Href, "{id}", id), nil
	}
	return "", ErrNoHandler
}
