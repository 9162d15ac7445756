// Package selection derives the select-all header tri-state from the
// visible row ids and the selected id set. It must be recomputed whenever
// rows are re-rendered or a row selection toggles.
package selection

// State is the tri-state of the select-all control.
type State int

const (
	// Unchecked: no visible row is selected, or the page is empty.
	Unchecked State = iota
	// Checked: the page is non-empty and every visible row is selected.
	Checked
	// Indeterminate: some but not all visible rows are selected.
	Indeterminate
)

func (s State) String() string {
	switch s {
	case Checked:
		return "checked"
	case Indeterminate:
		return "indeterminate"
	default:
		return "unchecked"
	}
}

// Of computes the tri-state for the given visible ids against the selected
// set. The empty page is always Unchecked.
func Of(visible []string, selected map[string]bool) State {
	if len(visible) == 0 {
		return Unchecked
	}
	n := 0
	for _, id := range visible {
		if selected[id] {
			n++
		}
	}
	switch n {
	case 0:
		return Unchecked
	case len(visible):
		return Checked
	default:
		return Indeterminate
	}
}
