package grid

import (
	"strings"
	"unicode"

	"tableflip.dev/grid/pkg/page"
)

// RenderCell produces the display text for one cell. A custom render func
// that panics is caught here and replaced by the escaped raw value, so one
// bad cell never blanks the whole row.
func RenderCell(c Column, row page.Row) (out string) {
	raw := row.Field(c.FieldKey)

	if c.Render == nil {
		return Escape(raw)
	}

	defer func() {
		if r := recover(); r != nil {
			out = Escape(raw)
		}
	}()

	return c.Render(row[c.FieldKey], row)
}

// Escape strips terminal control sequences and non-printable runes so
// server-supplied values cannot corrupt the display.
func Escape(s string) string {
	if !strings.ContainsFunc(s, func(r rune) bool {
		return r == '\t' || r == 0x7f || !unicode.IsPrint(r)
	}) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\t':
			b.WriteByte(' ')
		case r < ' ' || r == 0x7f:
			// drop escape and control characters outright
		case unicode.IsPrint(r):
			b.WriteRune(r)
		}
	}
	return b.String()
}
