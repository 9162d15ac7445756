package glyph

import "fmt"

type Glyph struct {
	Key     string
	Symbol  string
	Meaning string
}

const (
	escape    = "\x1b"
	resetCode = 0
	boldCode  = 1
	dimCode   = 2
)

func Bold(in string) string {
	return fmt.Sprintf("%s[%dm%s%s[%dm", escape, boldCode, in, escape, resetCode)
}

func Dim(in string) string {
	return fmt.Sprintf("%s[%dm%s%s[%dm", escape, dimCode, in, escape, resetCode)
}

func DefaultGlyphs() []Glyph {
	g := make([]Glyph, 0, 8)

	g = append(g, Glyph{
		Key:     "^",
		Symbol:  "▲",
		Meaning: "sorted ascending",
	}, Glyph{
		Key:     "v",
		Symbol:  "▼",
		Meaning: "sorted descending",
	}, Glyph{
		Key:     " ",
		Symbol:  "☐",
		Meaning: "none of the visible rows selected",
	}, Glyph{
		Key:     "x",
		Symbol:  "☑",
		Meaning: "every visible row selected",
	}, Glyph{
		Key:     "-",
		Symbol:  "◪",
		Meaning: "some visible rows selected",
	}, Glyph{
		Key:     "#",
		Symbol:  "⚲",
		Meaning: "search filter active",
	}, Glyph{
		Key:     "*",
		Symbol:  "✷",
		Meaning: "sticky column",
	}, Glyph{
		Key:     "",
		Symbol:  "",
		Meaning: "none",
	})

	return g
}

func (g Glyph) String() string {
	return g.Symbol
}

type Mark int

const (
	SortAsc Mark = iota
	SortDesc
	Unchecked
	Checked
	Indeterminate
	Search
	Sticky
	None
)

func (m Mark) Glyph() Glyph {
	return DefaultGlyphs()[m]
}

func (m Mark) String() string {
	return m.Glyph().String()
}
