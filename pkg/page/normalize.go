package page

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrUnrecognizedShape reports a payload that matched none of the known
// response envelopes. Callers treat it as fail-soft: the returned Page is
// the canonical empty page, safe to render as an empty table.
var ErrUnrecognizedShape = errors.New("page: unrecognized response shape")

// Normalize interprets one raw JSON payload as a canonical Page. The
// supported shapes, tried in priority order:
//
//  1. {data: [...], recordsTotal | records_total | pagination.total,
//     recordsFiltered, draw} — DataTables style
//  2. a bare array — the full row set, total = filtered = length
//  3. {items: [...], total | pagination.total}
//  4. {success: true, data: [...], pagination.total}
//
// Envelope objects are probed before the bare-array branch so that an
// envelope is never misread as an array. Anything else yields the empty
// Page and ErrUnrecognizedShape.
func Normalize(raw []byte) (Page, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil {
		switch {
		case env.Data != nil:
			return env.page(env.Data), nil
		case env.Items != nil:
			return env.page(env.Items), nil
		}
		return Page{Rows: []Row{}}, ErrUnrecognizedShape
	}

	var rows []Row
	if err := json.Unmarshal(raw, &rows); err == nil {
		if rows == nil {
			rows = []Row{}
		}
		return Page{Rows: rows, TotalRecords: len(rows), FilteredRecords: len(rows)}, nil
	}

	return Page{Rows: []Row{}}, ErrUnrecognizedShape
}

type envelope struct {
	Data  []Row `json:"data"`
	Items []Row `json:"items"`

	RecordsTotal    *flexInt `json:"recordsTotal"`
	RecordsTotalAlt *flexInt `json:"records_total"`
	RecordsFiltered *flexInt `json:"recordsFiltered"`
	Total           *flexInt `json:"total"`
	Draw            *flexInt `json:"draw"`

	Pagination struct {
		Total *flexInt `json:"total"`
	} `json:"pagination"`
}

func (e envelope) page(rows []Row) Page {
	if rows == nil {
		rows = []Row{}
	}

	total := firstInt(e.RecordsTotal, e.RecordsTotalAlt, e.Total, e.Pagination.Total)
	if total < 0 {
		total = len(rows)
	}

	filtered := firstInt(e.RecordsFiltered)
	if filtered < 0 {
		filtered = total
	}

	p := Page{Rows: rows, TotalRecords: total, FilteredRecords: filtered}
	if e.Draw != nil && *e.Draw > 0 {
		p.Draw = int(*e.Draw)
	}
	return p
}

// firstInt returns the first present count, clamped non-negative, or -1
// when none is set.
func firstInt(vs ...*flexInt) int {
	for _, v := range vs {
		if v == nil {
			continue
		}
		if *v < 0 {
			return 0
		}
		return int(*v)
	}
	return -1
}

// flexInt accepts both JSON numbers and numeric strings; DataTables echoes
// draw back as a string when it arrived on a query string.
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	if len(b) > 1 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("page: numeric string: %w", err)
		}
		*f = flexInt(n)
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}
