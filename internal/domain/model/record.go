// Package model contains domain models passed between layers.
package model

import (
	"sort"
	"strconv"
	"time"
)

// DateLayout is the canonical layout used when a record is rendered back to a raw row.
const DateLayout = "2006-01-02"

// RawRow is one row of the input table: column name to text value.
type RawRow map[string]string

// Record is a normalized, immutable row.
// Values only ever hold finite numbers; columns that failed numeric coercion
// are listed in Missing instead.
type Record struct {
	Date       time.Time         // parsed date column
	Categories map[string]string // city, Season and derived bands
	Values     map[string]float64
	Missing    []string // sorted column names that failed coercion
}

// Value returns a numeric field and whether it is present.
func (r Record) Value(name string) (float64, bool) {
	v, ok := r.Values[name]
	return v, ok
}

// Category returns a categorical field and whether it is present.
func (r Record) Category(name string) (string, bool) {
	v, ok := r.Categories[name]
	return v, ok
}

// IsMissing reports whether name failed numeric coercion on this record.
func (r Record) IsMissing(name string) bool {
	i := sort.SearchStrings(r.Missing, name)
	return i < len(r.Missing) && r.Missing[i] == name
}

// Raw renders the record back into a raw row under dateColumn.
// Derived categories are included; normalizing the result yields an equal record.
// Missing fields are rendered as empty text.
func (r Record) Raw(dateColumn string) RawRow {
	row := make(RawRow, len(r.Categories)+len(r.Values)+len(r.Missing)+1)
	row[dateColumn] = r.Date.Format(DateLayout)
	for k, v := range r.Categories {
		row[k] = v
	}
	for k, v := range r.Values {
		row[k] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	for _, k := range r.Missing {
		row[k] = ""
	}
	return row
}
