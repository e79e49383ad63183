package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PeriodKind selects how a record's date maps to a period.
type PeriodKind int

// Period kinds.
const (
	PeriodAll PeriodKind = iota
	PeriodMonth
	PeriodYear
	PeriodYearMonth
	PeriodLabel
)

var periodKindNames = map[PeriodKind]string{
	PeriodAll:       "all",
	PeriodMonth:     "month",
	PeriodYear:      "year",
	PeriodYearMonth: "year_month",
	PeriodLabel:     "label",
}

// String returns the configuration name of the kind.
func (k PeriodKind) String() string {
	if s, ok := periodKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// MarshalText encodes the kind by name.
func (k PeriodKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText decodes a kind name.
func (k *PeriodKind) UnmarshalText(b []byte) error {
	v, err := ParsePeriodKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// ParsePeriodKind maps a configuration name to a PeriodKind.
func ParsePeriodKind(s string) (PeriodKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return PeriodAll, nil
	}
	for k, v := range periodKindNames {
		if v == name {
			return k, nil
		}
	}
	return PeriodAll, fmt.Errorf("%w: unknown period kind %q", ErrInvalidPeriod, s)
}

// Period is a discrete, totally ordered frame label.
// Month-only periods leave Year zero; year-only periods leave Month zero;
// label periods (e.g. seasons) carry only Label.
type Period struct {
	Kind  PeriodKind `json:"kind" yaml:"kind"`
	Year  int        `json:"year,omitempty" yaml:"year,omitempty"`
	Month int        `json:"month,omitempty" yaml:"month,omitempty"`
	Label string     `json:"label,omitempty" yaml:"label,omitempty"`
}

// MonthPeriod returns the calendar-month period for m (1..12).
func MonthPeriod(m int) Period { return Period{Kind: PeriodMonth, Month: m} }

// YearPeriod returns the calendar-year period for y.
func YearPeriod(y int) Period { return Period{Kind: PeriodYear, Year: y} }

// YearMonthPeriod returns the composite period for y and m.
func YearMonthPeriod(y, m int) Period { return Period{Kind: PeriodYearMonth, Year: y, Month: m} }

// LabelPeriod returns a categorical period.
func LabelPeriod(label string) Period { return Period{Kind: PeriodLabel, Label: label} }

// PeriodOf derives the period of kind k from a date. Label periods cannot be
// derived from a date and report false.
func PeriodOf(k PeriodKind, t time.Time) (Period, bool) {
	switch k {
	case PeriodAll:
		return Period{Kind: PeriodAll}, true
	case PeriodMonth:
		return MonthPeriod(int(t.Month())), true
	case PeriodYear:
		return YearPeriod(t.Year()), true
	case PeriodYearMonth:
		return YearMonthPeriod(t.Year(), int(t.Month())), true
	default:
		return Period{}, false
	}
}

// Less orders periods by year, then month, then label.
func (p Period) Less(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	if p.Month != o.Month {
		return p.Month < o.Month
	}
	return p.Label < o.Label
}

// Key renders the period as the text used in URLs and dataset indexes.
func (p Period) Key() string {
	switch p.Kind {
	case PeriodMonth:
		return strconv.Itoa(p.Month)
	case PeriodYear:
		return strconv.Itoa(p.Year)
	case PeriodYearMonth:
		return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
	case PeriodLabel:
		return p.Label
	default:
		return "all"
	}
}

// String implements fmt.Stringer.
func (p Period) String() string { return p.Key() }

// ParsePeriod is the inverse of Period.Key for kind k.
func ParsePeriod(k PeriodKind, key string) (Period, error) {
	key = strings.TrimSpace(key)
	switch k {
	case PeriodAll:
		return Period{Kind: PeriodAll}, nil
	case PeriodMonth:
		m, err := strconv.Atoi(key)
		if err != nil || m < 1 || m > 12 {
			return Period{}, fmt.Errorf("%w: month %q", ErrInvalidPeriod, key)
		}
		return MonthPeriod(m), nil
	case PeriodYear:
		y, err := strconv.Atoi(key)
		if err != nil {
			return Period{}, fmt.Errorf("%w: year %q", ErrInvalidPeriod, key)
		}
		return YearPeriod(y), nil
	case PeriodYearMonth:
		t, err := time.Parse("2006-01", key)
		if err != nil {
			return Period{}, fmt.Errorf("%w: year-month %q", ErrInvalidPeriod, key)
		}
		return YearMonthPeriod(t.Year(), int(t.Month())), nil
	case PeriodLabel:
		if key == "" {
			return Period{}, fmt.Errorf("%w: empty label", ErrInvalidPeriod)
		}
		return LabelPeriod(key), nil
	default:
		return Period{}, fmt.Errorf("%w: kind %d", ErrInvalidPeriod, k)
	}
}
