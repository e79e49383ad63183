// Package normalize turns raw text rows into typed records.
//
// Numeric columns are coerced one field at a time: a field that is empty,
// unparsable or not finite is listed as missing and the rest of the row is
// kept. Only a row whose date cannot be read is dropped.
package normalize

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/okian/aqframes/internal/domain/model"
	"github.com/okian/aqframes/pkg/logger"
	"github.com/okian/aqframes/pkg/metrics"
)

// Derived category names.
const (
	CategoryMonth     = "month"
	CategoryYear      = "year"
	CategoryMonthName = "month_name"
	CategoryDayType   = "day_type"

	Weekday = "Weekday"
	Weekend = "Weekend"
	Low     = "Low"
	High    = "High"
)

// DefaultWeekend lists the days classed as Weekend: Friday and Saturday.
func DefaultWeekend() []time.Weekday {
	return []time.Weekday{time.Friday, time.Saturday}
}

// ParseWeekdays reads English day names such as "Friday" or "sat".
func ParseWeekdays(names []string) ([]time.Weekday, error) {
	out := make([]time.Weekday, 0, len(names))
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		found := false
		for d := time.Sunday; d <= time.Saturday; d++ {
			full := strings.ToLower(d.String())
			if key == full || (len(key) == 3 && key == full[:3]) {
				out = append(out, d)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %q", ErrInvalidWeekday, name)
		}
	}
	return out, nil
}

// DefaultDateColumn is the column parsed as the record date.
const DefaultDateColumn = "date"

// DefaultCategorical lists the columns kept as text by default.
var DefaultCategorical = []string{"date", "city", "Season"} //nolint:gochecknoglobals // default configuration

// dateLayouts are tried in order.
var dateLayouts = []string{ //nolint:gochecknoglobals // fixed parse table
	model.DateLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
}

// Band derives a Low/High category from a numeric field.
// Values at or below Threshold are Low.
type Band struct {
	Name      string  `koanf:"name" json:"name"`
	Field     string  `koanf:"field" json:"field"`
	Threshold float64 `koanf:"threshold" json:"threshold"`
}

// DefaultBands are the wind and humidity bands.
func DefaultBands() []Band {
	return []Band{
		{Name: "wind_category", Field: "wind_speed_(m/s)", Threshold: 3},
		{Name: "humidity_category", Field: "humidity_(%)", Threshold: 60},
	}
}

// Report summarizes one Normalize call.
type Report struct {
	Rows      int            `json:"rows"`
	Records   int            `json:"records"`
	Malformed int            `json:"malformed"`
	Missing   map[string]int `json:"missing"`
}

// Normalizer converts RawRows to Records. It holds no mutable state and is
// safe for concurrent use.
type Normalizer struct {
	dateColumn  string
	categorical map[string]struct{}
	bands       []Band
	weekend     [7]bool
	logger      logger.Logger
}

// New creates a Normalizer with the default columns and bands.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		dateColumn: DefaultDateColumn,
		bands:      DefaultBands(),
		logger:     logger.Nop(),
	}
	WithCategorical(DefaultCategorical...)(n)
	WithWeekend(DefaultWeekend()...)(n)
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// DateColumn returns the configured date column.
func (n *Normalizer) DateColumn() string { return n.dateColumn }

// Normalize converts rows in order. Malformed rows are skipped and counted;
// the load never aborts.
func (n *Normalizer) Normalize(ctx context.Context, rows []model.RawRow) ([]model.Record, Report) {
	rep := Report{Rows: len(rows), Missing: make(map[string]int)}
	out := make([]model.Record, 0, len(rows))
	for i, row := range rows {
		rec, err := n.NormalizeRow(row)
		if err != nil {
			rep.Malformed++
			n.logger.Warn(ctx, "skipping row",
				logger.Int("row", i),
				logger.Error(err),
			)
			continue
		}
		for _, f := range rec.Missing {
			rep.Missing[f]++
		}
		out = append(out, rec)
	}
	rep.Records = len(out)

	metrics.RecordRowsNormalized(rep.Records, rep.Malformed, rep.Missing)
	n.logger.Info(ctx, "rows normalized",
		logger.Int("rows", rep.Rows),
		logger.Int("records", rep.Records),
		logger.Int("malformed", rep.Malformed),
	)
	return out, rep
}

// NormalizeRow converts a single row.
func (n *Normalizer) NormalizeRow(row model.RawRow) (model.Record, error) {
	text, ok := row[n.dateColumn]
	if !ok {
		return model.Record{}, fmt.Errorf("%w: no %q column", ErrMalformedRow, n.dateColumn)
	}
	date, err := parseDate(text)
	if err != nil {
		return model.Record{}, fmt.Errorf("%w: %w", ErrMalformedRow, err)
	}

	rec := model.Record{
		Date:       date,
		Categories: make(map[string]string),
		Values:     make(map[string]float64),
	}
	for col, v := range row {
		switch {
		case col == n.dateColumn:
		case n.isCategorical(col):
			rec.Categories[col] = v
		default:
			f, err := coerce(v)
			if err != nil {
				rec.Missing = append(rec.Missing, col)
				continue
			}
			rec.Values[col] = f
		}
	}
	sort.Strings(rec.Missing)
	n.derive(&rec)
	return rec, nil
}

// Renormalize runs a record through the normalizer again. For records this
// normalizer produced the result equals the input.
func (n *Normalizer) Renormalize(rec model.Record) (model.Record, error) {
	return n.NormalizeRow(rec.Raw(n.dateColumn))
}

func (n *Normalizer) isCategorical(col string) bool {
	if _, ok := n.categorical[col]; ok {
		return true
	}
	switch col {
	case CategoryMonth, CategoryYear, CategoryMonthName, CategoryDayType:
		return true
	}
	for _, b := range n.bands {
		if b.Name == col {
			return true
		}
	}
	return false
}

func (n *Normalizer) derive(rec *model.Record) {
	d := rec.Date
	rec.Categories[CategoryMonth] = strconv.Itoa(int(d.Month()))
	rec.Categories[CategoryYear] = strconv.Itoa(d.Year())
	rec.Categories[CategoryMonthName] = d.Month().String()[:3]
	if n.weekend[d.Weekday()] {
		rec.Categories[CategoryDayType] = Weekend
	} else {
		rec.Categories[CategoryDayType] = Weekday
	}

	for _, b := range n.bands {
		v, ok := rec.Values[b.Field]
		if !ok {
			delete(rec.Categories, b.Name)
			continue
		}
		if v <= b.Threshold {
			rec.Categories[b.Name] = Low
		} else {
			rec.Categories[b.Name] = High
		}
	}
}

// parseDate reads text with the first matching layout and truncates the
// result to its calendar day in UTC.
func parseDate(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, text)
		if err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", text)
}

func coerce(text string) (float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, ErrMissingField
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMissingField, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: not finite", ErrMissingField)
	}
	return f, nil
}
