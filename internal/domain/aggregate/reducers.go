package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/aqframes/internal/domain/model"
)

// Reducer turns the records of one group into an aggregate. It reports false
// when the group yields no value, in which case the key is omitted.
type Reducer interface {
	Name() string
	Reduce(records []model.Record) (model.Aggregate, bool)
}

// Reducer names accepted by FromConfig.
const (
	KindMean      = "mean"
	KindSum       = "sum"
	KindThreshold = "threshold"
	KindQuantile  = "quantile"
	KindCount     = "count"
)

// DefaultThresholds is the WHO guideline table used for pollutant selection.
func DefaultThresholds() map[string]float64 {
	return map[string]float64{
		"aqi":           100,
		"pm2.5_(µg/m³)": 5,
		"pm10_(µg/m³)":  15,
		"no2_(ppb)":     10,
		"co_(ppm)":      4,
		"o3_(ppb)":      100,
	}
}

// FromConfig builds a reducer from its configuration name.
// field is ignored by count and threshold; a nil table selects DefaultThresholds.
func FromConfig(kind, field string, thresholds map[string]float64) (Reducer, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindMean, "":
		return Mean(field), nil
	case KindSum:
		return Sum(field), nil
	case KindThreshold:
		if len(thresholds) == 0 {
			thresholds = DefaultThresholds()
		}
		return Threshold(thresholds), nil
	case KindQuantile:
		return Quantile(field), nil
	case KindCount:
		return Count(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownReducer, kind)
	}
}

// values collects the non-missing values of field.
func values(records []model.Record, field string) []float64 {
	out := make([]float64, 0, len(records))
	for _, r := range records {
		if v, ok := r.Value(field); ok {
			out = append(out, v)
		}
	}
	return out
}

func sum(vs []float64) float64 {
	var s float64
	for _, v := range vs {
		s += v
	}
	return s
}

type meanReducer struct{ field string }

// Mean averages field over the records where it is present.
func Mean(field string) Reducer { return meanReducer{field: field} }

func (m meanReducer) Name() string { return KindMean }

func (m meanReducer) Reduce(records []model.Record) (model.Aggregate, bool) {
	vs := values(records, m.field)
	if len(vs) == 0 {
		return model.Aggregate{}, false
	}
	return model.Aggregate{Value: sum(vs) / float64(len(vs)), Count: len(vs)}, true
}

type sumReducer struct{ field string }

// Sum totals field over the records where it is present.
func Sum(field string) Reducer { return sumReducer{field: field} }

func (s sumReducer) Name() string { return KindSum }

func (s sumReducer) Reduce(records []model.Record) (model.Aggregate, bool) {
	vs := values(records, s.field)
	if len(vs) == 0 {
		return model.Aggregate{}, false
	}
	return model.Aggregate{Value: sum(vs), Count: len(vs)}, true
}

type thresholdReducer struct {
	fields []string
	limits map[string]float64
}

// Threshold keeps, per field, the group mean only when it is strictly above
// the field's limit. Fields at or below their limit are absent from
// Aggregate.Fields, never zero. Value is the sum of the kept means, so a
// single-field table yields the mean itself.
func Threshold(limits map[string]float64) Reducer {
	fields := make([]string, 0, len(limits))
	copied := make(map[string]float64, len(limits))
	for f, l := range limits {
		fields = append(fields, f)
		copied[f] = l
	}
	sort.Strings(fields)
	return thresholdReducer{fields: fields, limits: copied}
}

func (t thresholdReducer) Name() string { return KindThreshold }

func (t thresholdReducer) Reduce(records []model.Record) (model.Aggregate, bool) {
	kept := make(map[string]float64)
	var total float64
	for _, f := range t.fields {
		vs := values(records, f)
		if len(vs) == 0 {
			continue
		}
		if mean := sum(vs) / float64(len(vs)); mean > t.limits[f] {
			kept[f] = mean
			total += mean
		}
	}
	if len(kept) == 0 {
		return model.Aggregate{}, false
	}
	return model.Aggregate{Value: total, Count: len(records), Fields: kept}, true
}

type quantileReducer struct{ field string }

// Quantile summarizes field as a box; Value is the median.
func Quantile(field string) Reducer { return quantileReducer{field: field} }

func (q quantileReducer) Name() string { return KindQuantile }

func (q quantileReducer) Reduce(records []model.Record) (model.Aggregate, bool) {
	box, err := Quantiles(values(records, q.field))
	if err != nil {
		return model.Aggregate{}, false
	}
	return model.Aggregate{Value: box.Median, Count: box.N, Box: &box}, true
}

type countReducer struct{}

// Count counts the records of a group.
func Count() Reducer { return countReducer{} }

func (countReducer) Name() string { return KindCount }

func (countReducer) Reduce(records []model.Record) (model.Aggregate, bool) {
	if len(records) == 0 {
		return model.Aggregate{}, false
	}
	return model.Aggregate{Value: float64(len(records)), Count: len(records)}, true
}
