// Package chart builds the per-period datasets a playback controller animates.
package chart

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/aqframes/internal/domain/aggregate"
	"github.com/okian/aqframes/internal/domain/model"
)

// Definition describes one animated chart.
type Definition struct {
	ID          string             `koanf:"id" json:"id" yaml:"id"`
	Title       string             `koanf:"title" json:"title,omitempty" yaml:"title,omitempty"`
	Kind        string             `koanf:"kind" json:"kind" yaml:"kind"`
	Period      string             `koanf:"period" json:"period" yaml:"period"`
	PeriodField string             `koanf:"period_field" json:"period_field,omitempty" yaml:"period_field,omitempty"`
	Entity      []string           `koanf:"entity" json:"entity" yaml:"entity"`
	Reducer     string             `koanf:"reducer" json:"reducer" yaml:"reducer"`
	Field       string             `koanf:"field" json:"field,omitempty" yaml:"field,omitempty"`
	Thresholds  map[string]float64 `koanf:"thresholds" json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
	Loop        bool               `koanf:"loop" json:"loop" yaml:"loop"`
	IntervalMs  int                `koanf:"interval_ms" json:"interval_ms,omitempty" yaml:"interval_ms,omitempty"`
}

// Interval returns the tick interval, or fallback when unset.
func (d Definition) Interval(fallback time.Duration) time.Duration {
	if d.IntervalMs > 0 {
		return time.Duration(d.IntervalMs) * time.Millisecond
	}
	return fallback
}

// Validate checks the fields Build depends on.
func (d Definition) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidDefinition)
	}
	kind, err := model.ParsePeriodKind(d.Period)
	if err != nil {
		return fmt.Errorf("%w: chart %s: %w", ErrInvalidDefinition, d.ID, err)
	}
	if kind == model.PeriodLabel && d.PeriodField == "" {
		return fmt.Errorf("%w: chart %s: label period needs period_field", ErrInvalidDefinition, d.ID)
	}
	if _, err := aggregate.FromConfig(d.Reducer, d.Field, d.Thresholds); err != nil {
		return fmt.Errorf("%w: chart %s: %w", ErrInvalidDefinition, d.ID, err)
	}
	return nil
}

// Chart holds the datasets of one definition, one per period.
// It is read-only after Build and safe for concurrent use.
type Chart struct {
	Definition Definition
	PeriodKind model.PeriodKind
	periods    []model.Period
	datasets   map[string]*model.Dataset
}

// Build groups records by period and then by the entity columns and reduces
// every group. Periods without any surviving group have no dataset.
func Build(records []model.Record, def Definition, defaults map[string]float64) (*Chart, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	kind, _ := model.ParsePeriodKind(def.Period)
	thresholds := def.Thresholds
	if len(thresholds) == 0 {
		thresholds = defaults
	}
	reducer, err := aggregate.FromConfig(def.Reducer, def.Field, thresholds)
	if err != nil {
		return nil, fmt.Errorf("%w: chart %s: %w", ErrInvalidDefinition, def.ID, err)
	}

	keyFns := make([]aggregate.KeyFunc, 0, len(def.Entity)+1)
	if kind == model.PeriodLabel {
		field := def.PeriodField
		// Labels are trimmed so padded cells share a period with clean ones
		// and the period key parses back to the same text.
		keyFns = append(keyFns, func(r model.Record) (string, bool) {
			v, ok := r.Category(field)
			v = strings.TrimSpace(v)
			return v, ok && v != ""
		})
	} else {
		keyFns = append(keyFns, aggregate.PeriodKey(kind))
	}
	for _, e := range def.Entity {
		keyFns = append(keyFns, aggregate.Category(e))
	}

	res := aggregate.Aggregate(records, keyFns, reducer)

	c := &Chart{
		Definition: def,
		PeriodKind: kind,
		datasets:   make(map[string]*model.Dataset),
	}
	for _, g := range res.Groups {
		p, err := model.ParsePeriod(kind, g.Key[0])
		if err != nil {
			return nil, fmt.Errorf("chart %s: %w", def.ID, err)
		}
		d, ok := c.datasets[p.Key()]
		if !ok {
			d = model.NewDataset(p)
			c.datasets[p.Key()] = d
			c.periods = append(c.periods, p)
		}
		entity := make(model.Key, len(g.Key)-1)
		copy(entity, g.Key[1:])
		d.Put(entity, g.Aggregate)
	}
	return c, nil
}

// Periods returns the periods that have data, in first-occurrence order.
func (c *Chart) Periods() []model.Period {
	out := make([]model.Period, len(c.periods))
	copy(out, c.periods)
	return out
}

// Dataset returns the dataset for p.
func (c *Chart) Dataset(p model.Period) (*model.Dataset, bool) {
	d, ok := c.datasets[p.Key()]
	if !ok || d.Period != p {
		return nil, false
	}
	return d, true
}

// Entities returns the distinct entity keys across all periods in
// first-occurrence order. Dropdowns and legends are built from it.
func (c *Chart) Entities() []model.Key {
	seen := make(map[string]struct{})
	var out []model.Key
	for _, p := range c.periods {
		for _, e := range c.datasets[p.Key()].Entries {
			if _, ok := seen[e.Key.ID()]; ok {
				continue
			}
			seen[e.Key.ID()] = struct{}{}
			out = append(out, e.Key)
		}
	}
	return out
}
