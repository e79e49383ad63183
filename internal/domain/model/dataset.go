package model

import "strings"

// keySep joins key parts into a comparable id. It cannot occur in CSV text.
const keySep = "\x1f"

// Key is an ordered tuple of group key values, compared by value.
type Key []string

// ID returns a string usable as a map key; equal tuples share an ID.
func (k Key) ID() string { return strings.Join(k, keySep) }

// String renders the key for humans, e.g. "Delhi/Weekend".
func (k Key) String() string { return strings.Join(k, "/") }

// Equal reports value equality.
func (k Key) Equal(o Key) bool {
	if len(k) != len(o) {
		return false
	}
	for i := range k {
		if k[i] != o[i] {
			return false
		}
	}
	return true
}

// BoxStats is the quantile summary drawn by box plots.
type BoxStats struct {
	N      int     `json:"n" yaml:"n"`
	Min    float64 `json:"min" yaml:"min"`
	Q1     float64 `json:"q1" yaml:"q1"`
	Median float64 `json:"median" yaml:"median"`
	Q3     float64 `json:"q3" yaml:"q3"`
	Max    float64 `json:"max" yaml:"max"`
	IQR    float64 `json:"iqr" yaml:"iqr"`
	Lower  float64 `json:"lower_whisker" yaml:"lower_whisker"`
	Upper  float64 `json:"upper_whisker" yaml:"upper_whisker"`
}

// Aggregate is the reduced value of one group.
// Scalar reducers fill Value; threshold selection fills Fields with the
// fields above their limit only; quantile reduction fills Box.
type Aggregate struct {
	Value  float64            `json:"value" yaml:"value"`
	Count  int                `json:"count" yaml:"count"`
	Fields map[string]float64 `json:"fields,omitempty" yaml:"fields,omitempty"`
	Box    *BoxStats          `json:"box,omitempty" yaml:"box,omitempty"`
}

// Entry pairs an entity key with its aggregate.
type Entry struct {
	Key   Key       `json:"key" yaml:"key"`
	Value Aggregate `json:"value" yaml:"value"`
}

// Dataset maps entity keys to aggregates for one period.
// Entries keep first-occurrence order.
type Dataset struct {
	Period  Period  `json:"period" yaml:"period"`
	Entries []Entry `json:"entries" yaml:"entries"`
	index   map[string]int
}

// NewDataset returns an empty dataset for p.
func NewDataset(p Period) *Dataset {
	return &Dataset{Period: p, index: make(map[string]int)}
}

// Put adds or replaces the aggregate for key.
func (d *Dataset) Put(key Key, v Aggregate) {
	if d.index == nil {
		d.reindex()
	}
	if i, ok := d.index[key.ID()]; ok {
		d.Entries[i].Value = v
		return
	}
	d.index[key.ID()] = len(d.Entries)
	d.Entries = append(d.Entries, Entry{Key: key, Value: v})
}

// Get returns the aggregate for key.
func (d *Dataset) Get(key Key) (Aggregate, bool) {
	if d == nil {
		return Aggregate{}, false
	}
	if d.index == nil {
		d.reindex()
	}
	i, ok := d.index[key.ID()]
	if !ok {
		return Aggregate{}, false
	}
	return d.Entries[i].Value, true
}

// Len returns the number of entities.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Entries)
}

// Total sums entry values; pie charts derive shares from it.
func (d *Dataset) Total() float64 {
	if d == nil {
		return 0
	}
	var sum float64
	for _, e := range d.Entries {
		sum += e.Value.Value
	}
	return sum
}

// Share returns key's fraction of Total, or false if absent or Total is zero.
func (d *Dataset) Share(key Key) (float64, bool) {
	v, ok := d.Get(key)
	total := d.Total()
	if !ok || total == 0 {
		return 0, false
	}
	return v.Value / total, true
}

// Filter returns a new dataset holding the entries accepted by keep.
// A nil keep returns d unchanged.
func (d *Dataset) Filter(keep func(Key) bool) *Dataset {
	if d == nil || keep == nil {
		return d
	}
	out := NewDataset(d.Period)
	for _, e := range d.Entries {
		if keep(e.Key) {
			out.Put(e.Key, e.Value)
		}
	}
	return out
}

func (d *Dataset) reindex() {
	d.index = make(map[string]int, len(d.Entries))
	for i, e := range d.Entries {
		d.index[e.Key.ID()] = i
	}
}
