package model

import "time"

// Change pairs one entity key with its old and new aggregate.
// Old is nil for entering keys and New is nil for exiting keys.
type Change struct {
	Key Key        `json:"key" yaml:"key"`
	Old *Aggregate `json:"old,omitempty" yaml:"old,omitempty"`
	New *Aggregate `json:"new,omitempty" yaml:"new,omitempty"`
}

// Diff is the enter/update/exit partition between two datasets.
type Diff struct {
	Entering []Change `json:"entering" yaml:"entering"`
	Updating []Change `json:"updating" yaml:"updating"`
	Exiting  []Change `json:"exiting" yaml:"exiting"`
}

// Frame is what a controller hands to a renderer on every emit.
type Frame struct {
	Chart   string    `json:"chart" yaml:"chart"`
	Seq     uint64    `json:"seq" yaml:"seq"`
	Period  Period    `json:"period" yaml:"period"`
	Empty   bool      `json:"empty" yaml:"empty"`
	Diff    Diff      `json:"diff" yaml:"diff"`
	Emitted time.Time `json:"emitted" yaml:"emitted"`
}

// Keys returns the ids of every key in d, in entering, updating, exiting order.
func (d Diff) Keys() []string {
	out := make([]string, 0, d.Len())
	for _, list := range [][]Change{d.Entering, d.Updating, d.Exiting} {
		for _, c := range list {
			out = append(out, c.Key.ID())
		}
	}
	return out
}

// Len returns the number of changes.
func (d Diff) Len() int { return len(d.Entering) + len(d.Updating) + len(d.Exiting) }
