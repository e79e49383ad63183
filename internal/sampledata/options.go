package sampledata

import "time"

// Option configures a Generator.
type Option func(*Generator)

// WithCities sets the cities rows are spread over.
func WithCities(cities ...string) Option {
	return func(g *Generator) {
		if len(cities) > 0 {
			g.cities = cities
		}
	}
}

// WithStart sets the first generated day.
func WithStart(t time.Time) Option {
	return func(g *Generator) {
		if !t.IsZero() {
			g.start = t.UTC().Truncate(24 * time.Hour)
		}
	}
}

// WithMissingRate sets the share of numeric cells left empty, in [0, 1].
func WithMissingRate(r float64) Option {
	return func(g *Generator) {
		if r >= 0 && r <= 1 {
			g.missingRate = r
		}
	}
}
