// Package sampledata generates a synthetic air-quality table.
//
// The generator is deterministic for a given seed, so tests, demos and the
// sample source all see the same rows.
package sampledata

import (
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/okian/aqframes/internal/domain/model"
)

// Column names written by the generator.
const (
	ColumnDate      = "date"
	ColumnCity      = "city"
	ColumnSeason    = "Season"
	ColumnAQI       = "aqi"
	ColumnPM25      = "pm2.5_(µg/m³)"
	ColumnPM10      = "pm10_(µg/m³)"
	ColumnNO2       = "no2_(ppb)"
	ColumnCO        = "co_(ppm)"
	ColumnO3        = "o3_(ppb)"
	ColumnWindSpeed = "wind_speed_(m/s)"
	ColumnHumidity  = "humidity_(%)"
)

// Columns lists every generated column in output order.
var Columns = []string{ //nolint:gochecknoglobals // column order
	ColumnDate, ColumnCity, ColumnSeason, ColumnAQI,
	ColumnPM25, ColumnPM10, ColumnNO2, ColumnCO, ColumnO3,
	ColumnWindSpeed, ColumnHumidity,
}

// DefaultCities are the cities rows are spread over.
var DefaultCities = []string{"Delhi", "Beijing", "London", "Mexico City", "São Paulo"} //nolint:gochecknoglobals // default configuration

// Generator defaults.
const (
	defaultMissingRate = 0.02
	daysPerYear        = 365
)

// cityProfile scales the pollutant baselines of one city.
type cityProfile struct {
	base float64
}

// Generator produces rows.
type Generator struct {
	cities      []string
	start       time.Time
	missingRate float64
	rng         *rand.Rand
	profiles    map[string]cityProfile
}

// New creates a generator seeded with seed.
func New(seed int64, opts ...Option) *Generator {
	g := &Generator{
		cities:      DefaultCities,
		start:       time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC),
		missingRate: defaultMissingRate,
		rng:         rand.New(rand.NewSource(seed)), //nolint:gosec // synthetic data
	}
	for _, opt := range opts {
		opt(g)
	}
	g.profiles = make(map[string]cityProfile, len(g.cities))
	for i, c := range g.cities {
		// Spread baselines from polluted to clean.
		g.profiles[c] = cityProfile{base: 1.6 - float64(i)*1.2/float64(max(len(g.cities)-1, 1))}
	}
	return g
}

// Generate returns n rows generated from seed.
func Generate(n int, seed int64, opts ...Option) []model.RawRow {
	return New(seed, opts...).Rows(n)
}

// Rows returns the next n rows. Rows walk the calendar one day per city round.
func (g *Generator) Rows(n int) []model.RawRow {
	if n <= 0 {
		return nil
	}
	rows := make([]model.RawRow, 0, n)
	for i := 0; i < n; i++ {
		city := g.cities[i%len(g.cities)]
		day := g.start.AddDate(0, 0, (i/len(g.cities))%(daysPerYear*3))
		rows = append(rows, g.row(day, city))
	}
	return rows
}

func (g *Generator) row(day time.Time, city string) model.RawRow {
	p := g.profiles[city]
	// Winter smog peak, summer ozone peak.
	phase := 2 * math.Pi * float64(day.YearDay()) / daysPerYear
	winter := 1 + 0.4*math.Cos(phase)
	summer := 1 - 0.4*math.Cos(phase)

	pm25 := g.noisy(35*p.base*winter, 0.3)
	pm10 := pm25*1.7 + g.noisy(10, 0.5)
	no2 := g.noisy(22*p.base*winter, 0.3)
	co := g.noisy(0.9*p.base, 0.4)
	o3 := g.noisy(40*summer, 0.3)
	aqi := math.Max(pm25*2.1, o3*0.9) + g.noisy(5, 0.5)

	row := model.RawRow{
		ColumnDate:      day.Format(model.DateLayout),
		ColumnCity:      city,
		ColumnSeason:    Season(day.Month()),
		ColumnAQI:       g.number(aqi, 0),
		ColumnPM25:      g.number(pm25, 1),
		ColumnPM10:      g.number(pm10, 1),
		ColumnNO2:       g.number(no2, 1),
		ColumnCO:        g.number(co, 2),
		ColumnO3:        g.number(o3, 1),
		ColumnWindSpeed: g.number(g.noisy(3, 0.6), 1),
		ColumnHumidity:  g.number(math.Min(g.noisy(60, 0.3), 100), 0),
	}
	return row
}

// noisy returns mean scaled by a random factor in [1-spread, 1+spread], never below zero.
func (g *Generator) noisy(mean, spread float64) float64 {
	v := mean * (1 + spread*(2*g.rng.Float64()-1))
	return math.Max(v, 0)
}

// number formats v, or returns an empty cell at the missing rate.
func (g *Generator) number(v float64, prec int) string {
	if g.rng.Float64() < g.missingRate {
		return ""
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// Season names the meteorological season of a northern hemisphere month.
func Season(m time.Month) string {
	switch m {
	case time.December, time.January, time.February:
		return "Winter"
	case time.March, time.April, time.May:
		return "Spring"
	case time.June, time.July, time.August:
		return "Summer"
	default:
		return "Autumn"
	}
}
