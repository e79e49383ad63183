package aggregate_test

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/okian/aqframes/internal/domain/aggregate"
	"github.com/okian/aqframes/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func rec(date, city string, values map[string]float64) model.Record {
	d, err := time.Parse(model.DateLayout, date)
	if err != nil {
		panic(err)
	}
	return model.Record{
		Date:       d,
		Categories: map[string]string{"city": city},
		Values:     values,
	}
}

func TestAggregateGrouping(t *testing.T) {
	Convey("Given records for three cities over two months", t, func() {
		records := []model.Record{
			rec("2024-02-01", "Pune", map[string]float64{"aqi": 10}),
			rec("2024-01-01", "Delhi", map[string]float64{"aqi": 100}),
			rec("2024-01-02", "Pune", map[string]float64{"aqi": 20}),
			rec("2024-02-03", "Delhi", map[string]float64{"aqi": 300}),
			rec("2024-01-05", "Agra", map[string]float64{}),
		}
		keys := []aggregate.KeyFunc{aggregate.PeriodKey(model.PeriodMonth), aggregate.Category("city")}

		Convey("When grouping by month then city with a mean", func() {
			res := aggregate.Aggregate(records, keys, aggregate.Mean("aqi"))

			Convey("Then keys follow first occurrence at each level", func() {
				var got []string
				for _, g := range res.Groups {
					got = append(got, g.Key.String())
				}
				So(got, ShouldResemble, []string{"2/Pune", "2/Delhi", "1/Delhi", "1/Pune"})
			})

			Convey("Then a group with no value for the field is omitted", func() {
				_, ok := res.Get(model.Key{"1", "Agra"})
				So(ok, ShouldBeFalse)
				So(res.Len(), ShouldEqual, 4)
			})

			Convey("Then lookups return the reduced value and size", func() {
				g, ok := res.Get(model.Key{"2", "Delhi"})
				So(ok, ShouldBeTrue)
				So(g.Aggregate.Value, ShouldEqual, 300)
				So(g.Size, ShouldEqual, 1)
			})
		})

		Convey("When a key function rejects a record", func() {
			keys := []aggregate.KeyFunc{aggregate.Category("station")}
			res := aggregate.Aggregate(records, keys, aggregate.Count())

			Convey("Then the record is left out", func() {
				So(res.Len(), ShouldEqual, 0)
			})
		})

		Convey("When no key functions are given", func() {
			res := aggregate.Aggregate(records, nil, aggregate.Sum("aqi"))

			Convey("Then all records form a single group", func() {
				So(res.Len(), ShouldEqual, 1)
				So(res.Groups[0].Aggregate.Value, ShouldEqual, 430)
				So(res.Groups[0].Aggregate.Count, ShouldEqual, 4)
				So(res.Groups[0].Size, ShouldEqual, 5)
			})
		})
	})

	Convey("Given a nil result", t, func() {
		var res *aggregate.Result
		So(res.Len(), ShouldEqual, 0)
		_, ok := res.Get(model.Key{"x"})
		So(ok, ShouldBeFalse)
	})
}

func TestAggregateDeterminism(t *testing.T) {
	Convey("Given a large shuffled input", t, func() {
		r := rand.New(rand.NewSource(7))
		cities := []string{"A", "B", "C", "D", "E"}
		records := make([]model.Record, 0, 500)
		for i := 0; i < 500; i++ {
			date := time.Date(2020+r.Intn(3), time.Month(1+r.Intn(12)), 1, 0, 0, 0, 0, time.UTC)
			records = append(records, model.Record{
				Date:       date,
				Categories: map[string]string{"city": cities[r.Intn(len(cities))]},
				Values:     map[string]float64{"aqi": r.Float64() * 300},
			})
		}
		keys := []aggregate.KeyFunc{aggregate.PeriodKey(model.PeriodYearMonth), aggregate.Category("city")}

		Convey("When aggregating twice", func() {
			a := aggregate.Aggregate(records, keys, aggregate.Quantile("aqi"))
			b := aggregate.Aggregate(records, keys, aggregate.Quantile("aqi"))

			Convey("Then both results are identical", func() {
				So(a.Len(), ShouldEqual, b.Len())
				for i := range a.Groups {
					So(a.Groups[i].Key, ShouldResemble, b.Groups[i].Key)
					So(a.Groups[i].Size, ShouldEqual, b.Groups[i].Size)
					So(*a.Groups[i].Aggregate.Box, ShouldResemble, *b.Groups[i].Aggregate.Box)
				}
			})

			Convey("Then every box is ordered", func() {
				for _, g := range a.Groups {
					box := g.Aggregate.Box
					So(box.Q1, ShouldBeLessThanOrEqualTo, box.Median)
					So(box.Median, ShouldBeLessThanOrEqualTo, box.Q3)
					So(box.Lower, ShouldBeGreaterThanOrEqualTo, box.Min)
					So(box.Upper, ShouldBeLessThanOrEqualTo, box.Max)
				}
			})
		})
	})
}

func TestThreshold(t *testing.T) {
	Convey("Given city X measured in months 1 and 3", t, func() {
		records := []model.Record{
			rec("2024-01-01", "X", map[string]float64{"no2_(ppb)": 5}),
			rec("2024-01-15", "X", map[string]float64{"no2_(ppb)": 15}),
			rec("2024-03-01", "X", map[string]float64{"no2_(ppb)": 30}),
		}
		keys := []aggregate.KeyFunc{aggregate.PeriodKey(model.PeriodMonth), aggregate.Category("city")}

		Convey("When selecting fields above a limit of 20", func() {
			res := aggregate.Aggregate(records, keys, aggregate.Threshold(map[string]float64{"no2_(ppb)": 20}))

			Convey("Then month 1 omits X and month 3 keeps it at 30", func() {
				_, ok := res.Get(model.Key{"1", "X"})
				So(ok, ShouldBeFalse)

				g, ok := res.Get(model.Key{"3", "X"})
				So(ok, ShouldBeTrue)
				So(g.Aggregate.Value, ShouldEqual, 30)
				So(g.Aggregate.Fields, ShouldResemble, map[string]float64{"no2_(ppb)": 30})
			})
		})
	})

	Convey("Given a group with some fields under their limits", t, func() {
		records := []model.Record{
			rec("2024-01-01", "Y", map[string]float64{"aqi": 150, "co_(ppm)": 1, "o3_(ppb)": 100}),
		}

		Convey("When reducing with the default table", func() {
			agg, ok := aggregate.Threshold(aggregate.DefaultThresholds()).Reduce(records)

			Convey("Then fields at or under the limit are absent, not zero", func() {
				So(ok, ShouldBeTrue)
				So(agg.Fields, ShouldContainKey, "aqi")
				So(agg.Fields, ShouldNotContainKey, "co_(ppm)")
				So(agg.Fields, ShouldNotContainKey, "o3_(ppb)")
				So(agg.Value, ShouldEqual, 150)
			})
		})
	})
}

func TestQuantiles(t *testing.T) {
	Convey("Given the quantile helper", t, func() {
		Convey("When the input has one value", func() {
			box, err := aggregate.Quantiles([]float64{42})

			Convey("Then everything collapses to it", func() {
				So(err, ShouldBeNil)
				So(box, ShouldResemble, model.BoxStats{N: 1, Min: 42, Q1: 42, Median: 42, Q3: 42, Max: 42, IQR: 0, Lower: 42, Upper: 42})
			})
		})

		Convey("When the input is unsorted", func() {
			in := []float64{9, 1, 5, 3, 7}
			box, err := aggregate.Quantiles(in)

			Convey("Then quartiles interpolate at p*(n-1)", func() {
				So(err, ShouldBeNil)
				So(box.Q1, ShouldEqual, 3)
				So(box.Median, ShouldEqual, 5)
				So(box.Q3, ShouldEqual, 7)
				So(box.IQR, ShouldEqual, 4)
				So(box.Lower, ShouldEqual, 1)
				So(box.Upper, ShouldEqual, 9)
				So(in[0], ShouldEqual, 9)
			})
		})

		Convey("When the rank is fractional", func() {
			box, _ := aggregate.Quantiles([]float64{1, 2, 3, 4})
			So(box.Q1, ShouldAlmostEqual, 1.75)
			So(box.Median, ShouldAlmostEqual, 2.5)
			So(box.Q3, ShouldAlmostEqual, 3.25)
		})

		Convey("When an outlier stretches the range", func() {
			box, _ := aggregate.Quantiles([]float64{10, 11, 12, 13, 100})
			So(box.Upper, ShouldAlmostEqual, 13+1.5*2)
			So(box.Max, ShouldEqual, 100)
		})

		Convey("When the input is empty", func() {
			_, err := aggregate.Quantiles(nil)
			So(errors.Is(err, aggregate.ErrEmptyGroup), ShouldBeTrue)
		})
	})
}

func TestFromConfig(t *testing.T) {
	Convey("Given reducer names", t, func() {
		Convey("Then known names build the matching reducer", func() {
			for kind, name := range map[string]string{
				"mean":      aggregate.KindMean,
				"SUM":       aggregate.KindSum,
				"threshold": aggregate.KindThreshold,
				"quantile":  aggregate.KindQuantile,
				" count ":   aggregate.KindCount,
				"":          aggregate.KindMean,
			} {
				r, err := aggregate.FromConfig(kind, "aqi", nil)
				So(err, ShouldBeNil)
				So(r.Name(), ShouldEqual, name)
			}
		})

		Convey("Then an unknown name fails", func() {
			_, err := aggregate.FromConfig("median", "aqi", nil)
			So(errors.Is(err, aggregate.ErrUnknownReducer), ShouldBeTrue)
		})
	})
}
