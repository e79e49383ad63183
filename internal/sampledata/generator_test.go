package sampledata_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/okian/aqframes/internal/domain/normalize"
	"github.com/okian/aqframes/internal/sampledata"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGenerate(t *testing.T) {
	Convey("Given a seeded generator", t, func() {
		rows := sampledata.Generate(100, 7)

		Convey("Then the same seed gives the same rows", func() {
			So(sampledata.Generate(100, 7), ShouldResemble, rows)
			So(sampledata.Generate(100, 8), ShouldNotResemble, rows)
		})

		Convey("Then every row carries every column", func() {
			So(rows, ShouldHaveLength, 100)
			for _, r := range rows {
				for _, c := range sampledata.Columns {
					_, ok := r[c]
					So(ok, ShouldBeTrue)
				}
			}
		})

		Convey("Then cities rotate and days advance per round", func() {
			So(rows[0][sampledata.ColumnCity], ShouldEqual, "Delhi")
			So(rows[1][sampledata.ColumnCity], ShouldEqual, "Beijing")
			So(rows[0][sampledata.ColumnDate], ShouldEqual, "2022-01-01")
			So(rows[5][sampledata.ColumnDate], ShouldEqual, "2022-01-02")
			So(rows[0][sampledata.ColumnSeason], ShouldEqual, "Winter")
		})

		Convey("Then the rows normalize without malformed dates", func() {
			_, rep := normalize.New().Normalize(context.Background(), rows)
			So(rep.Malformed, ShouldEqual, 0)
			So(rep.Records, ShouldEqual, 100)
		})
	})

	Convey("Given options", t, func() {
		rows := sampledata.Generate(4, 1,
			sampledata.WithCities("A", "B"),
			sampledata.WithStart(time.Date(2023, time.July, 1, 0, 0, 0, 0, time.UTC)),
			sampledata.WithMissingRate(1),
		)

		Convey("Then they shape the output", func() {
			So(rows[2][sampledata.ColumnCity], ShouldEqual, "A")
			So(rows[2][sampledata.ColumnDate], ShouldEqual, "2023-07-02")
			So(rows[0][sampledata.ColumnSeason], ShouldEqual, "Summer")
			So(rows[0][sampledata.ColumnAQI], ShouldBeEmpty)
		})

		Convey("Then zero rows gives nothing", func() {
			So(sampledata.Generate(0, 1), ShouldBeEmpty)
		})
	})

	Convey("Given the season table", t, func() {
		So(sampledata.Season(time.December), ShouldEqual, "Winter")
		So(sampledata.Season(time.April), ShouldEqual, "Spring")
		So(sampledata.Season(time.August), ShouldEqual, "Summer")
		So(sampledata.Season(time.October), ShouldEqual, "Autumn")
	})
}

func TestWriteCSV(t *testing.T) {
	Convey("Given generated rows", t, func() {
		rows := sampledata.Generate(10, 3)
		var buf bytes.Buffer

		Convey("When writing them as CSV", func() {
			So(sampledata.WriteCSV(&buf, sampledata.Columns, rows), ShouldBeNil)

			Convey("Then a header and one line per row are written", func() {
				recs, err := csv.NewReader(&buf).ReadAll()
				So(err, ShouldBeNil)
				So(recs, ShouldHaveLength, 11)
				So(recs[0], ShouldResemble, sampledata.Columns)
				So(recs[1][1], ShouldEqual, rows[0][sampledata.ColumnCity])
			})
		})
	})
}
