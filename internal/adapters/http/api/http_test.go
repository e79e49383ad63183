package api_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/aqframes/internal/adapters/http/api"
	service "github.com/okian/aqframes/internal/app"
	"github.com/okian/aqframes/internal/config"
	"github.com/okian/aqframes/internal/domain/chart"
	"github.com/okian/aqframes/internal/domain/model"
	"github.com/okian/aqframes/internal/domain/playback"
	. "github.com/smartystreets/goconvey/convey"
)

type rows []model.RawRow

func (r rows) Name() string { return "fixed" }

func (r rows) Load(context.Context) ([]model.RawRow, error) { return r, nil }

type idleTicker struct{}

func (idleTicker) C() <-chan time.Time { return nil }
func (idleTicker) Stop()               {}

func newService(t *testing.T) *service.Service {
	t.Helper()
	cfg := config.New()
	cfg.Charts = []chart.Definition{
		{ID: "aqi", Period: "month", Entity: []string{"city"}, Reducer: "mean", Field: "aqi", Loop: true},
		{ID: "empty", Period: "year", Entity: []string{"city"}, Reducer: "mean", Field: "no_such_field"},
	}
	svc := service.New(
		service.WithConfig(cfg),
		service.WithSource(rows{
			{"date": "2024-01-05", "city": "Delhi", "aqi": "100"},
			{"date": "2024-01-06", "city": "London", "aqi": "50"},
			{"date": "2024-03-01", "city": "London", "aqi": "40"},
		}),
		service.WithTicker(func(time.Duration) playback.Ticker { return idleTicker{} }),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = svc.Shutdown(context.Background()) })
	return svc
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](rec *httptest.ResponseRecorder) T {
	var v T
	_ = json.NewDecoder(rec.Body).Decode(&v)
	return v
}

func TestChartRoutes(t *testing.T) {
	Convey("Given the API over a started service", t, func() {
		h := api.NewServer(newService(t)).Handler()

		Convey("When listing charts", func() {
			rec := do(h, http.MethodGet, "/charts", "")

			Convey("Then both charts are returned in order", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				charts := decode[[]service.ChartInfo](rec)
				So(charts, ShouldHaveLength, 2)
				So(charts[0].Definition.ID, ShouldEqual, "aqi")
				So(charts[0].Status.State, ShouldEqual, "stopped")
			})
		})

		Convey("When reading one chart and its frame", func() {
			rec := do(h, http.MethodGet, "/charts/aqi", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(decode[service.ChartInfo](rec).Entities, ShouldResemble, []model.Key{{"Delhi"}, {"London"}})

			rec = do(h, http.MethodGet, "/charts/aqi/frame", "")

			Convey("Then the initial frame is the first month", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				f := decode[model.Frame](rec)
				So(f.Period, ShouldResemble, model.MonthPeriod(1))
				So(f.Diff.Entering, ShouldHaveLength, 2)
			})
		})

		Convey("When jumping to March", func() {
			rec := do(h, http.MethodPost, "/charts/aqi/jump?period=3", "")

			Convey("Then the new frame is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				f := decode[model.Frame](rec)
				So(f.Seq, ShouldEqual, 2)
				So(f.Diff.Exiting, ShouldHaveLength, 1)
				So(f.Diff.Exiting[0].Key, ShouldResemble, model.Key{"Delhi"})
			})

			Convey("Then history lists both frames", func() {
				rec := do(h, http.MethodGet, "/charts/aqi/frames?limit=5", "")
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(decode[[]model.Frame](rec), ShouldHaveLength, 2)
			})
		})

		Convey("When stepping", func() {
			rec := do(h, http.MethodPost, "/charts/aqi/step", "")

			Convey("Then the next period with data is shown", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(decode[model.Frame](rec).Period, ShouldResemble, model.MonthPeriod(3))
			})
		})

		Convey("When jumping to a month without data", func() {
			rec := do(h, http.MethodPost, "/charts/aqi/jump?period=7", "")

			Convey("Then an empty frame is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				f := decode[model.Frame](rec)
				So(f.Empty, ShouldBeTrue)
				So(f.Diff.Exiting, ShouldHaveLength, 2)
			})
		})

		Convey("When selecting with both entity shapes", func() {
			rec := do(h, http.MethodPost, "/charts/aqi/select", `{"entities":["Delhi",["London"]]}`)
			So(rec.Code, ShouldEqual, http.StatusOK)

			Convey("Then the selection is reported", func() {
				rec := do(h, http.MethodGet, "/charts/aqi", "")
				So(decode[service.ChartInfo](rec).Status.Selected, ShouldResemble, []model.Key{{"Delhi"}, {"London"}})
			})

			Convey("Then an empty list clears it", func() {
				So(do(h, http.MethodPost, "/charts/aqi/select", `{"entities":[]}`).Code, ShouldEqual, http.StatusOK)
				rec := do(h, http.MethodGet, "/charts/aqi", "")
				So(decode[service.ChartInfo](rec).Status.Selected, ShouldBeEmpty)
			})
		})

		Convey("When driving playback", func() {
			rec := do(h, http.MethodPost, "/charts/aqi/play", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(decode[playback.Status](rec).State, ShouldEqual, "playing")

			rec = do(h, http.MethodPost, "/charts/aqi/toggle", "")
			So(decode[playback.Status](rec).State, ShouldEqual, "stopped")

			rec = do(h, http.MethodPost, "/charts/aqi/pause", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
		})

		Convey("When requests are invalid", func() {
			Convey("Then errors map to statuses", func() {
				So(do(h, http.MethodGet, "/charts/nope", "").Code, ShouldEqual, http.StatusNotFound)
				So(do(h, http.MethodPost, "/charts/nope/play", "").Code, ShouldEqual, http.StatusNotFound)
				So(do(h, http.MethodPost, "/charts/aqi/jump", "").Code, ShouldEqual, http.StatusBadRequest)
				So(do(h, http.MethodPost, "/charts/aqi/jump?period=13", "").Code, ShouldEqual, http.StatusBadRequest)
				So(do(h, http.MethodGet, "/charts/aqi/frames?limit=0", "").Code, ShouldEqual, http.StatusBadRequest)
				So(do(h, http.MethodPost, "/charts/aqi/select", `{"entities":[1]}`).Code, ShouldEqual, http.StatusBadRequest)
				So(do(h, http.MethodPost, "/charts/aqi/select", `not json`).Code, ShouldEqual, http.StatusBadRequest)
				So(do(h, http.MethodGet, "/charts/aqi/play", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
			})

			Convey("Then playing a chart without periods conflicts", func() {
				rec := do(h, http.MethodPost, "/charts/empty/play", "")
				So(rec.Code, ShouldEqual, http.StatusConflict)
				So(do(h, http.MethodGet, "/charts/empty/frame", "").Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When reading stats and health", func() {
			rec := do(h, http.MethodGet, "/stats", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			st := decode[service.Stats](rec)
			So(st.Charts, ShouldEqual, 2)
			So(st.Rows.Records, ShouldEqual, 3)

			rec = do(h, http.MethodGet, "/healthz", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "aqframes_")

			So(do(h, http.MethodGet, "/openapi.yaml", "").Code, ShouldEqual, http.StatusOK)
		})
	})
}

func TestStream(t *testing.T) {
	Convey("Given a live server", t, func() {
		svc := newService(t)
		srv := httptest.NewServer(api.NewServer(svc, api.WithKeepAlive(time.Hour)).Handler())
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/charts/aqi/stream", nil)
		resp, err := http.DefaultClient.Do(req)
		So(err, ShouldBeNil)
		defer resp.Body.Close()

		Convey("When a frame is emitted after subscribing", func() {
			So(resp.Header.Get("Content-Type"), ShouldEqual, "text/event-stream")
			lines := bufio.NewScanner(resp.Body)
			So(lines.Scan(), ShouldBeTrue)
			So(lines.Text(), ShouldStartWith, ": subscribed")

			So(svc.Jump(ctx, "aqi", "3"), ShouldBeNil)

			Convey("Then it arrives as a frame event", func() {
				var data string
				for lines.Scan() {
					line := lines.Text()
					if strings.HasPrefix(line, "data: ") && strings.Contains(line, `"seq":2`) {
						data = strings.TrimPrefix(line, "data: ")
						break
					}
				}
				var f model.Frame
				So(json.Unmarshal([]byte(data), &f), ShouldBeNil)
				So(f.Chart, ShouldEqual, "aqi")
				So(f.Period, ShouldResemble, model.MonthPeriod(3))
			})
		})

		Convey("Then an unknown chart is refused", func() {
			res, err := http.Get(srv.URL + "/charts/nope/stream")
			So(err, ShouldBeNil)
			defer res.Body.Close()
			So(res.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}
