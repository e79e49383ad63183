package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/aqframes/internal/config"
)

func TestRun(t *testing.T) {
	convey.Convey("Given the aqframes binary entry point", t, func() {
		t.Setenv(config.EnvConfigPath, "")
		t.Setenv("AQF_LOG_LEVEL", "error")

		convey.Convey("When listing charts as JSON", func() {
			convey.Convey("Then it exits with zero", func() {
				convey.So(run([]string{"charts", "--format", "json"}), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When printing a few frames", func() {
			convey.Convey("Then it exits with zero", func() {
				convey.So(run([]string{"play", "--chart", "aqi-by-month", "--ticks", "2", "--rows", "100"}), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the command is unknown", func() {
			convey.Convey("Then it exits with one", func() {
				convey.So(run([]string{"bogus"}), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the config file is invalid", func() {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			convey.So(os.WriteFile(path, []byte("charts: [\n"), 0o600), convey.ShouldBeNil)

			convey.Convey("Then it exits with one", func() {
				convey.So(run([]string{"charts", "--config", path}), convey.ShouldEqual, 1)
			})
		})
	})
}
