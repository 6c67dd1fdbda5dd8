package config_test

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/okian/medalist/internal/config"
	"github.com/okian/medalist/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*4)
			convey.So(cfg.StoreTimeout(), convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.RequestTimeout(), convey.ShouldEqual, time.Minute)
			convey.So(cfg.DatabaseURL, convey.ShouldBeEmpty)
			convey.So(cfg.Comma(), convey.ShouldEqual, rune(0))
			convey.So(cfg.ExportProfile, convey.ShouldEqual, "localized")
			convey.So(len(cfg.DisciplineSet()), convey.ShouldEqual, len(model.DefaultDisciplines))
		})

		convey.Convey("Then the defaults should validate", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a config with several invalid settings", t, func() {
		cfg := config.New(context.Background())
		cfg.Addr = ""
		cfg.WorkerCount = 0
		cfg.LogFormat = "xml"
		cfg.CSVDelimiter = ";;"
		cfg.ExportProfile = "excel"

		err := cfg.Validate()

		convey.Convey("Then every problem should be reported at once", func() {
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
			convey.So(err.Error(), convey.ShouldContainSubstring, "worker_count must be at least 1")
			convey.So(err.Error(), convey.ShouldContainSubstring, "log_format")
			convey.So(err.Error(), convey.ShouldContainSubstring, "csv_delimiter")
			convey.So(err.Error(), convey.ShouldContainSubstring, "export_profile")
		})
	})

	convey.Convey("Given criteria for an unknown discipline with inverted thresholds", t, func() {
		cfg := config.New(context.Background())
		cfg.Criteria = []config.Criteria{
			{Discipline: "chess", MinAge: 10, MaxAge: 20, Bronze: 80, Silver: 70, Gold: 90},
		}

		err := cfg.Validate()

		convey.So(err, convey.ShouldNotBeNil)
		convey.So(err.Error(), convey.ShouldContainSubstring, "discipline is not configured")
		convey.So(err.Error(), convey.ShouldContainSubstring, "thresholds must satisfy")
	})

	convey.Convey("Given duplicate criteria", t, func() {
		cfg := config.New(context.Background())
		cfg.Criteria = []config.Criteria{
			{Discipline: "speed", MinAge: 15, MaxAge: 30, Bronze: 60, Silver: 75, Gold: 90},
			{Discipline: "SPEED", MinAge: 15, MaxAge: 30, Bronze: 60, Silver: 75, Gold: 90},
		}

		err := cfg.Validate()

		convey.So(err, convey.ShouldNotBeNil)
		convey.So(err.Error(), convey.ShouldContainSubstring, "duplicate discipline")
	})
}

func TestConfig_MedalCriteria(t *testing.T) {
	convey.Convey("Given configured criteria", t, func() {
		cfg := config.New(context.Background())
		cfg.Criteria = []config.Criteria{
			{Discipline: " speed ", MinAge: 15, MaxAge: 30, Bronze: 60, Silver: 75.5, Gold: 90.25},
		}

		got := cfg.MedalCriteria()

		convey.Convey("Then they should convert to domain criteria", func() {
			convey.So(got, convey.ShouldResemble, []model.MedalCriteria{{
				Discipline: model.DisciplineSpeed,
				MinAge:     15,
				MaxAge:     30,
				Bronze:     60_00,
				Silver:     75_50,
				Gold:       90_25,
			}})
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given a semicolon delimiter", t, func() {
		cfg := config.New(context.Background())
		cfg.CSVDelimiter = ";"

		convey.So(cfg.Comma(), convey.ShouldEqual, ';')
		convey.So(cfg.Validate(), convey.ShouldBeNil)
	})
}
