package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/medalist/internal/domain/decode"
)

const athletesCSV = `firstName,lastName,birthdate,gender,email
Anna,Berg,1995-03-01,FEMALE,anna@example.com
Max,Muster,2010-06-15,MALE,max@example.com
Eva,Muster,2011-01-01,FEMALE,not-an-email
`

func clearEnv() {
	for _, kv := range os.Environ() {
		if k, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(k, "MEDALIST_") {
			_ = os.Unsetenv(k)
		}
	}
}

func TestRootCommand(t *testing.T) {
	convey.Convey("Given the root command", t, func() {
		root := newRootCmd()

		convey.Convey("Then every subcommand should be registered", func() {
			names := map[string]bool{}
			for _, c := range root.Commands() {
				names[c.Name()] = true
			}
			convey.So(names["serve"], convey.ShouldBeTrue)
			convey.So(names["import"], convey.ShouldBeTrue)
			convey.So(names["export"], convey.ShouldBeTrue)
			convey.So(names["loadgen"], convey.ShouldBeTrue)
		})

		convey.Convey("When import is called without a file", func() {
			root.SetArgs([]string{"import", "athletes"})
			root.SetOut(&bytes.Buffer{})
			err := root.ExecuteContext(context.Background())

			convey.Convey("Then it should fail on the arguments", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When export is called without ids", func() {
			root.SetArgs([]string{"export", "athletes"})
			root.SetOut(&bytes.Buffer{})
			err := root.ExecuteContext(context.Background())

			convey.Convey("Then the required flag should be reported", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "ids")
			})
		})
	})
}

func TestBootstrap(t *testing.T) {
	convey.Convey("Given environment overrides", t, func() {
		clearEnv()
		_ = os.Setenv("MEDALIST_ADDR", ":8080")
		_ = os.Setenv("MEDALIST_WORKER_COUNT", "4")
		defer clearEnv()

		convey.Convey("Then bootstrap should load them", func() {
			cfg, err := bootstrap(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
		})
	})

	convey.Convey("Given an invalid configuration", t, func() {
		clearEnv()
		_ = os.Setenv("MEDALIST_WORKER_COUNT", "0")
		defer clearEnv()

		convey.Convey("Then bootstrap should fail", func() {
			cfg, err := bootstrap(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})

	convey.Convey("Given an unknown export profile", t, func() {
		clearEnv()
		_ = os.Setenv("MEDALIST_EXPORT_PROFILE", "xml")
		defer clearEnv()

		convey.Convey("Then the configuration should be rejected", func() {
			_, err := bootstrap(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestServerWiring(t *testing.T) {
	convey.Convey("Given a started service on the in-memory store", t, func() {
		clearEnv()
		ctx := context.Background()
		cfg, err := bootstrap(ctx)
		convey.So(err, convey.ShouldBeNil)
		svc, err := startService(ctx, cfg)
		convey.So(err, convey.ShouldBeNil)
		defer svc.Stop()
		router := newRouter(ctx, cfg, svc)

		for _, path := range []string{"/", "/healthz", "/api-docs", "/openapi.yaml", "/metrics", "/criteria"} {
			convey.Convey("Then GET "+path+" should answer 200", func() {
				rec := httptest.NewRecorder()
				router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, http.NoBody))
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			})
		}

		convey.Convey("Then refreshing the service metrics should not panic", func() {
			convey.So(func() { updateServiceMetrics(ctx, svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("When importing a file from disk", func() {
			dir := t.TempDir()
			in := filepath.Join(dir, "athletes.csv")
			convey.So(os.WriteFile(in, []byte(athletesCSV), 0o600), convey.ShouldBeNil)
			report := filepath.Join(dir, "errors.csv")
			var out bytes.Buffer

			err := runImport(ctx, svc, "athletes", in, importOptions{format: "auto", errorsPath: report}, &out)

			convey.Convey("Then a summary and the error report should be written", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out.String(), convey.ShouldContainSubstring, "3 rows, 2 imported, 1 failed")
				data, err := os.ReadFile(report)
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(data), convey.ShouldContainSubstring, "not-an-email")
			})

			convey.Convey("And exporting the athletes to stdout should render CSV", func() {
				athletes, err := svc.ListAthletes(ctx)
				convey.So(err, convey.ShouldBeNil)
				ids := make([]int64, len(athletes))
				for i, a := range athletes {
					ids[i] = a.ID
				}
				var csv bytes.Buffer
				err = runExport(ctx, svc, "athletes", exportOptions{ids: ids, profile: "iso", out: "-"}, &csv)
				convey.So(err, convey.ShouldBeNil)
				convey.So(csv.String(), convey.ShouldStartWith, "ID,First Name,Last Name")
				convey.So(csv.String(), convey.ShouldContainSubstring, "anna@example.com")
			})
		})

		convey.Convey("When importing an unknown kind", func() {
			err := runImport(ctx, svc, "coaches", "missing.csv", importOptions{}, &bytes.Buffer{})

			convey.Convey("Then it should fail", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestFormatFor(t *testing.T) {
	convey.Convey("Given input paths and format flags", t, func() {
		cases := []struct {
			path, flag string
			want       decode.Format
		}{
			{"a.csv", "auto", decode.FormatAuto},
			{"a.JSON", "auto", decode.FormatJSON},
			{"a.txt", "json", decode.FormatJSON},
			{"a.json", "csv", decode.FormatCSV},
		}
		for _, c := range cases {
			got, err := formatFor(c.path, c.flag)
			convey.So(err, convey.ShouldBeNil)
			convey.So(got, convey.ShouldEqual, c.want)
		}

		_, err := formatFor("a.csv", "xml")
		convey.So(err, convey.ShouldNotBeNil)
	})
}
