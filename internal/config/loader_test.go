package config_test

import (
	"context"
	"errors"
	"os"
	"runtime"
	"testing"

	"github.com/okian/medalist/internal/config"
	"github.com/okian/medalist/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*4)
				convey.So(cfg.StoreTimeoutMS, convey.ShouldEqual, 5_000)
				convey.So(cfg.DBMigrate, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("MEDALIST_ADDR", ":8080")
			_ = os.Setenv("MEDALIST_WORKER_COUNT", "16")
			_ = os.Setenv("MEDALIST_STORE_TIMEOUT_MS", "250")
			_ = os.Setenv("MEDALIST_DATABASE_URL", "postgres://localhost/medalist")
			_ = os.Setenv("MEDALIST_DB_MIGRATE", "false")
			_ = os.Setenv("MEDALIST_DISCIPLINES", "speed, strength ,")
			_ = os.Setenv("MEDALIST_CSV_DELIMITER", ";")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.StoreTimeoutMS, convey.ShouldEqual, 250)
				convey.So(cfg.DatabaseURL, convey.ShouldEqual, "postgres://localhost/medalist")
				convey.So(cfg.DBMigrate, convey.ShouldBeFalse)
				convey.So(cfg.Disciplines, convey.ShouldResemble, []string{"speed", "strength"})
				convey.So(cfg.DisciplineSet(), convey.ShouldContainKey, model.DisciplineSpeed)
				convey.So(cfg.Comma(), convey.ShouldEqual, ';')
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
worker_count: 24
export_profile: iso
disciplines: [SPEED, ENDURANCE]
criteria:
  - discipline: SPEED
    min_age: 15
    max_age: 30
    bronze: 60
    silver: 75
    gold: 90
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("MEDALIST_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 24)
				convey.So(cfg.ExportProfile, convey.ShouldEqual, "iso")
				convey.So(cfg.Disciplines, convey.ShouldResemble, []string{"SPEED", "ENDURANCE"})
				convey.So(cfg.MedalCriteria(), convey.ShouldHaveLength, 1)
				convey.So(cfg.MedalCriteria()[0].Gold, convey.ShouldEqual, model.Score(90_00))
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
worker_count: 24
store_timeout_ms: 900
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("MEDALIST_CONFIG", tmpFile)
			_ = os.Setenv("MEDALIST_ADDR", ":8080")      // This should override the file
			_ = os.Setenv("MEDALIST_WORKER_COUNT", "32") // This should override the file
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")         // Overridden by env
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)       // Overridden by env
				convey.So(cfg.StoreTimeoutMS, convey.ShouldEqual, 900)   // From file
				convey.So(cfg.MaxUploadBytes, convey.ShouldEqual, 10<<20) // From defaults
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("MEDALIST_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("MEDALIST_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("MEDALIST_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("MEDALIST_WORKER_COUNT", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with negative worker count", func() {
			_ = os.Setenv("MEDALIST_WORKER_COUNT", "-10")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then validation should reject it", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "worker_count")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"MEDALIST_CONFIG",
		"MEDALIST_ADDR",
		"MEDALIST_WORKER_COUNT",
		"MEDALIST_STORE_TIMEOUT_MS",
		"MEDALIST_DATABASE_URL",
		"MEDALIST_DB_MIGRATE",
		"MEDALIST_DISCIPLINES",
		"MEDALIST_CSV_DELIMITER",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "medalist-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
