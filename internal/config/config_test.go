package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/imobrank/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.DBDriver, convey.ShouldEqual, config.DriverSQLite)
			convey.So(cfg.DBAutoMigrate, convey.ShouldBeTrue)
			convey.So(cfg.QueryTimeout(), convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.ConnMaxLifetime(), convey.ShouldEqual, 5*time.Minute)
			convey.So(cfg.MetricsEnabled, convey.ShouldBeTrue)
			convey.So(cfg.MetricsRefresh(), convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.Convey("When the dsn is empty", func() {
			cfg.DBDSN = ""
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "db_dsn")
		})

		convey.Convey("When consistency retries are negative", func() {
			cfg.ConsistencyRetries = -1
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When a latency bucket is not positive", func() {
			cfg.MetricsLatencyBuckets = []float64{0.1, 0}
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "metrics_latency_buckets")
		})

		convey.Convey("When the driver is postgres", func() {
			cfg.DBDriver = config.DriverPostgres
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
