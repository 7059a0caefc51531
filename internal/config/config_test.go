package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/nextwave678/launchit/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should carry the documented policy defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.RateLimitBackend, convey.ShouldEqual, config.BackendMemory)
			convey.So(cfg.RateLimitFailOpen, convey.ShouldBeTrue)
			convey.So(cfg.AgentLimit, convey.ShouldEqual, 10)
			convey.So(cfg.LeadLimit, convey.ShouldEqual, 100)
			convey.So(cfg.AnalyticsLimit, convey.ShouldEqual, 1000)
			convey.So(cfg.AgentWindowSec, convey.ShouldEqual, 3600)
			convey.So(cfg.SweepInterval(), convey.ShouldEqual, 5*time.Minute)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a config with defaults", t, func() {
		cfg := config.New()

		convey.Convey("When the backend is redis without an address", func() {
			cfg.RateLimitBackend = config.BackendRedis
			err := cfg.Validate()

			convey.Convey("Then validation fails with the missing address kind", func() {
				convey.So(errors.Is(err, config.ErrMissingRedisAddr), convey.ShouldBeTrue)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "redis_addr")
			})
		})

		convey.Convey("When the backend is redis with an address", func() {
			cfg.RateLimitBackend = config.BackendRedis
			cfg.RedisAddr = "localhost:6379"

			convey.Convey("Then validation passes", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the backend is unknown", func() {
			cfg.RateLimitBackend = "memcached"
			err := cfg.Validate()

			convey.Convey("Then validation fails naming the backend", func() {
				convey.So(errors.Is(err, config.ErrUnknownBackend), convey.ShouldBeTrue)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(errors.Is(err, config.ErrMissingRedisAddr), convey.ShouldBeFalse)
				convey.So(err.Error(), convey.ShouldContainSubstring, `"memcached"`)
			})
		})

		convey.Convey("When the address is empty", func() {
			cfg.Addr = ""

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrEmptyAddr), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a window is zero", func() {
			cfg.LeadWindowSec = 0
			err := cfg.Validate()

			convey.Convey("Then the offending key is named", func() {
				convey.So(errors.Is(err, config.ErrNotPositive), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "lead_window_sec")
			})
		})
	})
}
