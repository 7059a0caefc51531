package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	service "github.com/nextwave678/launchit/internal/app"
	"github.com/nextwave678/launchit/internal/config"
	"github.com/nextwave678/launchit/pkg/logger"
	"github.com/nextwave678/launchit/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestMainConfiguration(t *testing.T) {
	convey.Convey("Given environment overrides", t, func() {
		_ = os.Setenv("LAUNCHIT_ADDR", ":9090")
		_ = os.Setenv("LAUNCHIT_NOTIFY_WORKER_COUNT", "4")
		defer func() {
			_ = os.Unsetenv("LAUNCHIT_ADDR")
			_ = os.Unsetenv("LAUNCHIT_NOTIFY_WORKER_COUNT")
		}()

		convey.Convey("Then configuration should be loadable", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
			convey.So(cfg.NotifyWorkerCount, convey.ShouldEqual, 4)
		})
	})

	convey.Convey("Given an empty listen address", t, func() {
		_ = os.Setenv("LAUNCHIT_ADDR", "")
		defer func() { _ = os.Unsetenv("LAUNCHIT_ADDR") }()

		convey.Convey("Then configuration loading should fail", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

func TestMainWiring(t *testing.T) {
	convey.Convey("Given a started service behind the main mux", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cfg := config.New()
		cfg.JWTSecret = "main-test-secret"
		cfg.DatabasePath = filepath.Join(t.TempDir(), "launchit.db")
		cfg.NotifyWorkerCount = 1

		svc := service.New(cfg)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop(ctx)

		mux := http.NewServeMux()
		svc.Register(mux)
		ts := httptest.NewServer(mux)
		defer ts.Close()

		convey.Convey("Then health and the API document are served", func() {
			for _, path := range []string{"/healthz", "/openapi.yaml"} {
				resp, err := http.Get(ts.URL + path)
				convey.So(err, convey.ShouldBeNil)
				_ = resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("Then the metrics updaters run without panicking", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given a context that expires quickly", t, func() {
		convey.Convey("Then the system updater returns", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})

		convey.Convey("Then the service updater returns for a stopped service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			svc := service.New(config.New())
			convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
		})
	})

	convey.Convey("Given a private registry", t, func() {
		convey.Convey("Then a second metrics manager can be created", func() {
			manager := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
			convey.So(manager, convey.ShouldNotBeNil)
		})
	})
}
