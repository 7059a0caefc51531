package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

// withManager swaps the global manager for one backed by a fresh registry.
func withManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	prev := globalManager
	m := NewManager(append([]Option{WithPrometheusRegistry(prometheus.NewRegistry())}, opts...)...)
	globalManager = m
	t.Cleanup(func() { globalManager = prev })
	return m
}

func value(m prometheus.Metric) float64 {
	var d dto.Metric
	if err := m.Write(&d); err != nil {
		return -1
	}
	switch {
	case d.Counter != nil:
		return d.Counter.GetValue()
	case d.Gauge != nil:
		return d.Gauge.GetValue()
	}
	return -1
}

func TestMetricsOptions(t *testing.T) {
	Convey("Given custom options", t, func() {
		m := NewManager(
			WithNamespace("test"),
			WithSubsystem("unit"),
			WithHistogramBuckets([]float64{0.1, 0.5, 1}),
			WithPrometheusRegistry(prometheus.NewRegistry()),
		)

		Convey("Then the manager picks them up", func() {
			So(m.namespace, ShouldEqual, "test")
			So(m.subsystem, ShouldEqual, "unit")
			So(m.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1})
		})
	})

	Convey("Given empty options", t, func() {
		m := NewManager(
			WithNamespace(""),
			WithSubsystem(""),
			WithHistogramBuckets(nil),
			WithPrometheusRegistry(prometheus.NewRegistry()),
		)

		Convey("Then the defaults stay", func() {
			So(m.namespace, ShouldEqual, "launchit")
			So(m.subsystem, ShouldEqual, "api")
			So(m.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
		})
	})
}

func TestRateLimitMetrics(t *testing.T) {
	Convey("Given a fresh manager", t, func() {
		m := withManager(t)

		Convey("When decisions are recorded", func() {
			RecordRateLimitDecision("lead", true)
			RecordRateLimitDecision("lead", true)
			RecordRateLimitDecision("lead", false)
			RecordRateLimitStoreError("redis")

			Convey("Then they are split by outcome", func() {
				So(value(m.rateLimitDecisions.WithLabelValues("lead", "allowed")), ShouldEqual, 2.0)
				So(value(m.rateLimitDecisions.WithLabelValues("lead", "rejected")), ShouldEqual, 1.0)
				So(value(m.rateLimitErrors.WithLabelValues("redis")), ShouldEqual, 1.0)
			})
		})

		Convey("When the sweep reports", func() {
			UpdateRateLimitEntries(7)
			RecordRateLimitSwept(3)
			RecordRateLimitSwept(2)

			Convey("Then the gauge and counter follow", func() {
				So(value(m.rateLimitEntries), ShouldEqual, 7.0)
				So(value(m.rateLimitSwept), ShouldEqual, 5.0)
			})
		})
	})
}

func TestDomainMetrics(t *testing.T) {
	Convey("Given a fresh manager", t, func() {
		m := withManager(t)

		RecordEventTracked("page_view")
		RecordEventTracked("page_view")
		RecordSummary(42)
		RecordLeadCaptured()
		RecordAgentRun("research", "ok", 1.5)
		RecordAgentRun("research", "error", 0.1)

		Convey("Then each counter moved", func() {
			So(value(m.eventsTracked.WithLabelValues("page_view")), ShouldEqual, 2.0)
			So(value(m.summariesComputed), ShouldEqual, 1.0)
			So(value(m.leadsCaptured), ShouldEqual, 1.0)
			So(value(m.agentRuns.WithLabelValues("research", "ok")), ShouldEqual, 1.0)
			So(value(m.agentRuns.WithLabelValues("research", "error")), ShouldEqual, 1.0)
		})
	})
}

func TestQueueAndWorkerMetrics(t *testing.T) {
	Convey("Given a fresh manager", t, func() {
		m := withManager(t)

		UpdateQueueCapacity(16)
		UpdateQueueSize(3)
		RecordQueueEnqueue()
		RecordQueueEnqueue()
		RecordQueueDequeue()
		RecordQueueEnqueueError("full")
		UpdateWorkerActiveCount(2)
		RecordNotification("sent", 0.2)
		RecordNotification("failed", 0.4)

		Convey("Then the queue metrics are set", func() {
			So(value(m.queueCapacity), ShouldEqual, 16.0)
			So(value(m.queueSize), ShouldEqual, 3.0)
			So(value(m.queueEnqueued), ShouldEqual, 2.0)
			So(value(m.queueDequeued), ShouldEqual, 1.0)
			So(value(m.queueEnqueueErrs.WithLabelValues("full")), ShouldEqual, 1.0)
		})

		Convey("Then the worker metrics are set", func() {
			So(value(m.workerActiveCount), ShouldEqual, 2.0)
			So(value(m.notificationsSent.WithLabelValues("sent")), ShouldEqual, 1.0)
			So(value(m.notificationsSent.WithLabelValues("failed")), ShouldEqual, 1.0)
		})
	})
}

func TestHTTPAndSystemMetrics(t *testing.T) {
	Convey("Given a fresh manager", t, func() {
		m := withManager(t)

		RecordHTTPRequest("leads_capture", "POST", "200", 0.01)
		RecordHTTPRequest("leads_capture", "POST", "429", 0.001)
		RecordErrorByEndpoint("leads_capture", "POST", "rate_limited")
		RecordRepositoryError("leads", "insert")
		UpdateSystemMemoryUsage(1 << 20)
		UpdateSystemGoroutineCount(12)

		Convey("Then the values are observable", func() {
			So(value(m.httpRequests.WithLabelValues("leads_capture", "POST", "200")), ShouldEqual, 1.0)
			So(value(m.httpRequests.WithLabelValues("leads_capture", "POST", "429")), ShouldEqual, 1.0)
			So(value(m.errorRateByEndpoint.WithLabelValues("leads_capture", "POST", "rate_limited")), ShouldEqual, 1.0)
			So(value(m.repositoryErrors.WithLabelValues("leads", "insert")), ShouldEqual, 1.0)
			So(value(m.systemMemoryUsage), ShouldEqual, float64(1<<20))
			So(value(m.systemGoroutineCount), ShouldEqual, 12.0)
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the package registry", t, func() {
		reg := GetRegistry()

		Convey("Then it carries the service metrics", func() {
			RecordLeadCaptured()
			families, err := reg.Gather()
			So(err, ShouldBeNil)

			var found bool
			for _, f := range families {
				if f.GetName() == "launchit_api_leads_captured_total" {
					found = true
				}
			}
			So(found, ShouldBeTrue)
		})
	})
}
