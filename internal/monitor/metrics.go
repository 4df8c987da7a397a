package monitor

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/turtacn/CameraShell/pkg/logger"
)

var (
	// LifecycleEvents counts lifecycle callbacks delivered to the ability, partitioned by event.
	LifecycleEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "camerashell_lifecycle_events_total",
		Help: "Total number of lifecycle callbacks handled",
	}, []string{"event"})
	// AsyncStepFailures counts failed asynchronous window-stage steps, partitioned by step.
	AsyncStepFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "camerashell_async_step_failures_total",
		Help: "Total number of failed asynchronous lifecycle steps",
	}, []string{"step"})
	// PermissionRequests counts permission request outcomes.
	PermissionRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "camerashell_permission_requests_total",
		Help: "Total number of permission requests, partitioned by outcome",
	}, []string{"outcome"})
	// ContentLoadDuration tracks the time taken to load the initial page in seconds.
	ContentLoadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "camerashell_content_load_duration_seconds",
		Help: "Time taken for the host to load the initial page",
	})
)

var registerOnce sync.Once

// Register adds the collectors to the default registry. Safe to call repeatedly.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(LifecycleEvents)
		prometheus.MustRegister(AsyncStepFailures)
		prometheus.MustRegister(PermissionRequests)
		prometheus.MustRegister(ContentLoadDuration)
	})
}

// InitMetrics registers Prometheus metrics and, when addr is non-empty, starts
// an HTTP server exposing them on addr (e.g. ":9090").
func InitMetrics(addr string) {
	Register()
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		logger.Log.Info("Metrics server starting", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Log.Error("Metrics server failed", "err", err)
		}
	}()
}

// Personal.AI order the ending
