// Package metrics exposes dispatch counters and the health/metrics HTTP
// endpoints.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	// Dispatches by event kind and outcome.
	Dispatches *prometheus.CounterVec

	// End-to-end dispatch latency, including lookups and the send.
	DispatchDuration *prometheus.HistogramVec

	// Messages held by the before-snapshot cache.
	CachedMessages prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		Dispatches: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "maestro_dispatches_total",
			Help: "Total number of dispatched platform events by outcome.",
		}, []string{"event", "outcome"}),

		DispatchDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "maestro_dispatch_duration_seconds",
			Help:    "Histogram of dispatch latencies.",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"event"}),

		CachedMessages: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "maestro_cached_messages",
			Help: "Current number of messages kept for edit and delete reports.",
		}),
	}
}

func (m *Metrics) Observe(event, outcome string, elapsed time.Duration) {
	m.Dispatches.WithLabelValues(event, outcome).Inc()
	m.DispatchDuration.WithLabelValues(event).Observe(elapsed.Seconds())
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Router serves /health, which fails when the store is unreachable, and
// /metrics from gatherer.
func Router(gatherer prometheus.Gatherer, store Pinger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if store != nil {
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()
			if err := store.Ping(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("store unavailable"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return r
}
