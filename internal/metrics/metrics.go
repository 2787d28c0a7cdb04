package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus collectors for the API and the reconciler.
var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blockfund_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blockfund_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	DonationsSubmittedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "blockfund_donations_submitted_total",
			Help: "Total number of donation transactions submitted for reconciliation",
		},
	)

	DonationsReconciledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blockfund_donations_reconciled_total",
			Help: "Total number of reconciliation outcomes",
		},
		[]string{"outcome"},
	)

	ReconcileSweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "blockfund_reconcile_sweep_duration_seconds",
			Help:    "Duration of reconciler sweeps",
			Buckets: prometheus.DefBuckets,
		},
	)

	VotesCastTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blockfund_votes_cast_total",
			Help: "Total number of verification votes cast",
		},
		[]string{"verdict"},
	)

	RealtimeSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "blockfund_realtime_subscribers",
			Help: "Number of open realtime connections",
		},
	)
)

// Reconciliation outcomes.
const (
	OutcomeConfirmed = "confirmed"
	OutcomePending   = "pending"
	OutcomeFailed    = "failed"
	OutcomeError     = "error"
)

var registerOnce sync.Once

// Register registers all collectors with the default registry. It is safe to
// call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(HTTPRequestsTotal)
		prometheus.MustRegister(HTTPRequestDuration)
		prometheus.MustRegister(DonationsSubmittedTotal)
		prometheus.MustRegister(DonationsReconciledTotal)
		prometheus.MustRegister(ReconcileSweepDuration)
		prometheus.MustRegister(VotesCastTotal)
		prometheus.MustRegister(RealtimeSubscribers)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument records request counts and latency keyed by the chi route
// pattern, so path parameters do not explode label cardinality.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
