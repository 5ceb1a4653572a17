package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// unmatchedRoute labels requests that no chi route claimed.
const unmatchedRoute = "unmatched"

var (
	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "hybridrag",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Requests currently being served",
		},
	)

	httpLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hybridrag",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Time to serve a request, by route and status code",
			// /answer waits on a chat completion, so the tail is long.
			Buckets: []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"route", "method", "code"},
	)

	httpServed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hybridrag",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Requests served, by route and status code",
		},
		[]string{"route", "method", "code"},
	)

	httpResponseBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hybridrag",
			Subsystem: "http",
			Name:      "response_size_bytes",
			Help:      "Response body size per route",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
		},
		[]string{"route"},
	)
)

func init() {
	prometheus.MustRegister(httpInFlight, httpLatency, httpServed, httpResponseBytes)
}

// Middleware instruments every request with the chi route pattern as the route label,
// so /chunks, /search and /answer stay low-cardinality whatever the body says.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			httpInFlight.Inc()
			defer httpInFlight.Dec()

			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			code := ww.Status()
			if code == 0 {
				code = http.StatusOK
			}
			route := routeOf(r)
			labels := prometheus.Labels{"route": route, "method": r.Method, "code": strconv.Itoa(code)}
			httpLatency.With(labels).Observe(time.Since(start).Seconds())
			httpServed.With(labels).Inc()
			httpResponseBytes.WithLabelValues(route).Observe(float64(ww.BytesWritten()))
		})
	}
}

// routeOf reads the matched pattern after routing has happened.
func routeOf(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute
	}
	if p := rctx.RoutePattern(); p != "" {
		return p
	}
	return unmatchedRoute
}
