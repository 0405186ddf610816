package httpapi

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsSubsystem = "http"

// Reasons a DAGRUN is refused before it reaches the worker pool.
const (
	rejectQueueFull   = "queue"
	rejectUnavailable = "unavailable"
	rejectUnspecified = "unspecified"
)

var routeLabels = []string{"route", "method", "code"}

var (
	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tensord",
		Subsystem: metricsSubsystem,
		Name:      "requests_total",
		Help:      "Requests served, by chi route",
	}, routeLabels)

	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tensord",
		Subsystem: metricsSubsystem,
		Name:      "request_duration_seconds",
		Help:      "Wall time from routing to the last byte written",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 9),
	}, routeLabels)

	// Tensor payloads dominate response size, so this is tracked per route.
	httpResponseBytes = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tensord",
		Subsystem: metricsSubsystem,
		Name:      "response_bytes",
		Help:      "Response body size in bytes",
		Buckets:   prometheus.ExponentialBuckets(64, 8, 8),
	}, []string{"route"})

	httpInflight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "tensord",
		Subsystem: metricsSubsystem,
		Name:      "inflight_requests",
		Help:      "Requests currently being served",
	})

	backpressureTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tensord",
		Subsystem: metricsSubsystem,
		Name:      "backpressure_total",
		Help:      "DAGRUN requests refused before admission",
	}, []string{"reason"})

	eventSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "tensord",
		Subsystem: metricsSubsystem,
		Name:      "event_subscribers",
		Help:      "Open /events websocket connections",
	})
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		httpResponseBytes,
		httpInflight,
		backpressureTotal,
		eventSubscribers,
	)
}

// responseObserver records the status code and body size a handler produced.
type responseObserver struct {
	http.ResponseWriter
	code        int
	written     int64
	wroteHeader bool
}

func (o *responseObserver) WriteHeader(code int) {
	if !o.wroteHeader {
		o.code = code
		o.wroteHeader = true
	}
	o.ResponseWriter.WriteHeader(code)
}

func (o *responseObserver) Write(p []byte) (int, error) {
	o.wroteHeader = true
	n, err := o.ResponseWriter.Write(p)
	o.written += int64(n)
	return n, err
}

// Hijack lets the /events upgrade pass through.
func (o *responseObserver) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := o.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	o.code = http.StatusSwitchingProtocols
	o.wroteHeader = true
	return h.Hijack()
}

func (o *responseObserver) Flush() {
	if f, ok := o.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (o *responseObserver) Unwrap() http.ResponseWriter { return o.ResponseWriter }

// MetricsMiddleware records request counts, latency and response size per
// chi route.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpInflight.Inc()
		defer httpInflight.Dec()

		obs := &responseObserver{ResponseWriter: w, code: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(obs, r)

		// chi fills the pattern in while routing, so read it afterwards.
		route := routePatternOrPath(r)
		code := strconv.Itoa(obs.code)
		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpRequestDuration.WithLabelValues(route, r.Method, code).Observe(time.Since(start).Seconds())
		if obs.code != http.StatusSwitchingProtocols {
			httpResponseBytes.WithLabelValues(route).Observe(float64(obs.written))
		}
	})
}

// routePatternOrPath keeps tensor keys out of label values when chi matched
// a route.
func routePatternOrPath(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// countRejection records a refused DAGRUN for the statuses that mean the
// request never ran.
func countRejection(status int) {
	switch status {
	case http.StatusTooManyRequests:
		IncrementBackpressure(rejectQueueFull)
	case http.StatusServiceUnavailable:
		IncrementBackpressure(rejectUnavailable)
	}
}

// IncrementBackpressure counts one refused request under reason.
func IncrementBackpressure(reason string) {
	if reason == "" {
		reason = rejectUnspecified
	}
	backpressureTotal.WithLabelValues(reason).Inc()
}
