package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Metrics holds all Prometheus metrics for the API. A nil *Metrics records nothing.
type Metrics struct {
	// HTTP request metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight *prometheus.GaugeVec

	// Codec metrics
	codecOperationsTotal *prometheus.CounterVec
	decodedBytesTotal    *prometheus.CounterVec

	// API key authentication metrics
	authRequestsTotal *prometheus.CounterVec

	// Payload store metrics
	storedPayloads *prometheus.GaugeVec
}

// NewMetrics creates all Prometheus metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "borsh_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "borsh_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		httpRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "borsh_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"method", "endpoint"},
		),

		codecOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "borsh_codec_operations_total",
				Help: "Total number of encode and decode operations",
			},
			[]string{"operation", "schema", "status"},
		),

		decodedBytesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "borsh_decoded_bytes_total",
				Help: "Total number of bytes consumed by successful decodes",
			},
			[]string{"schema"},
		),

		authRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "borsh_auth_requests_total",
				Help: "Total number of authentication requests",
			},
			[]string{"status"},
		),

		storedPayloads: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "borsh_stored_payloads",
				Help: "Number of payloads in the store",
			},
			[]string{"schema"},
		),
	}
}

func status(success bool) string {
	if success {
		return statusSuccess
	}
	return statusError
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordDecode records a decode of schema; consumed counts only on success.
func (m *Metrics) RecordDecode(schema string, consumed int, success bool) {
	if m == nil {
		return
	}
	m.codecOperationsTotal.WithLabelValues("decode", schema, status(success)).Inc()
	if success {
		m.decodedBytesTotal.WithLabelValues(schema).Add(float64(consumed))
	}
}

// RecordEncode records an encode of schema.
func (m *Metrics) RecordEncode(schema string, success bool) {
	if m == nil {
		return
	}
	m.codecOperationsTotal.WithLabelValues("encode", schema, status(success)).Inc()
}

// RecordAuthRequest records an authentication request
func (m *Metrics) RecordAuthRequest(success bool) {
	if m == nil {
		return
	}
	m.authRequestsTotal.WithLabelValues(status(success)).Inc()
}

// SetStoredPayloads sets the payload count of schema.
func (m *Metrics) SetStoredPayloads(schema string, n int) {
	if m == nil {
		return
	}
	m.storedPayloads.WithLabelValues(schema).Set(float64(n))
}

// AddStoredPayloads adjusts the payload count of schema by delta.
func (m *Metrics) AddStoredPayloads(schema string, delta int) {
	if m == nil {
		return
	}
	m.storedPayloads.WithLabelValues(schema).Add(float64(delta))
}

// InstrumentHandler instruments an HTTP handler with metrics
func (m *Metrics) InstrumentHandler(method, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	if m == nil {
		return handler
	}
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		gauge := m.httpRequestsInFlight.WithLabelValues(method, endpoint)
		gauge.Inc()
		defer gauge.Dec()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		handler(rw, r)

		m.RecordHTTPRequest(method, endpoint, rw.statusCode, time.Since(start))
	}
}

// InstrumentAuthMiddleware instruments the authentication middleware
func (m *Metrics) InstrumentAuthMiddleware(next func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hasAPIKey := r.Header.Get("X-API-Key") != ""

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next(h).ServeHTTP(rw, r)

			if hasAPIKey {
				m.RecordAuthRequest(rw.statusCode != http.StatusUnauthorized)
			}
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
