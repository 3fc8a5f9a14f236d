// Package metrics exposes Prometheus instrumentation for the HTTP surface,
// the tick loop, and the angle feed.
package metrics

import (
	"bufio"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitcmd_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orbitcmd_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	ticksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orbitcmd_ticks_total",
			Help: "Total number of propagation ticks applied.",
		},
	)

	ticksSkippedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orbitcmd_ticks_skipped_total",
			Help: "Ticks skipped because the telemetry store was unavailable.",
		},
	)

	burnsScheduledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orbitcmd_burns_scheduled_total",
			Help: "Burn commands accepted and installed.",
		},
	)

	burnsCompletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orbitcmd_burns_completed_total",
			Help: "Burns that ran to completion.",
		},
	)

	commandsRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitcmd_commands_rejected_total",
			Help: "Burn commands rejected, by reason.",
		},
		[]string{"reason"},
	)

	orbitAngleDegrees = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orbitcmd_orbit_angle_degrees",
			Help: "Current along-track angle in degrees.",
		},
	)

	orbitRadiusKm = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orbitcmd_orbit_radius_km",
			Help: "Current orbital radius in kilometers.",
		},
	)

	orbitAltitudeKm = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orbitcmd_orbit_altitude_km",
			Help: "Current altitude above the surface in kilometers.",
		},
	)

	orbitSpeedKmS = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orbitcmd_orbit_speed_km_per_second",
			Help: "Current speed magnitude in kilometers per second.",
		},
	)

	feedSamples = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orbitcmd_feed_samples",
			Help: "Number of samples currently held in the angle feed.",
		},
	)

	feedDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orbitcmd_feed_dropped_total",
			Help: "Oldest samples evicted from the angle feed.",
		},
	)

	streamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orbitcmd_streams_active",
			Help: "Currently connected streaming clients.",
		},
	)

	streamConnectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitcmd_stream_connections_total",
			Help: "Streaming connection events.",
		},
		[]string{"event"},
	)

	streamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitcmd_stream_errors_total",
			Help: "Streaming errors, by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(ticksTotal)
	prometheus.MustRegister(ticksSkippedTotal)
	prometheus.MustRegister(burnsScheduledTotal)
	prometheus.MustRegister(burnsCompletedTotal)
	prometheus.MustRegister(commandsRejectedTotal)
	prometheus.MustRegister(orbitAngleDegrees)
	prometheus.MustRegister(orbitRadiusKm)
	prometheus.MustRegister(orbitAltitudeKm)
	prometheus.MustRegister(orbitSpeedKmS)
	prometheus.MustRegister(feedSamples)
	prometheus.MustRegister(feedDroppedTotal)
	prometheus.MustRegister(streamsActive)
	prometheus.MustRegister(streamConnectionsTotal)
	prometheus.MustRegister(streamErrorsTotal)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// IncTick records one applied propagation tick.
func IncTick() { ticksTotal.Inc() }

// IncTickSkipped records a tick skipped due to store unavailability.
func IncTickSkipped() { ticksSkippedTotal.Inc() }

// IncBurnScheduled records an accepted burn command.
func IncBurnScheduled() { burnsScheduledTotal.Inc() }

// IncBurnCompleted records a burn that burned down to zero.
func IncBurnCompleted() { burnsCompletedTotal.Inc() }

// IncCommandRejected records a rejected burn command.
func IncCommandRejected(reason string) { commandsRejectedTotal.WithLabelValues(reason).Inc() }

// SetOrbitState publishes the current trajectory state.
func SetOrbitState(angle, radius, altitude, speed float64) {
	orbitAngleDegrees.Set(angle)
	orbitRadiusKm.Set(radius)
	orbitAltitudeKm.Set(altitude)
	orbitSpeedKmS.Set(speed)
}

// SetFeedSamples publishes the current feed length.
func SetFeedSamples(n int) { feedSamples.Set(float64(n)) }

// IncFeedDropped records one evicted feed sample.
func IncFeedDropped() { feedDroppedTotal.Inc() }

// IncStreamsActive increments the active stream gauge.
func IncStreamsActive() { streamsActive.Inc() }

// DecStreamsActive decrements the active stream gauge.
func DecStreamsActive() { streamsActive.Dec() }

// IncStreamConnections records a stream connect or disconnect event.
func IncStreamConnections(event string) { streamConnectionsTotal.WithLabelValues(event).Inc() }

// IncStreamErrors records a streaming error.
func IncStreamErrors(reason string) { streamErrorsTotal.WithLabelValues(reason).Inc() }

// knownRoutes are the paths recorded verbatim in HTTP metrics.
var knownRoutes = map[string]bool{
	"/":                 true,
	"/app.js":           true,
	"/styles.css":       true,
	"/health":           true,
	"/metrics":          true,
	"/api/command":      true,
	"/api/telemetry":    true,
	"/api/feed/angle":   true,
	"/api/feed/stream":  true,
	"/api/ws":           true,
	"/api/commands":     true,
	"/api/track":        true,
	"/api/log/latest":   true,
	"/api/audit/latest": true,
	"/api/version":      true,
	"/api/shutdown":     true,
}

// normalizeRoute maps a request path to a bounded label set. Scanner and bot
// traffic hits arbitrary paths; recording them verbatim would blow up the
// label cardinality.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush passes through so SSE streaming keeps working behind the middleware.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack passes through so WebSocket upgrades keep working behind the middleware.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hj, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return hj.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

// Unwrap supports http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
