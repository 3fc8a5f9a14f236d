package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"orbitcmd/internal/httputil"
	"orbitcmd/internal/metrics"
	"orbitcmd/pkg/feed"
)

// FeedHandler serves the angle feed as a snapshot and as a live SSE stream.
//
// SSE message format:
//
//	data: {"type":"sample","timestamp_ms":1700000000000,"angle":0.0606}\n\n
//
// The first message on every connection is metadata:
//
//	data: {"type":"meta","capacity":1000,"samples":42}\n\n
//
// Keep-alive comments (:\n\n) are sent between samples to prevent proxies
// from timing out the connection.
type FeedHandler struct {
	ring       *feed.Ring
	keepalive  time.Duration
	limiter    *StreamLimiter
	trustProxy bool
	logger     *slog.Logger

	// pollInterval is how often the stream checks for a fresh sample.
	// Overridable in tests.
	pollInterval time.Duration
}

// NewFeedHandler creates a feed handler. The limiter caps concurrent
// streams per client address and is shared with the WebSocket handler.
func NewFeedHandler(ring *feed.Ring, limiter *StreamLimiter, keepalive time.Duration, trustProxy bool) *FeedHandler {
	if keepalive <= 0 {
		keepalive = 15 * time.Second
	}
	return &FeedHandler{
		ring:         ring,
		keepalive:    keepalive,
		limiter:      limiter,
		trustProxy:   trustProxy,
		logger:       slog.With("component", "feed_api"),
		pollInterval: time.Second,
	}
}

// HandleSnapshot returns the buffered samples, oldest first.
// GET /api/feed/angle
func (h *FeedHandler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ring.Snapshot())
}

type metaMessage struct {
	Type     string `json:"type"`
	Capacity int    `json:"capacity"`
	Samples  int    `json:"samples"`
}

type sampleMessage struct {
	Type string `json:"type"`
	feed.Sample
}

// HandleStream serves the live angle stream over SSE.
// GET /api/feed/stream
func (h *FeedHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	ip := httputil.ClientIP(r, h.trustProxy)
	if !h.limiter.acquire(ip) {
		metrics.IncStreamErrors("rate_limit")
		h.logger.Warn("Stream rate limit exceeded", "remote_ip", ip, "current_count", h.limiter.count(ip))
		w.Header().Set("Retry-After", "30")
		writeError(w, http.StatusTooManyRequests, "rate_limited", "too many concurrent streams")
		return
	}

	metrics.IncStreamConnections("connect")
	metrics.IncStreamsActive()

	startTime := time.Now()
	h.logger.Info("Stream connected", "remote_ip", ip, "user_agent", r.Header.Get("User-Agent"))

	defer func() {
		h.limiter.release(ip)
		metrics.IncStreamConnections("disconnect")
		metrics.DecStreamsActive()
		h.logger.Info("Stream disconnected", "remote_ip", ip, "duration_seconds", int(time.Since(startTime).Seconds()))
	}()

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal_error", "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering.
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Clear the server's default WriteTimeout for this long-lived connection.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("Could not clear write deadline", "error", err)
	}

	// Jittered retry interval (3-7s) so a restart does not trigger a
	// thundering-herd reconnect.
	fmt.Fprintf(w, "retry: %d\n\n", 3000+rand.Intn(4000))
	flusher.Flush()

	if err := h.send(w, flusher, rc, metaMessage{
		Type:     "meta",
		Capacity: h.ring.Capacity(),
		Samples:  h.ring.Len(),
	}); err != nil {
		metrics.IncStreamErrors("send_error")
		h.logger.Warn("Stream send error (meta)", "remote_ip", ip, "error", err)
		return
	}

	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	keepaliveTicker := time.NewTicker(h.keepalive)
	defer keepaliveTicker.Stop()

	ctx := r.Context()
	var lastSent int64

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			s, ok := h.ring.Latest()
			if !ok || s.TimestampMs == lastSent {
				continue
			}
			if err := h.send(w, flusher, rc, sampleMessage{Type: "sample", Sample: s}); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("Stream send error", "remote_ip", ip, "error", err)
				return
			}
			lastSent = s.TimestampMs
			keepaliveTicker.Reset(h.keepalive)

		case <-keepaliveTicker.C:
			if err := h.sendKeepalive(w, flusher, rc); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("Stream keepalive error", "remote_ip", ip, "error", err)
				return
			}
		}
	}
}

// send marshals v and writes it as one SSE data message.
func (h *FeedHandler) send(w http.ResponseWriter, flusher http.Flusher, rc *http.ResponseController, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}

	if err := rc.SetWriteDeadline(time.Now().Add(30 * time.Second)); err != nil {
		h.logger.Debug("Could not set write deadline", "error", err)
	}

	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	flusher.Flush()
	return nil
}

// sendKeepalive writes an SSE comment line.
func (h *FeedHandler) sendKeepalive(w http.ResponseWriter, flusher http.Flusher, rc *http.ResponseController) error {
	if err := rc.SetWriteDeadline(time.Now().Add(30 * time.Second)); err != nil {
		h.logger.Debug("Could not set write deadline", "error", err)
	}

	if _, err := fmt.Fprint(w, ":\n\n"); err != nil {
		return fmt.Errorf("keepalive write: %w", err)
	}
	flusher.Flush()
	return nil
}
