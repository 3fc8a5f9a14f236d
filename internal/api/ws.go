package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"orbitcmd/internal/httputil"
	"orbitcmd/internal/metrics"
	"orbitcmd/pkg/feed"
)

// WSHandler pushes angle samples over a WebSocket, one JSON object per
// message with the same fields as the SSE samples. Some dashboard clients
// prefer a socket to EventSource.
type WSHandler struct {
	ring       *feed.Ring
	upgrader   websocket.Upgrader
	limiter    *StreamLimiter
	trustProxy bool
	logger     *slog.Logger

	pollInterval time.Duration
}

// NewWSHandler creates a WebSocket handler. The limiter is shared with the
// SSE handler so the per-client cap spans both endpoints.
func NewWSHandler(ring *feed.Ring, limiter *StreamLimiter, trustProxy bool) *WSHandler {
	return &WSHandler{
		ring: ring,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The dashboard is served from the same origin; nothing here
			// is privileged enough to justify an origin allowlist.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		limiter:      limiter,
		trustProxy:   trustProxy,
		logger:       slog.With("component", "ws_api"),
		pollInterval: time.Second,
	}
}

// HandleWS upgrades the connection and streams samples until the client
// goes away.
// GET /api/ws
func (h *WSHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	ip := httputil.ClientIP(r, h.trustProxy)
	if !h.limiter.acquire(ip) {
		metrics.IncStreamErrors("rate_limit")
		h.logger.Warn("WebSocket rate limit exceeded", "remote_ip", ip)
		writeError(w, http.StatusTooManyRequests, "rate_limited", "too many concurrent streams")
		return
	}
	defer h.limiter.release(ip)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		metrics.IncStreamErrors("upgrade_failed")
		h.logger.Warn("WebSocket upgrade failed", "remote_ip", ip, "error", err)
		return
	}
	defer conn.Close()

	metrics.IncStreamConnections("connect")
	metrics.IncStreamsActive()
	startTime := time.Now()
	h.logger.Info("WebSocket connected", "remote_ip", ip)

	defer func() {
		metrics.IncStreamConnections("disconnect")
		metrics.DecStreamsActive()
		h.logger.Info("WebSocket disconnected", "remote_ip", ip, "duration_seconds", int(time.Since(startTime).Seconds()))
	}()

	// Reader pump. We never expect client messages, but reading is what
	// surfaces close frames and dead connections.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	var lastSent int64
	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			s, ok := h.ring.Latest()
			if !ok || s.TimestampMs == lastSent {
				continue
			}
			if err := conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
				return
			}
			if err := conn.WriteJSON(s); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Debug("WebSocket send failed", "remote_ip", ip, "error", err)
				return
			}
			lastSent = s.TimestampMs
		}
	}
}
