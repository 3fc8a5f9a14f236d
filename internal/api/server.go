package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"orbitcmd/internal/metrics"
	"orbitcmd/pkg/version"
	"orbitcmd/web"
)

// NewServer creates and configures the HTTP server.
// It accepts handlers for all API endpoints and a shutdownFunc for graceful shutdown.
func NewServer(addr string, cmdH *CommandHandler, telH *TelemetryHandler, feedH *FeedHandler, wsH *WSHandler, histH *CommandsHandler, trackH *TrackHandler, shutdown func()) *http.Server {
	mux := http.NewServeMux()

	// 1. Health Endpoint
	mux.HandleFunc("GET /health", handleHealth)

	// 2. Version Endpoint
	mux.HandleFunc("GET /api/version", handleVersion)

	// 3. Burn Command Endpoint
	mux.HandleFunc("POST /api/command", cmdH.HandleCommand)

	// 4. Telemetry Endpoint
	mux.HandleFunc("GET /api/telemetry", telH.HandleTelemetry)

	// 5. Angle Feed Endpoints
	mux.HandleFunc("GET /api/feed/angle", feedH.HandleSnapshot)
	mux.HandleFunc("GET /api/feed/stream", feedH.HandleStream)
	mux.HandleFunc("GET /api/ws", wsH.HandleWS)

	// 6. Command History Endpoint
	mux.HandleFunc("GET /api/commands", histH.HandleCommands)

	// 7. Ground Track Endpoint
	mux.HandleFunc("GET /api/track", trackH.HandleTrack)

	// 8. Log Endpoints
	mux.HandleFunc("GET /api/log/latest", handleLatestLog)
	mux.HandleFunc("GET /api/audit/latest", handleLatestAudit)

	// 9. Prometheus Endpoint
	mux.Handle("GET /metrics", metrics.Handler())

	// 10. Shutdown Endpoint
	mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Graceful shutdown initiated via API")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("Shutting down...")); err != nil {
			slog.Error("Failed to write shutdown response", "error", err)
		}
		// Call shutdown in a goroutine to allow response to flush
		go func() {
			time.Sleep(100 * time.Millisecond)
			shutdown()
		}()
	})

	// 11. Static Frontend Serving (SPA)
	spaFS := &spaFileSystem{root: http.FS(web.Content)}
	mux.Handle("/", http.FileServer(spaFS))

	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := fmt.Fprintf(w, `{"version": "%s"}`, version.Version); err != nil {
		slog.Error("Failed to write version response", "error", err)
	}
}
