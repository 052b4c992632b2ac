package internal

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// StatsProvider supplies the payload served by the debug endpoint.
type StatsProvider func() any

// StartDebugServer exposes relay telemetry on GET /stats. It runs in
// its own goroutine; the returned server lets the caller shut it down
// with the rest of the process.
func StartDebugServer(log *slog.Logger, port int, stats StatsProvider) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(stats()); err != nil {
			log.Warn("Failed to encode stats", "error", err)
		}
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("Debug stats available", "url", fmt.Sprintf("http://localhost:%d/stats", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn("Debug server stopped", "error", err)
		}
	}()
	return srv
}
