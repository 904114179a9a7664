// Package server provides the HTTP server and routing for serve mode.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/N10ne1337/IPTV-SHAREDMOD/internal/reconcile"
	"github.com/sirupsen/logrus"
)

// PlaylistSource returns the current local playlist text.
type PlaylistSource interface {
	Read() (string, error)
}

// Routes sets up all HTTP routes.
type Routes struct {
	log      logrus.FieldLogger
	playlist PlaylistSource
	status   *reconcile.Status
	metrics  http.Handler
}

// NewRoutes creates a new routes instance. A nil metrics handler disables /metrics.
func NewRoutes(
	log logrus.FieldLogger,
	playlist PlaylistSource,
	status *reconcile.Status,
	metrics http.Handler,
) *Routes {
	return &Routes{
		log:      log.WithField("component", "routes"),
		playlist: playlist,
		status:   status,
		metrics:  metrics,
	}
}

// Handler returns the main HTTP handler with all routes.
func (r *Routes) Handler() http.Handler {
	mux := http.NewServeMux()

	// Playlist endpoints
	mux.HandleFunc("/playlist.m3u", r.handlePlaylist)
	mux.HandleFunc("/iptv.m3u", r.handlePlaylist)

	// Health check
	mux.HandleFunc("/health", r.handleHealth)

	if r.metrics != nil {
		mux.Handle("/metrics", r.metrics)
	}

	// Wrap with logging middleware
	return r.loggingMiddleware(mux)
}

func (r *Routes) handlePlaylist(w http.ResponseWriter, req *http.Request) {
	text, err := r.playlist.Read()
	if err != nil {
		r.log.WithError(err).Error("Failed to read playlist")
		http.Error(w, "Failed to read playlist", http.StatusInternalServerError)

		return
	}

	if text == "" {
		http.Error(w, "No playlist available", http.StatusServiceUnavailable)

		return
	}

	w.Header().Set("Content-Type", "application/x-mpegurl")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write([]byte(text)); err != nil {
		r.log.WithError(err).Error("Failed to write playlist response")
	}
}

type runSummary struct {
	ID         string `json:"id"`
	Outcome    string `json:"outcome"`
	Error      string `json:"error,omitempty"`
	FinishedAt string `json:"finishedAt"`
	Entries    int    `json:"entries"`
}

func (r *Routes) handleHealth(w http.ResponseWriter, req *http.Request) {
	status := struct {
		Status      string      `json:"status"`
		LastRun     *runSummary `json:"lastRun,omitempty"`
		LastSuccess string      `json:"lastSuccess,omitempty"`
	}{
		Status: "starting",
	}

	if last, ok := r.status.Last(); ok {
		status.Status = "ok"
		if !last.Succeeded() {
			status.Status = "degraded"
		}

		status.LastRun = &runSummary{
			ID:         last.ID,
			Outcome:    string(last.Outcome),
			Error:      last.Error,
			FinishedAt: last.FinishedAt.UTC().Format(time.RFC3339),
			Entries:    last.Merged,
		}
	}

	if success, ok := r.status.LastSuccess(); ok {
		status.LastSuccess = success.FinishedAt.UTC().Format(time.RFC3339)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(status); err != nil {
		r.log.WithError(err).Error("Failed to write health response")
	}
}

func (r *Routes) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.log.WithFields(logrus.Fields{
			"method": req.Method,
			"path":   req.URL.Path,
			"remote": req.RemoteAddr,
		}).Info("HTTP request")

		next.ServeHTTP(w, req)
	})
}
