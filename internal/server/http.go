package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rahulSailesh-shah/draw-speech-service/internal/config"
	"github.com/rahulSailesh-shah/draw-speech-service/internal/metrics"
	"github.com/rahulSailesh-shah/draw-speech-service/internal/protocol"
	"github.com/rahulSailesh-shah/draw-speech-service/internal/session"
	"github.com/rahulSailesh-shah/draw-speech-service/internal/transcription"
)

// HTTPServer is the admin and monitoring surface. It never touches audio;
// it reads registry state and exposes Prometheus metrics, plus the session
// cleanup endpoint the stream protocol delegates to.
type HTTPServer struct {
	cfg      *config.Config
	sessions *session.Registry
	logger   *slog.Logger
	metrics  *metrics.Metrics

	transcriber transcription.Transcriber
	startTime   time.Time
	httpSrv     *http.Server
}

// NewHTTPServer creates the admin server.
func NewHTTPServer(cfg *config.Config, sessions *session.Registry, transcriber transcription.Transcriber, logger *slog.Logger, m *metrics.Metrics) *HTTPServer {
	return &HTTPServer{
		cfg:         cfg,
		sessions:    sessions,
		transcriber: transcriber,
		logger:      logger,
		metrics:     m,
		startTime:   time.Now(),
	}
}

// Start listens on the configured address and serves until Stop is called.
func (s *HTTPServer) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.withMetrics("/health", s.handleHealth))
	mux.HandleFunc("/sessions", s.withMetrics("/sessions", s.handleSessions))
	mux.HandleFunc("/sessions/", s.withMetrics("/sessions/{id}", s.handleSession))
	mux.HandleFunc("/config", s.withMetrics("/config", s.handleConfig))
	mux.HandleFunc("/stats", s.withMetrics("/stats", s.handleStats))
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf("%s:%d", s.cfg.HTTP.Address, s.cfg.HTTP.Port)
	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.logger.Info("Admin server listening", slog.String("address", addr))

	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("admin server: %w", err)
	}
	return nil
}

// Stop shuts the listener down gracefully.
func (s *HTTPServer) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// responseWriter captures the status code for request metrics.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// withMetrics records request duration and error counts per endpoint.
func (s *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		handler(rw, r)

		s.metrics.RecordHTTPRequest(r.Method, endpoint, fmt.Sprintf("%d", rw.statusCode), time.Since(start).Seconds())
		if rw.statusCode >= 400 {
			s.metrics.RecordHTTPError(r.Method, endpoint, http.StatusText(rw.statusCode))
		}
	}
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "healthy",
		"uptime_seconds":  time.Since(s.startTime).Seconds(),
		"active_sessions": s.sessions.ActiveCount(),
	})
}

func (s *HTTPServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ids := s.sessions.ActiveIDs()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(ids),
		"sessions": ids,
	})
}

// handleSession serves GET (introspection) and DELETE (cleanup) on a single
// session. Cleanup is idempotent; success=false only reports that no such
// session existed.
func (s *HTTPServer) handleSession(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/sessions/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		sess := s.sessions.Get(id)
		if sess == nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		s.writeJSON(w, http.StatusOK, sess.GetStats())

	case http.MethodDelete:
		removed := s.sessions.Remove(id)
		s.logger.Info("Session cleanup requested",
			slog.String("session_id", id),
			slog.Bool("existed", removed),
		)
		s.writeJSON(w, http.StatusOK, protocol.CleanupResponse{
			SessionID: id,
			Success:   removed,
		})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleConfig returns the running configuration with credentials redacted.
func (s *HTTPServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"server": map[string]interface{}{
			"port":        s.cfg.Server.Port,
			"stream_path": s.cfg.Server.StreamPath,
		},
		"stt": map[string]interface{}{
			"sensitivity":         s.cfg.STT.Sensitivity,
			"silence_duration":    s.cfg.STT.SilenceDuration,
			"min_speech_duration": s.cfg.STT.MinSpeechDuration,
			"sample_rate":         s.cfg.STT.SampleRate,
			"language":            s.cfg.STT.Language,
		},
		"transcription": map[string]interface{}{
			"endpoint":    s.cfg.Transcription.Endpoint,
			"model":       s.cfg.Transcription.Model,
			"timeout":     s.cfg.Transcription.Timeout,
			"max_retries": s.cfg.Transcription.MaxRetries,
		},
	})
}

func (s *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := map[string]interface{}{
		"uptime_seconds":  time.Since(s.startTime).Seconds(),
		"active_sessions": s.sessions.ActiveCount(),
		"goroutines":      runtime.NumGoroutine(),
		"memory_alloc_mb": float64(memStats.Alloc) / (1 << 20),
	}

	if c, ok := s.transcriber.(*transcription.Client); ok {
		stats["transcription"] = c.GetStats()
	}

	s.writeJSON(w, http.StatusOK, stats)
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("Failed to encode response", slog.String("error", err.Error()))
	}
}
