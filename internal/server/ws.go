package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rahulSailesh-shah/draw-speech-service/internal/config"
	"github.com/rahulSailesh-shah/draw-speech-service/internal/metrics"
	"github.com/rahulSailesh-shah/draw-speech-service/internal/session"
)

// WSServer accepts WebSocket connections carrying the audio stream protocol
// and runs one StreamBridge per connection.
type WSServer struct {
	cfg      *config.ServerConfig
	sessions *session.Registry
	logger   *slog.Logger
	metrics  *metrics.Metrics

	upgrader websocket.Upgrader
	httpSrv  *http.Server
}

// NewWSServer creates the streaming server.
func NewWSServer(cfg *config.ServerConfig, sessions *session.Registry, logger *slog.Logger, m *metrics.Metrics) *WSServer {
	return &WSServer{
		cfg:      cfg,
		sessions: sessions,
		logger:   logger,
		metrics:  m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Start listens on the configured address and serves until Stop is called.
// It blocks; run it in a goroutine.
func (s *WSServer) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.StreamPath, s.handleStream)

	addr := fmt.Sprintf("%s:%d", s.cfg.BindAddress, s.cfg.Port)
	s.httpSrv = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	s.logger.Info("Stream server listening",
		slog.String("address", addr),
		slog.String("path", s.cfg.StreamPath),
	)

	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("stream server: %w", err)
	}
	return nil
}

// Stop shuts the listener down gracefully. In-flight bridges finish their
// final flush; sessions themselves are closed by the registry.
func (s *WSServer) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *WSServer) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed",
			slog.String("remote", r.RemoteAddr),
			slog.String("error", err.Error()),
		)
		return
	}
	defer conn.Close()

	if s.cfg.MaxMessageSize > 0 {
		conn.SetReadLimit(s.cfg.MaxMessageSize)
	}

	connID := uuid.NewString()
	s.metrics.ConnectionsTotal.Inc()
	s.metrics.ConnectionsActive.Inc()
	defer s.metrics.ConnectionsActive.Dec()

	s.logger.Info("Stream connection opened",
		slog.String("conn_id", connID),
		slog.String("remote", r.RemoteAddr),
	)

	bridge := NewStreamBridge(conn, s.sessions, connID, s.logger, s.metrics)
	bridge.Run()

	s.logger.Info("Stream connection closed", slog.String("conn_id", connID))
}
