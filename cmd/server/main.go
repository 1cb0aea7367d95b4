package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rahulSailesh-shah/draw-speech-service/internal/config"
	"github.com/rahulSailesh-shah/draw-speech-service/internal/metrics"
	"github.com/rahulSailesh-shah/draw-speech-service/internal/server"
	"github.com/rahulSailesh-shah/draw-speech-service/internal/session"
	"github.com/rahulSailesh-shah/draw-speech-service/internal/transcription"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to configuration file (built-in defaults when empty)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(&cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	logger.Info("Starting speech service",
		slog.Int("stream_port", cfg.Server.Port),
		slog.Int("admin_port", cfg.HTTP.Port),
		slog.Int("sample_rate", cfg.STT.SampleRate),
	)

	m := metrics.NewMetrics()

	transcriber := newTranscriber(cfg, logger)
	defer transcriber.Close()

	registry := session.NewRegistry(cfg, session.Deps{
		Transcriber: transcriber,
		Logger:      logger,
		Metrics:     m,
	})

	wsServer := server.NewWSServer(&cfg.Server, registry, logger, m)
	go func() {
		if err := wsServer.Start(); err != nil {
			logger.Error("Stream server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	var httpServer *server.HTTPServer
	if cfg.HTTP.Enabled {
		httpServer = server.NewHTTPServer(cfg, registry, transcriber, logger, m)
		go func() {
			if err := httpServer.Start(); err != nil {
				logger.Error("Admin server failed", slog.String("error", err.Error()))
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("Shutting down", slog.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Stop accepting new work first, then flush live sessions.
	if httpServer != nil {
		if err := httpServer.Stop(ctx); err != nil {
			logger.Warn("Admin server shutdown failed", slog.String("error", err.Error()))
		}
	}
	if err := wsServer.Stop(ctx); err != nil {
		logger.Warn("Stream server shutdown failed", slog.String("error", err.Error()))
	}
	registry.RemoveAll()

	logger.Info("Shutdown complete")
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// newTranscriber selects the real client or the placeholder at construction
// time. A missing endpoint degrades the service instead of failing startup.
func newTranscriber(cfg *config.Config, logger *slog.Logger) transcription.Transcriber {
	if cfg.Transcription.Endpoint == "" {
		logger.Warn("No transcription endpoint configured, using placeholder transcriber")
		return transcription.NewPlaceholder()
	}

	client, err := transcription.NewClient(transcription.Config{
		Endpoint:      cfg.Transcription.Endpoint,
		APIKey:        cfg.Transcription.APIKey,
		Model:         cfg.Transcription.Model,
		Timeout:       cfg.Transcription.GetTimeoutDuration(),
		MaxRetries:    cfg.Transcription.MaxRetries,
		MaxConcurrent: cfg.Transcription.MaxConcurrent,
	})
	if err != nil {
		logger.Warn("Transcription client unavailable, using placeholder transcriber",
			slog.String("error", err.Error()),
		)
		return transcription.NewPlaceholder()
	}

	logger.Info("Transcription client configured",
		slog.String("endpoint", cfg.Transcription.Endpoint),
		slog.String("model", cfg.Transcription.Model),
	)
	return client
}

func initLogger(cfg *config.LoggingConfig) (*slog.Logger, error) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level: %s", cfg.Level)
	}

	var output *os.File
	switch cfg.Output {
	case "stdout", "":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", cfg.Output, err)
		}
		output = f
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, nil
}
