package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/rahulSailesh-shah/draw-speech-service/internal/metrics"
	"github.com/rahulSailesh-shah/draw-speech-service/internal/transcription"
)

const (
	// tickInterval is the period of the background silence-debounce check.
	tickInterval = 100 * time.Millisecond

	// closeWait bounds how long Close waits for the timing loop to exit.
	closeWait = 2 * time.Second
)

// ResultCallback delivers a completed transcription to the session's
// current consumer. It is invoked with the session lock held, so callbacks
// must not call back into the session.
type ResultCallback func(text string)

// Session processes one caller's audio stream: it feeds chunks through the
// segmentation state machine, dispatches completed segments for
// transcription, and delivers results through a replaceable callback.
type Session struct {
	id         string
	segmenter  *Segmenter
	dispatcher *transcription.Dispatcher
	logger     *slog.Logger
	metrics    *metrics.Metrics

	mu       sync.Mutex
	callback ResultCallback
	closed   bool

	createdAt time.Time
	stop      chan struct{}
	done      chan struct{}
}

// newSession constructs a session and starts its timing loop. Sessions are
// created through the Registry.
func newSession(id string, segmenter *Segmenter, dispatcher *transcription.Dispatcher, callback ResultCallback, logger *slog.Logger, m *metrics.Metrics) *Session {
	s := &Session{
		id:         id,
		segmenter:  segmenter,
		dispatcher: dispatcher,
		callback:   callback,
		logger:     logger.With(slog.String("session_id", id)),
		metrics:    m,
		createdAt:  time.Now(),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}

	go s.run()

	return s
}

// ID returns the caller-supplied session identifier.
func (s *Session) ID() string {
	return s.id
}

// Stats is a point-in-time snapshot of one session's segmentation state.
type Stats struct {
	SessionID     string  `json:"session_id"`
	Speaking      bool    `json:"speaking"`
	BufferedBytes int     `json:"buffered_bytes"`
	PassThrough   bool    `json:"pass_through"`
	AgeSeconds    float64 `json:"age_seconds"`
}

// GetStats returns the session's current state for monitoring.
func (s *Session) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		SessionID:     s.id,
		Speaking:      s.segmenter.Speaking(),
		BufferedBytes: s.segmenter.BufferedBytes(),
		PassThrough:   s.segmenter.PassThrough(),
		AgeSeconds:    time.Since(s.createdAt).Seconds(),
	}
}

// run is the timing loop. Segment completion is driven by wall-clock
// silence, not by audio arrival, so an abandoned stream still flushes its
// last utterance.
func (s *Session) run() {
	defer close(s.done)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.tick(now)
		}
	}
}

func (s *Session) tick(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	segment, ok := s.segmenter.Tick(now)
	if !ok {
		return
	}

	s.dispatchLocked(segment)
}

// dispatchLocked transcribes a segment and delivers the result. The lock is
// held for the full round trip, which serializes results per session and
// blocks concurrent feeds until the transcription returns.
func (s *Session) dispatchLocked(segment []byte) {
	text, err := s.dispatcher.Dispatch(segment)
	if err != nil {
		s.logger.Error("Transcription dispatch failed",
			slog.String("error", err.Error()),
			slog.Int("segment_bytes", len(segment)),
		)
		return
	}

	if text == "" {
		return
	}

	s.logger.Info("Transcription completed",
		slog.Int("segment_bytes", len(segment)),
		slog.Int("text_length", len(text)),
	)

	if s.callback != nil {
		s.callback(text)
	}
}

// FeedAudio ingests one raw PCM chunk. Chunks arriving after Close are
// dropped.
func (s *Session) FeedAudio(chunk []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.segmenter.Feed(chunk, time.Now())
}

// SetCallback replaces the result consumer. A reconnecting caller reuses
// its session and redirects pending results to the new connection.
func (s *Session) SetCallback(callback ResultCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.callback = callback
}

// FinalizeNow forces completion of any in-progress segment and returns its
// transcription synchronously. It returns "" when nothing was buffered or
// the segment produced no text.
func (s *Session) FinalizeNow() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ""
	}

	return s.finalizeLocked()
}

func (s *Session) finalizeLocked() string {
	segment, ok := s.segmenter.Finalize()
	if !ok {
		return ""
	}

	text, err := s.dispatcher.Dispatch(segment)
	if err != nil {
		s.logger.Error("Final transcription dispatch failed",
			slog.String("error", err.Error()),
			slog.Int("segment_bytes", len(segment)),
		)
		return ""
	}

	return text
}

// Close stops the timing loop, flushes any in-progress segment through the
// callback, and releases the session. It is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	close(s.stop)

	select {
	case <-s.done:
	case <-time.After(closeWait):
		s.logger.Warn("Timing loop did not stop within close timeout")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if text := s.finalizeLocked(); text != "" && s.callback != nil {
		s.callback(text)
	}
	s.callback = nil

	s.metrics.RecordSessionDestroyed(time.Since(s.createdAt).Seconds())
	s.logger.Info("Session closed",
		slog.Float64("lifetime_seconds", time.Since(s.createdAt).Seconds()),
	)
}
