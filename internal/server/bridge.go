package server

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rahulSailesh-shah/draw-speech-service/internal/metrics"
	"github.com/rahulSailesh-shah/draw-speech-service/internal/protocol"
	"github.com/rahulSailesh-shah/draw-speech-service/internal/session"
)

const (
	// resultQueueSize bounds the per-connection result queue. A stalled
	// writer drops results rather than blocking the session's timing loop.
	resultQueueSize = 64

	// writerPollInterval bounds how long the writer sleeps between checks
	// for reader termination when no results arrive.
	writerPollInterval = 1 * time.Second
)

// streamConn is the subset of *websocket.Conn the bridge uses, split out so
// tests can drive the bridge without a network.
type streamConn interface {
	ReadJSON(v interface{}) error
	WriteJSON(v interface{}) error
}

// StreamBridge couples one WebSocket connection to one session. The reader
// pump feeds inbound audio into the session; the writer pump drains the
// bounded result queue back to the client. The first message selects the
// session, and reader termination triggers a final flush of any buffered
// speech.
type StreamBridge struct {
	conn     streamConn
	sessions *session.Registry
	logger   *slog.Logger
	metrics  *metrics.Metrics

	results    chan protocol.StreamResponse
	readerDone chan struct{}

	// sess is written by the reader pump only; the writer pump reads it
	// after readerDone closes, which orders the accesses.
	sess *session.Session
}

// NewStreamBridge wires a connection to the registry. connID identifies the
// connection in logs, independent of the session id the client later sends.
func NewStreamBridge(conn streamConn, sessions *session.Registry, connID string, logger *slog.Logger, m *metrics.Metrics) *StreamBridge {
	return &StreamBridge{
		conn:       conn,
		sessions:   sessions,
		logger:     logger.With(slog.String("conn_id", connID)),
		metrics:    m,
		results:    make(chan protocol.StreamResponse, resultQueueSize),
		readerDone: make(chan struct{}),
	}
}

// Run services the connection until the client disconnects or ends the
// stream, then returns. The session outlives the connection; only explicit
// cleanup or shutdown destroys it.
func (b *StreamBridge) Run() {
	go b.readPump()
	b.writePump()
}

// readPump consumes client messages until the connection drops or the
// client signals end of stream.
func (b *StreamBridge) readPump() {
	defer close(b.readerDone)

	for {
		var req protocol.StreamRequest
		if err := b.conn.ReadJSON(&req); err != nil {
			// Abnormal termination is reported once on the way out; the
			// write is best effort since the transport may be gone too.
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				b.logger.Warn("Stream read failed", slog.String("error", err.Error()))
				b.enqueue(protocol.StreamError(err))
			}
			return
		}

		b.metrics.MessagesReceived.Inc()

		if err := req.Validate(); err != nil {
			b.metrics.MessagesDropped.Inc()
			b.logger.Warn("Invalid stream message dropped", slog.String("error", err.Error()))
			continue
		}

		if b.sess == nil || b.sess.ID() != req.SessionID {
			b.sess = b.sessions.GetOrCreate(req.SessionID, b.deliver)
		}

		if len(req.AudioChunk) > 0 {
			b.metrics.AudioBytesReceived.Add(float64(len(req.AudioChunk)))
			b.sess.FeedAudio(req.AudioChunk)
		}

		if req.EndOfStream {
			if text := b.sess.FinalizeNow(); text != "" {
				b.enqueue(protocol.Result(text))
			}
			return
		}
	}
}

// writePump drains the result queue to the client. After the reader stops
// it flushes whatever queued, forces one last finalize for a session that
// dropped mid-utterance, and returns.
func (b *StreamBridge) writePump() {
	for {
		select {
		case resp := <-b.results:
			if !b.write(resp) {
				return
			}
		case <-b.readerDone:
			if b.sess != nil {
				if text := b.sess.FinalizeNow(); text != "" {
					b.enqueue(protocol.Result(text))
				}
			}
			b.drain()
			return
		case <-time.After(writerPollInterval):
		}
	}
}

// drain flushes queued results after reader termination.
func (b *StreamBridge) drain() {
	for {
		select {
		case resp := <-b.results:
			if !b.write(resp) {
				return
			}
		default:
			return
		}
	}
}

func (b *StreamBridge) write(resp protocol.StreamResponse) bool {
	if err := b.conn.WriteJSON(resp); err != nil {
		b.logger.Warn("Stream write failed", slog.String("error", err.Error()))
		return false
	}
	return true
}

// deliver is the session result callback. It runs under the session lock,
// so it must never block: a full queue drops the result.
func (b *StreamBridge) deliver(text string) {
	b.enqueue(protocol.Result(text))
}

func (b *StreamBridge) enqueue(resp protocol.StreamResponse) {
	select {
	case b.results <- resp:
	default:
		b.metrics.ResultsDropped.Inc()
		b.logger.Warn("Result queue full, dropping transcription",
			slog.Int("queue_size", resultQueueSize),
		)
	}
}
