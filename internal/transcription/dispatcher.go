package transcription

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rahulSailesh-shah/draw-speech-service/internal/audio"
	"github.com/rahulSailesh-shah/draw-speech-service/internal/metrics"
)

// Dispatcher turns finalized PCM segments into transcription text. It wraps
// each segment in a WAV envelope, calls the transcriber capability, and
// normalizes the result. One dispatcher serves one session; calls are
// serialized by the caller.
type Dispatcher struct {
	transcriber Transcriber
	sampleRate  int
	language    string
	timeout     time.Duration
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// NewDispatcher creates a dispatcher for the given transcriber capability.
func NewDispatcher(transcriber Transcriber, sampleRate int, language string,
	timeout time.Duration, logger *slog.Logger, m *metrics.Metrics) *Dispatcher {

	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Dispatcher{
		transcriber: transcriber,
		sampleRate:  sampleRate,
		language:    language,
		timeout:     timeout,
		logger:      logger,
		metrics:     m,
	}
}

// Dispatch transcribes one finalized segment. An empty string with a nil
// error means the segment contained no recognizable speech; that result is
// not delivered to callers.
func (d *Dispatcher) Dispatch(pcm []byte) (string, error) {
	if len(pcm) == 0 {
		return "", nil
	}

	wavData, err := audio.EncodeWAV(pcm, d.sampleRate)
	if err != nil {
		return "", fmt.Errorf("failed to encode segment: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	startTime := time.Now()
	text, err := d.transcriber.Transcribe(ctx, wavData, d.language)
	elapsed := time.Since(startTime)

	if err != nil {
		d.metrics.RecordTranscription(false, elapsed.Seconds())
		return "", fmt.Errorf("transcription failed: %w", err)
	}

	d.metrics.RecordTranscription(true, elapsed.Seconds())

	text = strings.TrimSpace(text)
	if text == "" {
		d.logger.Debug("Transcription returned no speech",
			slog.Float64("segment_duration", audio.SegmentDuration(pcm, d.sampleRate)),
			slog.Int("segment_bytes", len(pcm)),
		)
		return "", nil
	}

	d.logger.Debug("Segment transcribed",
		slog.Float64("segment_duration", audio.SegmentDuration(pcm, d.sampleRate)),
		slog.Float64("transcription_duration", elapsed.Seconds()),
		slog.Int("text_length", len(text)),
	)

	return text, nil
}
