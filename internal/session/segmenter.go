package session

import (
	"log/slog"
	"time"

	"github.com/rahulSailesh-shah/draw-speech-service/internal/audio"
	"github.com/rahulSailesh-shah/draw-speech-service/internal/metrics"
	"github.com/rahulSailesh-shah/draw-speech-service/internal/vad"
)

// SegmenterConfig contains the segmentation thresholds for one session
type SegmenterConfig struct {
	Sensitivity       float32       // speech probability threshold
	SilenceDebounce   time.Duration // trailing silence required to end a segment
	MinSpeechDuration time.Duration // shortest speech span accepted as an utterance
	SampleRate        int           // Hz
}

// Segmenter is the voice-activity-driven segmentation state machine. It has
// two states: idle (nothing buffered) and speaking (buffering, possibly
// inside a trailing-silence window). A nil classifier selects pass-through
// mode: audio is buffered and marked as speech, but segments never
// auto-complete; only Finalize flushes them.
//
// The segmenter is not safe for concurrent use. The owning session
// serializes Feed, Tick and Finalize under its lock and supplies the clock,
// which keeps the state machine deterministic under test.
type Segmenter struct {
	cfg        SegmenterConfig
	classifier vad.Classifier
	extractor  *audio.FrameExtractor
	logger     *slog.Logger
	metrics    *metrics.Metrics

	speaking     bool
	speechStart  time.Time
	silenceStart time.Time
	buffer       []byte
	carry        []byte // dangling half sample awaiting its pair
}

// NewSegmenter creates a segmenter. classifier may be nil for pass-through mode.
func NewSegmenter(cfg SegmenterConfig, classifier vad.Classifier, logger *slog.Logger, m *metrics.Metrics) *Segmenter {
	return &Segmenter{
		cfg:        cfg,
		classifier: classifier,
		extractor:  audio.NewFrameExtractor(),
		logger:     logger,
		metrics:    m,
	}
}

// Feed ingests one raw PCM chunk at the given time. The chunk is always
// appended to the segment buffer; classification only drives the state
// transitions. The buffer stays sample-aligned: a chunk ending mid-sample
// leaves its trailing byte here until the next chunk completes the sample,
// so one odd-length chunk cannot make the finalized segment unencodable.
func (g *Segmenter) Feed(chunk []byte, now time.Time) {
	if len(chunk) == 0 {
		return
	}

	data := chunk
	if len(g.carry) == 1 {
		data = make([]byte, 0, len(chunk)+1)
		data = append(data, g.carry[0])
		data = append(data, chunk...)
		g.carry = g.carry[:0]
	}
	if len(data)%2 == 1 {
		g.carry = append(g.carry, data[len(data)-1])
		data = data[:len(data)-1]
	}
	if len(data) == 0 {
		return
	}

	g.buffer = append(g.buffer, data...)

	if g.classifier == nil {
		g.markSpeech(now)
		return
	}

	g.extractor.Push(data)

	for {
		frame, ok := g.extractor.NextFrame()
		if !ok {
			return
		}

		probability, err := g.classifier.Classify(frame, g.cfg.SampleRate)
		if err != nil {
			// Availability over precision: the chunk is already buffered,
			// so skip its remaining frames and leave the state untouched.
			g.logger.Warn("Frame classification failed",
				slog.String("error", err.Error()),
			)
			return
		}

		isSpeech := probability >= g.cfg.Sensitivity
		g.metrics.RecordFrameClassified(isSpeech)

		if isSpeech {
			g.markSpeech(now)
		} else if g.speaking && g.silenceStart.IsZero() {
			g.silenceStart = now
		}
		// non-speech while idle, or while the silence timer already runs: no change
	}
}

// markSpeech applies a speech observation: enter speaking from idle and
// cancel any running silence timer.
func (g *Segmenter) markSpeech(now time.Time) {
	if !g.speaking {
		g.speaking = true
		g.speechStart = now
		g.logger.Debug("Speech started")
	}
	g.silenceStart = time.Time{}
}

// Tick evaluates the silence debounce at the given time. When the trailing
// silence has lasted at least the debounce duration it returns the buffered
// segment (true) if the speech span met the minimum duration, or discards it
// (false). Either way the segmenter resets to idle.
func (g *Segmenter) Tick(now time.Time) ([]byte, bool) {
	if !g.speaking || g.silenceStart.IsZero() {
		return nil, false
	}

	if now.Sub(g.silenceStart) < g.cfg.SilenceDebounce {
		return nil, false
	}

	speechDuration := g.silenceStart.Sub(g.speechStart)
	segment := g.buffer
	g.reset()

	if speechDuration < g.cfg.MinSpeechDuration || len(segment) == 0 {
		g.metrics.SegmentsDiscarded.Inc()
		g.logger.Debug("Segment discarded below minimum speech duration",
			slog.Float64("speech_duration", speechDuration.Seconds()),
			slog.Int("segment_bytes", len(segment)),
		)
		return nil, false
	}

	g.metrics.RecordSegmentEmitted(audio.SegmentDuration(segment, g.cfg.SampleRate), len(segment))
	g.logger.Debug("Segment completed",
		slog.Float64("speech_duration", speechDuration.Seconds()),
		slog.Int("segment_bytes", len(segment)),
	)

	return segment, true
}

// Finalize forces completion of any in-progress segment regardless of the
// silence debounce and the minimum speech duration. It returns false when
// nothing is buffered.
func (g *Segmenter) Finalize() ([]byte, bool) {
	if !g.speaking || len(g.buffer) == 0 {
		return nil, false
	}

	segment := g.buffer
	g.reset()

	g.metrics.RecordSegmentEmitted(audio.SegmentDuration(segment, g.cfg.SampleRate), len(segment))

	return segment, true
}

// reset returns the state machine to idle with an empty buffer.
func (g *Segmenter) reset() {
	g.buffer = nil
	g.speaking = false
	g.speechStart = time.Time{}
	g.silenceStart = time.Time{}
}

// Speaking reports whether the segmenter is currently buffering speech.
func (g *Segmenter) Speaking() bool {
	return g.speaking
}

// BufferedBytes returns the size of the in-progress segment buffer.
func (g *Segmenter) BufferedBytes() int {
	return len(g.buffer)
}

// PassThrough reports whether the segmenter runs without a voice activity
// classifier.
func (g *Segmenter) PassThrough() bool {
	return g.classifier == nil
}
