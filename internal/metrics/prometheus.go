// Package metrics defines the Prometheus instrumentation for the speech service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the speech service
type Metrics struct {
	// Stream connection metrics
	ConnectionsActive  prometheus.Gauge
	ConnectionsTotal   prometheus.Counter
	MessagesReceived   prometheus.Counter
	MessagesDropped    prometheus.Counter
	ResultsDropped     prometheus.Counter
	AudioBytesReceived prometheus.Counter

	// Session metrics
	ActiveSessions    prometheus.Gauge
	SessionsCreated   prometheus.Counter
	SessionsDestroyed prometheus.Counter
	SessionDuration   prometheus.Histogram

	// VAD metrics
	FramesClassified prometheus.Counter
	SpeechFrames     prometheus.Counter

	// Segment metrics
	SegmentsEmitted   prometheus.Counter
	SegmentsDiscarded prometheus.Counter
	SegmentDuration   prometheus.Histogram
	SegmentSize       prometheus.Histogram

	// Transcription metrics
	TranscriptionRequests  prometheus.Counter
	TranscriptionSuccesses prometheus.Counter
	TranscriptionFailures  prometheus.Counter
	TranscriptionDuration  prometheus.Histogram

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics on the default registry
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates all metrics on the given registerer. Tests use a
// private registry to avoid duplicate registration panics.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Stream connection metrics
		ConnectionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "speech_stream_connections_active",
			Help: "Current number of open stream connections",
		}),
		ConnectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "speech_stream_connections_total",
			Help: "Total number of stream connections accepted",
		}),
		MessagesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "speech_stream_messages_received_total",
			Help: "Total number of inbound stream messages",
		}),
		MessagesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "speech_stream_messages_dropped_total",
			Help: "Total number of inbound messages dropped (missing or invalid session id)",
		}),
		ResultsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "speech_stream_results_dropped_total",
			Help: "Total number of transcription results dropped on a full outbound queue",
		}),
		AudioBytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "speech_audio_bytes_received_total",
			Help: "Total audio payload bytes received across all streams",
		}),

		// Session metrics
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "speech_active_sessions",
			Help: "Current number of live speech sessions",
		}),
		SessionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "speech_sessions_created_total",
			Help: "Total number of speech sessions created",
		}),
		SessionsDestroyed: factory.NewCounter(prometheus.CounterOpts{
			Name: "speech_sessions_destroyed_total",
			Help: "Total number of speech sessions destroyed",
		}),
		SessionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "speech_session_duration_seconds",
			Help:    "Lifetime of speech sessions in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~68 minutes
		}),

		// VAD metrics
		FramesClassified: factory.NewCounter(prometheus.CounterOpts{
			Name: "speech_vad_frames_classified_total",
			Help: "Total number of analysis frames classified",
		}),
		SpeechFrames: factory.NewCounter(prometheus.CounterOpts{
			Name: "speech_vad_speech_frames_total",
			Help: "Total number of frames classified as speech",
		}),

		// Segment metrics
		SegmentsEmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "speech_segments_emitted_total",
			Help: "Total number of utterance segments dispatched for transcription",
		}),
		SegmentsDiscarded: factory.NewCounter(prometheus.CounterOpts{
			Name: "speech_segments_discarded_total",
			Help: "Total number of segments discarded below the minimum speech duration",
		}),
		SegmentDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "speech_segment_duration_seconds",
			Help:    "Audio duration of emitted segments",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 9), // 0.25s to ~1 minute
		}),
		SegmentSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "speech_segment_size_bytes",
			Help:    "Size of emitted segments in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 2, 12), // 1KB to ~4MB
		}),

		// Transcription metrics
		TranscriptionRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "speech_transcription_requests_total",
			Help: "Total number of transcription requests sent",
		}),
		TranscriptionSuccesses: factory.NewCounter(prometheus.CounterOpts{
			Name: "speech_transcription_successes_total",
			Help: "Total number of successful transcription requests",
		}),
		TranscriptionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "speech_transcription_failures_total",
			Help: "Total number of failed transcription requests",
		}),
		TranscriptionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "speech_transcription_duration_seconds",
			Help:    "Duration of transcription requests",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~2 minutes
		}),

		// HTTP API metrics
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "speech_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "speech_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "speech_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordFrameClassified records one classified frame and whether it was speech
func (m *Metrics) RecordFrameClassified(isSpeech bool) {
	m.FramesClassified.Inc()
	if isSpeech {
		m.SpeechFrames.Inc()
	}
}

// RecordSegmentEmitted records an emitted segment's duration and size
func (m *Metrics) RecordSegmentEmitted(durationSeconds float64, sizeBytes int) {
	m.SegmentsEmitted.Inc()
	m.SegmentDuration.Observe(durationSeconds)
	m.SegmentSize.Observe(float64(sizeBytes))
}

// RecordSessionDestroyed records a destroyed session and its lifetime
func (m *Metrics) RecordSessionDestroyed(durationSeconds float64) {
	m.SessionsDestroyed.Inc()
	m.SessionDuration.Observe(durationSeconds)
}

// RecordTranscription records one transcription attempt and its outcome
func (m *Metrics) RecordTranscription(success bool, durationSeconds float64) {
	m.TranscriptionRequests.Inc()
	if success {
		m.TranscriptionSuccesses.Inc()
	} else {
		m.TranscriptionFailures.Inc()
	}
	m.TranscriptionDuration.Observe(durationSeconds)
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
