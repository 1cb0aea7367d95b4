package session

import (
	"log/slog"
	"sync"

	"github.com/rahulSailesh-shah/draw-speech-service/internal/audio"
	"github.com/rahulSailesh-shah/draw-speech-service/internal/config"
	"github.com/rahulSailesh-shah/draw-speech-service/internal/metrics"
	"github.com/rahulSailesh-shah/draw-speech-service/internal/transcription"
	"github.com/rahulSailesh-shah/draw-speech-service/internal/vad"
)

// Deps bundles the shared collaborators every session is built from.
type Deps struct {
	// Transcriber is shared across sessions; the registry never closes it.
	Transcriber transcription.Transcriber

	// NewClassifier builds one voice activity classifier per session. A nil
	// factory selects the default energy classifier. When the factory
	// returns an error the session runs in pass-through mode instead of
	// failing session creation.
	NewClassifier func() (vad.Classifier, error)

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Registry maps caller-supplied identifiers to live sessions. Its lock
// covers membership only; per-session state is guarded by the session's own
// lock, so a slow transcription in one session never blocks lookups or
// other sessions.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	cfg  *config.Config
	deps Deps
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg *config.Config, deps Deps) *Registry {
	if deps.NewClassifier == nil {
		deps.NewClassifier = func() (vad.Classifier, error) {
			return vad.NewEnergyClassifier(audio.FrameSize)
		}
	}

	return &Registry{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		deps:     deps,
	}
}

// GetOrCreate returns the session for id, creating it when absent. An
// existing session has its result callback redirected only when a new
// consumer supplies one; a nil callback leaves the installed one in place.
func (r *Registry) GetOrCreate(id string, callback ResultCallback) *Session {
	r.mu.Lock()
	if s, ok := r.sessions[id]; ok {
		r.mu.Unlock()
		if callback != nil {
			s.SetCallback(callback)
		}
		return s
	}

	s := r.create(id, callback)
	r.sessions[id] = s
	r.deps.Metrics.ActiveSessions.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	r.deps.Metrics.SessionsCreated.Inc()

	return s
}

// create builds a fully wired session. Called with the registry lock held;
// it only constructs, never blocks.
func (r *Registry) create(id string, callback ResultCallback) *Session {
	classifier, err := r.deps.NewClassifier()
	if err != nil {
		r.deps.Logger.Warn("Voice activity classifier unavailable, session runs in pass-through mode",
			slog.String("session_id", id),
			slog.String("error", err.Error()),
		)
		classifier = nil
	}

	segmenter := NewSegmenter(SegmenterConfig{
		Sensitivity:       r.cfg.STT.Sensitivity,
		SilenceDebounce:   r.cfg.STT.GetSilenceDuration(),
		MinSpeechDuration: r.cfg.STT.GetMinSpeechDuration(),
		SampleRate:        r.cfg.STT.SampleRate,
	}, classifier, r.deps.Logger.With(slog.String("session_id", id)), r.deps.Metrics)

	dispatcher := transcription.NewDispatcher(
		r.deps.Transcriber,
		r.cfg.STT.SampleRate,
		r.cfg.STT.Language,
		r.cfg.Transcription.GetTimeoutDuration(),
		r.deps.Logger,
		r.deps.Metrics,
	)

	r.deps.Logger.Info("Session created",
		slog.String("session_id", id),
		slog.Bool("pass_through", classifier == nil),
	)

	return newSession(id, segmenter, dispatcher, callback, r.deps.Logger, r.deps.Metrics)
}

// Get returns the session for id, or nil.
func (r *Registry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id]
}

// Remove detaches the session for id and closes it. Close runs outside the
// registry lock so its final flush cannot block other sessions. It reports
// whether a session existed.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
		r.deps.Metrics.ActiveSessions.Set(float64(len(r.sessions)))
	}
	r.mu.Unlock()

	if !ok {
		return false
	}

	s.Close()
	return true
}

// RemoveAll closes every session. Used during shutdown so buffered speech
// is flushed before the process exits.
func (r *Registry) RemoveAll() {
	r.mu.Lock()
	snapshot := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		snapshot = append(snapshot, s)
	}
	r.sessions = make(map[string]*Session)
	r.deps.Metrics.ActiveSessions.Set(0)
	r.mu.Unlock()

	for _, s := range snapshot {
		s.Close()
	}

	r.deps.Logger.Info("All sessions closed", slog.Int("count", len(snapshot)))
}

// ActiveCount returns the number of live sessions.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// ActiveIDs returns the identifiers of live sessions.
func (r *Registry) ActiveIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}
