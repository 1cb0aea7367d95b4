package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rahulSailesh-shah/draw-speech-service/internal/audio"
	"github.com/rahulSailesh-shah/draw-speech-service/internal/config"
	"github.com/rahulSailesh-shah/draw-speech-service/internal/transcription"
	"github.com/rahulSailesh-shah/draw-speech-service/internal/vad"
)

// stubTranscriber returns a fixed string for every segment.
type stubTranscriber struct {
	text string

	mu    sync.Mutex
	calls int
}

func (s *stubTranscriber) Transcribe(ctx context.Context, wavData []byte, language string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.text, nil
}

func (s *stubTranscriber) Close() error { return nil }

func (s *stubTranscriber) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// taggingTranscriber labels each result with the first PCM byte after the
// WAV header, making cross-session leaks visible in the output.
type taggingTranscriber struct{}

func (taggingTranscriber) Transcribe(ctx context.Context, wavData []byte, language string) (string, error) {
	if len(wavData) <= 44 {
		return "", fmt.Errorf("no audio payload")
	}
	return fmt.Sprintf("pcm:%#x", wavData[44]), nil
}

func (taggingTranscriber) Close() error { return nil }

func testConfig() *config.Config {
	cfg := config.Default()
	// Tight timings keep the wall-clock tests fast
	cfg.STT.SilenceDuration = 0.2
	cfg.STT.MinSpeechDuration = 0.05
	return cfg
}

func testRegistry(t *testing.T, transcriber transcription.Transcriber, classifier vad.Classifier) *Registry {
	t.Helper()

	r := NewRegistry(testConfig(), Deps{
		Transcriber: transcriber,
		NewClassifier: func() (vad.Classifier, error) {
			return classifier, nil
		},
		Logger:  testLogger(),
		Metrics: testMetrics(),
	})
	t.Cleanup(r.RemoveAll)
	return r
}

func taggedChunk(tag byte) []byte {
	chunk := make([]byte, audio.FrameSize*2)
	for i := range chunk {
		chunk[i] = tag
	}
	return chunk
}

func TestFinalizeNowReturnsTextForBufferedSpeech(t *testing.T) {
	stub := &stubTranscriber{text: "the quick brown fox"}
	r := testRegistry(t, stub, &fixedClassifier{probability: 0.9})

	sess := r.GetOrCreate("session-1", nil)
	sess.FeedAudio(taggedChunk(0x01))

	// Debounce never reached, finalize must still flush
	text := sess.FinalizeNow()
	if text != "the quick brown fox" {
		t.Errorf("Expected stub text, got %q", text)
	}

	// Already flushed: a second finalize has nothing to return
	if text := sess.FinalizeNow(); text != "" {
		t.Errorf("Expected empty text after flush, got %q", text)
	}
}

func TestSessionDeliversResultViaCallback(t *testing.T) {
	stub := &stubTranscriber{text: "hello"}
	classifier := &fixedClassifier{probability: 0.9}
	r := testRegistry(t, stub, classifier)

	results := make(chan string, 4)
	sess := r.GetOrCreate("session-1", func(text string) {
		results <- text
	})

	sess.FeedAudio(taggedChunk(0x01))

	// Keep the speech span above the minimum duration before going silent
	time.Sleep(100 * time.Millisecond)
	sess.FeedAudio(taggedChunk(0x01))

	// Trailing silence lets the timing loop complete the segment
	classifier.probability = 0.1
	sess.FeedAudio(taggedChunk(0x02))

	select {
	case text := <-results:
		if text != "hello" {
			t.Errorf("Expected 'hello', got %q", text)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for the callback")
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	r := testRegistry(t, taggingTranscriber{}, nil)

	sessA := r.GetOrCreate("session-a", nil)
	sessB := r.GetOrCreate("session-b", nil)

	// Interleave feeds from two goroutines
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		sessA.FeedAudio(taggedChunk(0xAA))
		sessA.FeedAudio(taggedChunk(0xAA))
	}()
	go func() {
		defer wg.Done()
		sessB.FeedAudio(taggedChunk(0xBB))
		sessB.FeedAudio(taggedChunk(0xBB))
	}()
	wg.Wait()

	if text := sessA.FinalizeNow(); text != "pcm:0xaa" {
		t.Errorf("Session A produced %q", text)
	}
	if text := sessB.FinalizeNow(); text != "pcm:0xbb" {
		t.Errorf("Session B produced %q", text)
	}
}

func TestCloseFlushesBufferedSpeech(t *testing.T) {
	stub := &stubTranscriber{text: "last words"}
	r := testRegistry(t, stub, &fixedClassifier{probability: 0.9})

	results := make(chan string, 4)
	sess := r.GetOrCreate("session-1", func(text string) {
		results <- text
	})

	sess.FeedAudio(taggedChunk(0x01))
	sess.Close()

	select {
	case text := <-results:
		if text != "last words" {
			t.Errorf("Expected flush on close, got %q", text)
		}
	default:
		t.Error("Expected the close flush to reach the callback")
	}
}

func TestSessionStats(t *testing.T) {
	stub := &stubTranscriber{text: "hello"}
	r := testRegistry(t, stub, &fixedClassifier{probability: 0.9})

	sess := r.GetOrCreate("session-1", nil)
	sess.FeedAudio(taggedChunk(0x01))

	stats := sess.GetStats()
	if stats.SessionID != "session-1" {
		t.Errorf("Expected session id in stats, got %q", stats.SessionID)
	}
	if !stats.Speaking {
		t.Error("Expected speaking state in stats")
	}
	if stats.BufferedBytes != audio.FrameSize*2 {
		t.Errorf("Expected %d buffered bytes, got %d", audio.FrameSize*2, stats.BufferedBytes)
	}
	if stats.PassThrough {
		t.Error("Expected classifier-backed session, not pass-through")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	stub := &stubTranscriber{text: "once"}
	r := testRegistry(t, stub, &fixedClassifier{probability: 0.9})

	sess := r.GetOrCreate("session-1", nil)
	sess.FeedAudio(taggedChunk(0x01))

	sess.Close()
	calls := stub.callCount()

	sess.Close()
	if stub.callCount() != calls {
		t.Error("Second close must not flush again")
	}

	// Feeds after close are dropped
	sess.FeedAudio(taggedChunk(0x02))
	if text := sess.FinalizeNow(); text != "" {
		t.Errorf("Expected closed session to ignore audio, got %q", text)
	}
}
