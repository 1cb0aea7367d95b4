package transcription

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testWAV(t *testing.T) []byte {
	t.Helper()
	// Minimal valid envelope: 44 header bytes plus a little PCM
	wav := make([]byte, 44+64)
	copy(wav[0:4], "RIFF")
	copy(wav[8:12], "WAVE")
	copy(wav[12:16], "fmt ")
	copy(wav[36:40], "data")
	return wav
}

func TestClientTranscribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Expected bearer auth, got %q", auth)
		}

		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Fatalf("Failed to parse multipart form: %v", err)
		}
		if format := r.FormValue("response_format"); format != "json" {
			t.Errorf("Expected response_format=json, got %q", format)
		}
		if lang := r.FormValue("language"); lang != "en" {
			t.Errorf("Expected language=en, got %q", lang)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("Expected audio file in form: %v", err)
		}
		file.Close()

		json.NewEncoder(w).Encode(apiResponse{Text: "hello world", Language: "en"})
	}))
	defer server.Close()

	client, err := NewClient(Config{
		Endpoint: server.URL,
		APIKey:   "test-key",
		Model:    "base",
		Timeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	defer client.Close()

	text, err := client.Transcribe(context.Background(), testWAV(t), "en")
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if text != "hello world" {
		t.Errorf("Expected 'hello world', got %q", text)
	}

	stats := client.GetStats()
	if stats.TotalRequests != 1 || stats.SuccessRequests != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "try again", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(apiResponse{Text: "second time lucky"})
	}))
	defer server.Close()

	client, err := NewClient(Config{
		Endpoint:   server.URL,
		APIKey:     "test-key",
		Timeout:    5 * time.Second,
		MaxRetries: 2,
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	defer client.Close()

	text, err := client.Transcribe(context.Background(), testWAV(t), "en")
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if text != "second time lucky" {
		t.Errorf("Expected retry to succeed, got %q", text)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("Expected 2 attempts, got %d", calls)
	}
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	client, err := NewClient(Config{
		Endpoint:   server.URL,
		APIKey:     "test-key",
		Timeout:    5 * time.Second,
		MaxRetries: 3,
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	defer client.Close()

	_, err = client.Transcribe(context.Background(), testWAV(t), "en")
	if err == nil {
		t.Fatal("Expected error for HTTP 400")
	}
	if !strings.Contains(err.Error(), "HTTP error 400") {
		t.Errorf("Expected HTTP error in message, got: %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("Expected no retries on a client error, got %d attempts", calls)
	}
}

func TestClientRejectsEmptyAudio(t *testing.T) {
	client, err := NewClient(Config{
		Endpoint: "http://localhost:1/transcribe",
		APIKey:   "test-key",
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	defer client.Close()

	if _, err := client.Transcribe(context.Background(), nil, "en"); err == nil {
		t.Error("Expected error for empty audio data")
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{APIKey: "key"}); err == nil {
		t.Error("Expected error for empty endpoint")
	}

	if _, err := NewClient(Config{Endpoint: "http://example.com"}); err == nil {
		t.Error("Expected error for empty API key")
	}
}

func TestIsRetryableError(t *testing.T) {
	client, _ := NewClient(Config{Endpoint: "http://example.com", APIKey: "key"})
	defer client.Close()

	tests := []struct {
		message   string
		retryable bool
	}{
		{"HTTP error 503: unavailable", true},
		{"HTTP error 429: slow down", true},
		{"connection refused", true},
		{"request timeout", true},
		{"HTTP error 400: bad request", false},
		{"HTTP error 401: unauthorized", false},
	}

	for _, tt := range tests {
		err := &testError{tt.message}
		if got := client.isRetryableError(err); got != tt.retryable {
			t.Errorf("isRetryableError(%q) = %v, want %v", tt.message, got, tt.retryable)
		}
	}
}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
