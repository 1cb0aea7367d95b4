package protocol

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestStreamRequestValidate(t *testing.T) {
	tests := []struct {
		name        string
		request     StreamRequest
		expectError bool
		errorIs     error
	}{
		{
			name:    "valid with audio",
			request: StreamRequest{SessionID: "session-1", AudioChunk: []byte{0x00, 0x01}},
		},
		{
			name:    "valid end of stream without audio",
			request: StreamRequest{SessionID: "session-1", EndOfStream: true},
		},
		{
			name:        "missing session id",
			request:     StreamRequest{AudioChunk: []byte{0x00, 0x01}},
			expectError: true,
			errorIs:     ErrMissingSessionID,
		},
		{
			name:        "oversized session id",
			request:     StreamRequest{SessionID: strings.Repeat("x", MaxSessionIDLength+1)},
			expectError: true,
		},
		{
			name:    "session id at the limit",
			request: StreamRequest{SessionID: strings.Repeat("x", MaxSessionIDLength)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else if tt.errorIs != nil && !errors.Is(err, tt.errorIs) {
					t.Errorf("Expected error %v, got %v", tt.errorIs, err)
				}
			} else if err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}

func TestStreamRequestJSONRoundTrip(t *testing.T) {
	original := StreamRequest{
		SessionID:  "session-1",
		AudioChunk: []byte{0x12, 0x34, 0x56, 0x78},
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	// The audio payload rides as base64 inside JSON
	if !strings.Contains(string(data), `"audio_chunk":"EjRWeA=="`) {
		t.Errorf("Expected base64 audio payload, got %s", data)
	}

	var decoded StreamRequest
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if decoded.SessionID != original.SessionID {
		t.Errorf("Expected session id %s, got %s", original.SessionID, decoded.SessionID)
	}
	if len(decoded.AudioChunk) != len(original.AudioChunk) {
		t.Errorf("Expected %d audio bytes, got %d", len(original.AudioChunk), len(decoded.AudioChunk))
	}
}

func TestResponseBuilders(t *testing.T) {
	result := Result("hello world")
	if !result.Success || result.Transcription != "hello world" || result.Error != "" {
		t.Errorf("Unexpected result response: %+v", result)
	}

	streamErr := StreamError(ErrMissingSessionID)
	if streamErr.Success || streamErr.Error == "" {
		t.Errorf("Unexpected error response: %+v", streamErr)
	}
}
