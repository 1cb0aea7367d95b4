package protocol

import (
	"errors"
	"fmt"
)

// MaxSessionIDLength bounds caller-supplied session identifiers. The id is
// opaque; the bound only protects log lines and map keys from abuse.
const MaxSessionIDLength = 256

// ErrMissingSessionID is returned for stream requests that carry audio but
// no session identifier. Such messages are dropped, not treated as fatal.
var ErrMissingSessionID = errors.New("stream request has no session_id")

// StreamRequest is one inbound message on the duplex audio stream.
// AudioChunk is raw PCM-16 mono audio; encoding/json transports it as base64.
type StreamRequest struct {
	SessionID   string `json:"session_id"`
	AudioChunk  []byte `json:"audio_chunk,omitempty"`
	EndOfStream bool   `json:"end_of_stream,omitempty"`
}

// StreamResponse is one outbound message on the duplex audio stream,
// carrying either a finalized transcription or a stream-level error.
type StreamResponse struct {
	Transcription string `json:"transcription,omitempty"`
	Success       bool   `json:"success"`
	Error         string `json:"error,omitempty"`
}

// CleanupResponse is the reply of the session cleanup call.
// Success=false only means the session was not found.
type CleanupResponse struct {
	SessionID string `json:"session_id"`
	Success   bool   `json:"success"`
}

// Validate checks a stream request for structural problems.
func (r *StreamRequest) Validate() error {
	if r.SessionID == "" {
		return ErrMissingSessionID
	}

	if len(r.SessionID) > MaxSessionIDLength {
		return fmt.Errorf("session_id exceeds %d bytes (got %d)", MaxSessionIDLength, len(r.SessionID))
	}

	return nil
}

// Result builds a successful outbound message for a transcription.
func Result(text string) StreamResponse {
	return StreamResponse{Transcription: text, Success: true}
}

// StreamError builds a one-shot outbound error message. The connection is
// expected to close after sending it.
func StreamError(err error) StreamResponse {
	return StreamResponse{Success: false, Error: err.Error()}
}
