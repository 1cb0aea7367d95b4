package transcription

import "context"

// Transcriber is the speech-to-text capability consumed by the dispatcher.
// Implementations receive self-describing WAV audio and an optional language
// hint and return the recognized text.
type Transcriber interface {
	Transcribe(ctx context.Context, wavData []byte, language string) (string, error)
	Close() error
}
