package transcription

import "context"

// PlaceholderText is returned for every segment when no transcription
// endpoint is configured. Delivering it keeps the stream surface exercised
// end to end in environments without a speech-to-text backend.
const PlaceholderText = "[transcription unavailable]"

// Placeholder implements Transcriber with a fixed string. It is selected at
// construction when the transcription capability is absent.
type Placeholder struct{}

// NewPlaceholder creates the fallback transcriber.
func NewPlaceholder() *Placeholder {
	return &Placeholder{}
}

// Transcribe returns the placeholder text regardless of input.
func (p *Placeholder) Transcribe(ctx context.Context, wavData []byte, language string) (string, error) {
	return PlaceholderText, nil
}

// Close is a no-op.
func (p *Placeholder) Close() error {
	return nil
}
