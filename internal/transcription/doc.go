// Package transcription provides the speech-to-text capability and the
// dispatcher that feeds finalized segments into it. The capability has two
// implementations selected at construction: an HTTP client for a
// Whisper-style endpoint, and a fixed-string placeholder used when no
// endpoint is configured.
package transcription
