// Package audio handles PCM frame extraction and format conversion.
// It converts raw PCM-16 byte chunks into fixed-size normalized analysis
// frames for voice activity classification, and wraps finalized segment
// buffers in a minimal WAV envelope for transcription.
package audio
