// Package server exposes the service over the network: a WebSocket
// endpoint carrying the bidirectional audio/transcription stream, and an
// HTTP admin surface for health, introspection, session cleanup and
// Prometheus metrics.
package server
