// Package session implements per-user speech processing isolation.
// A Session owns one segmentation state machine, one transcription
// dispatcher, and one background timing loop; the Registry maps caller
// supplied session identifiers to live sessions and owns their lifecycle.
package session
