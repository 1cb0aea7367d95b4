// Package vad defines the voice activity classification capability and an
// energy-based implementation. A classifier maps one fixed-size frame of
// normalized samples to a speech probability; the segmentation state machine
// applies the sensitivity threshold and timers on top of it.
package vad
