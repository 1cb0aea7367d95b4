package audio

import (
	"encoding/binary"
	"math"
	"testing"
)

// pcmBytes converts int16 samples to raw PCM-16 LE bytes.
func pcmBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func TestFrameExtractorProducesFullFrames(t *testing.T) {
	e := NewFrameExtractor()

	samples := make([]int16, FrameSize)
	for i := range samples {
		samples[i] = int16(i)
	}
	e.Push(pcmBytes(samples))

	frame, ok := e.NextFrame()
	if !ok {
		t.Fatal("Expected a complete frame")
	}
	if len(frame) != FrameSize {
		t.Fatalf("Expected frame of %d samples, got %d", FrameSize, len(frame))
	}

	// Samples are normalized by int16 full scale
	expected := float32(100) / 32768.0
	if math.Abs(float64(frame[100]-expected)) > 1e-6 {
		t.Errorf("Expected sample %f, got %f", expected, frame[100])
	}

	if _, ok := e.NextFrame(); ok {
		t.Error("Expected no second frame")
	}
	if e.PendingSamples() != 0 {
		t.Errorf("Expected no pending samples, got %d", e.PendingSamples())
	}
}

func TestFrameExtractorAccumulatesSmallChunks(t *testing.T) {
	e := NewFrameExtractor()

	// 4 chunks of 128 samples add up to exactly one frame
	chunk := pcmBytes(make([]int16, 128))
	for i := 0; i < 3; i++ {
		e.Push(chunk)
		if _, ok := e.NextFrame(); ok {
			t.Fatalf("Got a frame after %d samples", (i+1)*128)
		}
	}

	e.Push(chunk)
	if _, ok := e.NextFrame(); !ok {
		t.Fatal("Expected a frame after accumulating enough samples")
	}
}

func TestFrameExtractorCarriesOddByte(t *testing.T) {
	e := NewFrameExtractor()

	full := pcmBytes(make([]int16, FrameSize))

	// Split mid-sample: the dangling byte must pair with the next push
	e.Push(full[:101])
	if e.PendingSamples() != 50 {
		t.Errorf("Expected 50 pending samples, got %d", e.PendingSamples())
	}

	e.Push(full[101:])
	frame, ok := e.NextFrame()
	if !ok {
		t.Fatal("Expected a complete frame after the split push")
	}
	if len(frame) != FrameSize {
		t.Fatalf("Expected %d samples, got %d", FrameSize, len(frame))
	}
}

func TestFrameExtractorRemainderSurvives(t *testing.T) {
	e := NewFrameExtractor()

	e.Push(pcmBytes(make([]int16, FrameSize+100)))

	if _, ok := e.NextFrame(); !ok {
		t.Fatal("Expected a frame")
	}
	if e.PendingSamples() != 100 {
		t.Errorf("Expected 100 leftover samples, got %d", e.PendingSamples())
	}
}

func TestFrameExtractorReset(t *testing.T) {
	e := NewFrameExtractor()

	e.Push(pcmBytes(make([]int16, 100)))
	e.Push([]byte{0x01}) // leaves a carry byte
	e.Reset()

	if e.PendingSamples() != 0 {
		t.Errorf("Expected no pending samples after reset, got %d", e.PendingSamples())
	}

	// The carried byte must not leak into fresh data
	e.Push(pcmBytes(make([]int16, FrameSize)))
	if _, ok := e.NextFrame(); !ok {
		t.Error("Expected a frame from clean post-reset data")
	}
}
