package vad

import (
	"math"
	"testing"
)

func makeFrame(size int, amplitude float32) []float32 {
	frame := make([]float32, size)
	for i := range frame {
		// Alternating sign keeps the mean at zero like real audio
		if i%2 == 0 {
			frame[i] = amplitude
		} else {
			frame[i] = -amplitude
		}
	}
	return frame
}

func TestNewEnergyClassifier(t *testing.T) {
	if _, err := NewEnergyClassifier(512); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if _, err := NewEnergyClassifier(0); err == nil {
		t.Error("Expected error for zero frame size")
	}

	if _, err := NewEnergyClassifier(-1); err == nil {
		t.Error("Expected error for negative frame size")
	}
}

func TestClassifyLoudVsQuiet(t *testing.T) {
	c, err := NewEnergyClassifier(512)
	if err != nil {
		t.Fatalf("NewEnergyClassifier failed: %v", err)
	}

	loud, err := c.Classify(makeFrame(512, 0.5), 16000)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if loud < 0.9 {
		t.Errorf("Expected loud frame near 1.0, got %f", loud)
	}

	c.Reset()

	quiet, err := c.Classify(makeFrame(512, 0.001), 16000)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if quiet > 0.1 {
		t.Errorf("Expected quiet frame near 0, got %f", quiet)
	}
}

func TestClassifySilence(t *testing.T) {
	c, _ := NewEnergyClassifier(512)

	probability, err := c.Classify(make([]float32, 512), 16000)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if probability != 0 {
		t.Errorf("Expected 0 for digital silence, got %f", probability)
	}
}

func TestClassifyProbabilityRange(t *testing.T) {
	c, _ := NewEnergyClassifier(512)

	for _, amplitude := range []float32{0, 0.01, 0.1, 0.5, 1.0} {
		probability, err := c.Classify(makeFrame(512, amplitude), 16000)
		if err != nil {
			t.Fatalf("Classify failed at amplitude %f: %v", amplitude, err)
		}
		if probability < 0 || probability > 1 {
			t.Errorf("Probability out of range at amplitude %f: %f", amplitude, probability)
		}
	}
}

func TestClassifySmoothing(t *testing.T) {
	c, _ := NewEnergyClassifier(512)

	// Prime the smoothing state with a loud frame
	first, _ := c.Classify(makeFrame(512, 0.5), 16000)

	// One silent frame barely moves the smoothed score
	second, _ := c.Classify(make([]float32, 512), 16000)
	if math.Abs(float64(second-0.9*first)) > 0.01 {
		t.Errorf("Expected smoothed score near %f, got %f", 0.9*first, second)
	}
}

func TestClassifyRejectsBadInput(t *testing.T) {
	c, _ := NewEnergyClassifier(512)

	if _, err := c.Classify(make([]float32, 100), 16000); err == nil {
		t.Error("Expected error for wrong frame size")
	}

	if _, err := c.Classify(make([]float32, 512), 0); err == nil {
		t.Error("Expected error for zero sample rate")
	}
}

func TestClassifierStats(t *testing.T) {
	c, _ := NewEnergyClassifier(512)

	c.Classify(makeFrame(512, 0.5), 16000)
	c.Classify(makeFrame(512, 0.5), 16000)

	stats := c.GetStats()
	if stats.TotalFrames != 2 {
		t.Errorf("Expected 2 frames, got %d", stats.TotalFrames)
	}
	if stats.LastProcessed.IsZero() {
		t.Error("Expected last processed time to be set")
	}

	c.Reset()
	stats = c.GetStats()
	if stats.TotalFrames != 0 || stats.LastResult != 0 {
		t.Errorf("Expected cleared stats after reset, got %+v", stats)
	}
}
