package vad

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Classifier is the voice activity capability consumed by the segmenter.
// Classify takes one frame of audio.FrameSize normalized samples and returns
// the probability that the frame contains speech, in [0, 1].
type Classifier interface {
	Classify(frame []float32, sampleRate int) (float32, error)
}

// ClassifierStats represents classifier statistics for monitoring
type ClassifierStats struct {
	TotalFrames   uint64    `json:"total_frames"`
	LastProcessed time.Time `json:"last_processed"`
	LastResult    float32   `json:"last_result"`
}

// EnergyClassifier implements Classifier with RMS-energy scoring and light
// exponential smoothing across consecutive frames. It stands in for a model
// based classifier behind the same interface.
type EnergyClassifier struct {
	frameSize int
	smoothing float32

	lastResult  float32
	totalFrames uint64
	lastTime    time.Time

	mu sync.Mutex
}

// NewEnergyClassifier creates an energy-based voice activity classifier
// expecting frames of the given size.
func NewEnergyClassifier(frameSize int) (*EnergyClassifier, error) {
	if frameSize <= 0 {
		return nil, fmt.Errorf("frame size must be positive, got %d", frameSize)
	}

	return &EnergyClassifier{
		frameSize: frameSize,
		smoothing: 0.1, // Light smoothing factor
	}, nil
}

// Classify scores one frame of normalized samples.
func (c *EnergyClassifier) Classify(frame []float32, sampleRate int) (float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(frame) != c.frameSize {
		return 0, fmt.Errorf("expected %d samples, got %d", c.frameSize, len(frame))
	}

	if sampleRate <= 0 {
		return 0, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	var energy float64
	for _, sample := range frame {
		energy += float64(sample) * float64(sample)
	}
	energy = math.Sqrt(energy / float64(len(frame)))

	// Normalized samples put full-scale speech well above 0.1 RMS; scale so
	// ordinary speech lands near 1.0 and room noise near 0.
	probability := float32(energy / 0.1)
	if probability > 1 {
		probability = 1
	}

	if c.totalFrames > 0 {
		probability = c.smoothing*probability + (1-c.smoothing)*c.lastResult
	}
	c.lastResult = probability
	c.totalFrames++
	c.lastTime = time.Now()

	return probability, nil
}

// GetStats returns current classifier statistics
func (c *EnergyClassifier) GetStats() ClassifierStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return ClassifierStats{
		TotalFrames:   c.totalFrames,
		LastProcessed: c.lastTime,
		LastResult:    c.lastResult,
	}
}

// Reset clears the smoothing state and statistics.
func (c *EnergyClassifier) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalFrames = 0
	c.lastResult = 0
	c.lastTime = time.Time{}
}
