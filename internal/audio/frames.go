package audio

// FrameSize is the number of samples per analysis frame fed to the voice
// activity classifier (32ms at 16kHz, 64ms at 8kHz).
const FrameSize = 512

// FrameExtractor converts raw PCM-16 little-endian mono byte chunks into
// fixed-size frames of normalized float32 samples in [-1, 1). Chunks of any
// length are accepted: sub-frame samples and a trailing odd byte are carried
// over to the next push. Not safe for concurrent use; callers hold the
// session lock.
type FrameExtractor struct {
	pending []float32
	carry   []byte // at most one byte of a split sample
}

// NewFrameExtractor creates an empty frame extractor.
func NewFrameExtractor() *FrameExtractor {
	return &FrameExtractor{
		pending: make([]float32, 0, FrameSize*2),
	}
}

// Push appends a raw PCM-16 chunk to the pending sample buffer.
func (e *FrameExtractor) Push(chunk []byte) {
	if len(chunk) == 0 {
		return
	}

	data := chunk
	if len(e.carry) == 1 {
		data = make([]byte, 0, len(chunk)+1)
		data = append(data, e.carry[0])
		data = append(data, chunk...)
		e.carry = e.carry[:0]
	}

	n := len(data) / 2
	for i := 0; i < n; i++ {
		sample := int16(data[i*2]) | int16(data[i*2+1])<<8
		e.pending = append(e.pending, float32(sample)/32768.0)
	}

	if len(data)%2 == 1 {
		e.carry = append(e.carry, data[len(data)-1])
	}
}

// NextFrame pops one complete analysis frame, returning false when fewer
// than FrameSize samples are pending.
func (e *FrameExtractor) NextFrame() ([]float32, bool) {
	if len(e.pending) < FrameSize {
		return nil, false
	}

	frame := make([]float32, FrameSize)
	copy(frame, e.pending[:FrameSize])

	remaining := copy(e.pending, e.pending[FrameSize:])
	e.pending = e.pending[:remaining]

	return frame, true
}

// PendingSamples returns the number of buffered sub-frame samples.
func (e *FrameExtractor) PendingSamples() int {
	return len(e.pending)
}

// Reset discards all pending samples and any carried byte.
func (e *FrameExtractor) Reset() {
	e.pending = e.pending[:0]
	e.carry = e.carry[:0]
}
