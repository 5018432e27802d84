package audio

// Framer slices an interleaved sample stream into fixed-size mono frames.
// Consecutive frames start hop samples apart; a hop smaller than the frame
// size makes them overlap.
type Framer struct {
	size     int
	hop      int
	channels int

	carry   []float32 // interleaved samples short of a whole sample frame
	pending []float32 // mono samples waiting to be emitted
}

// NewFramer creates a framer. hop is clamped to [1, size] and channels to at least 1.
func NewFramer(size, hop, channels int) *Framer {
	if size < 1 {
		size = 1
	}
	if hop < 1 || hop > size {
		hop = size
	}
	if channels < 1 {
		channels = 1
	}
	return &Framer{
		size:     size,
		hop:      hop,
		channels: channels,
		pending:  make([]float32, 0, 2*size),
	}
}

// Size returns the frame length in samples
func (f *Framer) Size() int { return f.size }

// Write averages interleaved channels down to mono and buffers the result
func (f *Framer) Write(interleaved []float32) {
	f.carry = append(f.carry, interleaved...)
	whole := len(f.carry) / f.channels * f.channels

	for i := 0; i < whole; i += f.channels {
		sum := float32(0)
		for ch := 0; ch < f.channels; ch++ {
			sum += f.carry[i+ch]
		}
		f.pending = append(f.pending, sum/float32(f.channels))
	}

	n := copy(f.carry, f.carry[whole:])
	f.carry = f.carry[:n]
}

// Next copies the next complete frame into dst, which must hold Size
// samples, and reports whether one was available.
func (f *Framer) Next(dst []float32) bool {
	if len(f.pending) < f.size || len(dst) < f.size {
		return false
	}
	copy(dst, f.pending[:f.size])

	n := copy(f.pending, f.pending[f.hop:])
	f.pending = f.pending[:n]
	return true
}

// Buffered returns how many mono samples are waiting
func (f *Framer) Buffered() int { return len(f.pending) }

// Reset drops everything buffered
func (f *Framer) Reset() {
	f.carry = f.carry[:0]
	f.pending = f.pending[:0]
}
