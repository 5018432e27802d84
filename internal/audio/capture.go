package audio

import (
	"errors"
	"math"
)

// Errors
var (
	ErrAlreadyCapturing  = errors.New("audio capture already started")
	ErrNotCapturing      = errors.New("audio capture not started")
	ErrNoFrame           = errors.New("no complete frame captured yet")
	ErrEndOfStream       = errors.New("end of audio stream")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// AudioBuffer is one fixed-length frame of mono samples in [-1, 1]
type AudioBuffer struct {
	Samples    []float32
	SampleRate int
}

// Capturer defines the interface for audio capture
type Capturer interface {
	// Start begins audio capture
	Start() error

	// Stop ends audio capture
	Stop() error

	// GetBuffer returns the current audio frame. Live sources return
	// ErrNoFrame until the first frame is complete; finite sources return
	// ErrEndOfStream once drained.
	GetBuffer() (*AudioBuffer, error)

	// IsCapturing returns true if currently capturing audio
	IsCapturing() bool
}

// silenceDB is reported for frames too quiet to take a logarithm of
const silenceDB = -100

// Level calculates the RMS and dBFS level of a frame
func Level(samples []float32) (rms, db float32) {
	if len(samples) == 0 {
		return 0, silenceDB
	}

	sumSquares := 0.0
	for _, sample := range samples {
		v := float64(sample)
		sumSquares += v * v
	}
	r := math.Sqrt(sumSquares / float64(len(samples)))

	// Avoid log(0)
	if r <= 0.0000001 {
		return float32(r), silenceDB
	}
	return float32(r), float32(20 * math.Log10(r))
}
