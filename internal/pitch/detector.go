package pitch

import (
	"errors"

	"github.com/0xlemi/yintune/internal/audio"
)

// Errors
var (
	ErrEmptyBuffer      = errors.New("empty audio buffer")
	ErrInvalidInput     = errors.New("frame shorter than minimum or sample rate not positive")
	ErrNoPitch          = errors.New("no pitch found")
	ErrInvalidFrequency = errors.New("frequency must be positive and finite")
)

// Result is a detected pitch together with the note it maps to
type Result struct {
	Note     Note
	Estimate Estimate
}

// Detector defines the interface for pitch detection
type Detector interface {
	// DetectPitch analyzes an audio buffer and returns the detected note.
	// ErrNoPitch means the frame carried no usable pitch; callers should
	// keep whatever they displayed last.
	DetectPitch(buffer *audio.AudioBuffer) (*Result, error)
}
