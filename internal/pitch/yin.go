package pitch

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/0xlemi/yintune/internal/audio"
)

const (
	// DefaultThreshold is the absolute threshold applied to the normalized
	// difference function. Lower values demand a cleaner period.
	DefaultThreshold = 0.15

	// MinFrameSize is the shortest frame the estimator will analyze
	MinFrameSize = 4
)

// Estimate is the outcome of one YIN pass. The zero value means no pitch.
type Estimate struct {
	Frequency   float64 // Hz, 0 when no pitch was found
	Probability float64 // 1 - d'(tau) at the chosen lag
	Tau         float64 // refined period in samples
}

// Found reports whether the estimate carries a pitch
func (e Estimate) Found() bool {
	return e.Frequency > 0
}

// Option configures a YINDetector
type Option func(*YINDetector)

// WithThreshold sets the absolute threshold
func WithThreshold(threshold float64) Option {
	return func(d *YINDetector) {
		d.threshold = threshold
	}
}

// WithFFT switches the difference function to the FFT-based path
func WithFFT(enabled bool) Option {
	return func(d *YINDetector) {
		d.useFFT = enabled
	}
}

// WithLogger sets the logger used for debug output
func WithLogger(logger *slog.Logger) Option {
	return func(d *YINDetector) {
		d.logger = logger
	}
}

// YINDetector implements pitch detection with the YIN algorithm
// (de Cheveigné & Kawahara, 2002). It is safe for concurrent use; the
// scratch buffer reused across calls is guarded by a mutex.
type YINDetector struct {
	threshold float64
	useFFT    bool
	logger    *slog.Logger

	mu        sync.Mutex
	yinBuffer []float64
	fft       fftScratch
}

// NewYINDetector creates a new YIN pitch detector
func NewYINDetector(opts ...Option) *YINDetector {
	d := &YINDetector{
		threshold: DefaultThreshold,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Threshold returns the absolute threshold in use
func (d *YINDetector) Threshold() float64 {
	return d.threshold
}

// DetectPitch analyzes an audio buffer and returns the detected note
func (d *YINDetector) DetectPitch(buffer *audio.AudioBuffer) (*Result, error) {
	if buffer == nil || len(buffer.Samples) == 0 {
		return nil, ErrEmptyBuffer
	}
	if len(buffer.Samples) < MinFrameSize || buffer.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d samples at %d Hz", ErrInvalidInput, len(buffer.Samples), buffer.SampleRate)
	}

	est := d.Estimate(buffer.Samples, float64(buffer.SampleRate))
	if !est.Found() {
		return nil, ErrNoPitch
	}

	note, err := FrequencyToNote(est.Frequency)
	if err != nil {
		return nil, err
	}
	return &Result{Note: note, Estimate: est}, nil
}

// Estimate runs YIN over one frame. Frames shorter than MinFrameSize, a
// non-positive sample rate, silence and numerically degenerate frames all
// yield the zero Estimate.
//
// The difference function is O(N²) in the frame length and dominates the
// cost of a call.
func (d *YINDetector) Estimate(samples []float32, sampleRate float64) Estimate {
	if len(samples) < MinFrameSize || !(sampleRate > 0) || math.IsInf(sampleRate, 1) {
		return Estimate{}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// One lag past the search range, N/2, so a dip ending at N/2-1 still
	// has a right neighbour for interpolation.
	half := len(samples) / 2
	yin := d.scratch(half + 1)

	// Step 1: squared difference of the signal with a shifted copy of itself
	if d.useFFT {
		d.fft.difference(samples, yin)
	} else {
		difference(samples, yin)
	}

	// Step 2: cumulative mean normalized difference
	cumulativeMeanNormalize(yin)

	// Step 3: first dip under the threshold, refined to its local minimum
	tau, ok := absoluteThreshold(yin[:half], d.threshold)
	if !ok {
		return Estimate{}
	}

	// Step 4: sub-sample refinement
	betterTau, ok := parabolicInterpolation(yin, tau)
	if !ok {
		d.logger.Debug("yin: degenerate parabola", "tau", tau)
		return Estimate{}
	}

	frequency := sampleRate / betterTau
	if !(frequency > 0) || math.IsInf(frequency, 0) {
		return Estimate{}
	}

	return Estimate{
		Frequency:   frequency,
		Probability: 1 - yin[tau],
		Tau:         betterTau,
	}
}

// scratch returns the reusable buffer resized to n and zeroed
func (d *YINDetector) scratch(n int) []float64 {
	return resize(&d.yinBuffer, n)
}

// difference fills yin[tau] with the sum over the first half of the frame of
// (x[i] - x[i+tau])² for tau in [1, len(yin)). len(yin) must not exceed
// len(samples)/2 + 1.
func difference(samples []float32, yin []float64) {
	half := len(samples) / 2
	for tau := 1; tau < len(yin); tau++ {
		sum := 0.0
		for i := 0; i < half; i++ {
			delta := float64(samples[i]) - float64(samples[i+tau])
			sum += delta * delta
		}
		yin[tau] = sum
	}
}

// cumulativeMeanNormalize rewrites yin as d'(tau) = d(tau) * tau / sum(d(1..tau)).
// yin[0] is pinned to 1. A zero running sum (silence so far) maps to 1.
func cumulativeMeanNormalize(yin []float64) {
	yin[0] = 1
	runningSum := 0.0
	for tau := 1; tau < len(yin); tau++ {
		runningSum += yin[tau]
		if runningSum == 0 {
			yin[tau] = 1
			continue
		}
		yin[tau] *= float64(tau) / runningSum
	}
}

// absoluteThreshold returns the first lag from 2 upward whose normalized
// difference drops below threshold, walked forward to the bottom of that
// dip. The first qualifying period wins even if a deeper dip follows.
func absoluteThreshold(yin []float64, threshold float64) (int, bool) {
	for tau := 2; tau < len(yin); tau++ {
		if yin[tau] < threshold {
			for tau+1 < len(yin) && yin[tau+1] < yin[tau] {
				tau++
			}
			return tau, true
		}
	}
	return 0, false
}

// parabolicInterpolation fits a parabola through yin[tau-1..tau+1] and
// returns the lag of its vertex. Without a right neighbour the integer lag
// is kept; Estimate avoids that case by computing one lag past its search
// range.
func parabolicInterpolation(yin []float64, tau int) (float64, bool) {
	if tau < 1 {
		return 0, false
	}
	if tau+1 >= len(yin) {
		return float64(tau), true
	}

	x0, x1, x2 := yin[tau-1], yin[tau], yin[tau+1]
	denominator := 2 * (2*x1 - x2 - x0)
	if denominator == 0 {
		return 0, false
	}

	betterTau := float64(tau) + (x2-x0)/denominator
	if !(betterTau > 0) || math.IsInf(betterTau, 0) {
		return 0, false
	}
	return betterTau, true
}
