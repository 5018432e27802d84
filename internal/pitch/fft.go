package pitch

import (
	"github.com/mjibson/go-dsp/fft"
)

// fftScratch holds the padded inputs and energy prefix sums reused across
// FFT difference passes. go-dsp still allocates its spectra per call.
type fftScratch struct {
	head   []float64
	whole  []float64
	energy []float64 // prefix sums of x²
}

// difference computes the same difference function as the direct one, in
// O(N log N), by expanding (a-b)² into two energy terms and a cross
// correlation:
//
//	d(tau) = sum x[i]² + sum x[i+tau]² - 2 * sum x[i]*x[i+tau]
//
// The correlation comes from the spectrum of the frame and of its first
// half, zero padded to a power of two so the circular product never wraps.
func (s *fftScratch) difference(samples []float32, yin []float64) {
	half := len(samples) / 2
	n := len(samples)
	size := nextPowerOfTwo(n)

	head := resize(&s.head, size)
	whole := resize(&s.whole, size)
	energy := resize(&s.energy, n+1)
	for i, x := range samples {
		v := float64(x)
		whole[i] = v
		if i < half {
			head[i] = v
		}
		energy[i+1] = energy[i] + v*v
	}

	headSpectrum := fft.FFTReal(head)
	wholeSpectrum := fft.FFTReal(whole)
	for k := range headSpectrum {
		h := headSpectrum[k]
		headSpectrum[k] = complex(real(h), -imag(h)) * wholeSpectrum[k]
	}
	correlation := fft.IFFT(headSpectrum)

	e0 := energy[half]
	for tau := 1; tau < len(yin); tau++ {
		eTau := energy[tau+half] - energy[tau]
		d := e0 + eTau - 2*real(correlation[tau])
		if d < fftNoiseFloor*(e0+eTau) {
			// rounding noise around a perfect match
			d = 0
		}
		yin[tau] = d
	}
}

// fftNoiseFloor is the share of frame energy below which a difference is
// treated as an exact match.
const fftNoiseFloor = 1e-12

// resize grows *buf to n if needed and returns it zeroed
func resize(buf *[]float64, n int) []float64 {
	if cap(*buf) < n {
		*buf = make([]float64, n)
	}
	*buf = (*buf)[:n]
	clear(*buf)
	return *buf
}

func nextPowerOfTwo(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}
