// Package testutil provides signal generators and fixtures shared by tests.
package testutil

import (
	"math"
	"os"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"
)

// Sine returns n samples of a sine at freq Hz sampled at rate Hz
func Sine(freq, rate float64, n int, amplitude float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amplitude * math.Sin(2*math.Pi*freq*float64(i)/rate))
	}
	return out
}

// Constant returns n samples all equal to v
func Constant(v float32, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// Interleave repeats every mono sample across channels
func Interleave(mono []float32, channels int) []float32 {
	out := make([]float32, 0, len(mono)*channels)
	for _, s := range mono {
		for range channels {
			out = append(out, s)
		}
	}
	return out
}

// WriteWAV writes interleaved samples in [-1, 1] as a 16-bit PCM WAV file
func WriteWAV(t *testing.T, path string, samples []float32, rate, channels int) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(math.Round(float64(s) * 32767))
	}

	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
}
