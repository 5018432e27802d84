package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xlemi/yintune/internal/testutil"
)

func drain(t *testing.T, c *FileCapturer) []*AudioBuffer {
	t.Helper()
	var frames []*AudioBuffer
	for {
		buf, err := c.GetBuffer()
		if err != nil {
			require.ErrorIs(t, err, ErrEndOfStream)
			return frames
		}
		frames = append(frames, buf)
	}
}

func TestFileCapturerWAVMono(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	signal := testutil.Sine(440, 44100, 10000, 0.5)
	testutil.WriteWAV(t, path, signal, 44100, 1)

	c, err := OpenFile(path, 2048, 2048)
	require.NoError(t, err)
	assert.Equal(t, 44100, c.SampleRate())
	assert.Equal(t, 1, c.Channels())

	_, err = c.GetBuffer()
	require.ErrorIs(t, err, ErrNotCapturing)

	require.NoError(t, c.Start())
	assert.True(t, c.IsCapturing())
	require.ErrorIs(t, c.Start(), ErrAlreadyCapturing)

	frames := drain(t, c)
	require.Len(t, frames, 4)
	for i, frame := range frames {
		assert.Len(t, frame.Samples, 2048)
		assert.Equal(t, 44100, frame.SampleRate)
		for j := 0; j < 2048; j += 97 {
			assert.InDelta(t, signal[i*2048+j], frame.Samples[j], 1e-3)
		}
	}

	// drained stays drained
	_, err = c.GetBuffer()
	require.ErrorIs(t, err, ErrEndOfStream)

	require.NoError(t, c.Stop())
	assert.False(t, c.IsCapturing())
	require.ErrorIs(t, c.Stop(), ErrNotCapturing)
}

func TestFileCapturerWAVStereoOverlap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	mono := testutil.Sine(220, 22050, 10000, 0.5)
	testutil.WriteWAV(t, path, testutil.Interleave(mono, 2), 22050, 2)

	c, err := OpenFile(path, 2048, 1024)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Channels())
	require.NoError(t, c.Start())
	defer c.Stop()

	frames := drain(t, c)
	require.Len(t, frames, 8)
	// the second frame starts one hop into the signal
	assert.InDelta(t, mono[1024], frames[1].Samples[0], 1e-3)
	assert.InDelta(t, mono[7168+2047], frames[7].Samples[2047], 1e-3)
}

func TestOpenFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := OpenFile(filepath.Join(dir, "tone.flac"), 2048, 2048)
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = OpenFile(filepath.Join(dir, "missing.wav"), 2048, 2048)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open input file")

	bogus := filepath.Join(dir, "bogus.wav")
	require.NoError(t, os.WriteFile(bogus, []byte("not a wav file"), 0o644))
	_, err = OpenFile(bogus, 2048, 2048)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSupportedExtensions(t *testing.T) {
	for _, ext := range SupportedExtensions() {
		_, ok := decoders[ext]
		assert.True(t, ok, ext)
	}
	assert.Len(t, SupportedExtensions(), len(decoders))
}
