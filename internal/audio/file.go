package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

// sampleReader is a decoded, interleaved PCM stream
type sampleReader interface {
	SampleRate() int
	Channels() int
	// ReadSamples fills dst with interleaved samples in [-1, 1] and
	// returns how many were written. It returns io.EOF once drained.
	ReadSamples(dst []float32) (int, error)
}

type openFunc func(r io.ReadSeeker) (sampleReader, error)

// decoders maps lower-case file extensions to their decoder
var decoders = map[string]openFunc{
	".wav":  openWAV,
	".wave": openWAV,
	".mp3":  openMP3,
	".ogg":  openOgg,
	".oga":  openOgg,
}

// SupportedExtensions lists the file extensions OpenFile understands
func SupportedExtensions() []string {
	return []string{".mp3", ".oga", ".ogg", ".wav", ".wave"}
}

// FileCapturer replays an audio file as a sequence of fixed-size mono
// frames. A trailing partial frame is dropped.
type FileCapturer struct {
	path        string
	file        *os.File
	src         sampleReader
	framer      *Framer
	readBuf     []float32
	eof         bool
	isCapturing bool
}

// OpenFile opens path and prepares it for framing. The decoder is chosen
// by file extension.
func OpenFile(path string, frameSize, hop int) (*FileCapturer, error) {
	open, ok := decoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}

	src, err := open(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if src.SampleRate() <= 0 || src.Channels() <= 0 {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s reports %d Hz, %d channels", ErrUnsupportedFormat, path, src.SampleRate(), src.Channels())
	}

	return &FileCapturer{
		path:    path,
		file:    f,
		src:     src,
		framer:  NewFramer(frameSize, hop, src.Channels()),
		readBuf: make([]float32, 4096*src.Channels()),
	}, nil
}

// SampleRate returns the file's sample rate in Hz
func (c *FileCapturer) SampleRate() int { return c.src.SampleRate() }

// Channels returns the file's channel count before downmixing
func (c *FileCapturer) Channels() int { return c.src.Channels() }

// Start begins reading frames
func (c *FileCapturer) Start() error {
	if c.isCapturing {
		return ErrAlreadyCapturing
	}
	c.isCapturing = true
	return nil
}

// Stop closes the underlying file
func (c *FileCapturer) Stop() error {
	if !c.isCapturing {
		return ErrNotCapturing
	}
	c.isCapturing = false
	return c.Close()
}

// Close releases the file without requiring Start
func (c *FileCapturer) Close() error {
	if c.file == nil {
		return nil
	}
	err := c.file.Close()
	c.file = nil
	return err
}

// GetBuffer returns the next frame, or ErrEndOfStream once the file is drained
func (c *FileCapturer) GetBuffer() (*AudioBuffer, error) {
	if !c.isCapturing {
		return nil, ErrNotCapturing
	}

	frame := make([]float32, c.framer.Size())
	for {
		if c.framer.Next(frame) {
			return &AudioBuffer{Samples: frame, SampleRate: c.src.SampleRate()}, nil
		}
		if c.eof {
			return nil, ErrEndOfStream
		}

		n, err := c.src.ReadSamples(c.readBuf)
		c.framer.Write(c.readBuf[:n])
		switch {
		case errors.Is(err, io.EOF):
			c.eof = true
		case err != nil:
			return nil, fmt.Errorf("read %s: %w", c.path, err)
		}
	}
}

// IsCapturing returns true between Start and Stop
func (c *FileCapturer) IsCapturing() bool {
	return c.isCapturing
}

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// wavReader decodes PCM WAV through go-audio
type wavReader struct {
	dec      *wav.Decoder
	buf      *goaudio.IntBuffer
	scale    float32
	offset   int
	rate     int
	channels int
}

func openWAV(r io.ReadSeeker) (sampleReader, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: invalid WAV file", ErrUnsupportedFormat)
	}
	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		return nil, fmt.Errorf("%w: WAV encoding %d, only integer PCM is supported", ErrUnsupportedFormat, dec.WavAudioFormat)
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth < 8 || bitDepth > 32 {
		return nil, fmt.Errorf("%w: %d-bit WAV", ErrUnsupportedFormat, bitDepth)
	}

	// 8-bit WAV is unsigned, everything wider is signed
	offset := 0
	if bitDepth == 8 {
		offset = 128
	}

	format := dec.Format()
	return &wavReader{
		dec:      dec,
		buf:      &goaudio.IntBuffer{Format: format, SourceBitDepth: bitDepth},
		scale:    1 / float32(int64(1)<<(bitDepth-1)),
		offset:   offset,
		rate:     format.SampleRate,
		channels: format.NumChannels,
	}, nil
}

func (w *wavReader) SampleRate() int { return w.rate }
func (w *wavReader) Channels() int   { return w.channels }

func (w *wavReader) ReadSamples(dst []float32) (int, error) {
	if cap(w.buf.Data) < len(dst) {
		w.buf.Data = make([]int, len(dst))
	}
	w.buf.Data = w.buf.Data[:len(dst)]

	n, err := w.dec.PCMBuffer(w.buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, err
	}
	for i := 0; i < n; i++ {
		dst[i] = float32(w.buf.Data[i]-w.offset) * w.scale
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// mp3Decoder is the part of *gomp3.Decoder the reader needs
type mp3Decoder interface {
	io.Reader
	SampleRate() int
}

// mp3Reader decodes MP3 through go-mp3, which always emits 16-bit
// little-endian stereo
type mp3Reader struct {
	dec mp3Decoder
	buf []byte
}

func openMP3(r io.ReadSeeker) (sampleReader, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, err
	}
	return &mp3Reader{dec: dec}, nil
}

func (m *mp3Reader) SampleRate() int { return m.dec.SampleRate() }
func (m *mp3Reader) Channels() int   { return 2 }

func (m *mp3Reader) ReadSamples(dst []float32) (int, error) {
	need := len(dst) * 2
	if cap(m.buf) < need {
		m.buf = make([]byte, need)
	}
	m.buf = m.buf[:need]

	n, err := io.ReadFull(m.dec, m.buf)
	samples := n / 2
	for i := 0; i < samples; i++ {
		v := int16(uint16(m.buf[2*i]) | uint16(m.buf[2*i+1])<<8)
		dst[i] = float32(v) / 32768.0
	}

	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		if samples == 0 {
			return 0, io.EOF
		}
		return samples, nil
	case err != nil:
		return samples, err
	}
	return samples, nil
}

// oggDecoder is the part of *oggvorbis.Reader the reader needs
type oggDecoder interface {
	Read(p []float32) (int, error)
	SampleRate() int
	Channels() int
}

// oggReader decodes Ogg Vorbis through oggvorbis
type oggReader struct {
	dec oggDecoder
}

func openOgg(r io.ReadSeeker) (sampleReader, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, err
	}
	return &oggReader{dec: dec}, nil
}

func (o *oggReader) SampleRate() int { return o.dec.SampleRate() }
func (o *oggReader) Channels() int   { return o.dec.Channels() }

func (o *oggReader) ReadSamples(dst []float32) (int, error) {
	n, err := o.dec.Read(dst)
	if errors.Is(err, io.EOF) && n > 0 {
		return n, nil
	}
	return n, err
}
