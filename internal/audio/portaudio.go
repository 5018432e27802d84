package audio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// inputStream is the part of *portaudio.Stream the capturer drives
type inputStream interface {
	Start() error
	Stop() error
	Close() error
}

// PortAudio entry points, replaced in tests
var (
	paInitialize = portaudio.Initialize
	paTerminate  = portaudio.Terminate

	openInputStream = func(channels, sampleRate, frameSize int, callback func([]float32)) (inputStream, error) {
		stream, err := portaudio.OpenDefaultStream(channels, 0, float64(sampleRate), frameSize, callback)
		if err != nil {
			return nil, err
		}
		return stream, nil
	}
)

// PortAudioCapturer implements live microphone capture using PortAudio.
// The stream callback fills a back buffer frame by frame and swaps it with
// the front buffer once complete, so GetBuffer always sees a whole frame.
type PortAudioCapturer struct {
	isCapturing   bool
	initialized   bool
	stream        inputStream
	frameSize     int
	sampleRate    int
	channels      int
	framer        *Framer
	front         []float32
	back          []float32
	ready         bool
	bufferMutex   sync.Mutex
	amplification float32 // Audio signal amplification factor
}

// NewPortAudioCapturer creates a new audio capturer using PortAudio
func NewPortAudioCapturer(frameSize, sampleRate, channels int) (*PortAudioCapturer, error) {
	if frameSize < 1 || sampleRate < 1 || channels < 1 {
		return nil, fmt.Errorf("invalid capture settings: frame %d, rate %d, channels %d", frameSize, sampleRate, channels)
	}

	// Initialize PortAudio
	if err := paInitialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}

	return &PortAudioCapturer{
		initialized:   true,
		frameSize:     frameSize,
		sampleRate:    sampleRate,
		channels:      channels,
		framer:        NewFramer(frameSize, frameSize, channels),
		front:         make([]float32, frameSize),
		back:          make([]float32, frameSize),
		amplification: 1.0,
	}, nil
}

// Start begins audio capture
func (c *PortAudioCapturer) Start() error {
	if c.isCapturing {
		return ErrAlreadyCapturing
	}

	// PortAudio is released by Stop and by a failed Start
	if !c.initialized {
		if err := paInitialize(); err != nil {
			return fmt.Errorf("initialize portaudio: %w", err)
		}
		c.initialized = true
	}

	// Open default input stream, no output channels
	stream, err := openInputStream(c.channels, c.sampleRate, c.frameSize, c.processAudio)
	if err != nil {
		c.terminate()
		return fmt.Errorf("open input stream: %w", err)
	}

	if err = stream.Start(); err != nil {
		_ = stream.Close()
		c.terminate()
		return fmt.Errorf("start input stream: %w", err)
	}

	c.stream = stream
	c.isCapturing = true
	return nil
}

// terminate releases PortAudio after a failed Start; the Start error is
// the one worth reporting
func (c *PortAudioCapturer) terminate() {
	_ = paTerminate()
	c.initialized = false
}

// Stop ends audio capture and releases PortAudio
func (c *PortAudioCapturer) Stop() error {
	if !c.isCapturing {
		return ErrNotCapturing
	}
	c.isCapturing = false

	if err := c.stream.Stop(); err != nil {
		return fmt.Errorf("stop input stream: %w", err)
	}
	if err := c.stream.Close(); err != nil {
		return fmt.Errorf("close input stream: %w", err)
	}
	c.initialized = false
	if err := paTerminate(); err != nil {
		return fmt.Errorf("terminate portaudio: %w", err)
	}
	return nil
}

// processAudio is the PortAudio stream callback
func (c *PortAudioCapturer) processAudio(in []float32) {
	c.bufferMutex.Lock()
	defer c.bufferMutex.Unlock()

	c.framer.Write(in)
	for c.framer.Next(c.back) {
		for i, v := range c.back {
			c.back[i] = clamp(v * c.amplification)
		}
		c.front, c.back = c.back, c.front
		c.ready = true
	}
}

// GetBuffer returns a copy of the most recent complete frame
func (c *PortAudioCapturer) GetBuffer() (*AudioBuffer, error) {
	if !c.isCapturing {
		return nil, ErrNotCapturing
	}

	c.bufferMutex.Lock()
	defer c.bufferMutex.Unlock()

	if !c.ready {
		return nil, ErrNoFrame
	}

	bufferCopy := &AudioBuffer{
		Samples:    make([]float32, len(c.front)),
		SampleRate: c.sampleRate,
	}
	copy(bufferCopy.Samples, c.front)

	return bufferCopy, nil
}

// IsCapturing returns true if currently capturing audio
func (c *PortAudioCapturer) IsCapturing() bool {
	return c.isCapturing
}

// SetAmplification sets the audio amplification factor
func (c *PortAudioCapturer) SetAmplification(factor float32) {
	c.bufferMutex.Lock()
	defer c.bufferMutex.Unlock()

	// Ensure amplification is positive
	if factor < 0.1 {
		factor = 0.1
	}

	c.amplification = factor
}

// clamp keeps an amplified sample inside [-1, 1]
func clamp(v float32) float32 {
	return max(-1, min(1, v))
}
