package tuner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xlemi/yintune/internal/audio"
	"github.com/0xlemi/yintune/internal/pitch"
	"github.com/0xlemi/yintune/internal/testutil"
)

// fakeSource replays frames and then reports end of stream
type fakeSource struct {
	frames   [][]float32
	rate     int
	next     int
	live     bool // never ends, never has a frame
	readErr  error
	startErr error

	mu      sync.Mutex
	started bool
	stopped bool
	polls   int
}

func (s *fakeSource) Start() error {
	if s.startErr != nil {
		return s.startErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = true
	return nil
}

func (s *fakeSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	return nil
}

func (s *fakeSource) IsCapturing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started && !s.stopped
}

func (s *fakeSource) GetBuffer() (*audio.AudioBuffer, error) {
	s.mu.Lock()
	s.polls++
	s.mu.Unlock()
	if s.live {
		return nil, audio.ErrNoFrame
	}
	if s.readErr != nil {
		return nil, s.readErr
	}
	if s.next >= len(s.frames) {
		return nil, audio.ErrEndOfStream
	}
	frame := s.frames[s.next]
	s.next++
	return &audio.AudioBuffer{Samples: frame, SampleRate: s.rate}, nil
}

type recordingSink struct {
	published []Reading
	held      []int
	levels    int
	waves     int
}

func (r *recordingSink) Publish(reading Reading) { r.published = append(r.published, reading) }
func (r *recordingSink) Hold(frame int)          { r.held = append(r.held, frame) }
func (r *recordingSink) Level(_, _ float32)      { r.levels++ }
func (r *recordingSink) Wave(_ []float32)        { r.waves++ }

func TestLoopDebouncedStream(t *testing.T) {
	src := &fakeSource{
		rate: 44100,
		frames: [][]float32{
			testutil.Sine(440, 44100, 2048, 0.5),
			make([]float32, 2048),
			testutil.Sine(440, 44100, 2048, 0.5),
			testutil.Sine(445, 44100, 2048, 0.5),
			{0.1, 0.2, 0.3},
		},
	}
	sink := &recordingSink{}
	loop := &Loop{
		Source:   src,
		Detector: pitch.NewYINDetector(),
		Sink:     sink,
		Debounce: NewDebouncer(1),
	}

	require.NoError(t, loop.Run(context.Background()))

	require.Len(t, sink.published, 2)
	assert.Equal(t, 0, sink.published[0].Frame)
	assert.Equal(t, 440, sink.published[0].Rounded)
	assert.Equal(t, "A", sink.published[0].Note.Name)
	assert.Greater(t, sink.published[0].Probability, 0.85)

	assert.Equal(t, 3, sink.published[1].Frame)
	assert.Equal(t, 445, sink.published[1].Rounded)

	assert.Equal(t, []int{1, 2, 4}, sink.held)
	assert.Equal(t, 5, sink.levels)
	assert.Equal(t, 5, sink.waves)
	assert.True(t, src.stopped)
}

func TestLoopWithoutDebounce(t *testing.T) {
	tone := testutil.Sine(220, 22050, 1024, 0.5)
	src := &fakeSource{rate: 22050, frames: [][]float32{tone, tone, tone}}
	sink := &recordingSink{}
	loop := &Loop{Source: src, Detector: pitch.NewYINDetector(), Sink: sink}

	require.NoError(t, loop.Run(context.Background()))
	require.Len(t, sink.published, 3)
	for i, r := range sink.published {
		assert.Equal(t, i, r.Frame)
		assert.Equal(t, 220, r.Rounded)
	}
	assert.Empty(t, sink.held)
}

func TestLoopCancel(t *testing.T) {
	src := &fakeSource{live: true}
	loop := &Loop{
		Source:   src,
		Detector: pitch.NewYINDetector(),
		Sink:     &recordingSink{},
		Interval: 5 * time.Millisecond,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := loop.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, src.stopped)
}

func TestLoopBacksOffWithoutFrames(t *testing.T) {
	src := &fakeSource{live: true}
	loop := &Loop{
		Source:   src,
		Detector: pitch.NewYINDetector(),
		Sink:     &recordingSink{},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.ErrorIs(t, loop.Run(ctx), context.DeadlineExceeded)
	// a zero interval still pauses between polls of an empty source
	assert.Positive(t, src.polls)
	assert.LessOrEqual(t, src.polls, 20)
}

func TestLoopErrors(t *testing.T) {
	boom := errors.New("device unplugged")

	loop := &Loop{Source: &fakeSource{startErr: boom}, Detector: pitch.NewYINDetector(), Sink: &recordingSink{}}
	require.ErrorIs(t, loop.Run(context.Background()), boom)

	src := &fakeSource{readErr: boom}
	loop = &Loop{Source: src, Detector: pitch.NewYINDetector(), Sink: &recordingSink{}}
	err := loop.Run(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "read frame 0")
	assert.True(t, src.stopped)
}
