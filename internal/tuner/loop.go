// Package tuner drives pitch detection over a stream of frames.
package tuner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/0xlemi/yintune/internal/audio"
	"github.com/0xlemi/yintune/internal/pitch"
)

// Reading is one pitch accepted for display
type Reading struct {
	Note        pitch.Note
	Rounded     int     // frequency rounded to whole Hz
	Probability float64 // confidence of the YIN estimate
	Frame       int     // index of the frame it came from
}

// Sink receives what the loop decides to show
type Sink interface {
	// Publish shows a new pitch
	Publish(Reading)
	// Hold keeps the previous display for this frame
	Hold(frame int)
	// Level reports the input level of every frame
	Level(rms, db float32)
}

// WaveSink is implemented by sinks that also draw the raw frame
type WaveSink interface {
	Wave(samples []float32)
}

// Loop repeatedly pulls a frame from Source, runs Detector over it and
// forwards the outcome to Sink. A nil Debounce publishes every pitch.
type Loop struct {
	Source   audio.Capturer
	Detector pitch.Detector
	Sink     Sink
	Debounce *Debouncer
	Interval time.Duration // pause between frames, 0 for none
	Logger   *slog.Logger
}

// Run starts the source and processes frames until the source ends or ctx
// is cancelled. The source is stopped before Run returns.
func (l *Loop) Run(ctx context.Context) (err error) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := l.Source.Start(); err != nil {
		return fmt.Errorf("start audio source: %w", err)
	}
	defer func() {
		if stopErr := l.Source.Stop(); stopErr != nil && err == nil {
			err = fmt.Errorf("stop audio source: %w", stopErr)
		}
	}()

	frame := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		buffer, err := l.Source.GetBuffer()
		switch {
		case errors.Is(err, audio.ErrEndOfStream):
			logger.Debug("audio source drained", "frames", frame)
			return nil
		case errors.Is(err, audio.ErrNoFrame):
			if err := wait(ctx, max(l.Interval, noFrameBackoff)); err != nil {
				return err
			}
			continue
		case err != nil:
			return fmt.Errorf("read frame %d: %w", frame, err)
		}

		l.process(buffer, frame, logger)
		frame++

		if err := wait(ctx, l.Interval); err != nil {
			return err
		}
	}
}

func (l *Loop) process(buffer *audio.AudioBuffer, frame int, logger *slog.Logger) {
	rms, db := audio.Level(buffer.Samples)
	l.Sink.Level(rms, db)
	if w, ok := l.Sink.(WaveSink); ok {
		w.Wave(buffer.Samples)
	}

	result, err := l.Detector.DetectPitch(buffer)
	if err != nil {
		if !errors.Is(err, pitch.ErrNoPitch) {
			logger.Debug("frame skipped", "frame", frame, "err", err)
		}
		l.Sink.Hold(frame)
		return
	}

	rounded := int(math.Round(result.Estimate.Frequency))
	if l.Debounce != nil {
		var ok bool
		if rounded, ok = l.Debounce.Accept(result.Estimate.Frequency); !ok {
			l.Sink.Hold(frame)
			return
		}
	}

	l.Sink.Publish(Reading{
		Note:        result.Note,
		Rounded:     rounded,
		Probability: result.Estimate.Probability,
		Frame:       frame,
	})
}

// noFrameBackoff is the shortest pause before polling a live source that
// has no complete frame yet
const noFrameBackoff = 5 * time.Millisecond

// wait sleeps for d or until ctx is done
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
