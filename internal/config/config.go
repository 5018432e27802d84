// Package config holds the runtime settings shared by the yintune commands.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

// EnvPrefix prefixes every environment override
const EnvPrefix = "YINTUNE_"

// Config holds audio, detection and display settings
type Config struct {
	// Audio settings
	FrameSize  int // samples per analysis frame
	Hop        int // samples between frame starts, 0 means FrameSize
	SampleRate int
	Channels   int
	Gain       float64

	// Detection settings
	Threshold float64
	UseFFT    bool

	// Display settings
	MinDelta float64       // smallest pitch change in Hz that refreshes the display
	Interval time.Duration // pause between analyzed frames when listening

	LogLevel string
}

// Default returns the stock settings. The 2048-sample frame matches a
// typical analyser window at 44.1 kHz.
func Default() Config {
	return Config{
		FrameSize:  2048,
		SampleRate: 44100,
		Channels:   1,
		Gain:       1.0,
		Threshold:  0.15,
		MinDelta:   1.0,
		Interval:   50 * time.Millisecond,
		LogLevel:   "info",
	}
}

// BindFlags registers every setting on fs, using the current values as defaults
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.IntVar(&c.FrameSize, "frame-size", c.FrameSize, "samples per analysis frame")
	fs.IntVar(&c.Hop, "hop", c.Hop, "samples between frame starts (0 = frame size)")
	fs.IntVar(&c.SampleRate, "sample-rate", c.SampleRate, "capture sample rate in Hz")
	fs.IntVar(&c.Channels, "channels", c.Channels, "capture channels, averaged to mono")
	fs.Float64Var(&c.Gain, "gain", c.Gain, "input amplification for live capture")
	fs.Float64Var(&c.Threshold, "threshold", c.Threshold, "YIN absolute threshold (0-1)")
	fs.BoolVar(&c.UseFFT, "fft", c.UseFFT, "compute the difference function with an FFT")
	fs.Float64Var(&c.MinDelta, "min-delta", c.MinDelta, "smallest pitch change in Hz that refreshes the display")
	fs.DurationVar(&c.Interval, "interval", c.Interval, "pause between analyzed frames when listening")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn or error")
}

// FromEnv applies YINTUNE_* overrides found through lookup, usually os.LookupEnv
func (c *Config) FromEnv(lookup func(string) (string, bool)) error {
	var errs []error
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}
	setInt := func(name string, dst *int) {
		if v, ok := get(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	setFloat := func(name string, dst *float64) {
		if v, ok := get(name); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = f
		}
	}

	setInt("FRAME_SIZE", &c.FrameSize)
	setInt("HOP", &c.Hop)
	setInt("SAMPLE_RATE", &c.SampleRate)
	setInt("CHANNELS", &c.Channels)
	setFloat("GAIN", &c.Gain)
	setFloat("THRESHOLD", &c.Threshold)
	setFloat("MIN_DELTA", &c.MinDelta)
	if v, ok := get("FFT"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sFFT: %w", EnvPrefix, err))
		} else {
			c.UseFFT = b
		}
	}
	if v, ok := get("INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sINTERVAL: %w", EnvPrefix, err))
		} else {
			c.Interval = d
		}
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.LogLevel = v
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// EffectiveHop resolves a zero hop to the frame size
func (c Config) EffectiveHop() int {
	if c.Hop == 0 {
		return c.FrameSize
	}
	return c.Hop
}

// Validate checks every setting
func (c Config) Validate() error {
	var errs []error
	if c.FrameSize < 4 {
		errs = append(errs, fmt.Errorf("frame size %d is below 4 samples", c.FrameSize))
	}
	if c.Hop < 0 || c.Hop > c.FrameSize {
		errs = append(errs, fmt.Errorf("hop %d must be between 0 and the frame size", c.Hop))
	}
	if c.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample rate %d must be positive", c.SampleRate))
	}
	if c.Channels < 1 {
		errs = append(errs, fmt.Errorf("channels %d must be at least 1", c.Channels))
	}
	if !(c.Gain > 0) {
		errs = append(errs, fmt.Errorf("gain %v must be positive", c.Gain))
	}
	if !(c.Threshold > 0 && c.Threshold < 1) {
		errs = append(errs, fmt.Errorf("threshold %v must be within (0, 1)", c.Threshold))
	}
	if c.MinDelta < 0 {
		errs = append(errs, fmt.Errorf("min delta %v must not be negative", c.MinDelta))
	}
	if c.Interval < 0 {
		errs = append(errs, fmt.Errorf("interval %v must not be negative", c.Interval))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// ParseLevel maps a level name to its slog level
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}
