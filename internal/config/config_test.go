package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 2048, cfg.EffectiveHop())
	assert.Equal(t, 0.15, cfg.Threshold)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"short frame", func(c *Config) { c.FrameSize = 3 }},
		{"negative hop", func(c *Config) { c.Hop = -1 }},
		{"hop past frame", func(c *Config) { c.Hop = c.FrameSize + 1 }},
		{"zero rate", func(c *Config) { c.SampleRate = 0 }},
		{"no channels", func(c *Config) { c.Channels = 0 }},
		{"zero gain", func(c *Config) { c.Gain = 0 }},
		{"threshold one", func(c *Config) { c.Threshold = 1 }},
		{"threshold zero", func(c *Config) { c.Threshold = 0 }},
		{"negative delta", func(c *Config) { c.MinDelta = -1 }},
		{"negative interval", func(c *Config) { c.Interval = -time.Second }},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestFromEnv(t *testing.T) {
	cfg := Default()
	err := cfg.FromEnv(envMap(map[string]string{
		"YINTUNE_FRAME_SIZE":  "4096",
		"YINTUNE_HOP":         "1024",
		"YINTUNE_SAMPLE_RATE": "48000",
		"YINTUNE_THRESHOLD":   " 0.1 ",
		"YINTUNE_FFT":         "true",
		"YINTUNE_INTERVAL":    "20ms",
		"YINTUNE_LOG_LEVEL":   "debug",
		"YINTUNE_CHANNELS":    "",
		"UNRELATED":           "1",
	}))
	require.NoError(t, err)

	assert.Equal(t, 4096, cfg.FrameSize)
	assert.Equal(t, 1024, cfg.EffectiveHop())
	assert.Equal(t, 48000, cfg.SampleRate)
	assert.Equal(t, 0.1, cfg.Threshold)
	assert.True(t, cfg.UseFFT)
	assert.Equal(t, 20*time.Millisecond, cfg.Interval)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 1, cfg.Channels)
}

func TestFromEnvErrors(t *testing.T) {
	cfg := Default()
	err := cfg.FromEnv(envMap(map[string]string{
		"YINTUNE_FRAME_SIZE": "big",
		"YINTUNE_FFT":        "maybe",
	}))
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "YINTUNE_FRAME_SIZE")
	assert.Contains(t, err.Error(), "YINTUNE_FFT")
	assert.Equal(t, 2048, cfg.FrameSize)
}

func TestBindFlags(t *testing.T) {
	cfg := Default()
	cfg.SampleRate = 48000 // e.g. from the environment

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--frame-size=1024", "--fft", "--min-delta=0.5", "--interval=10ms"}))

	assert.Equal(t, 1024, cfg.FrameSize)
	assert.True(t, cfg.UseFFT)
	assert.Equal(t, 0.5, cfg.MinDelta)
	assert.Equal(t, 10*time.Millisecond, cfg.Interval)
	assert.Equal(t, 48000, cfg.SampleRate, "unset flags keep the prior value")
}

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	} {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseLevel("trace")
	assert.Error(t, err)
}
