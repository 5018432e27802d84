package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/0xlemi/yintune/internal/audio"
	"github.com/0xlemi/yintune/internal/config"
	"github.com/0xlemi/yintune/internal/tuner"
	"github.com/0xlemi/yintune/internal/ui"
)

func newListenCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Detect the pitch of the default microphone in a terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger(cfg, cmd)

			capturer, err := audio.NewPortAudioCapturer(cfg.FrameSize, cfg.SampleRate, cfg.Channels)
			if err != nil {
				return fmt.Errorf("create audio capturer: %w", err)
			}
			capturer.SetAmplification(float32(cfg.Gain))

			p := tea.NewProgram(ui.NewModel(), tea.WithAltScreen(), tea.WithContext(cmd.Context()))

			loop := &tuner.Loop{
				Source:   capturer,
				Detector: newDetector(cfg, logger),
				Sink:     ui.NewSink(p),
				Debounce: tuner.NewDebouncer(cfg.MinDelta),
				Interval: cfg.Interval,
				Logger:   logger,
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			loopErr := make(chan error, 1)
			go func() {
				err := loop.Run(ctx)
				if err != nil && !errors.Is(err, context.Canceled) {
					p.Quit()
				}
				loopErr <- err
			}()

			logger.Info("listening", "frame_size", cfg.FrameSize, "sample_rate", cfg.SampleRate, "threshold", cfg.Threshold)

			_, runErr := p.Run()
			cancel()
			err = <-loopErr

			if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
				return fmt.Errorf("run terminal UI: %w", runErr)
			}
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
