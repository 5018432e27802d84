package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/0xlemi/yintune/internal/config"
	"github.com/0xlemi/yintune/internal/pitch"
)

func main() {
	cfg := config.Default()
	if err := cfg.FromEnv(os.LookupEnv); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(&cfg).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// newRootCmd wires every subcommand to the shared configuration
func newRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "yintune",
		Short:         "Real-time pitch detection with the YIN algorithm",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return cfg.Validate()
		},
	}
	cfg.BindFlags(root.PersistentFlags())

	root.AddCommand(
		newListenCmd(cfg),
		newAnalyzeCmd(cfg),
		newNoteCmd(),
	)
	return root
}

// newLogger builds the text logger every command writes diagnostics to
func newLogger(cfg *config.Config, cmd *cobra.Command) *slog.Logger {
	level, _ := config.ParseLevel(cfg.LogLevel)
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func newDetector(cfg *config.Config, logger *slog.Logger) *pitch.YINDetector {
	return pitch.NewYINDetector(
		pitch.WithThreshold(cfg.Threshold),
		pitch.WithFFT(cfg.UseFFT),
		pitch.WithLogger(logger),
	)
}
