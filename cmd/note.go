package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/0xlemi/yintune/internal/pitch"
)

func newNoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "note HZ...",
		Short: "Map frequencies to the nearest equal-tempered note",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				freq, err := strconv.ParseFloat(arg, 64)
				if err != nil {
					return fmt.Errorf("parse frequency %q: %w", arg, err)
				}
				note, err := pitch.FrequencyToNote(freq)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%.2f Hz\t%s\t%s\tMIDI %d\t%+.1f cents\n",
					freq, note, note.Label, note.MIDI, note.Cents)
			}
			return nil
		},
	}
}
