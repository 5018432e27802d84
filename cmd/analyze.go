package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/0xlemi/yintune/internal/audio"
	"github.com/0xlemi/yintune/internal/config"
	"github.com/0xlemi/yintune/internal/tuner"
)

func newAnalyzeCmd(cfg *config.Config) *cobra.Command {
	var (
		asJSON     bool
		voicedOnly bool
		debounce   bool
	)

	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Print the pitch of every frame of a WAV, MP3 or Ogg Vorbis file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cfg, cmd)

			source, err := audio.OpenFile(args[0], cfg.FrameSize, cfg.EffectiveHop())
			if err != nil {
				return err
			}
			defer source.Close()

			sink := newReportSink(cmd.OutOrStdout(), asJSON, voicedOnly,
				float64(cfg.EffectiveHop())/float64(source.SampleRate()))

			loop := &tuner.Loop{
				Source:   source,
				Detector: newDetector(cfg, logger),
				Sink:     sink,
				Logger:   logger,
			}
			if debounce {
				loop.Debounce = tuner.NewDebouncer(cfg.MinDelta)
			}

			logger.Debug("analyzing", "file", args[0], "sample_rate", source.SampleRate(), "channels", source.Channels())
			if err := loop.Run(cmd.Context()); err != nil {
				return err
			}
			if err := sink.Flush(); err != nil {
				return fmt.Errorf("write report: %w", err)
			}

			logger.Info("analysis complete", "file", args[0], "summary", sink)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit one JSON object per frame")
	cmd.Flags().BoolVar(&voicedOnly, "voiced-only", false, "skip frames without a pitch")
	cmd.Flags().BoolVar(&debounce, "debounce", false, "only report pitch changes of at least --min-delta Hz")
	return cmd
}

// frameReport is one line of analyze output
type frameReport struct {
	Frame      int     `json:"frame"`
	Time       float64 `json:"time"`
	Voiced     bool    `json:"voiced"`
	Frequency  float64 `json:"frequency,omitempty"`
	Rounded    int     `json:"rounded,omitempty"`
	Note       string  `json:"note,omitempty"`
	Label      string  `json:"label,omitempty"`
	MIDI       int     `json:"midi,omitempty"`
	Cents      float64 `json:"cents,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// reportSink writes analyze output as an aligned table or JSON lines
type reportSink struct {
	table      *tabwriter.Writer
	enc        *json.Encoder
	voicedOnly bool
	secsPerHop float64
	err        error

	frames int
	voiced int
	counts map[string]int
}

func newReportSink(w io.Writer, asJSON, voicedOnly bool, secsPerHop float64) *reportSink {
	s := &reportSink{
		voicedOnly: voicedOnly,
		secsPerHop: secsPerHop,
		counts:     make(map[string]int),
	}
	if asJSON {
		s.enc = json.NewEncoder(w)
		return s
	}
	s.table = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, s.err = fmt.Fprintln(s.table, "FRAME\tTIME\tHZ\tNOTE\tLABEL\tCENTS\tCONF")
	return s
}

func (s *reportSink) Publish(r tuner.Reading) {
	s.frames++
	s.voiced++
	s.counts[r.Note.String()]++
	s.write(frameReport{
		Frame:      r.Frame,
		Time:       float64(r.Frame) * s.secsPerHop,
		Voiced:     true,
		Frequency:  r.Note.Frequency,
		Rounded:    r.Rounded,
		Note:       r.Note.String(),
		Label:      r.Note.Label,
		MIDI:       r.Note.MIDI,
		Cents:      r.Note.Cents,
		Confidence: r.Probability,
	})
}

func (s *reportSink) Hold(frame int) {
	s.frames++
	if s.voicedOnly {
		return
	}
	s.write(frameReport{Frame: frame, Time: float64(frame) * s.secsPerHop})
}

func (s *reportSink) Level(float32, float32) {}

func (s *reportSink) write(r frameReport) {
	if s.err != nil {
		return
	}
	if s.enc != nil {
		s.err = s.enc.Encode(r)
		return
	}
	if !r.Voiced {
		_, s.err = fmt.Fprintf(s.table, "%d\t%.3f\t-\t-\t-\t-\t-\n", r.Frame, r.Time)
		return
	}
	_, s.err = fmt.Fprintf(s.table, "%d\t%.3f\t%.2f\t%s\t%s\t%+.1f\t%.2f\n",
		r.Frame, r.Time, r.Frequency, r.Note, r.Label, r.Cents, r.Confidence)
}

// Flush writes out buffered table rows and reports the first write error
func (s *reportSink) Flush() error {
	if s.err != nil {
		return s.err
	}
	if s.table != nil {
		return s.table.Flush()
	}
	return nil
}

// dominant returns the most frequent note, ties going to the lower name
func (s *reportSink) dominant() string {
	best, bestCount := "", 0
	for name, n := range s.counts {
		if n > bestCount || (n == bestCount && name < best) {
			best, bestCount = name, n
		}
	}
	return best
}

// LogValue summarises the sink for structured logs
func (s *reportSink) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("frames", s.frames),
		slog.Int("voiced", s.voiced),
		slog.String("dominant", s.dominant()),
	)
}
