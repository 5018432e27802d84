package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/0xlemi/yintune/internal/tuner"
)

// sender is satisfied by *tea.Program
type sender interface {
	Send(msg tea.Msg)
}

// Sink forwards tuner output to a running bubbletea program
type Sink struct {
	program sender
}

// NewSink creates a sink that sends to program
func NewSink(program sender) *Sink {
	return &Sink{program: program}
}

// Publish shows a new pitch
func (s *Sink) Publish(r tuner.Reading) {
	s.program.Send(NoteMsg(r))
}

// Hold keeps the previous note on screen
func (s *Sink) Hold(int) {
	s.program.Send(HoldMsg{})
}

// Level updates the input meter
func (s *Sink) Level(rms, db float32) {
	s.program.Send(LevelMsg{RMS: rms, DB: db})
}

// Wave updates the waveform strip. The frame is copied since the program
// renders it asynchronously.
func (s *Sink) Wave(samples []float32) {
	s.program.Send(WaveMsg(append([]float32(nil), samples...)))
}
