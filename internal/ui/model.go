package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/0xlemi/yintune/internal/tuner"
)

const (
	// How long a note stays bright after its last update
	staleAfter = 1500 * time.Millisecond

	tickInterval = 250 * time.Millisecond

	meterWidth = 30
	waveWidth  = 48

	// Level meter range in dBFS
	meterFloorDB = -60.0
)

var (
	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(2).
			PaddingRight(2).
			MarginBottom(1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCCCCC"))

	staleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA"))

	// Note colors
	noteColors = map[string]string{
		"C": "#E8D6B0", // Beige
		"D": "#A020F0", // Purple
		"E": "#FFFF00", // Yellow
		"F": "#FFA500", // Orange
		"G": "#00FF00", // Green
		"A": "#FF0000", // Red
		"B": "#0000FF", // Blue
	}

	waveLevels = []rune(" ▁▂▃▄▅▆▇█")
)

// Returns a box style for a natural note in its colour
func getNoteStyle(noteName string) lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color(noteColors[noteName])).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#333333")).
		Padding(2, 4).
		MarginBottom(1)
}

// Get the next natural note (for sharp note colors)
func getNextNote(note string) string {
	switch note {
	case "C":
		return "D"
	case "D":
		return "E"
	case "E":
		return "F"
	case "F":
		return "G"
	case "G":
		return "A"
	case "A":
		return "B"
	default:
		return "C"
	}
}

// TickMsg represents a timer tick
type TickMsg time.Time

// NoteMsg carries a pitch accepted for display
type NoteMsg tuner.Reading

// HoldMsg means the latest frame had nothing new to show
type HoldMsg struct{}

// LevelMsg carries the input level of the latest frame
type LevelMsg struct {
	RMS float32
	DB  float32
}

// WaveMsg carries the latest raw frame for the waveform strip
type WaveMsg []float32

// Model represents the UI state
type Model struct {
	reading     *tuner.Reading
	lastUpdated time.Time
	now         time.Time
	level       LevelMsg
	wave        []float32
	holds       int
	width       int
	height      int
}

// NewModel creates a new UI model
func NewModel() Model {
	return Model{
		level: LevelMsg{DB: -100},
		now:   time.Now(),
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Init initializes the UI model
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update updates the UI model based on messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case TickMsg:
		m.now = time.Time(msg)
		return m, tick()

	case NoteMsg:
		reading := tuner.Reading(msg)
		m.reading = &reading
		m.lastUpdated = time.Now()
		m.now = m.lastUpdated
		m.holds = 0

	case HoldMsg:
		// keep showing the previous note
		m.holds++

	case LevelMsg:
		m.level = msg

	case WaveMsg:
		m.wave = msg
	}

	return m, nil
}

func (m Model) stale() bool {
	return m.reading == nil || m.now.Sub(m.lastUpdated) > staleAfter
}

// View renders the UI
func (m Model) View() string {
	s := titleStyle.Render("yintune - YIN pitch detector")
	s += "\n"

	if m.reading != nil {
		s += renderNote(m.reading.Note.Name, m.reading.Note.Octave)
		s += "\n"

		info := fmt.Sprintf("%s  %d Hz | Cents: %+.1f | Confidence: %.2f",
			labelStyle.Render(m.reading.Note.Label),
			m.reading.Rounded,
			m.reading.Note.Cents,
			m.reading.Probability)
		if m.stale() {
			s += staleStyle.Render(info)
		} else {
			s += infoStyle.Render(info)
		}
	} else {
		s += infoStyle.Render("Listening for audio...")
	}

	s += "\n\n"
	s += infoStyle.Render(fmt.Sprintf("Level %s %6.1f dB", renderMeter(m.level.DB), m.level.DB))
	s += "\n"
	s += infoStyle.Render("Wave  " + renderWave(m.wave, waveWidth))
	s += "\n\n"
	s += infoStyle.Render("Press q to quit")

	return s
}

// renderNote draws the note box; sharps are split between the colours of
// the two naturals they sit between
func renderNote(name string, octave int) string {
	noteText := fmt.Sprintf("%s%d", name, octave)

	if !strings.HasSuffix(name, "#") {
		return getNoteStyle(name).Render(noteText)
	}

	baseNote := string(name[0])
	nextNote := getNextNote(baseNote)

	leftStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color(noteColors[baseNote])).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#333333")).
		BorderLeft(true).
		BorderTop(true).
		BorderBottom(true).
		BorderRight(false).
		PaddingLeft(2).
		PaddingRight(1).
		PaddingTop(2).
		PaddingBottom(2)

	rightStyle := leftStyle.
		Background(lipgloss.Color(noteColors[nextNote])).
		BorderLeft(false).
		BorderRight(true).
		PaddingLeft(1).
		PaddingRight(2)

	return lipgloss.JoinHorizontal(lipgloss.Top,
		leftStyle.Render(baseNote),
		rightStyle.Render("#"+noteText[2:]))
}

// renderMeter maps a dBFS level onto a fixed-width bar
func renderMeter(db float32) string {
	fill := int((float64(db) - meterFloorDB) / -meterFloorDB * meterWidth)
	fill = max(0, min(meterWidth, fill))
	return strings.Repeat("█", fill) + strings.Repeat("░", meterWidth-fill)
}

// renderWave draws the peak amplitude of width equal slices of the frame
func renderWave(samples []float32, width int) string {
	if len(samples) == 0 || width <= 0 {
		return strings.Repeat(" ", max(width, 0))
	}

	var b strings.Builder
	for col := 0; col < width; col++ {
		start := col * len(samples) / width
		end := max((col+1)*len(samples)/width, start+1)
		end = min(end, len(samples))

		peak := float32(0)
		for _, v := range samples[start:end] {
			if v < 0 {
				v = -v
			}
			peak = max(peak, v)
		}
		idx := int(peak * float32(len(waveLevels)-1))
		idx = max(0, min(len(waveLevels)-1, idx))
		b.WriteRune(waveLevels[idx])
	}
	return b.String()
}
