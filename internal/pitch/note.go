package pitch

import (
	"fmt"
	"math"
)

// NoteName pairs the Latin name of a pitch class with its Korean solfège label
type NoteName struct {
	Latin  string
	Korean string
}

// NoteNames lists the twelve pitch classes in chromatic order starting at C
var NoteNames = [12]NoteName{
	{"C", "도"},
	{"C#", "도#"},
	{"D", "레"},
	{"D#", "레#"},
	{"E", "미"},
	{"F", "파"},
	{"F#", "파#"},
	{"G", "솔"},
	{"G#", "솔#"},
	{"A", "라"},
	{"A#", "라#"},
	{"B", "시"},
}

// Note represents a musical note
type Note struct {
	Name       string  // e.g., "A", "A#", "B"
	Label      string  // localized name, e.g., "라"
	PitchClass int     // 0 = C ... 11 = B
	MIDI       int     // semitone number, 69 = A4
	Octave     int     // e.g., 4 for middle C (C4)
	Frequency  float64 // Frequency in Hz
	Cents      float64 // Cents deviation from the nearest semitone (-50 to +50)
}

// String renders the note in scientific pitch notation, e.g. "A4"
func (n Note) String() string {
	return fmt.Sprintf("%s%d", n.Name, n.Octave)
}

// FrequencyToNote maps a frequency to the nearest equal-tempered semitone
// (A4 = 440 Hz = MIDI 69). It is defined for every positive finite frequency.
func FrequencyToNote(frequency float64) (Note, error) {
	if !(frequency > 0) || math.IsInf(frequency, 1) {
		return Note{}, fmt.Errorf("%w: %v", ErrInvalidFrequency, frequency)
	}

	// log2 of each side separately so subnormal inputs do not underflow to 0
	exact := 12*(math.Log2(frequency)-math.Log2(440.0)) + 69
	semitone := math.Round(exact)

	midi := int(semitone)
	pitchClass := ((midi % 12) + 12) % 12
	octave := int(math.Floor(semitone/12)) - 1

	return Note{
		Name:       NoteNames[pitchClass].Latin,
		Label:      NoteNames[pitchClass].Korean,
		PitchClass: pitchClass,
		MIDI:       midi,
		Octave:     octave,
		Frequency:  frequency,
		Cents:      100 * (exact - semitone),
	}, nil
}
