package tuner

import "math"

// Debouncer suppresses readings that move less than MinDelta Hz away from
// the last displayed pitch. It holds the only display state of the loop.
type Debouncer struct {
	MinDelta float64
	last     float64
}

// NewDebouncer creates a debouncer whose held pitch starts at 1 Hz
func NewDebouncer(minDelta float64) *Debouncer {
	return &Debouncer{MinDelta: minDelta, last: 1}
}

// Accept reports whether freq should be displayed. Accepted pitches are
// rounded to whole Hz and become the new reference; rejected ones return
// the held value.
func (d *Debouncer) Accept(freq float64) (int, bool) {
	if !(freq > 0) || math.Abs(freq-d.last) < d.MinDelta {
		return int(d.last), false
	}
	d.last = math.Round(freq)
	return int(d.last), true
}

// Last returns the pitch currently held for display
func (d *Debouncer) Last() int {
	return int(d.last)
}

// Reset returns to the initial state
func (d *Debouncer) Reset() {
	d.last = 1
}
