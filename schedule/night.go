/*
night.go - Night window normalization

PURPOSE:
  The night surcharge window is configured as a clock range that usually
  crosses midnight (e.g. 21:00-06:00). Interval algebra works on a single
  0..1440 day, so a wrapping window is normalized into two canonical
  intervals: [start, 1440) and [0, end).

DEGRADED CONFIGURATION:
  A zero-value NightWindow produces no intervals, so classification
  degrades to zero night buckets instead of failing. This keeps the
  classifier total-defined when no window is configured.
*/
package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// NightWindow is the configured daily range that triggers night surcharge.
// Start and End are minutes of day; Start > End means the window wraps
// past midnight.
type NightWindow struct {
	Start int
	End   int
}

// NewNightWindow parses "HH:MM" clock strings into a window.
func NewNightWindow(start, end string) (NightWindow, error) {
	s, err := ClockMinutes(start)
	if err != nil {
		return NightWindow{}, err
	}
	e, err := ClockMinutes(end)
	if err != nil {
		return NightWindow{}, err
	}
	return NightWindow{Start: s, End: e}, nil
}

// IsZero reports whether no window is configured.
func (w NightWindow) IsZero() bool { return w.Start == 0 && w.End == 0 }

// Intervals returns the window as 1-2 canonical intervals.
// A wrapping window (Start > End) splits at midnight.
func (w NightWindow) Intervals() []Interval {
	if w.IsZero() {
		return nil
	}
	if w.Start <= w.End {
		if w.Start == w.End {
			return nil
		}
		return []Interval{{Start: w.Start, End: w.End}}
	}
	return []Interval{
		{Start: w.Start, End: MinutesPerDay},
		{Start: 0, End: w.End},
	}
}

// ClockMinutes converts "HH:MM" to minutes since midnight.
func ClockMinutes(clock string) (int, error) {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: clock %q", ErrInvalidInterval, clock)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%w: clock %q", ErrInvalidInterval, clock)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: clock %q", ErrInvalidInterval, clock)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: clock %q out of range", ErrInvalidInterval, clock)
	}
	return h*60 + m, nil
}
