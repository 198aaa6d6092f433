/*
schedule.go - Day and week schedule templates

PURPOSE:
  A DaySchedule is the per-weekday template used both for the contracted
  (fixed) schedule and for recorded working time: independently enabled
  morning/afternoon sub-shifts under an overriding day-level Enabled flag.

GHOST DATA GUARD:
  Disabling a day does not clear its sub-shifts in the UI, so a disabled
  day commonly still carries populated shift ranges. Intervals()
  short-circuits on the parent flag before inspecting sub-shifts; a
  disabled day yields zero intervals regardless of shift contents.
*/
package schedule

import "time"

// Shift is one sub-range of a working day (morning or afternoon).
type Shift struct {
	Enabled bool
	Start   int // minutes since midnight
	End     int
}

// intervals normalizes the shift into day-local intervals. A shift
// that wraps midnight (Start > End, e.g. 23:00 to 01:00) splits into
// its late and early pieces, mirroring NightWindow.Intervals.
func (s Shift) intervals() []Interval {
	switch {
	case !s.Enabled || s.Start == s.End:
		return nil
	case s.Start < s.End:
		return []Interval{{Start: s.Start, End: s.End}}
	default:
		return []Interval{
			{Start: s.Start, End: MinutesPerDay},
			{Start: 0, End: s.End},
		}
	}
}

// DaySchedule is a single day's template.
type DaySchedule struct {
	Enabled   bool
	Morning   Shift
	Afternoon Shift
}

// Intervals returns the day's working intervals as a canonical list.
// The parent Enabled flag wins over sub-shift contents.
func (d DaySchedule) Intervals() []Interval {
	if !d.Enabled {
		return nil
	}
	var list []Interval
	list = append(list, d.Morning.intervals()...)
	list = append(list, d.Afternoon.intervals()...)
	return Merge(list)
}

// Minutes returns the day's total enabled working minutes.
func (d DaySchedule) Minutes() int { return TotalMinutes(d.Intervals()) }

// =============================================================================
// WEEK SCHEDULE - Fixed contracted template, one DaySchedule per weekday
// =============================================================================

// WeekSchedule holds one template per weekday, indexed by time.Weekday
// (Sunday = 0).
type WeekSchedule [7]DaySchedule

// Day returns the template for the given weekday.
func (w WeekSchedule) Day(wd time.Weekday) DaySchedule { return w[int(wd)] }

// ForDate returns the template that applies on a calendar date.
func (w WeekSchedule) ForDate(date time.Time) DaySchedule { return w.Day(date.Weekday()) }

// WeeklyMinutes sums enabled working minutes across the week.
func (w WeekSchedule) WeeklyMinutes() int {
	total := 0
	for _, d := range w {
		total += d.Minutes()
	}
	return total
}

// WorkDays counts enabled days.
func (w WeekSchedule) WorkDays() int {
	n := 0
	for _, d := range w {
		if d.Enabled {
			n++
		}
	}
	return n
}
