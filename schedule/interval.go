/*
Package schedule provides the interval algebra underlying day classification.

PURPOSE:
  All working-time math in this system reduces to set operations over
  half-open minute-of-day intervals. This package keeps interval lists
  canonical (sorted, merged, non-overlapping) and provides the three
  operations the classifier is built on: Merge, Intersect, Subtract.

KEY CONCEPTS IN THIS FILE (interval.go):
  - Interval: [Start, End) with 0 <= Start < End <= 1440
  - Canonical lists: sorted by start, overlapping entries folded
  - Exact-boundary-touching intervals are NOT merged: [480,720) and
    [720,900) stay separate. Touching is not overlap, and keeping them
    apart preserves shift boundaries in reports.

INVARIANT (minute-exact, for any A, B):
  Intersect(A,B) union Subtract(A,B) == A

USAGE:
  worked := []schedule.Interval{{Start: 450, End: 720}}
  night, _ := schedule.NewNightWindow("21:00", "06:00")
  late := schedule.Intersect(worked, night.Intervals())

SEE ALSO:
  - night.go: Night window normalization (midnight wraparound)
  - schedule.go: Day/week templates producing interval lists
*/
package schedule

import (
	"errors"
	"fmt"
	"sort"
)

// MinutesPerDay bounds the minute-of-day domain: valid values are [0, 1440].
const MinutesPerDay = 24 * 60

// ErrInvalidInterval is returned for malformed interval or clock input.
var ErrInvalidInterval = errors.New("invalid interval")

// =============================================================================
// INTERVAL - Half-open [Start, End) range of minutes within one day
// =============================================================================

type Interval struct {
	Start int // inclusive, minutes since midnight
	End   int // exclusive
}

// NewInterval validates the 0 <= start < end <= 1440 domain.
func NewInterval(start, end int) (Interval, error) {
	if start < 0 || end > MinutesPerDay || start >= end {
		return Interval{}, fmt.Errorf("%w: [%d, %d)", ErrInvalidInterval, start, end)
	}
	return Interval{Start: start, End: end}, nil
}

// Minutes returns the interval length.
func (iv Interval) Minutes() int { return iv.End - iv.Start }

func (iv Interval) String() string {
	return fmt.Sprintf("[%02d:%02d, %02d:%02d)", iv.Start/60, iv.Start%60, iv.End/60, iv.End%60)
}

// =============================================================================
// SET OPERATIONS
// =============================================================================

// Merge returns a canonical copy of list: sorted by start, with overlapping
// intervals folded together. Intervals that merely touch at a boundary
// (next.Start == last.End) are NOT merged.
func Merge(list []Interval) []Interval {
	if len(list) == 0 {
		return nil
	}

	sorted := make([]Interval, len(list))
	copy(sorted, list)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	result := []Interval{sorted[0]}
	for _, next := range sorted[1:] {
		last := &result[len(result)-1]
		if next.Start < last.End {
			if next.End > last.End {
				last.End = next.End
			}
			continue
		}
		result = append(result, next)
	}
	return result
}

// Intersect returns the minutes present in both a and b. Commutative.
func Intersect(a, b []Interval) []Interval {
	var result []Interval
	for _, x := range a {
		for _, y := range b {
			start := max(x.Start, y.Start)
			end := min(x.End, y.End)
			if start < end {
				result = append(result, Interval{Start: start, End: end})
			}
		}
	}
	return Merge(result)
}

// Subtract returns the minutes of a not covered by b. Each element of b is
// removed from the running remainder, splitting an overlapped interval into
// zero, one or two pieces.
func Subtract(a, b []Interval) []Interval {
	remainder := Merge(a)
	for _, y := range b {
		var next []Interval
		for _, x := range remainder {
			// No overlap: keep as-is.
			if y.End <= x.Start || y.Start >= x.End {
				next = append(next, x)
				continue
			}
			// Left piece survives.
			if y.Start > x.Start {
				next = append(next, Interval{Start: x.Start, End: y.Start})
			}
			// Right piece survives.
			if y.End < x.End {
				next = append(next, Interval{Start: y.End, End: x.End})
			}
		}
		remainder = next
	}
	return Merge(remainder)
}

// TotalMinutes sums the lengths of all intervals in the list.
func TotalMinutes(list []Interval) int {
	total := 0
	for _, iv := range list {
		total += iv.Minutes()
	}
	return total
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
