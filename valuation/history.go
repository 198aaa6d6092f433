/*
history.go - Dated hourly-rate history

PURPOSE:
  Schedules and salaries change. When they do, the profile being
  replaced is appended to the history with the moment it was
  superseded, so valuation of a past date uses the rate that was in
  force back then, not the current one.

LOOKUP RULE:
  At(date) returns the profile from the earliest entry superseded
  after the target date. When no entry qualifies (date is newer than
  every change, or the history is empty), the caller-provided current
  profile is the one in force.
*/
package valuation

import (
	"sort"
	"time"
)

// RateChange records a profile that was in force until EffectiveAt,
// the moment it was superseded.
type RateChange struct {
	EffectiveAt time.Time   `json:"effective_at"`
	Profile     RateProfile `json:"profile"`
}

// RateHistory is a chronologically sorted list of rate changes.
type RateHistory []RateChange

// Append adds a change keeping the history sorted by EffectiveAt.
func (h RateHistory) Append(change RateChange) RateHistory {
	out := append(RateHistory{}, h...)
	out = append(out, change)
	sort.Slice(out, func(i, j int) bool {
		return out[i].EffectiveAt.Before(out[j].EffectiveAt)
	})
	return out
}

// At returns the profile in force on the target date: the earliest
// entry superseded strictly after the date, falling back to current.
func (h RateHistory) At(date time.Time, current RateProfile) RateProfile {
	for _, change := range h {
		if change.EffectiveAt.After(date) {
			return change.Profile
		}
	}
	return current
}
