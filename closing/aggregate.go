/*
aggregate.go - Period aggregation primitives

FIXED SURCHARGES:
  For every date in range, run the classifier with recorded = fixed:
  nothing is extra against itself, so only surcharge-group buckets can
  be non-zero. A date is a festivo when it is in the injected holiday
  list OR falls on a Sunday.

OVERTIME NETTING:
  Sum each recorded day's PERSISTED breakdown (the registration-time
  snapshot, never reclassified). For any day whose banking is
  SOLICITADO or APROBADO, the banked minutes are subtracted from the
  overtime-group buckets only, draining in priority order
  extra_diurna -> extra_nocturna -> extra_diurna_festivo ->
  extra_nocturna_festivo. Banked time is not additionally paid in cash.
*/
package closing

import (
	"time"

	"github.com/warp/overtime-engine/bank"
	"github.com/warp/overtime-engine/classify"
	"github.com/warp/overtime-engine/schedule"
)

// HolidayCalendar is the injected holiday-date source.
type HolidayCalendar interface {
	IsHoliday(date time.Time) bool
}

// HolidaySet is a HolidayCalendar over a fixed list of dates.
type HolidaySet map[string]struct{}

// NewHolidaySet builds a set keyed by calendar date.
func NewHolidaySet(dates []time.Time) HolidaySet {
	set := make(HolidaySet, len(dates))
	for _, d := range dates {
		set[d.Format("2006-01-02")] = struct{}{}
	}
	return set
}

func (s HolidaySet) IsHoliday(date time.Time) bool {
	_, ok := s[date.Format("2006-01-02")]
	return ok
}

// FixedSurcharges sweeps the date range and classifies each day's
// contracted schedule against itself.
func FixedSurcharges(from, to time.Time, week schedule.WeekSchedule, night schedule.NightWindow, holidays HolidayCalendar) classify.Breakdown {
	var total classify.Breakdown
	for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
		fixed := week.ForDate(date)
		festivo := date.Weekday() == time.Sunday
		if !festivo && holidays != nil {
			festivo = holidays.IsHoliday(date)
		}
		total = total.Add(classify.Classify(fixed, fixed, night, festivo))
	}
	return total
}

// NetOvertime sums recorded-day breakdowns with banked minutes deducted.
func NetOvertime(days []*bank.RecordedDay) classify.Breakdown {
	var total classify.Breakdown
	for _, day := range days {
		total = total.Add(netDay(day))
	}
	return total
}

func netDay(day *bank.RecordedDay) classify.Breakdown {
	b := day.Breakdown
	if day.Banking != bank.BankingRequested && day.Banking != bank.BankingApproved {
		return b
	}
	remaining := day.BankedMinutes()
	for _, bucket := range classify.OvertimeBuckets() {
		if remaining == 0 {
			break
		}
		minutes := b.Minutes(bucket)
		take := minutes
		if remaining < take {
			take = remaining
		}
		b = b.WithMinutes(bucket, minutes-take)
		remaining -= take
	}
	return b
}
