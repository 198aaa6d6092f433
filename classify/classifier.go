/*
classifier.go - The day classification algorithm

ALGORITHM:
  1. recorded = intervals(recorded template)
     fixed    = intervals(fixed template)   (empty if absent/disabled)
     night    = normalize(night window)
  2. ordinary = recorded INTERSECT fixed    (contractually obligated time)
     extra    = recorded SUBTRACT fixed     (overtime candidate)
  3. Split both by the night window.
  4. Route the four parts into buckets, holiday variant when the day is
     a festivo.

RATIONALE:
  Ordinary time is payable as a surcharge only at night or on a holiday;
  base salary already covers regular daytime hours. Extra time is always
  payable, doubly so at night and/or on a holiday.

  Holiday ordinary daytime minutes always earn dominical_festivo, even
  for an employee whose fixed schedule includes Sundays. Business rule
  kept as-is.
*/
package classify

import "github.com/warp/overtime-engine/schedule"

// Classify computes the 7-bucket breakdown for one day.
//
// fixed may be a disabled/zero template when the employee has no
// contracted hours that weekday: everything recorded then counts as
// extra. A zero night window degrades to zero night buckets.
func Classify(recorded, fixed schedule.DaySchedule, night schedule.NightWindow, holiday bool) Breakdown {
	workedIvs := recorded.Intervals()
	fixedIvs := fixed.Intervals()
	nightIvs := night.Intervals()

	ordinary := schedule.Intersect(workedIvs, fixedIvs)
	extra := schedule.Subtract(workedIvs, fixedIvs)

	ordinaryNight := schedule.Intersect(ordinary, nightIvs)
	ordinaryDay := schedule.Subtract(ordinary, nightIvs)
	extraNight := schedule.Intersect(extra, nightIvs)
	extraDay := schedule.Subtract(extra, nightIvs)

	var b Breakdown
	if holiday {
		b.ExtraDiurnaFestivo = schedule.TotalMinutes(extraDay)
		b.ExtraNocturnaFestivo = schedule.TotalMinutes(extraNight)
		b.DominicalFestivo = schedule.TotalMinutes(ordinaryDay)
		b.RecargoNocturnoFestivo = schedule.TotalMinutes(ordinaryNight)
		return b
	}

	b.ExtraDiurna = schedule.TotalMinutes(extraDay)
	b.ExtraNocturna = schedule.TotalMinutes(extraNight)
	b.RecargoNocturno = schedule.TotalMinutes(ordinaryNight)
	// Ordinary daytime on a regular day: no bucket, covered by base salary.
	return b
}
