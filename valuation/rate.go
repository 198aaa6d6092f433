/*
Package valuation converts classified minutes into money.

PURPOSE:
  Derives the hourly rate from an employee's contracted schedule and
  salary, keeps a dated history of rate changes for valuing past dates,
  and converts bucket minutes into monetary value under two distinct
  factor modes.

PRECISION:
  All money math uses decimal.Decimal. Never float64: payroll values
  must survive repeated aggregation without drift.

KEY CONCEPTS IN THIS FILE (rate.go):
  - RateProfile: weekly hours, monthly hours, hourly rate
  - HourlyRate: schedule+salary -> RateProfile

SEE ALSO:
  - history.go: Dated rate lookup for past dates
  - value.go: The two valuation modes (variable vs fixed factor)
*/
package valuation

import (
	"github.com/shopspring/decimal"

	"github.com/warp/overtime-engine/schedule"
)

var (
	sixty  = decimal.NewFromInt(60)
	thirty = decimal.NewFromInt(30)
)

// RateProfile is the derived pay rate of an employee at a point in time.
type RateProfile struct {
	WeeklyHours  decimal.Decimal `json:"weekly_hours"`
	MonthlyHours decimal.Decimal `json:"monthly_hours"`
	HourlyRate   decimal.Decimal `json:"hourly_rate"`
}

// IsZero reports whether the profile carries no rate.
func (p RateProfile) IsZero() bool {
	return p.WeeklyHours.IsZero() && p.MonthlyHours.IsZero() && p.HourlyRate.IsZero()
}

// HourlyRate derives the rate profile from a contracted week and monthly
// salary:
//
//	monthlyHours = (weeklyMinutes/60 / workDays) * 30
//	hourlyRate   = salary / monthlyHours
//
// A schedule with no enabled days, or zero derived monthly hours,
// yields an all-zero profile instead of dividing by zero.
func HourlyRate(week schedule.WeekSchedule, salary decimal.Decimal) RateProfile {
	workDays := week.WorkDays()
	if workDays == 0 {
		return RateProfile{}
	}

	weeklyHours := decimal.NewFromInt(int64(week.WeeklyMinutes())).Div(sixty)
	monthlyHours := weeklyHours.Div(decimal.NewFromInt(int64(workDays))).Mul(thirty)
	if monthlyHours.IsZero() {
		return RateProfile{WeeklyHours: weeklyHours}
	}

	return RateProfile{
		WeeklyHours:  weeklyHours,
		MonthlyHours: monthlyHours,
		HourlyRate:   salary.Div(monthlyHours),
	}
}
