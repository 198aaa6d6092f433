/*
value.go - Bucket minutes to money, under two distinct factor modes

THE ASYMMETRY (deliberate business rule, do not collapse):

  VariableValue (reported/extra overtime):
      value = (minutes/60) * hourlyRate * (1 + percentage)
    The hour itself is owed on top of base salary, plus the premium.

  FixedValue (period-recurring surcharges):
      value = (minutes/60) * hourlyRate * percentage
    Base pay already covers the hour; only the premium is owed.

  These are two named functions, not one boolean-parameterized one, so a
  caller cannot accidentally pay a surcharge hour twice or strip the
  base hour from overtime.
*/
package valuation

import (
	"github.com/shopspring/decimal"

	"github.com/warp/overtime-engine/classify"
)

var one = decimal.NewFromInt(1)

// Mode selects which valuation applies to a breakdown total.
type Mode string

const (
	// ModeVariable values reported overtime: hour plus premium.
	ModeVariable Mode = "variable"
	// ModeFixed values recurring surcharges: premium only.
	ModeFixed Mode = "fixed"
)

// VariableValue prices extra minutes: (minutes/60) * rate * (1+p).
func VariableValue(minutes int, hourlyRate, percentage decimal.Decimal) decimal.Decimal {
	hours := decimal.NewFromInt(int64(minutes)).Div(sixty)
	return hours.Mul(hourlyRate).Mul(one.Add(classify.NormalizeRate(percentage)))
}

// FixedValue prices surcharge minutes: (minutes/60) * rate * p.
func FixedValue(minutes int, hourlyRate, percentage decimal.Decimal) decimal.Decimal {
	hours := decimal.NewFromInt(int64(minutes)).Div(sixty)
	return hours.Mul(hourlyRate).Mul(classify.NormalizeRate(percentage))
}

// VariableTotal sums VariableValue over the non-zero buckets of a
// breakdown, matching each bucket to its table percentage.
func VariableTotal(b classify.Breakdown, hourlyRate decimal.Decimal, rates classify.RateTable) decimal.Decimal {
	total := decimal.Zero
	for _, bucket := range classify.AllBuckets() {
		minutes := b.Minutes(bucket)
		if minutes == 0 {
			continue
		}
		total = total.Add(VariableValue(minutes, hourlyRate, rates.Percentage(bucket)))
	}
	return total
}

// FixedTotal sums FixedValue over the non-zero buckets of a breakdown.
func FixedTotal(b classify.Breakdown, hourlyRate decimal.Decimal, rates classify.RateTable) decimal.Decimal {
	total := decimal.Zero
	for _, bucket := range classify.AllBuckets() {
		minutes := b.Minutes(bucket)
		if minutes == 0 {
			continue
		}
		total = total.Add(FixedValue(minutes, hourlyRate, rates.Percentage(bucket)))
	}
	return total
}

// Total dispatches to the named valuation for the given mode.
func Total(b classify.Breakdown, hourlyRate decimal.Decimal, rates classify.RateTable, mode Mode) decimal.Decimal {
	if mode == ModeFixed {
		return FixedTotal(b, hourlyRate, rates)
	}
	return VariableTotal(b, hourlyRate, rates)
}
