/*
rates.go - Surcharge percentage table

PURPOSE:
  Maps each bucket to its surcharge percentage. Rates arrive from
  configuration either as fractions (0.35) or as raw percents (35);
  Normalize treats any value above 2 as percent-not-fraction and divides
  by 100. A missing table degrades to zero percentages so valuation
  stays total-defined.
*/
package classify

import "github.com/shopspring/decimal"

var two = decimal.NewFromInt(2)
var hundred = decimal.NewFromInt(100)

// RateTable maps buckets to normalized surcharge percentages.
type RateTable map[Bucket]decimal.Decimal

// NormalizeRate converts percent-style values (>2) into fractions.
func NormalizeRate(p decimal.Decimal) decimal.Decimal {
	if p.GreaterThan(two) {
		return p.Div(hundred)
	}
	return p
}

// Percentage returns the normalized rate for a bucket, zero if the table
// is nil or has no entry.
func (t RateTable) Percentage(bucket Bucket) decimal.Decimal {
	if t == nil {
		return decimal.Zero
	}
	return NormalizeRate(t[bucket])
}

// DefaultRates returns the standard Colombian surcharge table.
// Values are fractions over the ordinary hourly rate.
func DefaultRates() RateTable {
	return RateTable{
		ExtraDiurna:            decimal.NewFromFloat(0.25),
		ExtraNocturna:          decimal.NewFromFloat(0.75),
		ExtraDiurnaFestivo:     decimal.NewFromFloat(1.00),
		ExtraNocturnaFestivo:   decimal.NewFromFloat(1.50),
		RecargoNocturno:        decimal.NewFromFloat(0.35),
		DominicalFestivo:       decimal.NewFromFloat(0.75),
		RecargoNocturnoFestivo: decimal.NewFromFloat(1.10),
	}
}
