/*
Package closing aggregates classifications over a payroll half-period
and freezes the result into an immutable closing record.

PURPOSE:
  A closing snapshot answers "what is owed for this half-month" from
  two sources:
  - fixed recurring surcharges derived from the contracted schedule
    alone (valued premium-only), and
  - net reported overtime from recorded days (valued hour-plus-premium),
    with banked minutes deducted so banked time is not also paid cash.

  Closings are write-once per (employee, year, month, half). A second
  attempt is a conflict, never an overwrite.

KEY CONCEPTS IN THIS FILE (period.go):
  - Half/PeriodSpec: half-month payroll period addressing
  - Closing: the immutable snapshot record

SEE ALSO:
  - aggregate.go: Fixed-surcharge sweep and overtime netting
  - service.go: ClosePeriod orchestration
*/
package closing

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/overtime-engine/bank"
	"github.com/warp/overtime-engine/classify"
)

var (
	// ErrPeriodClosed is returned when a closing already exists for the
	// period. The existing record is never overwritten.
	ErrPeriodClosed = errors.New("period already closed")

	// ErrInvalidPeriod is returned for malformed period identifiers.
	ErrInvalidPeriod = errors.New("invalid period")
)

// Half selects the first (days 1-15) or second (16-end) half of a month.
type Half int

const (
	FirstHalf  Half = 1
	SecondHalf Half = 2
)

// PeriodSpec addresses one payroll half-period.
type PeriodSpec struct {
	Year  int
	Month time.Month
	Half  Half
}

// Validate rejects malformed period identifiers before computation.
func (p PeriodSpec) Validate() error {
	if p.Year < 1900 || p.Year > 3000 {
		return fmt.Errorf("%w: year %d", ErrInvalidPeriod, p.Year)
	}
	if p.Month < time.January || p.Month > time.December {
		return fmt.Errorf("%w: month %d", ErrInvalidPeriod, p.Month)
	}
	if p.Half != FirstHalf && p.Half != SecondHalf {
		return fmt.Errorf("%w: half %d", ErrInvalidPeriod, p.Half)
	}
	return nil
}

// Range returns the inclusive local calendar date range of the period.
func (p PeriodSpec) Range() (from, to time.Time) {
	if p.Half == FirstHalf {
		from = time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
		to = time.Date(p.Year, p.Month, 15, 0, 0, 0, 0, time.UTC)
		return from, to
	}
	from = time.Date(p.Year, p.Month, 16, 0, 0, 0, 0, time.UTC)
	// Last day of month: first of next month minus one day.
	to = time.Date(p.Year, p.Month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	return from, to
}

func (p PeriodSpec) String() string {
	return fmt.Sprintf("%04d-%02d/H%d", p.Year, p.Month, p.Half)
}

// =============================================================================
// CLOSING - Immutable per-period snapshot
// =============================================================================

type Closing struct {
	ID         string
	EmployeeID bank.EmployeeID
	Period     PeriodSpec

	FixedSurcharges  classify.Breakdown // from contracted schedule
	VariableOvertime classify.Breakdown // net of banked minutes

	HourlyRate    decimal.Decimal
	FixedValue    decimal.Decimal
	VariableValue decimal.Decimal
	TotalValue    decimal.Decimal

	CreatedAt time.Time
}
