/*
Package bank implements the compensatory-time ledger ("bolsa de horas").

PURPOSE:
  Employees bank surplus overtime minutes instead of cashing them out,
  and later redeem them as paid time off. This package owns:
  - the append-only balance ledger (replay reproduces the balance),
  - the FIFO banking allocator over recorded days,
  - the banking and redemption approval state machines,
  - per-employee serialization of balance mutations.

KEY CONCEPTS IN THIS FILE (types.go):
  - RecordedDay: one employee+date with its persisted classification
    snapshot and banking state
  - Desglose: per-bucket minute allocation, cumulative across passes
  - LedgerEntry: immutable balance-change record
  - RedemptionRequest: request to spend banked minutes

DESIGN PRINCIPLES:
  1. Snapshot-at-creation: a day's Breakdown is computed against the
     fixed schedule at registration time and never recomputed.
  2. Balance changes ONLY inside approval transitions, and every change
     writes exactly one ledger entry carrying the resulting balance.
  3. Allocation never mutates the original breakdown; progress is
     tracked in the persisted Desglose.

SEE ALSO:
  - allocate.go: Pure FIFO batch allocator
  - service.go: State machines and balance transactions
  - repository.go: Persistence interfaces
*/
package bank

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/overtime-engine/classify"
	"github.com/warp/overtime-engine/schedule"
	"github.com/warp/overtime-engine/valuation"
)

type EmployeeID string

// =============================================================================
// LEDGER ENTRY - Append-only balance history
// =============================================================================

type Operation string

const (
	OpAccumulation Operation = "ACCUMULATION" // banking approved, balance credited
	OpUse          Operation = "USE"          // redemption approved, balance debited
	OpAdjustment   Operation = "ADJUSTMENT"   // manual admin correction
)

// LedgerEntry records one balance change. Replaying entries
// chronologically reproduces the current balance exactly.
type LedgerEntry struct {
	ID         string
	EmployeeID EmployeeID
	Operation  Operation
	Delta      int // signed minutes
	Balance    int // resulting balance after Delta
	Reference  string
	Actor      string
	CreatedAt  time.Time
}

// =============================================================================
// DESGLOSE - Per-bucket allocation tracking
// =============================================================================

// Desglose tracks how many minutes of each overtime bucket have been
// allocated to the bank, cumulative across allocation passes.
type Desglose map[classify.Bucket]int

// Minutes returns the allocation for one bucket.
func (d Desglose) Minutes(bucket classify.Bucket) int { return d[bucket] }

// Total sums the allocation across all buckets.
func (d Desglose) Total() int {
	total := 0
	for _, m := range d {
		total += m
	}
	return total
}

// Clone returns an independent copy.
func (d Desglose) Clone() Desglose {
	out := make(Desglose, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// MergeFrom adds another desglose bucket-wise.
func (d Desglose) MergeFrom(o Desglose) {
	for k, v := range o {
		d[k] += v
	}
}

// =============================================================================
// RECORDED DAY - One employee+date with banking state
// =============================================================================

type BankingState string

const (
	BankingNone      BankingState = "NONE"
	BankingRequested BankingState = "SOLICITADO"
	BankingApproved  BankingState = "APROBADO"
	BankingRejected  BankingState = "RECHAZADO"
)

// RecordedDay is a manager-registered working day. Breakdown is the
// classification snapshot computed at registration time; it is never
// recomputed, even if the employee's fixed schedule changes later.
type RecordedDay struct {
	ID         string
	EmployeeID EmployeeID
	Date       time.Time
	Worked     schedule.DaySchedule
	Holiday    bool

	Breakdown classify.Breakdown // persisted snapshot

	Banking  BankingState
	Desglose Desglose // allocated to the bank, cumulative
	Credited Desglose // portion already credited to the balance

	CreatedAt time.Time
}

// BankedMinutes returns the total minutes allocated on this day.
func (d *RecordedDay) BankedMinutes() int { return d.Desglose.Total() }

// PendingMinutes returns allocated-but-not-yet-credited minutes.
func (d *RecordedDay) PendingMinutes() int { return d.Desglose.Total() - d.Credited.Total() }

// AvailableMinutes returns how much of a bucket can still be banked:
// what was earned that day minus what was already allocated.
func (d *RecordedDay) AvailableMinutes(bucket classify.Bucket) int {
	avail := d.Breakdown.Minutes(bucket) - d.Desglose.Minutes(bucket)
	if avail < 0 {
		return 0
	}
	return avail
}

// =============================================================================
// REDEMPTION REQUEST
// =============================================================================

type RedemptionState string

const (
	RedemptionPending  RedemptionState = "PENDIENTE"
	RedemptionApproved RedemptionState = "APROBADO"
	RedemptionRejected RedemptionState = "RECHAZADO"
)

// RedemptionRequest asks to spend banked minutes as time off within a
// window on a given date.
type RedemptionRequest struct {
	ID         string
	EmployeeID EmployeeID
	Date       time.Time
	Minutes    int
	Window     schedule.Interval
	Reason     string

	State        RedemptionState
	AutoApproved bool // manager redeemed on the employee's behalf

	ApprovedBy      string
	RejectionReason string

	CreatedAt time.Time
	DecidedAt time.Time
}

// =============================================================================
// EMPLOYEE PROFILE - External entity, referenced only
// =============================================================================

// EmployeeProfile is the slice of employee data the engine consumes.
// Employee CRUD and persistence belong to an external collaborator; the
// engine only resolves referenced employees through Directory.
type EmployeeProfile struct {
	ID            EmployeeID
	Name          string
	Salary        decimal.Decimal
	FixedSchedule schedule.WeekSchedule
	Rate          valuation.RateProfile
	RateHistory   valuation.RateHistory
}
