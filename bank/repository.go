/*
repository.go - Persistence interfaces for the compensatory bank

PURPOSE:
  Defines the boundary between the bank's domain logic and storage.
  Implementations live in store/sqlite (production) and store/memory
  (tests/dev).

BALANCE CONTRACT:
  ApplyChange is a compare-and-swap keyed on the prior balance value
  that writes the new balance AND the ledger entry in one transaction.
  A mismatch returns ErrConcurrentModification and MUST leave both
  tables unchanged. Combined with the per-employee mutex in Service
  this makes balance updates safe under concurrent approvals.

LEDGER CONTRACT:
  The ledger is append-only and is written exclusively through
  ApplyChange. No update, no delete; corrections are new ADJUSTMENT
  entries.
*/
package bank

import (
	"context"
	"time"
)

// DayStore persists recorded days and their banking state.
type DayStore interface {
	// CreateDay persists a new day. Returns ErrDuplicateRequest when a
	// day already exists for the same employee and date.
	CreateDay(ctx context.Context, day *RecordedDay) error

	// Day returns a day by id, or ErrNotFound.
	Day(ctx context.Context, id string) (*RecordedDay, error)

	// DaysInRange returns the employee's days with from <= date <= to,
	// ordered by date ascending.
	DaysInRange(ctx context.Context, employeeID EmployeeID, from, to time.Time) ([]*RecordedDay, error)

	// UpdateBanking persists Banking, Desglose and Credited for a day.
	// The Breakdown snapshot is never rewritten.
	UpdateBanking(ctx context.Context, day *RecordedDay) error
}

// LedgerStore reads the append-only balance history.
type LedgerStore interface {
	// Entries returns the employee's history in chronological order.
	Entries(ctx context.Context, employeeID EmployeeID) ([]LedgerEntry, error)
}

// BalanceStore holds the running compensatory balance per employee.
type BalanceStore interface {
	// Balance returns the current balance in minutes, or ErrNotFound.
	Balance(ctx context.Context, employeeID EmployeeID) (int, error)

	// ApplyChange sets the balance to entry.Balance only if it still
	// equals old, appending the ledger entry in the same transaction.
	// Returns ErrConcurrentModification on a mismatch, leaving all
	// state unchanged.
	ApplyChange(ctx context.Context, employeeID EmployeeID, old int, entry LedgerEntry) error
}

// RedemptionStore persists redemption requests.
type RedemptionStore interface {
	CreateRedemption(ctx context.Context, req *RedemptionRequest) error

	// Redemption returns a request by id, or ErrNotFound.
	Redemption(ctx context.Context, id string) (*RedemptionRequest, error)

	// UpdateRedemption persists a state transition.
	UpdateRedemption(ctx context.Context, req *RedemptionRequest) error

	// ActiveOnDate reports whether a non-rejected request exists for the
	// employee on the given date.
	ActiveOnDate(ctx context.Context, employeeID EmployeeID, date time.Time) (bool, error)

	// PendingMinutes sums the minutes of all PENDIENTE requests.
	PendingMinutes(ctx context.Context, employeeID EmployeeID) (int, error)
}

// Directory resolves referenced employees. Employee CRUD itself is an
// external collaborator; the engine only reads.
type Directory interface {
	// Employee returns the profile, or ErrNotFound.
	Employee(ctx context.Context, id EmployeeID) (*EmployeeProfile, error)
}
