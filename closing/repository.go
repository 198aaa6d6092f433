package closing

import (
	"context"

	"github.com/warp/overtime-engine/bank"
)

// Store persists closing records. Write-once: CreateClosing must fail
// with ErrPeriodClosed when a record already exists for the same
// (employee, year, month, half), leaving the first record unchanged.
type Store interface {
	CreateClosing(ctx context.Context, c *Closing) error

	// ClosingFor returns the record for a period, or bank.ErrNotFound.
	ClosingFor(ctx context.Context, employeeID bank.EmployeeID, period PeriodSpec) (*Closing, error)

	// Closings lists an employee's records, newest first.
	Closings(ctx context.Context, employeeID bank.EmployeeID) ([]*Closing, error)
}
