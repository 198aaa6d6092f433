/*
errors.go - Centralized error types for the compensatory bank

ERROR CATEGORIES:
  1. Lookup errors     - referenced employee/day/request missing
  2. Validation errors - business rule violations (guards)
  3. Store errors      - concurrent modification of the balance

USAGE:
  Callers branch with errors.Is; structured types carry the numbers:

    var insufficient *bank.InsufficientBalanceError
    if errors.As(err, &insufficient) {
        log.Printf("short by %d minutes", insufficient.Shortfall)
    }
*/
package bank

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced employee, day or request
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientBalance is returned when a redemption exceeds the
	// available balance (balance minus pending reservations).
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrDuplicateRequest is returned when a non-rejected redemption
	// already exists for the same employee and date, or a day is
	// registered twice.
	ErrDuplicateRequest = errors.New("duplicate request")

	// ErrInvalidState is returned when an approval transition is applied
	// to a request that is not in the expected state.
	ErrInvalidState = errors.New("invalid state transition")

	// ErrInvalidInput is returned for malformed request data, rejected
	// before anything is written.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConcurrentModification is returned when the compare-and-swap
	// balance update detects a conflict. Retryable as a fresh operation.
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientBalanceError details a balance shortage.
type InsufficientBalanceError struct {
	EmployeeID EmployeeID
	Available  int
	Requested  int
	Shortfall  int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: available %d min, requested %d min, shortfall %d min",
		e.Available, e.Requested, e.Shortfall)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// InvalidStateError details a rejected state transition.
type InvalidStateError struct {
	Kind     string // "banking" or "redemption"
	ID       string
	Current  string
	Expected string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s %s is %s, expected %s", e.Kind, e.ID, e.Current, e.Expected)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// IsRetryable returns true if the error might succeed on a fresh attempt.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}
