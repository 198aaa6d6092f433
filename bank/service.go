/*
service.go - Banking and redemption state machines

STATE MACHINES:
  Banking (per recorded day):
    NONE -> SOLICITADO   allocation pass earmarks minutes
    SOLICITADO -> APROBADO    pending minutes credited, history appended
    SOLICITADO -> RECHAZADO   pending allocation reverted, no balance change
    APROBADO -> SOLICITADO    a later pass allocates more on the same day

  Redemption:
    PENDIENTE -> APROBADO     balance debited (re-checked at approval time)
    PENDIENTE -> RECHAZADO    no balance change
    created directly as APROBADO when a manager redeems on behalf

BALANCE DISCIPLINE:
  The balance changes only inside an approval transition, always via
  read -> compute -> ApplyChange (compare-and-swap + ledger entry in one
  store transaction), under the per-employee lock. A failed approval
  leaves all state unchanged; the caller retries as a fresh operation.

AVAILABILITY:
  availableBalance = currentBalance - sum(minutes of PENDIENTE
  redemptions). Creation of a redemption is validated against this, so
  stacked pending requests cannot overdraw the bank.
*/
package bank

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/warp/overtime-engine/classify"
	"github.com/warp/overtime-engine/schedule"
)

// DefaultAllocationWindowMonths bounds how far back an allocation pass
// looks for surplus days when no window is configured.
const DefaultAllocationWindowMonths = 3

// Service owns the compensatory bank's business operations.
type Service struct {
	Days        DayStore
	Ledger      LedgerStore
	Balances    BalanceStore
	Redemptions RedemptionStore
	Directory   Directory

	// NightWindow is used when registering a day's classification
	// snapshot. A zero window degrades to zero night buckets.
	NightWindow schedule.NightWindow

	// WindowMonths bounds the FIFO allocation window (trailing months).
	WindowMonths int

	// Now is injectable for tests.
	Now func() time.Time

	locks *employeeLocks
}

// NewService wires a Service with per-employee locking.
func NewService(days DayStore, ledger LedgerStore, balances BalanceStore, redemptions RedemptionStore, directory Directory) *Service {
	return &Service{
		Days:         days,
		Ledger:       ledger,
		Balances:     balances,
		Redemptions:  redemptions,
		Directory:    directory,
		WindowMonths: DefaultAllocationWindowMonths,
		Now:          time.Now,
		locks:        newEmployeeLocks(),
	}
}

// =============================================================================
// DAY REGISTRATION
// =============================================================================

// RegisterDay records one worked day for an employee. The breakdown is
// classified against the employee's fixed schedule as of now and
// persisted as a snapshot; later schedule edits never change it.
func (s *Service) RegisterDay(ctx context.Context, employeeID EmployeeID, date time.Time, worked schedule.DaySchedule, holiday bool) (*RecordedDay, error) {
	if employeeID == "" {
		return nil, fmt.Errorf("%w: employee id required", ErrInvalidInput)
	}
	profile, err := s.Directory.Employee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	date = truncateDay(date)
	fixed := profile.FixedSchedule.ForDate(date)
	breakdown := classify.Classify(worked, fixed, s.NightWindow, holiday)

	day := &RecordedDay{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		Date:       date,
		Worked:     worked,
		Holiday:    holiday,
		Breakdown:  breakdown,
		Banking:    BankingNone,
		Desglose:   Desglose{},
		Credited:   Desglose{},
		CreatedAt:  s.Now(),
	}
	if err := s.Days.CreateDay(ctx, day); err != nil {
		return nil, err
	}
	return day, nil
}

// =============================================================================
// BANKING - allocation and approval
// =============================================================================

// RequestBanking runs one FIFO allocation pass over the employee's
// recorded days in the trailing window ending at asOf. Allocated days
// move to SOLICITADO; the in-memory allocation is computed first and
// persisted per day afterwards, so a single day's persistence failure
// leaves the others intact and the pass is safely retryable.
func (s *Service) RequestBanking(ctx context.Context, employeeID EmployeeID, req AllocationRequest, asOf time.Time) ([]DayAllocation, AllocationRequest, error) {
	if req.Total() <= 0 {
		return nil, nil, fmt.Errorf("%w: nothing requested", ErrInvalidInput)
	}
	for bucket, minutes := range req {
		if minutes < 0 {
			return nil, nil, fmt.Errorf("%w: negative minutes for %s", ErrInvalidInput, bucket)
		}
		if !bucket.IsOvertime() {
			return nil, nil, fmt.Errorf("%w: %s is not a bankable bucket", ErrInvalidInput, bucket)
		}
	}

	unlock := s.locks.acquire(employeeID)
	defer unlock()

	window := s.WindowMonths
	if window <= 0 {
		window = DefaultAllocationWindowMonths
	}
	asOf = truncateDay(asOf)
	from := asOf.AddDate(0, -window, 0)

	days, err := s.Days.DaysInRange(ctx, employeeID, from, asOf)
	if err != nil {
		return nil, nil, err
	}

	allocations, remaining := Allocate(req, days)

	byID := make(map[string]*RecordedDay, len(days))
	for _, d := range days {
		byID[d.ID] = d
	}
	for _, alloc := range allocations {
		day := byID[alloc.DayID]
		day.Desglose.MergeFrom(alloc.Taken)
		day.Banking = BankingRequested
		if err := s.Days.UpdateBanking(ctx, day); err != nil {
			return allocations, remaining, fmt.Errorf("persist allocation for day %s: %w", day.ID, err)
		}
	}
	return allocations, remaining, nil
}

// ApproveBanking credits a day's pending banked minutes to the balance
// and appends the ACCUMULATION ledger entry.
func (s *Service) ApproveBanking(ctx context.Context, dayID, approver string) (*LedgerEntry, error) {
	day, err := s.Days.Day(ctx, dayID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.acquire(day.EmployeeID)
	defer unlock()

	// Re-read under the lock: a concurrent pass may have moved state.
	day, err = s.Days.Day(ctx, dayID)
	if err != nil {
		return nil, err
	}
	if day.Banking != BankingRequested {
		return nil, &InvalidStateError{Kind: "banking", ID: dayID, Current: string(day.Banking), Expected: string(BankingRequested)}
	}

	pending := day.PendingMinutes()
	if pending <= 0 {
		return nil, fmt.Errorf("%w: day %s has no pending banked minutes", ErrInvalidInput, dayID)
	}
	entry, err := s.applyChange(ctx, day.EmployeeID, OpAccumulation, pending, "day:"+day.ID, approver)
	if err != nil {
		return nil, err
	}

	day.Credited = day.Desglose.Clone()
	day.Banking = BankingApproved
	if err := s.Days.UpdateBanking(ctx, day); err != nil {
		return entry, fmt.Errorf("persist banking approval for day %s: %w", day.ID, err)
	}
	return entry, nil
}

// RejectBanking reverts a day's pending allocation without touching the
// balance. Minutes already credited by an earlier approval stay banked;
// the reverted minutes become allocatable again.
func (s *Service) RejectBanking(ctx context.Context, dayID, actor string) (*RecordedDay, error) {
	day, err := s.Days.Day(ctx, dayID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.acquire(day.EmployeeID)
	defer unlock()

	day, err = s.Days.Day(ctx, dayID)
	if err != nil {
		return nil, err
	}
	if day.Banking != BankingRequested {
		return nil, &InvalidStateError{Kind: "banking", ID: dayID, Current: string(day.Banking), Expected: string(BankingRequested)}
	}

	day.Desglose = day.Credited.Clone()
	if day.Credited.Total() > 0 {
		day.Banking = BankingApproved
	} else {
		day.Banking = BankingRejected
	}
	if err := s.Days.UpdateBanking(ctx, day); err != nil {
		return nil, err
	}
	return day, nil
}

// =============================================================================
// REDEMPTION
// =============================================================================

// RedemptionInput is the data needed to open a redemption request.
type RedemptionInput struct {
	EmployeeID EmployeeID
	Date       time.Time
	Minutes    int
	Window     schedule.Interval
	Reason     string
}

func (in RedemptionInput) validate() error {
	if in.EmployeeID == "" {
		return fmt.Errorf("%w: employee id required", ErrInvalidInput)
	}
	if in.Minutes <= 0 {
		return fmt.Errorf("%w: minutes must be positive", ErrInvalidInput)
	}
	if in.Date.IsZero() {
		return fmt.Errorf("%w: date required", ErrInvalidInput)
	}
	return nil
}

// RequestRedemption opens a PENDIENTE request after the duplicate and
// availability guards pass.
func (s *Service) RequestRedemption(ctx context.Context, in RedemptionInput) (*RedemptionRequest, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := s.Directory.Employee(ctx, in.EmployeeID); err != nil {
		return nil, err
	}

	unlock := s.locks.acquire(in.EmployeeID)
	defer unlock()

	return s.createRedemption(ctx, in, false, "")
}

// Redeem is the manager path: the request is created APROBADO and the
// balance debited in the same operation, with no PENDIENTE stage.
func (s *Service) Redeem(ctx context.Context, in RedemptionInput, approver string) (*RedemptionRequest, *LedgerEntry, error) {
	if err := in.validate(); err != nil {
		return nil, nil, err
	}
	if _, err := s.Directory.Employee(ctx, in.EmployeeID); err != nil {
		return nil, nil, err
	}

	unlock := s.locks.acquire(in.EmployeeID)
	defer unlock()

	req, err := s.createRedemption(ctx, in, true, approver)
	if err != nil {
		return nil, nil, err
	}

	entry, err := s.applyChange(ctx, in.EmployeeID, OpUse, -in.Minutes, "redemption:"+req.ID, approver)
	if err != nil {
		// Roll the request back to rejected so it does not hold balance.
		req.State = RedemptionRejected
		req.RejectionReason = "debit failed: " + err.Error()
		req.DecidedAt = s.Now()
		_ = s.Redemptions.UpdateRedemption(ctx, req)
		return nil, nil, err
	}
	return req, entry, nil
}

// createRedemption runs the guards and persists the request. Caller
// must hold the employee lock.
func (s *Service) createRedemption(ctx context.Context, in RedemptionInput, autoApprove bool, approver string) (*RedemptionRequest, error) {
	date := truncateDay(in.Date)

	// Duplicate guard: one active request per employee+date.
	exists, err := s.Redemptions.ActiveOnDate(ctx, in.EmployeeID, date)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: redemption already exists for %s on %s",
			ErrDuplicateRequest, in.EmployeeID, date.Format("2006-01-02"))
	}

	// Availability guard: balance minus pending reservations.
	balance, err := s.Balances.Balance(ctx, in.EmployeeID)
	if err != nil {
		return nil, err
	}
	pending, err := s.Redemptions.PendingMinutes(ctx, in.EmployeeID)
	if err != nil {
		return nil, err
	}
	available := balance - pending
	if in.Minutes > available {
		return nil, &InsufficientBalanceError{
			EmployeeID: in.EmployeeID,
			Available:  available,
			Requested:  in.Minutes,
			Shortfall:  in.Minutes - available,
		}
	}

	now := s.Now()
	req := &RedemptionRequest{
		ID:           uuid.NewString(),
		EmployeeID:   in.EmployeeID,
		Date:         date,
		Minutes:      in.Minutes,
		Window:       in.Window,
		Reason:       in.Reason,
		State:        RedemptionPending,
		AutoApproved: autoApprove,
		CreatedAt:    now,
	}
	if autoApprove {
		req.State = RedemptionApproved
		req.ApprovedBy = approver
		req.DecidedAt = now
	}
	if err := s.Redemptions.CreateRedemption(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// ApproveRedemption debits the balance for a PENDIENTE request. The
// balance is re-checked at approval time: it may have moved since the
// request was created.
func (s *Service) ApproveRedemption(ctx context.Context, id, approver string) (*LedgerEntry, error) {
	req, err := s.Redemptions.Redemption(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.acquire(req.EmployeeID)
	defer unlock()

	req, err = s.Redemptions.Redemption(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.State != RedemptionPending {
		return nil, &InvalidStateError{Kind: "redemption", ID: id, Current: string(req.State), Expected: string(RedemptionPending)}
	}

	balance, err := s.Balances.Balance(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	if balance < req.Minutes {
		return nil, &InsufficientBalanceError{
			EmployeeID: req.EmployeeID,
			Available:  balance,
			Requested:  req.Minutes,
			Shortfall:  req.Minutes - balance,
		}
	}

	entry, err := s.applyChangeWithBalance(ctx, req.EmployeeID, balance, OpUse, -req.Minutes, "redemption:"+req.ID, approver)
	if err != nil {
		return nil, err
	}

	req.State = RedemptionApproved
	req.ApprovedBy = approver
	req.DecidedAt = s.Now()
	if err := s.Redemptions.UpdateRedemption(ctx, req); err != nil {
		return entry, fmt.Errorf("persist redemption approval %s: %w", req.ID, err)
	}
	return entry, nil
}

// RejectRedemption closes a PENDIENTE request without balance change,
// releasing its reservation.
func (s *Service) RejectRedemption(ctx context.Context, id, actor, reason string) (*RedemptionRequest, error) {
	req, err := s.Redemptions.Redemption(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.acquire(req.EmployeeID)
	defer unlock()

	req, err = s.Redemptions.Redemption(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.State != RedemptionPending {
		return nil, &InvalidStateError{Kind: "redemption", ID: id, Current: string(req.State), Expected: string(RedemptionPending)}
	}

	req.State = RedemptionRejected
	req.RejectionReason = reason
	req.ApprovedBy = actor
	req.DecidedAt = s.Now()
	if err := s.Redemptions.UpdateRedemption(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// =============================================================================
// ADJUSTMENT AND QUERIES
// =============================================================================

// Adjust applies a manual admin correction to the balance.
func (s *Service) Adjust(ctx context.Context, employeeID EmployeeID, delta int, reason, actor string) (*LedgerEntry, error) {
	if delta == 0 {
		return nil, fmt.Errorf("%w: zero adjustment", ErrInvalidInput)
	}

	unlock := s.locks.acquire(employeeID)
	defer unlock()

	return s.applyChange(ctx, employeeID, OpAdjustment, delta, "adjustment: "+reason, actor)
}

// Balance returns the employee's current balance in minutes.
func (s *Service) Balance(ctx context.Context, employeeID EmployeeID) (int, error) {
	return s.Balances.Balance(ctx, employeeID)
}

// AvailableBalance returns balance minus pending redemption holds.
func (s *Service) AvailableBalance(ctx context.Context, employeeID EmployeeID) (int, error) {
	balance, err := s.Balances.Balance(ctx, employeeID)
	if err != nil {
		return 0, err
	}
	pending, err := s.Redemptions.PendingMinutes(ctx, employeeID)
	if err != nil {
		return 0, err
	}
	return balance - pending, nil
}

// History returns the employee's ledger entries, chronological.
func (s *Service) History(ctx context.Context, employeeID EmployeeID) ([]LedgerEntry, error) {
	return s.Ledger.Entries(ctx, employeeID)
}

// =============================================================================
// BALANCE TRANSACTION HELPERS
// =============================================================================

// applyChange reads the balance and applies a delta. Caller must hold
// the employee lock.
func (s *Service) applyChange(ctx context.Context, employeeID EmployeeID, op Operation, delta int, reference, actor string) (*LedgerEntry, error) {
	balance, err := s.Balances.Balance(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return s.applyChangeWithBalance(ctx, employeeID, balance, op, delta, reference, actor)
}

func (s *Service) applyChangeWithBalance(ctx context.Context, employeeID EmployeeID, balance int, op Operation, delta int, reference, actor string) (*LedgerEntry, error) {
	entry := LedgerEntry{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		Operation:  op,
		Delta:      delta,
		Balance:    balance + delta,
		Reference:  reference,
		Actor:      actor,
		CreatedAt:  s.Now(),
	}
	if err := s.Balances.ApplyChange(ctx, employeeID, balance, entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
