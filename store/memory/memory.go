/*
Package memory provides in-memory implementations of the persistence
interfaces, for tests and development.

Implements bank.DayStore, bank.LedgerStore, bank.BalanceStore,
bank.RedemptionStore, bank.Directory and closing.Store. All methods
deep-copy on the way in and out so callers never alias internal state.
ApplyChange honors the compare-and-swap contract: a stale prior balance
returns bank.ErrConcurrentModification and writes nothing.
*/
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/overtime-engine/bank"
	"github.com/warp/overtime-engine/closing"
)

type Store struct {
	mu sync.RWMutex

	employees   map[bank.EmployeeID]bank.EmployeeProfile
	balances    map[bank.EmployeeID]int
	days        map[string]*bank.RecordedDay
	entries     map[bank.EmployeeID][]bank.LedgerEntry
	redemptions map[string]*bank.RedemptionRequest
	closings    map[string]*closing.Closing
	holidays    map[string]struct{}
}

func New() *Store {
	return &Store{
		employees:   make(map[bank.EmployeeID]bank.EmployeeProfile),
		balances:    make(map[bank.EmployeeID]int),
		days:        make(map[string]*bank.RecordedDay),
		entries:     make(map[bank.EmployeeID][]bank.LedgerEntry),
		redemptions: make(map[string]*bank.RedemptionRequest),
		closings:    make(map[string]*closing.Closing),
		holidays:    make(map[string]struct{}),
	}
}

// =============================================================================
// EMPLOYEES (bank.Directory + seeding helpers)
// =============================================================================

// SaveEmployee upserts a profile, initializing the balance to zero for
// new employees.
func (s *Store) SaveEmployee(_ context.Context, profile bank.EmployeeProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.employees[profile.ID] = profile
	if _, ok := s.balances[profile.ID]; !ok {
		s.balances[profile.ID] = 0
	}
	return nil
}

func (s *Store) Employee(_ context.Context, id bank.EmployeeID) (*bank.EmployeeProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.employees[id]
	if !ok {
		return nil, bank.ErrNotFound
	}
	out := profile
	return &out, nil
}

func (s *Store) ListEmployees(_ context.Context) ([]bank.EmployeeProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]bank.EmployeeProfile, 0, len(s.employees))
	for _, p := range s.employees {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// =============================================================================
// BALANCE + LEDGER (bank.BalanceStore, bank.LedgerStore)
// =============================================================================

func (s *Store) Balance(_ context.Context, id bank.EmployeeID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.employees[id]; !ok {
		return 0, bank.ErrNotFound
	}
	return s.balances[id], nil
}

func (s *Store) ApplyChange(_ context.Context, id bank.EmployeeID, old int, entry bank.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.employees[id]; !ok {
		return bank.ErrNotFound
	}
	if s.balances[id] != old {
		return bank.ErrConcurrentModification
	}
	s.balances[id] = entry.Balance
	s.entries[id] = append(s.entries[id], entry)
	return nil
}

func (s *Store) Entries(_ context.Context, id bank.EmployeeID) ([]bank.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]bank.LedgerEntry, len(s.entries[id]))
	copy(out, s.entries[id])
	return out, nil
}

// =============================================================================
// RECORDED DAYS (bank.DayStore)
// =============================================================================

func (s *Store) CreateDay(_ context.Context, day *bank.RecordedDay) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.days {
		if existing.EmployeeID == day.EmployeeID && sameDate(existing.Date, day.Date) {
			return bank.ErrDuplicateRequest
		}
	}
	s.days[day.ID] = copyDay(day)
	return nil
}

func (s *Store) Day(_ context.Context, id string) (*bank.RecordedDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	day, ok := s.days[id]
	if !ok {
		return nil, bank.ErrNotFound
	}
	return copyDay(day), nil
}

func (s *Store) DaysInRange(_ context.Context, id bank.EmployeeID, from, to time.Time) ([]*bank.RecordedDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*bank.RecordedDay
	for _, day := range s.days {
		if day.EmployeeID != id {
			continue
		}
		if day.Date.Before(from) || day.Date.After(to) {
			continue
		}
		out = append(out, copyDay(day))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) UpdateBanking(_ context.Context, day *bank.RecordedDay) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.days[day.ID]
	if !ok {
		return bank.ErrNotFound
	}
	existing.Banking = day.Banking
	existing.Desglose = day.Desglose.Clone()
	existing.Credited = day.Credited.Clone()
	return nil
}

// =============================================================================
// REDEMPTIONS (bank.RedemptionStore)
// =============================================================================

func (s *Store) CreateRedemption(_ context.Context, req *bank.RedemptionRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := *req
	s.redemptions[req.ID] = &out
	return nil
}

func (s *Store) Redemption(_ context.Context, id string) (*bank.RedemptionRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.redemptions[id]
	if !ok {
		return nil, bank.ErrNotFound
	}
	out := *req
	return &out, nil
}

func (s *Store) UpdateRedemption(_ context.Context, req *bank.RedemptionRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.redemptions[req.ID]; !ok {
		return bank.ErrNotFound
	}
	out := *req
	s.redemptions[req.ID] = &out
	return nil
}

func (s *Store) ActiveOnDate(_ context.Context, id bank.EmployeeID, date time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, req := range s.redemptions {
		if req.EmployeeID == id && req.State != bank.RedemptionRejected && sameDate(req.Date, date) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) PendingMinutes(_ context.Context, id bank.EmployeeID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, req := range s.redemptions {
		if req.EmployeeID == id && req.State == bank.RedemptionPending {
			total += req.Minutes
		}
	}
	return total, nil
}

// ListRedemptions returns an employee's requests, oldest first.
func (s *Store) ListRedemptions(_ context.Context, id bank.EmployeeID) ([]*bank.RedemptionRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*bank.RedemptionRequest
	for _, req := range s.redemptions {
		if req.EmployeeID == id {
			r := *req
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// =============================================================================
// CLOSINGS (closing.Store)
// =============================================================================

func closingKey(id bank.EmployeeID, p closing.PeriodSpec) string {
	return string(id) + "|" + p.String()
}

func (s *Store) CreateClosing(_ context.Context, c *closing.Closing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := closingKey(c.EmployeeID, c.Period)
	if _, ok := s.closings[key]; ok {
		return closing.ErrPeriodClosed
	}
	out := *c
	s.closings[key] = &out
	return nil
}

func (s *Store) ClosingFor(_ context.Context, id bank.EmployeeID, period closing.PeriodSpec) (*closing.Closing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.closings[closingKey(id, period)]
	if !ok {
		return nil, bank.ErrNotFound
	}
	out := *c
	return &out, nil
}

func (s *Store) Closings(_ context.Context, id bank.EmployeeID) ([]*closing.Closing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*closing.Closing
	for _, c := range s.closings {
		if c.EmployeeID == id {
			cc := *c
			out = append(out, &cc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// =============================================================================
// HOLIDAYS (closing.HolidayCalendar)
// =============================================================================

func (s *Store) AddHoliday(_ context.Context, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.holidays[date.Format("2006-01-02")] = struct{}{}
	return nil
}

func (s *Store) IsHoliday(date time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.holidays[date.Format("2006-01-02")]
	return ok
}

// =============================================================================
// HELPERS
// =============================================================================

func copyDay(day *bank.RecordedDay) *bank.RecordedDay {
	out := *day
	out.Desglose = day.Desglose.Clone()
	out.Credited = day.Credited.Clone()
	return &out
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
