/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

INTERFACES IMPLEMENTED:
  bank.DayStore          recorded days + banking state
  bank.LedgerStore       append-only balance history (read side)
  bank.BalanceStore      compare-and-swap balance + entry in one tx
  bank.RedemptionStore   redemption requests
  bank.Directory         employee profiles
  closing.Store          write-once period closings
  closing.HolidayCalendar

KEY TABLES:
  employees       profile JSON + running balance (the CAS column)
  recorded_days   classification snapshot + desglose, UNIQUE(employee, date)
  ledger_entries  immutable history; written only inside ApplyChange
  redemptions     request lifecycle rows
  closings        UNIQUE(employee, year, month, half) enforces write-once
  holidays        injected festivo dates

APPEND-ONLY ENFORCEMENT:
  ledger_entries has no UPDATE or DELETE path. Balance corrections are
  new ADJUSTMENT entries. recorded_days updates touch only the banking
  columns; the breakdown snapshot is never rewritten after registration.

CONCURRENCY:
  WAL mode plus sync.RWMutex. ApplyChange runs the balance UPDATE with
  a WHERE balance = old guard and the ledger INSERT inside one database
  transaction; zero affected rows means a concurrent writer won and
  maps to bank.ErrConcurrentModification.

USAGE:
  store, err := sqlite.New("./data/overtime.db")  // or ":memory:"
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - bank/repository.go: Interface definitions
  - store/memory/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/overtime-engine/bank"
	"github.com/warp/overtime-engine/closing"
)

const dateLayout = "2006-01-02"

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		salary TEXT NOT NULL,
		schedule_json TEXT NOT NULL,
		rate_json TEXT NOT NULL,
		rate_history_json TEXT NOT NULL,
		balance INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS recorded_days (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		worked_json TEXT NOT NULL,
		holiday BOOLEAN NOT NULL DEFAULT FALSE,
		breakdown_json TEXT NOT NULL,
		banking TEXT NOT NULL,
		desglose_json TEXT NOT NULL,
		credited_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(employee_id, date)
	);

	CREATE INDEX IF NOT EXISTS idx_days_employee_date
		ON recorded_days(employee_id, date);
	CREATE INDEX IF NOT EXISTS idx_days_banking
		ON recorded_days(banking);

	CREATE TABLE IF NOT EXISTS ledger_entries (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		operation TEXT NOT NULL,
		delta INTEGER NOT NULL,
		balance INTEGER NOT NULL,
		reference TEXT,
		actor TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_employee
		ON ledger_entries(employee_id, created_at);

	CREATE TABLE IF NOT EXISTS redemptions (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		minutes INTEGER NOT NULL,
		window_start INTEGER NOT NULL DEFAULT 0,
		window_end INTEGER NOT NULL DEFAULT 0,
		reason TEXT,
		state TEXT NOT NULL,
		auto_approved BOOLEAN NOT NULL DEFAULT FALSE,
		approved_by TEXT,
		rejection_reason TEXT,
		created_at TEXT NOT NULL,
		decided_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_redemptions_employee
		ON redemptions(employee_id, date);
	CREATE INDEX IF NOT EXISTS idx_redemptions_state
		ON redemptions(state);

	CREATE TABLE IF NOT EXISTS closings (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		half INTEGER NOT NULL,
		fixed_json TEXT NOT NULL,
		variable_json TEXT NOT NULL,
		hourly_rate TEXT NOT NULL,
		fixed_value TEXT NOT NULL,
		variable_value TEXT NOT NULL,
		total_value TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(employee_id, year, month, half)
	);

	CREATE TABLE IF NOT EXISTS holidays (
		date TEXT PRIMARY KEY,
		name TEXT
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEES (bank.Directory + seeding)
// =============================================================================

// SaveEmployee upserts a profile. The balance column is preserved for
// existing rows and starts at zero for new ones.
func (s *Store) SaveEmployee(ctx context.Context, profile bank.EmployeeProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	scheduleJSON, err := json.Marshal(profile.FixedSchedule)
	if err != nil {
		return fmt.Errorf("failed to marshal schedule: %w", err)
	}
	rateJSON, err := json.Marshal(profile.Rate)
	if err != nil {
		return fmt.Errorf("failed to marshal rate: %w", err)
	}
	historyJSON, err := json.Marshal(profile.RateHistory)
	if err != nil {
		return fmt.Errorf("failed to marshal rate history: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, salary, schedule_json, rate_json, rate_history_json, balance, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			salary = excluded.salary,
			schedule_json = excluded.schedule_json,
			rate_json = excluded.rate_json,
			rate_history_json = excluded.rate_history_json
	`, profile.ID, profile.Name, profile.Salary.String(),
		string(scheduleJSON), string(rateJSON), string(historyJSON),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

func (s *Store) Employee(ctx context.Context, id bank.EmployeeID) (*bank.EmployeeProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loadEmployee(ctx, id)
}

func (s *Store) loadEmployee(ctx context.Context, id bank.EmployeeID) (*bank.EmployeeProfile, error) {
	var (
		profile      bank.EmployeeProfile
		salary       string
		scheduleJSON string
		rateJSON     string
		historyJSON  string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, salary, schedule_json, rate_json, rate_history_json
		FROM employees WHERE id = ?
	`, id).Scan(&profile.ID, &profile.Name, &salary, &scheduleJSON, &rateJSON, &historyJSON)
	if err == sql.ErrNoRows {
		return nil, bank.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}

	profile.Salary, err = decimal.NewFromString(salary)
	if err != nil {
		return nil, fmt.Errorf("failed to parse salary: %w", err)
	}
	if err := json.Unmarshal([]byte(scheduleJSON), &profile.FixedSchedule); err != nil {
		return nil, fmt.Errorf("failed to parse schedule: %w", err)
	}
	if err := json.Unmarshal([]byte(rateJSON), &profile.Rate); err != nil {
		return nil, fmt.Errorf("failed to parse rate: %w", err)
	}
	if err := json.Unmarshal([]byte(historyJSON), &profile.RateHistory); err != nil {
		return nil, fmt.Errorf("failed to parse rate history: %w", err)
	}
	return &profile, nil
}

// ListEmployees returns all profiles ordered by id.
func (s *Store) ListEmployees(ctx context.Context) ([]bank.EmployeeProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM employees ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	var ids []bank.EmployeeID
	for rows.Next() {
		var id bank.EmployeeID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	out := make([]bank.EmployeeProfile, 0, len(ids))
	for _, id := range ids {
		p, err := s.loadEmployee(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

// =============================================================================
// BALANCE + LEDGER (bank.BalanceStore, bank.LedgerStore)
// =============================================================================

func (s *Store) Balance(ctx context.Context, id bank.EmployeeID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var balance int
	err := s.db.QueryRowContext(ctx, `SELECT balance FROM employees WHERE id = ?`, id).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, bank.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return balance, nil
}

// ApplyChange is the compare-and-swap balance update. The balance row
// and the ledger entry change in one database transaction, or neither
// does.
func (s *Store) ApplyChange(ctx context.Context, id bank.EmployeeID, old int, entry bank.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE employees SET balance = ? WHERE id = ? AND balance = ?`,
		entry.Balance, id, old)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM employees WHERE id = ?`, id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return bank.ErrNotFound
		}
		return bank.ErrConcurrentModification
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ledger_entries (id, employee_id, operation, delta, balance, reference, actor, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.EmployeeID, entry.Operation, entry.Delta, entry.Balance,
		entry.Reference, entry.Actor, entry.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}

	return tx.Commit()
}

func (s *Store) Entries(ctx context.Context, id bank.EmployeeID) ([]bank.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, operation, delta, balance, reference, actor, created_at
		FROM ledger_entries
		WHERE employee_id = ?
		ORDER BY created_at ASC, id ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	var out []bank.LedgerEntry
	for rows.Next() {
		var (
			entry     bank.LedgerEntry
			reference sql.NullString
			actor     sql.NullString
			createdAt string
		)
		if err := rows.Scan(&entry.ID, &entry.EmployeeID, &entry.Operation, &entry.Delta,
			&entry.Balance, &reference, &actor, &createdAt); err != nil {
			return nil, err
		}
		entry.Reference = reference.String
		entry.Actor = actor.String
		entry.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, entry)
	}
	return out, rows.Err()
}

// =============================================================================
// RECORDED DAYS (bank.DayStore)
// =============================================================================

func (s *Store) CreateDay(ctx context.Context, day *bank.RecordedDay) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	workedJSON, err := json.Marshal(day.Worked)
	if err != nil {
		return fmt.Errorf("failed to marshal worked schedule: %w", err)
	}
	breakdownJSON, err := json.Marshal(day.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal breakdown: %w", err)
	}
	desgloseJSON, _ := json.Marshal(day.Desglose)
	creditedJSON, _ := json.Marshal(day.Credited)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO recorded_days
		(id, employee_id, date, worked_json, holiday, breakdown_json, banking, desglose_json, credited_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, day.ID, day.EmployeeID, day.Date.Format(dateLayout), string(workedJSON), day.Holiday,
		string(breakdownJSON), day.Banking, string(desgloseJSON), string(creditedJSON),
		day.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		if isUniqueConstraintError(err) {
			return bank.ErrDuplicateRequest
		}
		return fmt.Errorf("failed to create day: %w", err)
	}
	return nil
}

func (s *Store) Day(ctx context.Context, id string) (*bank.RecordedDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	days, err := s.queryDays(ctx, `WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return nil, bank.ErrNotFound
	}
	return days[0], nil
}

func (s *Store) DaysInRange(ctx context.Context, id bank.EmployeeID, from, to time.Time) ([]*bank.RecordedDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryDays(ctx, `WHERE employee_id = ? AND date >= ? AND date <= ? ORDER BY date ASC`,
		id, from.Format(dateLayout), to.Format(dateLayout))
}

func (s *Store) queryDays(ctx context.Context, where string, args ...any) ([]*bank.RecordedDay, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, date, worked_json, holiday, breakdown_json, banking, desglose_json, credited_json, created_at
		FROM recorded_days `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query days: %w", err)
	}
	defer rows.Close()

	var out []*bank.RecordedDay
	for rows.Next() {
		var (
			day           bank.RecordedDay
			date          string
			workedJSON    string
			breakdownJSON string
			desgloseJSON  string
			creditedJSON  string
			createdAt     string
		)
		if err := rows.Scan(&day.ID, &day.EmployeeID, &date, &workedJSON, &day.Holiday,
			&breakdownJSON, &day.Banking, &desgloseJSON, &creditedJSON, &createdAt); err != nil {
			return nil, err
		}
		day.Date, _ = time.Parse(dateLayout, date)
		if err := json.Unmarshal([]byte(workedJSON), &day.Worked); err != nil {
			return nil, fmt.Errorf("failed to parse worked schedule: %w", err)
		}
		if err := json.Unmarshal([]byte(breakdownJSON), &day.Breakdown); err != nil {
			return nil, fmt.Errorf("failed to parse breakdown: %w", err)
		}
		day.Desglose = bank.Desglose{}
		day.Credited = bank.Desglose{}
		if err := json.Unmarshal([]byte(desgloseJSON), &day.Desglose); err != nil {
			return nil, fmt.Errorf("failed to parse desglose: %w", err)
		}
		if err := json.Unmarshal([]byte(creditedJSON), &day.Credited); err != nil {
			return nil, fmt.Errorf("failed to parse credited desglose: %w", err)
		}
		day.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, &day)
	}
	return out, rows.Err()
}

// UpdateBanking rewrites only the banking columns. The breakdown
// snapshot stays as written at registration.
func (s *Store) UpdateBanking(ctx context.Context, day *bank.RecordedDay) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	desgloseJSON, _ := json.Marshal(day.Desglose)
	creditedJSON, _ := json.Marshal(day.Credited)

	res, err := s.db.ExecContext(ctx, `
		UPDATE recorded_days SET banking = ?, desglose_json = ?, credited_json = ? WHERE id = ?
	`, day.Banking, string(desgloseJSON), string(creditedJSON), day.ID)
	if err != nil {
		return fmt.Errorf("failed to update banking state: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return bank.ErrNotFound
	}
	return nil
}

// =============================================================================
// REDEMPTIONS (bank.RedemptionStore)
// =============================================================================

func (s *Store) CreateRedemption(ctx context.Context, req *bank.RedemptionRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO redemptions
		(id, employee_id, date, minutes, window_start, window_end, reason, state, auto_approved,
		 approved_by, rejection_reason, created_at, decided_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, req.ID, req.EmployeeID, req.Date.Format(dateLayout), req.Minutes,
		req.Window.Start, req.Window.End, req.Reason, req.State, req.AutoApproved,
		req.ApprovedBy, req.RejectionReason,
		req.CreatedAt.UTC().Format(time.RFC3339), formatNullableTime(req.DecidedAt))
	if err != nil {
		return fmt.Errorf("failed to create redemption: %w", err)
	}
	return nil
}

func (s *Store) Redemption(ctx context.Context, id string) (*bank.RedemptionRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reqs, err := s.queryRedemptions(ctx, `WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return nil, bank.ErrNotFound
	}
	return reqs[0], nil
}

// ListRedemptions returns an employee's requests, oldest first.
func (s *Store) ListRedemptions(ctx context.Context, id bank.EmployeeID) ([]*bank.RedemptionRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryRedemptions(ctx, `WHERE employee_id = ? ORDER BY created_at ASC, id ASC`, id)
}

func (s *Store) queryRedemptions(ctx context.Context, where string, args ...any) ([]*bank.RedemptionRequest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, date, minutes, window_start, window_end, reason, state,
		       auto_approved, approved_by, rejection_reason, created_at, decided_at
		FROM redemptions `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query redemptions: %w", err)
	}
	defer rows.Close()

	var out []*bank.RedemptionRequest
	for rows.Next() {
		var (
			req             bank.RedemptionRequest
			date            string
			reason          sql.NullString
			approvedBy      sql.NullString
			rejectionReason sql.NullString
			createdAt       string
			decidedAt       sql.NullString
		)
		if err := rows.Scan(&req.ID, &req.EmployeeID, &date, &req.Minutes,
			&req.Window.Start, &req.Window.End, &reason, &req.State,
			&req.AutoApproved, &approvedBy, &rejectionReason, &createdAt, &decidedAt); err != nil {
			return nil, err
		}
		req.Date, _ = time.Parse(dateLayout, date)
		req.Reason = reason.String
		req.ApprovedBy = approvedBy.String
		req.RejectionReason = rejectionReason.String
		req.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		if decidedAt.Valid && decidedAt.String != "" {
			req.DecidedAt, _ = time.Parse(time.RFC3339, decidedAt.String)
		}
		out = append(out, &req)
	}
	return out, rows.Err()
}

func (s *Store) UpdateRedemption(ctx context.Context, req *bank.RedemptionRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE redemptions SET state = ?, approved_by = ?, rejection_reason = ?, decided_at = ?
		WHERE id = ?
	`, req.State, req.ApprovedBy, req.RejectionReason, formatNullableTime(req.DecidedAt), req.ID)
	if err != nil {
		return fmt.Errorf("failed to update redemption: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return bank.ErrNotFound
	}
	return nil
}

func (s *Store) ActiveOnDate(ctx context.Context, id bank.EmployeeID, date time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM redemptions
		WHERE employee_id = ? AND date = ? AND state != ?
	`, id, date.Format(dateLayout), bank.RedemptionRejected).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check active redemption: %w", err)
	}
	return count > 0, nil
}

func (s *Store) PendingMinutes(ctx context.Context, id bank.EmployeeID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(minutes), 0) FROM redemptions
		WHERE employee_id = ? AND state = ?
	`, id, bank.RedemptionPending).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum pending redemptions: %w", err)
	}
	return total, nil
}

// =============================================================================
// CLOSINGS (closing.Store)
// =============================================================================

func (s *Store) CreateClosing(ctx context.Context, c *closing.Closing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fixedJSON, err := json.Marshal(c.FixedSurcharges)
	if err != nil {
		return fmt.Errorf("failed to marshal fixed breakdown: %w", err)
	}
	variableJSON, err := json.Marshal(c.VariableOvertime)
	if err != nil {
		return fmt.Errorf("failed to marshal variable breakdown: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO closings
		(id, employee_id, year, month, half, fixed_json, variable_json,
		 hourly_rate, fixed_value, variable_value, total_value, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.EmployeeID, c.Period.Year, int(c.Period.Month), int(c.Period.Half),
		string(fixedJSON), string(variableJSON),
		c.HourlyRate.String(), c.FixedValue.String(), c.VariableValue.String(), c.TotalValue.String(),
		c.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		if isUniqueConstraintError(err) {
			return closing.ErrPeriodClosed
		}
		return fmt.Errorf("failed to create closing: %w", err)
	}
	return nil
}

func (s *Store) ClosingFor(ctx context.Context, id bank.EmployeeID, period closing.PeriodSpec) (*closing.Closing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cs, err := s.queryClosings(ctx, `WHERE employee_id = ? AND year = ? AND month = ? AND half = ?`,
		id, period.Year, int(period.Month), int(period.Half))
	if err != nil {
		return nil, err
	}
	if len(cs) == 0 {
		return nil, bank.ErrNotFound
	}
	return cs[0], nil
}

func (s *Store) Closings(ctx context.Context, id bank.EmployeeID) ([]*closing.Closing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryClosings(ctx, `WHERE employee_id = ? ORDER BY year DESC, month DESC, half DESC`, id)
}

func (s *Store) queryClosings(ctx context.Context, where string, args ...any) ([]*closing.Closing, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, year, month, half, fixed_json, variable_json,
		       hourly_rate, fixed_value, variable_value, total_value, created_at
		FROM closings `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query closings: %w", err)
	}
	defer rows.Close()

	var out []*closing.Closing
	for rows.Next() {
		var (
			c             closing.Closing
			month, half   int
			fixedJSON     string
			variableJSON  string
			hourlyRate    string
			fixedValue    string
			variableValue string
			totalValue    string
			createdAt     string
		)
		if err := rows.Scan(&c.ID, &c.EmployeeID, &c.Period.Year, &month, &half,
			&fixedJSON, &variableJSON, &hourlyRate, &fixedValue, &variableValue, &totalValue, &createdAt); err != nil {
			return nil, err
		}
		c.Period.Month = time.Month(month)
		c.Period.Half = closing.Half(half)
		if err := json.Unmarshal([]byte(fixedJSON), &c.FixedSurcharges); err != nil {
			return nil, fmt.Errorf("failed to parse fixed breakdown: %w", err)
		}
		if err := json.Unmarshal([]byte(variableJSON), &c.VariableOvertime); err != nil {
			return nil, fmt.Errorf("failed to parse variable breakdown: %w", err)
		}
		c.HourlyRate, _ = decimal.NewFromString(hourlyRate)
		c.FixedValue, _ = decimal.NewFromString(fixedValue)
		c.VariableValue, _ = decimal.NewFromString(variableValue)
		c.TotalValue, _ = decimal.NewFromString(totalValue)
		c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, &c)
	}
	return out, rows.Err()
}

// =============================================================================
// HOLIDAYS (closing.HolidayCalendar)
// =============================================================================

func (s *Store) AddHoliday(ctx context.Context, date time.Time, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO holidays (date, name) VALUES (?, ?)`,
		date.Format(dateLayout), name)
	if err != nil {
		return fmt.Errorf("failed to add holiday: %w", err)
	}
	return nil
}

func (s *Store) DeleteHoliday(ctx context.Context, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM holidays WHERE date = ?`, date.Format(dateLayout))
	return err
}

// ListHolidays returns all configured holiday dates, ascending.
func (s *Store) ListHolidays(ctx context.Context) ([]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT date FROM holidays ORDER BY date ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, err
		}
		d, err := time.Parse(dateLayout, date)
		if err != nil {
			continue
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) IsHoliday(date time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM holidays WHERE date = ?`,
		date.Format(dateLayout)).Scan(&count)
	return err == nil && count > 0
}

// =============================================================================
// HELPERS
// =============================================================================

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func formatNullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

var (
	_ bank.DayStore        = (*Store)(nil)
	_ bank.LedgerStore     = (*Store)(nil)
	_ bank.BalanceStore    = (*Store)(nil)
	_ bank.RedemptionStore = (*Store)(nil)
	_ bank.Directory       = (*Store)(nil)
	_ closing.Store        = (*Store)(nil)
)
