package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/overtime-engine/bank"
	"github.com/warp/overtime-engine/classify"
	"github.com/warp/overtime-engine/closing"
	"github.com/warp/overtime-engine/schedule"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *Store {
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedEmployee(t *testing.T, store *Store, id bank.EmployeeID) {
	t.Helper()
	day := schedule.DaySchedule{
		Enabled:   true,
		Morning:   schedule.Shift{Enabled: true, Start: 360, End: 600},
		Afternoon: schedule.Shift{Enabled: true, Start: 600, End: 840},
	}
	var week schedule.WeekSchedule
	for wd := 1; wd <= 6; wd++ {
		week[wd] = day
	}
	require.NoError(t, store.SaveEmployee(context.Background(), bank.EmployeeProfile{
		ID:            id,
		Name:          "Store Test",
		Salary:        decimal.NewFromInt(2400000),
		FixedSchedule: week,
	}))
}

func testDay(id string, employee bank.EmployeeID, date time.Time) *bank.RecordedDay {
	var b classify.Breakdown
	b.ExtraDiurna = 120
	return &bank.RecordedDay{
		ID:         id,
		EmployeeID: employee,
		Date:       date,
		Worked: schedule.DaySchedule{
			Enabled: true,
			Morning: schedule.Shift{Enabled: true, Start: 360, End: 960},
		},
		Breakdown: b,
		Banking:   bank.BankingNone,
		Desglose:  bank.Desglose{},
		Credited:  bank.Desglose{},
		CreatedAt: time.Now().UTC(),
	}
}

var march3 = time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestEmployee_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedEmployee(t, store, "emp-1")

	profile, err := store.Employee(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, bank.EmployeeID("emp-1"), profile.ID)
	assert.True(t, decimal.NewFromInt(2400000).Equal(profile.Salary))
	assert.Equal(t, 6, profile.FixedSchedule.WorkDays())
	assert.Equal(t, 6*480, profile.FixedSchedule.WeeklyMinutes())

	_, err = store.Employee(ctx, "ghost")
	assert.ErrorIs(t, err, bank.ErrNotFound)
}

func TestEmployee_UpsertPreservesBalance(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedEmployee(t, store, "emp-1")

	entry := bank.LedgerEntry{
		ID: "led-1", EmployeeID: "emp-1", Operation: bank.OpAdjustment,
		Delta: 60, Balance: 60, CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.ApplyChange(ctx, "emp-1", 0, entry))

	// Re-saving the profile must not reset the balance column.
	seedEmployee(t, store, "emp-1")

	balance, err := store.Balance(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, 60, balance)
}

// =============================================================================
// BALANCE CAS + LEDGER
// =============================================================================

func TestApplyChange_CompareAndSwap(t *testing.T) {
	// GIVEN: Balance 60
	// WHEN: Applying a change computed against a stale balance
	// THEN: ErrConcurrentModification and nothing is written

	store := newTestStore(t)
	ctx := context.Background()
	seedEmployee(t, store, "emp-1")

	first := bank.LedgerEntry{
		ID: "led-1", EmployeeID: "emp-1", Operation: bank.OpAccumulation,
		Delta: 60, Balance: 60, CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.ApplyChange(ctx, "emp-1", 0, first))

	stale := bank.LedgerEntry{
		ID: "led-2", EmployeeID: "emp-1", Operation: bank.OpUse,
		Delta: -30, Balance: -30, CreatedAt: time.Now().UTC(),
	}
	err := store.ApplyChange(ctx, "emp-1", 0, stale)
	assert.ErrorIs(t, err, bank.ErrConcurrentModification)

	balance, err := store.Balance(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, 60, balance)

	entries, err := store.Entries(ctx, "emp-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "the failed change must not append history")
}

func TestApplyChange_UnknownEmployee(t *testing.T) {
	store := newTestStore(t)
	entry := bank.LedgerEntry{ID: "led-1", EmployeeID: "ghost", CreatedAt: time.Now().UTC()}
	err := store.ApplyChange(context.Background(), "ghost", 0, entry)
	assert.ErrorIs(t, err, bank.ErrNotFound)
}

// =============================================================================
// RECORDED DAYS
// =============================================================================

func TestDays_RoundTripAndUniqueness(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedEmployee(t, store, "emp-1")

	day := testDay("day-1", "emp-1", march3)
	day.Desglose[classify.ExtraDiurna] = 30
	require.NoError(t, store.CreateDay(ctx, day))

	loaded, err := store.Day(ctx, "day-1")
	require.NoError(t, err)
	assert.Equal(t, 120, loaded.Breakdown.ExtraDiurna)
	assert.Equal(t, 30, loaded.Desglose.Minutes(classify.ExtraDiurna))
	assert.Equal(t, 600, loaded.Worked.Minutes())
	assert.True(t, loaded.Date.Equal(march3))

	// Same employee+date is rejected by the unique index.
	dup := testDay("day-2", "emp-1", march3)
	assert.ErrorIs(t, store.CreateDay(ctx, dup), bank.ErrDuplicateRequest)

	// Another employee may record the same date.
	seedEmployee(t, store, "emp-2")
	other := testDay("day-3", "emp-2", march3)
	assert.NoError(t, store.CreateDay(ctx, other))
}

func TestDaysInRange_OrderedAscending(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedEmployee(t, store, "emp-1")

	require.NoError(t, store.CreateDay(ctx, testDay("day-b", "emp-1", march3.AddDate(0, 0, 4))))
	require.NoError(t, store.CreateDay(ctx, testDay("day-a", "emp-1", march3)))
	require.NoError(t, store.CreateDay(ctx, testDay("day-c", "emp-1", march3.AddDate(0, 1, 0))))

	days, err := store.DaysInRange(ctx, "emp-1", march3, march3.AddDate(0, 0, 10))
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "day-a", days[0].ID)
	assert.Equal(t, "day-b", days[1].ID)
}

func TestUpdateBanking_PersistsStateNotBreakdown(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedEmployee(t, store, "emp-1")

	day := testDay("day-1", "emp-1", march3)
	require.NoError(t, store.CreateDay(ctx, day))

	day.Banking = bank.BankingRequested
	day.Desglose[classify.ExtraDiurna] = 90
	require.NoError(t, store.UpdateBanking(ctx, day))

	loaded, err := store.Day(ctx, "day-1")
	require.NoError(t, err)
	assert.Equal(t, bank.BankingRequested, loaded.Banking)
	assert.Equal(t, 90, loaded.Desglose.Minutes(classify.ExtraDiurna))
	assert.Equal(t, 120, loaded.Breakdown.ExtraDiurna, "snapshot untouched")

	missing := testDay("missing", "emp-1", march3.AddDate(0, 0, 1))
	assert.ErrorIs(t, store.UpdateBanking(ctx, missing), bank.ErrNotFound)
}

// =============================================================================
// REDEMPTIONS
// =============================================================================

func TestRedemptions_RoundTripAndAggregates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedEmployee(t, store, "emp-1")

	req := &bank.RedemptionRequest{
		ID:         "red-1",
		EmployeeID: "emp-1",
		Date:       march3,
		Minutes:    90,
		Window:     schedule.Interval{Start: 480, End: 570},
		Reason:     "appointment",
		State:      bank.RedemptionPending,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, store.CreateRedemption(ctx, req))

	loaded, err := store.Redemption(ctx, "red-1")
	require.NoError(t, err)
	assert.Equal(t, 90, loaded.Minutes)
	assert.Equal(t, schedule.Interval{Start: 480, End: 570}, loaded.Window)
	assert.True(t, loaded.DecidedAt.IsZero())

	active, err := store.ActiveOnDate(ctx, "emp-1", march3)
	require.NoError(t, err)
	assert.True(t, active)

	pending, err := store.PendingMinutes(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, 90, pending)

	// Rejecting releases both the date slot and the pending hold.
	loaded.State = bank.RedemptionRejected
	loaded.RejectionReason = "coverage"
	loaded.DecidedAt = time.Now().UTC()
	require.NoError(t, store.UpdateRedemption(ctx, loaded))

	active, err = store.ActiveOnDate(ctx, "emp-1", march3)
	require.NoError(t, err)
	assert.False(t, active)

	pending, err = store.PendingMinutes(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, 0, pending)
}

// =============================================================================
// CLOSINGS
// =============================================================================

func TestClosings_WriteOnceConstraint(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedEmployee(t, store, "emp-1")

	period := closing.PeriodSpec{Year: 2025, Month: time.March, Half: closing.FirstHalf}
	var variable classify.Breakdown
	variable.ExtraDiurna = 120

	first := &closing.Closing{
		ID:               "close-1",
		EmployeeID:       "emp-1",
		Period:           period,
		VariableOvertime: variable,
		HourlyRate:       decimal.NewFromInt(10000),
		FixedValue:       decimal.Zero,
		VariableValue:    decimal.NewFromInt(25000),
		TotalValue:       decimal.NewFromInt(25000),
		CreatedAt:        time.Now().UTC(),
	}
	require.NoError(t, store.CreateClosing(ctx, first))

	dup := *first
	dup.ID = "close-2"
	assert.ErrorIs(t, store.CreateClosing(ctx, &dup), closing.ErrPeriodClosed)

	loaded, err := store.ClosingFor(ctx, "emp-1", period)
	require.NoError(t, err)
	assert.Equal(t, "close-1", loaded.ID)
	assert.Equal(t, 120, loaded.VariableOvertime.ExtraDiurna)
	assert.True(t, decimal.NewFromInt(25000).Equal(loaded.TotalValue))
	assert.Equal(t, "2025-03/H1", loaded.Period.String())

	// The second half is a different period and closes independently.
	second := *first
	second.ID = "close-3"
	second.Period.Half = closing.SecondHalf
	assert.NoError(t, store.CreateClosing(ctx, &second))

	all, err := store.Closings(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, closing.SecondHalf, all[0].Period.Half, "newest period first")
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func TestHolidays_CalendarLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	date := time.Date(2025, time.March, 24, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.AddHoliday(ctx, date, "San Jose"))
	require.NoError(t, store.AddHoliday(ctx, date, "Dia de San Jose"), "re-adding updates the name only")

	assert.True(t, store.IsHoliday(date))
	assert.False(t, store.IsHoliday(date.AddDate(0, 0, 1)))

	dates, err := store.ListHolidays(ctx)
	require.NoError(t, err)
	require.Len(t, dates, 1)

	var name string
	require.NoError(t, store.db.QueryRow(
		`SELECT name FROM holidays WHERE date = ?`, date.Format(dateLayout)).Scan(&name))
	assert.Equal(t, "Dia de San Jose", name)

	require.NoError(t, store.DeleteHoliday(ctx, date))
	assert.False(t, store.IsHoliday(date))
}
