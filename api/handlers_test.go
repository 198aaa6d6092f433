/*
handlers_test.go - HTTP-level tests for the API surface

Tests run against the real router and an in-memory SQLite store, so
they cover routing, JSON codecs, status mapping, and the domain flow
end to end.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/overtime-engine/bank"
	"github.com/warp/overtime-engine/closing"
	"github.com/warp/overtime-engine/schedule"
	"github.com/warp/overtime-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testEnv struct {
	server *httptest.Server
	store  *sqlite.Store
	bank   *bank.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	night, err := schedule.NewNightWindow("21:00", "06:00")
	require.NoError(t, err)

	bankSvc := bank.NewService(store, store, store, store, store)
	bankSvc.NightWindow = night

	closingSvc := closing.NewService(store, store, store, store)
	closingSvc.NightWindow = night

	handler := NewHandler(store, bankSvc, closingSvc, night)
	server := httptest.NewServer(NewRouter(handler, []string{"*"}))
	t.Cleanup(server.Close)
	return &testEnv{server: server, store: store, bank: bankSvc}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return newTestEnv(t).server
}

func doJSON(t *testing.T, server *httptest.Server, method, path string, body any, out any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func workingDay(start, end string) DayScheduleDTO {
	return DayScheduleDTO{
		Enabled: true,
		Morning: ShiftDTO{Enabled: true, Start: start, End: end},
	}
}

// workingSixDay is the contracted 06:00-14:00 template createEmployee
// seeds for each working weekday.
func workingSixDay() DayScheduleDTO {
	return DayScheduleDTO{
		Enabled:   true,
		Morning:   ShiftDTO{Enabled: true, Start: "06:00", End: "10:00"},
		Afternoon: ShiftDTO{Enabled: true, Start: "10:00", End: "14:00"},
	}
}

// createEmployee seeds a Monday-Saturday 06:00-14:00 contract. Six work
// days at eight hours gives a weekly 48h and an hourly rate of 10000
// for the 2,400,000 salary.
func createEmployee(t *testing.T, server *httptest.Server, id string) {
	t.Helper()
	day := workingSixDay()
	req := CreateEmployeeRequest{
		ID:     id,
		Name:   "API Test",
		Salary: "2400000",
		Schedule: WeekScheduleDTO{
			Monday: day, Tuesday: day, Wednesday: day,
			Thursday: day, Friday: day, Saturday: day,
		},
	}
	resp := doJSON(t, server, http.MethodPost, "/api/employees", req, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestAPI_CreateEmployee_DerivesRate(t *testing.T) {
	server := newTestServer(t)
	createEmployee(t, server, "emp-1")

	var dto EmployeeDTO
	resp := doJSON(t, server, http.MethodGet, "/api/employees/emp-1", nil, &dto)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "48", dto.WeeklyHours)
	assert.Equal(t, "240", dto.MonthlyHours)
	assert.Equal(t, "10000", dto.HourlyRate)
}

func TestAPI_GetEmployee_NotFound(t *testing.T) {
	server := newTestServer(t)

	var errResp ErrorResponse
	resp := doJSON(t, server, http.MethodGet, "/api/employees/ghost", nil, &errResp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, errResp.Error)
}

func TestAPI_CreateEmployee_ValidationError(t *testing.T) {
	server := newTestServer(t)

	resp := doJSON(t, server, http.MethodPost, "/api/employees", CreateEmployeeRequest{Name: "no id"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_SalaryChange_PastPeriodKeepsOldRate(t *testing.T) {
	// GIVEN: March overtime recorded at 10,000/h, then a raise to
	// 4,800,000 (20,000/h)
	// WHEN: Closing the March period after the raise
	// THEN: The closing values at the rate that was in force in March

	env := newTestEnv(t)
	server := env.server
	createEmployee(t, server, "emp-1")

	doJSON(t, server, http.MethodPost, "/api/days", RegisterDayRequest{
		EmployeeID: "emp-1",
		Date:       "2025-03-03",
		Worked: DayScheduleDTO{
			Enabled:   true,
			Morning:   ShiftDTO{Enabled: true, Start: "06:00", End: "10:00"},
			Afternoon: ShiftDTO{Enabled: true, Start: "10:00", End: "16:00"},
		},
	}, nil)

	raise := CreateEmployeeRequest{
		ID:     "emp-1",
		Name:   "API Test",
		Salary: "4800000",
		Schedule: WeekScheduleDTO{
			Monday: workingSixDay(), Tuesday: workingSixDay(), Wednesday: workingSixDay(),
			Thursday: workingSixDay(), Friday: workingSixDay(), Saturday: workingSixDay(),
		},
	}
	resp := doJSON(t, server, http.MethodPost, "/api/employees", raise, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// The replaced profile landed in the dated history.
	profile, err := env.store.Employee(context.Background(), "emp-1")
	require.NoError(t, err)
	require.Len(t, profile.RateHistory, 1)
	assert.Equal(t, "10000", profile.RateHistory[0].Profile.HourlyRate.String())
	assert.Equal(t, "20000", profile.Rate.HourlyRate.String())

	// Saving again without changes appends nothing.
	resp = doJSON(t, server, http.MethodPost, "/api/employees", raise, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	profile, err = env.store.Employee(context.Background(), "emp-1")
	require.NoError(t, err)
	require.Len(t, profile.RateHistory, 1)

	// The 120 March minutes value at the old 10,000/h: 2h * 1.25.
	var c ClosingDTO
	resp = doJSON(t, server, http.MethodPost, "/api/closings",
		ClosePeriodRequest{EmployeeID: "emp-1", Year: 2025, Month: 3, Half: 1}, &c)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "10000", c.HourlyRate)
	assert.Equal(t, "25000", c.VariableValue)
}

// =============================================================================
// CLASSIFICATION PREVIEW
// =============================================================================

func TestAPI_Classify_Preview(t *testing.T) {
	// 06:00-16:00 worked against a 06:00-14:00 contract: 120 extra
	// daytime minutes, nothing recorded anywhere.

	server := newTestServer(t)

	req := ClassifyRequest{
		Worked: workingDay("06:00", "16:00"),
		Fixed:  workingDay("06:00", "14:00"),
	}
	var breakdown map[string]int
	resp := doJSON(t, server, http.MethodPost, "/api/classify", req, &breakdown)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 120, breakdown["extra_diurna"])
}

// =============================================================================
// DAYS, BANKING AND BALANCE
// =============================================================================

func TestAPI_BankingFlow(t *testing.T) {
	server := newTestServer(t)
	createEmployee(t, server, "emp-1")

	// Register a Monday worked two hours past the contracted end.
	var day DayDTO
	resp := doJSON(t, server, http.MethodPost, "/api/days", RegisterDayRequest{
		EmployeeID: "emp-1",
		Date:       "2025-03-03",
		Worked: DayScheduleDTO{
			Enabled:   true,
			Morning:   ShiftDTO{Enabled: true, Start: "06:00", End: "10:00"},
			Afternoon: ShiftDTO{Enabled: true, Start: "10:00", End: "16:00"},
		},
	}, &day)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 120, day.Breakdown.ExtraDiurna)
	assert.Equal(t, "NONE", day.Banking)

	// Duplicate date conflicts.
	resp = doJSON(t, server, http.MethodPost, "/api/days", RegisterDayRequest{
		EmployeeID: "emp-1",
		Date:       "2025-03-03",
		Worked:     workingDay("06:00", "14:00"),
	}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Bank the 120 minutes.
	var result BankingResultDTO
	resp = doJSON(t, server, http.MethodPost, "/api/banking", BankingRequest{
		EmployeeID: "emp-1",
		Buckets:    map[string]int{"extra_diurna": 120},
		AsOf:       "2025-03-03",
	}, &result)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, result.Allocations, 1)
	assert.Empty(t, result.Unallocated)

	// Approve: the balance credits.
	var entry LedgerEntryDTO
	resp = doJSON(t, server, http.MethodPost,
		fmt.Sprintf("/api/days/%s/banking/approve", day.ID),
		DecisionRequest{Actor: "manager-1"}, &entry)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ACCUMULATION", entry.Operation)
	assert.Equal(t, 120, entry.Balance)

	var balance BalanceDTO
	resp = doJSON(t, server, http.MethodGet, "/api/employees/emp-1/balance", nil, &balance)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 120, balance.Balance)
	assert.Equal(t, 120, balance.Available)

	// Approving again conflicts.
	resp = doJSON(t, server, http.MethodPost,
		fmt.Sprintf("/api/days/%s/banking/approve", day.ID),
		DecisionRequest{Actor: "manager-1"}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_GetDays_HonorsConfiguredWindow(t *testing.T) {
	// GIVEN: An allocation window of one month and a day recorded 45
	// days ago
	// WHEN: Listing days with the default range
	// THEN: The day falls outside the window; an explicit 'from'
	// still reaches it

	env := newTestEnv(t)
	env.bank.WindowMonths = 1
	createEmployee(t, env.server, "emp-1")

	date := time.Now().UTC().AddDate(0, 0, -45).Format("2006-01-02")
	resp := doJSON(t, env.server, http.MethodPost, "/api/days", RegisterDayRequest{
		EmployeeID: "emp-1",
		Date:       date,
		Worked:     workingDay("06:00", "14:00"),
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var days []DayDTO
	resp = doJSON(t, env.server, http.MethodGet, "/api/employees/emp-1/days", nil, &days)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, days)

	days = nil
	resp = doJSON(t, env.server, http.MethodGet, "/api/employees/emp-1/days?from="+date, nil, &days)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, days, 1)
	assert.Equal(t, date, days[0].Date)
}

// =============================================================================
// REDEMPTIONS
// =============================================================================

func TestAPI_RedemptionFlow(t *testing.T) {
	server := newTestServer(t)
	createEmployee(t, server, "emp-1")

	// Fund the balance through the banking flow.
	var day DayDTO
	doJSON(t, server, http.MethodPost, "/api/days", RegisterDayRequest{
		EmployeeID: "emp-1",
		Date:       "2025-03-03",
		Worked: DayScheduleDTO{
			Enabled:   true,
			Morning:   ShiftDTO{Enabled: true, Start: "06:00", End: "10:00"},
			Afternoon: ShiftDTO{Enabled: true, Start: "10:00", End: "16:00"},
		},
	}, &day)
	doJSON(t, server, http.MethodPost, "/api/banking", BankingRequest{
		EmployeeID: "emp-1",
		Buckets:    map[string]int{"extra_diurna": 120},
		AsOf:       "2025-03-03",
	}, nil)
	doJSON(t, server, http.MethodPost,
		fmt.Sprintf("/api/days/%s/banking/approve", day.ID),
		DecisionRequest{Actor: "manager-1"}, nil)

	// Employee requests 90 minutes off.
	var redemption RedemptionDTO
	resp := doJSON(t, server, http.MethodPost, "/api/redemptions", RedeemRequest{
		EmployeeID:  "emp-1",
		Date:        "2025-03-07",
		Minutes:     90,
		WindowStart: "08:00",
		WindowEnd:   "09:30",
		Reason:      "appointment",
	}, &redemption)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "PENDIENTE", redemption.State)

	// The pending hold shows in availability but not in the balance.
	var balance BalanceDTO
	doJSON(t, server, http.MethodGet, "/api/employees/emp-1/balance", nil, &balance)
	assert.Equal(t, 120, balance.Balance)
	assert.Equal(t, 30, balance.Available)

	// An overdraw attempt conflicts.
	resp = doJSON(t, server, http.MethodPost, "/api/redemptions", RedeemRequest{
		EmployeeID:  "emp-1",
		Date:        "2025-03-08",
		Minutes:     60,
		WindowStart: "08:00",
		WindowEnd:   "09:00",
	}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Approving debits the ledger.
	var entry LedgerEntryDTO
	resp = doJSON(t, server, http.MethodPost,
		fmt.Sprintf("/api/redemptions/%s/approve", redemption.ID),
		DecisionRequest{Actor: "manager-1"}, &entry)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "USE", entry.Operation)
	assert.Equal(t, 30, entry.Balance)

	// Manager direct redeem auto-approves.
	var direct RedemptionDTO
	resp = doJSON(t, server, http.MethodPost, "/api/redemptions/direct", RedeemRequest{
		EmployeeID:  "emp-1",
		Date:        "2025-03-10",
		Minutes:     30,
		WindowStart: "08:00",
		WindowEnd:   "08:30",
		Approver:    "manager-1",
	}, &direct)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "APROBADO", direct.State)
	assert.True(t, direct.AutoApproved)

	// The ledger carries the full history with running balances.
	var entries []LedgerEntryDTO
	doJSON(t, server, http.MethodGet, "/api/employees/emp-1/ledger", nil, &entries)
	require.Len(t, entries, 3)
	assert.Equal(t, 0, entries[2].Balance)
}

func TestAPI_DirectRedeem_RequiresApprover(t *testing.T) {
	server := newTestServer(t)
	createEmployee(t, server, "emp-1")

	resp := doJSON(t, server, http.MethodPost, "/api/redemptions/direct", RedeemRequest{
		EmployeeID:  "emp-1",
		Date:        "2025-03-10",
		Minutes:     30,
		WindowStart: "08:00",
		WindowEnd:   "08:30",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// CLOSINGS
// =============================================================================

func TestAPI_ClosePeriod_WriteOnce(t *testing.T) {
	server := newTestServer(t)
	createEmployee(t, server, "emp-1")

	req := ClosePeriodRequest{EmployeeID: "emp-1", Year: 2025, Month: 3, Half: 1}

	var c ClosingDTO
	resp := doJSON(t, server, http.MethodPost, "/api/closings", req, &c)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "2025-03/H1", c.Period)

	resp = doJSON(t, server, http.MethodPost, "/api/closings", req, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var closings []ClosingDTO
	resp = doJSON(t, server, http.MethodGet, "/api/employees/emp-1/closings", nil, &closings)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, closings, 1)
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func TestAPI_HolidayLifecycle(t *testing.T) {
	server := newTestServer(t)

	resp := doJSON(t, server, http.MethodPost, "/api/holidays", HolidayRequest{Date: "2025-03-24", Name: "San Jose"}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var holidays []HolidayDTO
	resp = doJSON(t, server, http.MethodGet, "/api/holidays", nil, &holidays)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, holidays, 1)
	assert.Equal(t, "2025-03-24", holidays[0].Date)

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/api/holidays/2025-03-24", nil)
	require.NoError(t, err)
	del, err := server.Client().Do(req)
	require.NoError(t, err)
	del.Body.Close()
	assert.Equal(t, http.StatusNoContent, del.StatusCode)
}
