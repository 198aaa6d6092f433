/*
handlers.go - HTTP API handlers for the overtime engine

PURPOSE:
  Exposes the overtime engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Employees:
    GET    /api/employees                  List all employees
    POST   /api/employees                  Create/update employee
    GET    /api/employees/{id}             Get employee details
    GET    /api/employees/{id}/balance     Ledger balance + available
    GET    /api/employees/{id}/ledger      Balance history
    GET    /api/employees/{id}/days        Recorded days in a range
    GET    /api/employees/{id}/redemptions Redemption requests
    GET    /api/employees/{id}/closings    Period closings
    POST   /api/employees/{id}/adjustments Manual balance correction

  Classification:
    POST   /api/classify                   Stateless breakdown preview

  Days and banking:
    POST   /api/days                       Register a worked day
    POST   /api/banking                    Request banking allocation
    POST   /api/days/{id}/banking/approve  Credit pending allocation
    POST   /api/days/{id}/banking/reject   Revert pending allocation

  Redemptions:
    POST   /api/redemptions                Employee request (PENDIENTE)
    POST   /api/redemptions/direct         Manager direct redeem
    GET    /api/redemptions/{id}           Get request
    POST   /api/redemptions/{id}/approve   Approve + debit
    POST   /api/redemptions/{id}/reject    Reject

  Closings:
    POST   /api/closings                   Settle a half-month period

  Holidays:
    GET    /api/holidays                   List festivo dates
    POST   /api/holidays                   Add a festivo date
    DELETE /api/holidays/{date}            Remove a festivo date

REQUEST FLOW:
  1. Decode and validate the JSON body
  2. Call domain logic (bank.Service, closing.Service)
  3. Serialize response
  4. Map domain sentinels to HTTP status

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, invalid periods
  - 404: Unknown employee, day, or request
  - 409: Duplicates, closed periods, state conflicts, insufficient balance
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/warp/overtime-engine/bank"
	"github.com/warp/overtime-engine/classify"
	"github.com/warp/overtime-engine/closing"
	"github.com/warp/overtime-engine/schedule"
	"github.com/warp/overtime-engine/store/sqlite"
	"github.com/warp/overtime-engine/valuation"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Bank    *bank.Service
	Closing *closing.Service

	NightWindow schedule.NightWindow

	validate *validator.Validate
}

// NewHandler creates a new handler wired to the store and services.
func NewHandler(store *sqlite.Store, bankSvc *bank.Service, closingSvc *closing.Service, night schedule.NightWindow) *Handler {
	return &Handler{
		Store:       store,
		Bank:        bankSvc,
		Closing:     closingSvc,
		NightWindow: night,
		validate:    validator.New(),
	}
}

// decodeJSON decodes the body into dst and runs struct validation.
func (h *Handler) decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := h.validate.Struct(dst); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = employeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee registers or updates a profile. The rate profile is
// derived from the contracted schedule and salary on every save.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	salary, err := decimal.NewFromString(req.Salary)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid salary", err)
		return
	}
	week, err := req.Schedule.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid schedule", err)
		return
	}

	profile := bank.EmployeeProfile{
		ID:            bank.EmployeeID(req.ID),
		Name:          req.Name,
		Salary:        salary,
		FixedSchedule: week,
		Rate:          valuation.HourlyRate(week, salary),
	}

	// On an update that changes salary or schedule, the replaced rate
	// profile joins the dated history so past periods keep valuing at
	// the rate that was in force back then.
	existing, err := h.Store.Employee(r.Context(), profile.ID)
	switch {
	case err == nil:
		profile.RateHistory = existing.RateHistory
		if !existing.Salary.Equal(salary) || existing.FixedSchedule != week {
			profile.RateHistory = existing.RateHistory.Append(valuation.RateChange{
				EffectiveAt: time.Now().UTC(),
				Profile:     existing.Rate,
			})
		}
	case !errors.Is(err, bank.ErrNotFound):
		h.writeDomainError(w, "Failed to load employee", err)
		return
	}

	if err := h.Store.SaveEmployee(r.Context(), profile); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, employeeDTO(profile))
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := bank.EmployeeID(chi.URLParam(r, "id"))

	profile, err := h.Store.Employee(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, employeeDTO(*profile))
}

// GetBalance returns the ledger balance and the spendable portion.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id := bank.EmployeeID(chi.URLParam(r, "id"))

	balance, err := h.Bank.Balance(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to get balance", err)
		return
	}
	available, err := h.Bank.AvailableBalance(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to get available balance", err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceDTO{
		EmployeeID: string(id),
		Balance:    balance,
		Available:  available,
	})
}

// GetLedger returns the employee's full balance history.
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	id := bank.EmployeeID(chi.URLParam(r, "id"))

	entries, err := h.Bank.History(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to get ledger", err)
		return
	}
	dtos := make([]LedgerEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = ledgerEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetDays returns recorded days in a date range; default is the
// trailing allocation window.
func (h *Handler) GetDays(w http.ResponseWriter, r *http.Request) {
	id := bank.EmployeeID(chi.URLParam(r, "id"))

	window := h.Bank.WindowMonths
	if window <= 0 {
		window = bank.DefaultAllocationWindowMonths
	}
	to := time.Now().UTC()
	from := to.AddDate(0, -window, 0)
	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse(dateLayout, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid 'from' date", err)
			return
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse(dateLayout, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid 'to' date", err)
			return
		}
		to = parsed
	}

	days, err := h.Store.DaysInRange(r.Context(), id, from, to)
	if err != nil {
		h.writeDomainError(w, "Failed to get days", err)
		return
	}
	dtos := make([]DayDTO, len(days))
	for i, d := range days {
		dtos[i] = dayDTO(d)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRedemptions returns an employee's redemption requests.
func (h *Handler) GetRedemptions(w http.ResponseWriter, r *http.Request) {
	id := bank.EmployeeID(chi.URLParam(r, "id"))

	reqs, err := h.Store.ListRedemptions(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to get redemptions", err)
		return
	}
	dtos := make([]RedemptionDTO, len(reqs))
	for i, req := range reqs {
		dtos[i] = redemptionDTO(req)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetClosings returns an employee's period closings, newest first.
func (h *Handler) GetClosings(w http.ResponseWriter, r *http.Request) {
	id := bank.EmployeeID(chi.URLParam(r, "id"))

	closings, err := h.Store.Closings(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to get closings", err)
		return
	}
	dtos := make([]ClosingDTO, len(closings))
	for i, c := range closings {
		dtos[i] = closingDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAdjustment applies a manual balance correction.
func (h *Handler) CreateAdjustment(w http.ResponseWriter, r *http.Request) {
	id := bank.EmployeeID(chi.URLParam(r, "id"))

	var req AdjustRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	entry, err := h.Bank.Adjust(r.Context(), id, req.Delta, req.Reason, req.Actor)
	if err != nil {
		h.writeDomainError(w, "Failed to adjust balance", err)
		return
	}
	writeJSON(w, http.StatusCreated, ledgerEntryDTO(*entry))
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// ClassifyDay previews a breakdown without recording anything.
func (h *Handler) ClassifyDay(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	worked, err := req.Worked.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid worked schedule", err)
		return
	}
	fixed, err := req.Fixed.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid fixed schedule", err)
		return
	}

	breakdown := classify.Classify(worked, fixed, h.NightWindow, req.Holiday)
	writeJSON(w, http.StatusOK, breakdown)
}

// =============================================================================
// DAYS AND BANKING
// =============================================================================

// RegisterDay records a worked day and persists its breakdown snapshot.
func (h *Handler) RegisterDay(w http.ResponseWriter, r *http.Request) {
	var req RegisterDayRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}
	worked, err := req.Worked.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid worked schedule", err)
		return
	}

	day, err := h.Bank.RegisterDay(r.Context(), bank.EmployeeID(req.EmployeeID), date, worked, req.Holiday)
	if err != nil {
		h.writeDomainError(w, "Failed to register day", err)
		return
	}
	writeJSON(w, http.StatusCreated, dayDTO(day))
}

// RequestBanking allocates requested bucket minutes over recorded days.
func (h *Handler) RequestBanking(w http.ResponseWriter, r *http.Request) {
	var req BankingRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	asOf := time.Now().UTC()
	if req.AsOf != "" {
		parsed, err := time.Parse(dateLayout, req.AsOf)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid 'as_of' date", err)
			return
		}
		asOf = parsed
	}

	alloc := make(bank.AllocationRequest, len(req.Buckets))
	for k, v := range req.Buckets {
		alloc[classify.Bucket(k)] = v
	}

	allocations, unallocated, err := h.Bank.RequestBanking(r.Context(), bank.EmployeeID(req.EmployeeID), alloc, asOf)
	if err != nil {
		h.writeDomainError(w, "Failed to request banking", err)
		return
	}

	result := BankingResultDTO{Allocations: make([]AllocationDTO, len(allocations))}
	for i, a := range allocations {
		result.Allocations[i] = AllocationDTO{DayID: a.DayID, Taken: desgloseMap(a.Taken)}
	}
	if len(unallocated) > 0 {
		result.Unallocated = make(map[string]int, len(unallocated))
		for k, v := range unallocated {
			result.Unallocated[string(k)] = v
		}
	}
	writeJSON(w, http.StatusOK, result)
}

// ApproveBanking credits a day's pending allocation to the balance.
func (h *Handler) ApproveBanking(w http.ResponseWriter, r *http.Request) {
	dayID := chi.URLParam(r, "id")

	var req DecisionRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	entry, err := h.Bank.ApproveBanking(r.Context(), dayID, req.Actor)
	if err != nil {
		h.writeDomainError(w, "Failed to approve banking", err)
		return
	}
	writeJSON(w, http.StatusOK, ledgerEntryDTO(*entry))
}

// RejectBanking reverts a day's pending allocation.
func (h *Handler) RejectBanking(w http.ResponseWriter, r *http.Request) {
	dayID := chi.URLParam(r, "id")

	var req DecisionRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	day, err := h.Bank.RejectBanking(r.Context(), dayID, req.Actor)
	if err != nil {
		h.writeDomainError(w, "Failed to reject banking", err)
		return
	}
	writeJSON(w, http.StatusOK, dayDTO(day))
}

// =============================================================================
// REDEMPTIONS
// =============================================================================

func (h *Handler) redemptionInput(req RedeemRequest) (bank.RedemptionInput, error) {
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return bank.RedemptionInput{}, fmt.Errorf("invalid date: %w", err)
	}
	start, err := schedule.ClockMinutes(req.WindowStart)
	if err != nil {
		return bank.RedemptionInput{}, err
	}
	end, err := schedule.ClockMinutes(req.WindowEnd)
	if err != nil {
		return bank.RedemptionInput{}, err
	}
	window, err := schedule.NewInterval(start, end)
	if err != nil {
		return bank.RedemptionInput{}, err
	}
	return bank.RedemptionInput{
		EmployeeID: bank.EmployeeID(req.EmployeeID),
		Date:       date,
		Minutes:    req.Minutes,
		Window:     window,
		Reason:     req.Reason,
	}, nil
}

// SubmitRedemption creates a PENDIENTE redemption request.
func (h *Handler) SubmitRedemption(w http.ResponseWriter, r *http.Request) {
	var req RedeemRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	in, err := h.redemptionInput(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	redemption, err := h.Bank.RequestRedemption(r.Context(), in)
	if err != nil {
		h.writeDomainError(w, "Failed to request redemption", err)
		return
	}
	writeJSON(w, http.StatusCreated, redemptionDTO(redemption))
}

// DirectRedeem is the manager flow: the request auto-approves and the
// balance debits immediately.
func (h *Handler) DirectRedeem(w http.ResponseWriter, r *http.Request) {
	var req RedeemRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}
	if req.Approver == "" {
		writeError(w, http.StatusBadRequest, "Approver is required for direct redemption", nil)
		return
	}

	in, err := h.redemptionInput(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	redemption, _, err := h.Bank.Redeem(r.Context(), in, req.Approver)
	if err != nil {
		h.writeDomainError(w, "Failed to redeem", err)
		return
	}
	writeJSON(w, http.StatusCreated, redemptionDTO(redemption))
}

// GetRedemption returns one redemption request.
func (h *Handler) GetRedemption(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	redemption, err := h.Store.Redemption(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to get redemption", err)
		return
	}
	writeJSON(w, http.StatusOK, redemptionDTO(redemption))
}

// ApproveRedemption approves a pending request and debits the balance.
func (h *Handler) ApproveRedemption(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req DecisionRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	entry, err := h.Bank.ApproveRedemption(r.Context(), id, req.Actor)
	if err != nil {
		h.writeDomainError(w, "Failed to approve redemption", err)
		return
	}
	writeJSON(w, http.StatusOK, ledgerEntryDTO(*entry))
}

// RejectRedemption rejects a pending request; the hold is released.
func (h *Handler) RejectRedemption(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req DecisionRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	redemption, err := h.Bank.RejectRedemption(r.Context(), id, req.Actor, req.Reason)
	if err != nil {
		h.writeDomainError(w, "Failed to reject redemption", err)
		return
	}
	writeJSON(w, http.StatusOK, redemptionDTO(redemption))
}

// =============================================================================
// CLOSINGS
// =============================================================================

// ClosePeriod settles one half-month period, write-once.
func (h *Handler) ClosePeriod(w http.ResponseWriter, r *http.Request) {
	var req ClosePeriodRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	period := closing.PeriodSpec{
		Year:  req.Year,
		Month: time.Month(req.Month),
		Half:  closing.Half(req.Half),
	}
	result, err := h.Closing.ClosePeriod(r.Context(), bank.EmployeeID(req.EmployeeID), period)
	if err != nil {
		h.writeDomainError(w, "Failed to close period", err)
		return
	}
	writeJSON(w, http.StatusCreated, closingDTO(result))
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// ListHolidays returns all configured festivo dates.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	dates, err := h.Store.ListHolidays(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holidays", err)
		return
	}
	dtos := make([]HolidayDTO, len(dates))
	for i, d := range dates {
		dtos[i] = HolidayDTO{Date: d.Format(dateLayout)}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday adds a festivo date.
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req HolidayRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}
	if err := h.Store.AddHoliday(r.Context(), date, req.Name); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to add holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, HolidayDTO{Date: date.Format(dateLayout)})
}

// DeleteHoliday removes a festivo date.
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse(dateLayout, chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}
	if err := h.Store.DeleteHoliday(r.Context(), date); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete holiday", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

// writeDomainError maps domain sentinels to HTTP status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, bank.ErrNotFound):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, bank.ErrInvalidInput),
		errors.Is(err, schedule.ErrInvalidInterval),
		errors.Is(err, closing.ErrInvalidPeriod):
		writeError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, bank.ErrDuplicateRequest),
		errors.Is(err, bank.ErrInvalidState),
		errors.Is(err, bank.ErrInsufficientBalance),
		errors.Is(err, bank.ErrConcurrentModification),
		errors.Is(err, closing.ErrPeriodClosed):
		writeError(w, http.StatusConflict, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
