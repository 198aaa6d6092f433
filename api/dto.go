/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

CLOCK FORMAT:
  Shift and window boundaries travel as "HH:MM" clock strings and are
  converted to minutes of day at the boundary. Dates travel as
  "2006-01-02".

VALIDATION:
  Request structs carry go-playground/validator tags; decodeJSON in
  handlers.go runs them before any domain call.

SEE ALSO:
  - handlers.go: Uses these types
  - server.go: Route definitions
*/
package api

import (
	"fmt"
	"time"

	"github.com/warp/overtime-engine/bank"
	"github.com/warp/overtime-engine/classify"
	"github.com/warp/overtime-engine/closing"
	"github.com/warp/overtime-engine/schedule"
)

const dateLayout = "2006-01-02"

// =============================================================================
// SCHEDULE TYPES
// =============================================================================

// ShiftDTO is one sub-range of a day, clock-formatted.
type ShiftDTO struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start,omitempty"`
	End     string `json:"end,omitempty"`
}

func (s ShiftDTO) toDomain() (schedule.Shift, error) {
	out := schedule.Shift{Enabled: s.Enabled}
	if s.Start == "" && s.End == "" {
		return out, nil
	}
	start, err := schedule.ClockMinutes(s.Start)
	if err != nil {
		return schedule.Shift{}, err
	}
	end, err := schedule.ClockMinutes(s.End)
	if err != nil {
		return schedule.Shift{}, err
	}
	out.Start, out.End = start, end
	return out, nil
}

func shiftDTO(s schedule.Shift) ShiftDTO {
	out := ShiftDTO{Enabled: s.Enabled}
	if s.Start != 0 || s.End != 0 {
		out.Start = clockString(s.Start)
		out.End = clockString(s.End)
	}
	return out
}

// DayScheduleDTO is a single day's template.
type DayScheduleDTO struct {
	Enabled   bool     `json:"enabled"`
	Morning   ShiftDTO `json:"morning"`
	Afternoon ShiftDTO `json:"afternoon"`
}

func (d DayScheduleDTO) toDomain() (schedule.DaySchedule, error) {
	morning, err := d.Morning.toDomain()
	if err != nil {
		return schedule.DaySchedule{}, err
	}
	afternoon, err := d.Afternoon.toDomain()
	if err != nil {
		return schedule.DaySchedule{}, err
	}
	return schedule.DaySchedule{Enabled: d.Enabled, Morning: morning, Afternoon: afternoon}, nil
}

func dayScheduleDTO(d schedule.DaySchedule) DayScheduleDTO {
	return DayScheduleDTO{
		Enabled:   d.Enabled,
		Morning:   shiftDTO(d.Morning),
		Afternoon: shiftDTO(d.Afternoon),
	}
}

// WeekScheduleDTO is keyed by weekday, Sunday first to match
// time.Weekday indexing.
type WeekScheduleDTO struct {
	Sunday    DayScheduleDTO `json:"sunday"`
	Monday    DayScheduleDTO `json:"monday"`
	Tuesday   DayScheduleDTO `json:"tuesday"`
	Wednesday DayScheduleDTO `json:"wednesday"`
	Thursday  DayScheduleDTO `json:"thursday"`
	Friday    DayScheduleDTO `json:"friday"`
	Saturday  DayScheduleDTO `json:"saturday"`
}

func (w WeekScheduleDTO) toDomain() (schedule.WeekSchedule, error) {
	var out schedule.WeekSchedule
	days := [7]DayScheduleDTO{w.Sunday, w.Monday, w.Tuesday, w.Wednesday, w.Thursday, w.Friday, w.Saturday}
	for i, d := range days {
		day, err := d.toDomain()
		if err != nil {
			return schedule.WeekSchedule{}, err
		}
		out[i] = day
	}
	return out, nil
}

func weekScheduleDTO(w schedule.WeekSchedule) WeekScheduleDTO {
	return WeekScheduleDTO{
		Sunday:    dayScheduleDTO(w[0]),
		Monday:    dayScheduleDTO(w[1]),
		Tuesday:   dayScheduleDTO(w[2]),
		Wednesday: dayScheduleDTO(w[3]),
		Thursday:  dayScheduleDTO(w[4]),
		Friday:    dayScheduleDTO(w[5]),
		Saturday:  dayScheduleDTO(w[6]),
	}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// CreateEmployeeRequest registers a profile with its contracted schedule.
type CreateEmployeeRequest struct {
	ID       string          `json:"id" validate:"required"`
	Name     string          `json:"name" validate:"required"`
	Salary   string          `json:"salary" validate:"required"`
	Schedule WeekScheduleDTO `json:"schedule"`
}

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Salary       string          `json:"salary"`
	Schedule     WeekScheduleDTO `json:"schedule"`
	WeeklyHours  string          `json:"weekly_hours"`
	MonthlyHours string          `json:"monthly_hours"`
	HourlyRate   string          `json:"hourly_rate"`
}

func employeeDTO(p bank.EmployeeProfile) EmployeeDTO {
	return EmployeeDTO{
		ID:           string(p.ID),
		Name:         p.Name,
		Salary:       p.Salary.String(),
		Schedule:     weekScheduleDTO(p.FixedSchedule),
		WeeklyHours:  p.Rate.WeeklyHours.String(),
		MonthlyHours: p.Rate.MonthlyHours.String(),
		HourlyRate:   p.Rate.HourlyRate.String(),
	}
}

// =============================================================================
// RECORDED DAYS AND BANKING
// =============================================================================

// RegisterDayRequest records a worked day for classification.
type RegisterDayRequest struct {
	EmployeeID string         `json:"employee_id" validate:"required"`
	Date       string         `json:"date" validate:"required"`
	Worked     DayScheduleDTO `json:"worked"`
	Holiday    bool           `json:"holiday"`
}

// ClassifyRequest is the stateless classification preview.
type ClassifyRequest struct {
	Worked  DayScheduleDTO `json:"worked"`
	Fixed   DayScheduleDTO `json:"fixed"`
	Holiday bool           `json:"holiday"`
}

// DayDTO represents a recorded day with its banking state.
type DayDTO struct {
	ID             string             `json:"id"`
	EmployeeID     string             `json:"employee_id"`
	Date           string             `json:"date"`
	Holiday        bool               `json:"holiday"`
	Worked         DayScheduleDTO     `json:"worked"`
	Breakdown      classify.Breakdown `json:"breakdown"`
	Banking        string             `json:"banking"`
	Desglose       map[string]int     `json:"desglose,omitempty"`
	Credited       map[string]int     `json:"credited,omitempty"`
	PendingMinutes int                `json:"pending_minutes"`
	CreatedAt      string             `json:"created_at"`
}

func dayDTO(d *bank.RecordedDay) DayDTO {
	return DayDTO{
		ID:             d.ID,
		EmployeeID:     string(d.EmployeeID),
		Date:           d.Date.Format(dateLayout),
		Holiday:        d.Holiday,
		Worked:         dayScheduleDTO(d.Worked),
		Breakdown:      d.Breakdown,
		Banking:        string(d.Banking),
		Desglose:       desgloseMap(d.Desglose),
		Credited:       desgloseMap(d.Credited),
		PendingMinutes: d.PendingMinutes(),
		CreatedAt:      d.CreatedAt.Format(time.RFC3339),
	}
}

func desgloseMap(d bank.Desglose) map[string]int {
	if len(d) == 0 {
		return nil
	}
	out := make(map[string]int, len(d))
	for k, v := range d {
		out[string(k)] = v
	}
	return out
}

// BankingRequest asks to bank overtime minutes per bucket.
type BankingRequest struct {
	EmployeeID string         `json:"employee_id" validate:"required"`
	Buckets    map[string]int `json:"buckets" validate:"required"`
	AsOf       string         `json:"as_of,omitempty"`
}

// AllocationDTO is one day's share of a banking request.
type AllocationDTO struct {
	DayID string         `json:"day_id"`
	Taken map[string]int `json:"taken"`
}

// BankingResultDTO reports what was allocated and what could not be.
type BankingResultDTO struct {
	Allocations []AllocationDTO `json:"allocations"`
	Unallocated map[string]int  `json:"unallocated,omitempty"`
}

// DecisionRequest carries the acting user for approve/reject calls.
type DecisionRequest struct {
	Actor  string `json:"actor" validate:"required"`
	Reason string `json:"reason,omitempty"`
}

// =============================================================================
// REDEMPTIONS
// =============================================================================

// RedeemRequest spends banked minutes as time off.
type RedeemRequest struct {
	EmployeeID  string `json:"employee_id" validate:"required"`
	Date        string `json:"date" validate:"required"`
	Minutes     int    `json:"minutes" validate:"required,gt=0"`
	WindowStart string `json:"window_start" validate:"required"`
	WindowEnd   string `json:"window_end" validate:"required"`
	Reason      string `json:"reason,omitempty"`
	Approver    string `json:"approver,omitempty"`
}

// RedemptionDTO represents a redemption request.
type RedemptionDTO struct {
	ID              string `json:"id"`
	EmployeeID      string `json:"employee_id"`
	Date            string `json:"date"`
	Minutes         int    `json:"minutes"`
	WindowStart     string `json:"window_start"`
	WindowEnd       string `json:"window_end"`
	Reason          string `json:"reason,omitempty"`
	State           string `json:"state"`
	AutoApproved    bool   `json:"auto_approved"`
	ApprovedBy      string `json:"approved_by,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`
	CreatedAt       string `json:"created_at"`
	DecidedAt       string `json:"decided_at,omitempty"`
}

func redemptionDTO(r *bank.RedemptionRequest) RedemptionDTO {
	dto := RedemptionDTO{
		ID:              r.ID,
		EmployeeID:      string(r.EmployeeID),
		Date:            r.Date.Format(dateLayout),
		Minutes:         r.Minutes,
		WindowStart:     clockString(r.Window.Start),
		WindowEnd:       clockString(r.Window.End),
		Reason:          r.Reason,
		State:           string(r.State),
		AutoApproved:    r.AutoApproved,
		ApprovedBy:      r.ApprovedBy,
		RejectionReason: r.RejectionReason,
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
	}
	if !r.DecidedAt.IsZero() {
		dto.DecidedAt = r.DecidedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// BALANCE AND LEDGER
// =============================================================================

// BalanceDTO reports the ledger balance and what is spendable now.
type BalanceDTO struct {
	EmployeeID string `json:"employee_id"`
	Balance    int    `json:"balance"`
	Available  int    `json:"available"`
}

// AdjustRequest applies a manual balance correction.
type AdjustRequest struct {
	Delta  int    `json:"delta" validate:"required"`
	Reason string `json:"reason" validate:"required"`
	Actor  string `json:"actor" validate:"required"`
}

// LedgerEntryDTO is one balance change.
type LedgerEntryDTO struct {
	ID        string `json:"id"`
	Operation string `json:"operation"`
	Delta     int    `json:"delta"`
	Balance   int    `json:"balance"`
	Reference string `json:"reference,omitempty"`
	Actor     string `json:"actor,omitempty"`
	CreatedAt string `json:"created_at"`
}

func ledgerEntryDTO(e bank.LedgerEntry) LedgerEntryDTO {
	return LedgerEntryDTO{
		ID:        e.ID,
		Operation: string(e.Operation),
		Delta:     e.Delta,
		Balance:   e.Balance,
		Reference: e.Reference,
		Actor:     e.Actor,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// CLOSINGS
// =============================================================================

// ClosePeriodRequest settles one half-month period.
type ClosePeriodRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	Year       int    `json:"year" validate:"required,gte=2000"`
	Month      int    `json:"month" validate:"required,gte=1,lte=12"`
	Half       int    `json:"half" validate:"required,gte=1,lte=2"`
}

// ClosingDTO is a settled period snapshot.
type ClosingDTO struct {
	ID               string             `json:"id"`
	EmployeeID       string             `json:"employee_id"`
	Period           string             `json:"period"`
	FixedSurcharges  classify.Breakdown `json:"fixed_surcharges"`
	VariableOvertime classify.Breakdown `json:"variable_overtime"`
	HourlyRate       string             `json:"hourly_rate"`
	FixedValue       string             `json:"fixed_value"`
	VariableValue    string             `json:"variable_value"`
	TotalValue       string             `json:"total_value"`
	CreatedAt        string             `json:"created_at"`
}

func closingDTO(c *closing.Closing) ClosingDTO {
	return ClosingDTO{
		ID:               c.ID,
		EmployeeID:       string(c.EmployeeID),
		Period:           c.Period.String(),
		FixedSurcharges:  c.FixedSurcharges,
		VariableOvertime: c.VariableOvertime,
		HourlyRate:       c.HourlyRate.String(),
		FixedValue:       c.FixedValue.String(),
		VariableValue:    c.VariableValue.String(),
		TotalValue:       c.TotalValue.String(),
		CreatedAt:        c.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// HolidayRequest adds one festivo date.
type HolidayRequest struct {
	Date string `json:"date" validate:"required"`
	Name string `json:"name,omitempty"`
}

// HolidayDTO is one configured festivo date.
type HolidayDTO struct {
	Date string `json:"date"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// HELPERS
// =============================================================================

func clockString(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	minutes %= schedule.MinutesPerDay
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
