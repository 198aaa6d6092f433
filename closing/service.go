/*
service.go - ClosePeriod orchestration

FLOW:
  1. Validate the period spec (nothing is written on invalid input).
  2. Resolve the employee's contracted schedule and the hourly rate in
     force at the period end (dated history lookup, current as fallback).
  3. FixedSurcharges over the contracted schedule -> FIXED valuation
     (premium only).
  4. NetOvertime over recorded days in range -> VARIABLE valuation
     (hour plus premium).
  5. Persist exactly one immutable record; a concurrent or repeated
     attempt surfaces ErrPeriodClosed and the first record stands.
*/
package closing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/warp/overtime-engine/bank"
	"github.com/warp/overtime-engine/classify"
	"github.com/warp/overtime-engine/schedule"
	"github.com/warp/overtime-engine/valuation"
)

// Service computes and persists period closings.
type Service struct {
	Days      bank.DayStore
	Directory bank.Directory
	Closings  Store
	Holidays  HolidayCalendar

	Rates       classify.RateTable
	NightWindow schedule.NightWindow

	Now func() time.Time
}

// NewService wires a closing service.
func NewService(days bank.DayStore, directory bank.Directory, closings Store, holidays HolidayCalendar) *Service {
	return &Service{
		Days:      days,
		Directory: directory,
		Closings:  closings,
		Holidays:  holidays,
		Rates:     classify.DefaultRates(),
		Now:       time.Now,
	}
}

// ClosePeriod produces the immutable closing for one employee+period.
func (s *Service) ClosePeriod(ctx context.Context, employeeID bank.EmployeeID, period PeriodSpec) (*Closing, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	profile, err := s.Directory.Employee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	from, to := period.Range()

	fixed := FixedSurcharges(from, to, profile.FixedSchedule, s.NightWindow, s.Holidays)

	days, err := s.Days.DaysInRange(ctx, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	variable := NetOvertime(days)

	rate := profile.RateHistory.At(to, profile.Rate).HourlyRate
	fixedValue := valuation.FixedTotal(fixed, rate, s.Rates)
	variableValue := valuation.VariableTotal(variable, rate, s.Rates)

	c := &Closing{
		ID:               uuid.NewString(),
		EmployeeID:       employeeID,
		Period:           period,
		FixedSurcharges:  fixed,
		VariableOvertime: variable,
		HourlyRate:       rate,
		FixedValue:       fixedValue,
		VariableValue:    variableValue,
		TotalValue:       fixedValue.Add(variableValue),
		CreatedAt:        s.Now(),
	}
	if err := s.Closings.CreateClosing(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ClosingFor returns an existing record for the period.
func (s *Service) ClosingFor(ctx context.Context, employeeID bank.EmployeeID, period PeriodSpec) (*Closing, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	return s.Closings.ClosingFor(ctx, employeeID, period)
}
