package care

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validation errors surfaced at the form layer before any request is sent.
var (
	ErrEmptyWeekdays   = errors.New("at least one weekday is required")
	ErrEndBeforeStart  = errors.New("end date must not precede start date")
	ErrMissingRequired = errors.New("required field missing")
)

const dateLayout = "2006-01-02"

var weekdays = map[string]struct{}{
	"MONDAY": {}, "TUESDAY": {}, "WEDNESDAY": {}, "THURSDAY": {},
	"FRIDAY": {}, "SATURDAY": {}, "SUNDAY": {},
}

// ValidateWeekdays checks the set is non-empty and every entry is a known day.
func ValidateWeekdays(days []string) error {
	if len(days) == 0 {
		return ErrEmptyWeekdays
	}
	for _, d := range days {
		if _, ok := weekdays[strings.ToUpper(strings.TrimSpace(d))]; !ok {
			return fmt.Errorf("unknown weekday %q", d)
		}
	}
	return nil
}

// ValidateDateRange checks end >= start when both are set. Dates are
// YYYY-MM-DD strings as sent on the wire.
func ValidateDateRange(start, end string) error {
	if start == "" || end == "" {
		return nil
	}
	s, err := time.Parse(dateLayout, start)
	if err != nil {
		return fmt.Errorf("start date: %w", err)
	}
	e, err := time.Parse(dateLayout, end)
	if err != nil {
		return fmt.Errorf("end date: %w", err)
	}
	if e.Before(s) {
		return ErrEndBeforeStart
	}
	return nil
}

// Validate applies client-side checks before the request is dispatched.
func (r AddMedicationRequest) Validate() error {
	if r.Name == "" || r.SeniorID == "" || r.StartDate == "" {
		return ErrMissingRequired
	}
	return ValidateDateRange(r.StartDate, r.EndDate)
}

// Validate checks the date range when the update touches either bound.
func (r UpdateMedicationRequest) Validate() error {
	if r.StartDate != nil && r.EndDate != nil {
		return ValidateDateRange(*r.StartDate, *r.EndDate)
	}
	return nil
}

// Validate applies client-side checks before the request is dispatched.
func (r CreateScheduleRequest) Validate() error {
	if r.MedicationID == "" || r.Time == "" {
		return ErrMissingRequired
	}
	return ValidateWeekdays(r.DaysOfWeek)
}

// Validate checks every slot of a bulk creation.
func (r CreateBulkScheduleRequest) Validate() error {
	if r.MedicationID == "" || len(r.Schedules) == 0 {
		return ErrMissingRequired
	}
	for i, slot := range r.Schedules {
		if slot.Time == "" {
			return fmt.Errorf("slot %d: %w", i, ErrMissingRequired)
		}
		if err := ValidateWeekdays(slot.DaysOfWeek); err != nil {
			return fmt.Errorf("slot %d: %w", i, err)
		}
	}
	return nil
}

// Validate checks the weekday set when the update replaces it.
func (r UpdateScheduleRequest) Validate() error {
	if r.DaysOfWeek != nil {
		return ValidateWeekdays(r.DaysOfWeek)
	}
	return nil
}
