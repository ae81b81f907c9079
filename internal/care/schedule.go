package care

import "time"

// MedicationRef is a denormalized id+name+dosage copy of the medication a
// schedule belongs to.
type MedicationRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Dosage   string `json:"dosage"`
	SeniorID string `json:"seniorId"`
}

// Schedule is a recurring dosing slot for a medication. Time is a wall-clock
// HH:MM value with no timezone attached; the weekday set must be non-empty.
type Schedule struct {
	ID                  string         `json:"id"`
	MedicationID        string         `json:"medicationId"`
	Time                string         `json:"time"`
	DaysOfWeek          []string       `json:"daysOfWeek"`
	IsActive            bool           `json:"isActive"`
	NextNotificationDue string         `json:"nextNotificationDue,omitempty"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
	Medication          *MedicationRef `json:"medication,omitempty"`
}

// CreateScheduleRequest creates a single dosing slot.
type CreateScheduleRequest struct {
	MedicationID string   `json:"medicationId"`
	Time         string   `json:"time"`
	DaysOfWeek   []string `json:"daysOfWeek"`
	IsActive     *bool    `json:"isActive,omitempty"`
}

// BulkScheduleSlot is one entry of a bulk schedule creation.
type BulkScheduleSlot struct {
	Time       string   `json:"time"`
	DaysOfWeek []string `json:"daysOfWeek"`
}

// CreateBulkScheduleRequest creates several slots for one medication at once.
type CreateBulkScheduleRequest struct {
	MedicationID string             `json:"medicationId"`
	Schedules    []BulkScheduleSlot `json:"schedules"`
}

// UpdateScheduleRequest carries a partial schedule update.
type UpdateScheduleRequest struct {
	Time       *string  `json:"time,omitempty"`
	DaysOfWeek []string `json:"daysOfWeek,omitempty"`
	IsActive   *bool    `json:"isActive,omitempty"`
}

// ScheduleTemplate is a backend-provided preset of time slots and weekdays.
type ScheduleTemplate struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	TimeSlots   []string `json:"timeSlots"`
	DaysOfWeek  []string `json:"daysOfWeek"`
	IsActive    bool     `json:"isActive"`
}

// ReminderStatus tracks the delivery state of an upcoming dose reminder.
type ReminderStatus string

const (
	ReminderPending   ReminderStatus = "PENDING"
	ReminderSent      ReminderStatus = "SENT"
	ReminderConfirmed ReminderStatus = "CONFIRMED"
	ReminderMissed    ReminderStatus = "MISSED"
)

// ScheduleReminder is an upcoming dose computed by the backend for a user.
type ScheduleReminder struct {
	ID             string         `json:"id"`
	ScheduleID     string         `json:"scheduleId"`
	ScheduledFor   string         `json:"scheduledFor"`
	Status         ReminderStatus `json:"status"`
	MedicationName string         `json:"medicationName"`
	Time           string         `json:"time"`
}

// ScheduleFilter narrows a schedule list request.
type ScheduleFilter struct {
	MedicationID string
	Page         int
	Limit        int
	IsActive     string
}
