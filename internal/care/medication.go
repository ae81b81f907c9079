package care

import "time"

// PersonRef is a denormalized id+name copy of a related user. It is a snapshot
// taken by the backend at response time, not a live link.
type PersonRef struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Medication is a prescribed medication owned by a senior and managed by a
// caregiver.
type Medication struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Dosage       string     `json:"dosage"`
	Frequency    string     `json:"frequency"`
	Instructions string     `json:"instructions"`
	StartDate    string     `json:"startDate"`
	EndDate      string     `json:"endDate,omitempty"`
	IsActive     bool       `json:"isActive"`
	SeniorID     string     `json:"seniorId"`
	CaregiverID  string     `json:"caregiverId"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	Senior       *PersonRef `json:"senior,omitempty"`
	Caregiver    *PersonRef `json:"caregiver,omitempty"`
}

// AddMedicationRequest creates a medication for a senior.
type AddMedicationRequest struct {
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	Instructions string `json:"instructions"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate,omitempty"`
	SeniorID     string `json:"seniorId"`
}

// UpdateMedicationRequest carries a partial medication update.
type UpdateMedicationRequest struct {
	Name         *string `json:"name,omitempty"`
	Dosage       *string `json:"dosage,omitempty"`
	Frequency    *string `json:"frequency,omitempty"`
	Instructions *string `json:"instructions,omitempty"`
	StartDate    *string `json:"startDate,omitempty"`
	EndDate      *string `json:"endDate,omitempty"`
	IsActive     *bool   `json:"isActive,omitempty"`
}

// MedicationFilter narrows a medication list request.
type MedicationFilter struct {
	SeniorID string
	Page     int
	Limit    int
	Search   string
	Sort     string
	SortBy   string
	IsActive string
}
