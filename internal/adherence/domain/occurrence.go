package domain

import (
	"errors"
	"time"
)

var (
	ErrOccurrenceNotFound = errors.New("occurrence not found")
	ErrOccurrenceExists   = errors.New("occurrence already exists for this slot")
	ErrMedicineNotFound   = errors.New("medicine not found")
	ErrInvalidSlot        = errors.New("slot label must be HH:MM")
	ErrInvalidDate        = errors.New("date must be YYYY-MM-DD or RFC3339")
	ErrEmptyUpdate        = errors.New("nothing to update")
)

// OccurrenceState is the acknowledgement state of a dose. Alerting is tracked
// separately by AlertSent and may be combined with any state.
type OccurrenceState string

const (
	StatePending OccurrenceState = "pending"
	StateTaken   OccurrenceState = "taken"
	StateSnoozed OccurrenceState = "snoozed"
)

// DoseOccurrence is one concrete dose of a medicine on a calendar day.
// Date is always local midnight of that day. ScheduledTime is nil for
// manual logs that did not name a slot.
type DoseOccurrence struct {
	ID            string     `json:"id" gorm:"primaryKey"`
	MedicineID    string     `json:"medicine_id" gorm:"index:idx_dose_occurrences_medicine_date;not null"`
	UserID        string     `json:"user_id" gorm:"index:idx_dose_occurrences_user_date;not null"`
	Date          time.Time  `json:"date" gorm:"index:idx_dose_occurrences_user_date;index:idx_dose_occurrences_medicine_date;not null"`
	ScheduledTime *string    `json:"scheduled_time,omitempty"`
	Taken         bool       `json:"taken" gorm:"not null;default:false"`
	TakenAt       *time.Time `json:"taken_at,omitempty"`
	Snoozed       bool       `json:"snoozed" gorm:"not null;default:false"`
	SnoozeUntil   *time.Time `json:"snooze_until,omitempty"`
	AlertSent     bool       `json:"alert_sent" gorm:"not null;default:false"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Medicine is filled in for listings and never stored.
	Medicine *MedicineSummary `json:"medicine,omitempty" gorm:"-"`
}

// MedicineSummary is the schedule detail shown alongside a listed occurrence.
type MedicineSummary struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Dosage string   `json:"dosage"`
	Timing []string `json:"timing"`
}

func (o *DoseOccurrence) State() OccurrenceState {
	switch {
	case o.Taken:
		return StateTaken
	case o.Snoozed:
		return StateSnoozed
	default:
		return StatePending
	}
}

// Slot returns the scheduled slot label or "" for unslotted logs.
func (o *DoseOccurrence) Slot() string {
	if o.ScheduledTime == nil {
		return ""
	}
	return *o.ScheduledTime
}

// ListFilter narrows a user's occurrence listing. Zero values mean no filter.
type ListFilter struct {
	Day        *time.Time // local midnight
	MedicineID string
}

// Acknowledgement is a user-driven change to one occurrence, written in a
// single statement. A nil Taken or Snoozed leaves that half untouched;
// TakenAt and SnoozeUntil are written only alongside their flag.
type Acknowledgement struct {
	Taken       *bool
	TakenAt     *time.Time
	Snoozed     *bool
	SnoozeUntil *time.Time
}
