package domain

import (
	"time"

	"github.com/lib/pq"
)

// Medicine is a user's medication schedule. It is owned by the CRUD surface;
// the adherence engine only reads it.
type Medicine struct {
	ID        string         `json:"id" gorm:"primaryKey"`
	UserID    string         `json:"user_id" gorm:"index;not null"`
	Name      string         `json:"name" gorm:"not null"`
	Dosage    string         `json:"dosage" gorm:"not null"`
	Frequency string         `json:"frequency" gorm:"default:once"`
	Timing    pq.StringArray `json:"timing" gorm:"type:text[]"` // "HH:MM" slot labels
	StartDate time.Time      `json:"start_date" gorm:"not null"`
	EndDate   *time.Time     `json:"end_date,omitempty"`
	Notes     string         `json:"notes,omitempty"`
	Active    bool           `json:"active" gorm:"index;default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// HasSlot reports whether slot is one of the schedule's timings.
func (m *Medicine) HasSlot(slot string) bool {
	for _, t := range m.Timing {
		if t == slot {
			return true
		}
	}
	return false
}

// DueAt reports whether the schedule is active at now and includes slot. It
// is the in-process form of the filter ListActiveForSlot runs in SQL.
func (m *Medicine) DueAt(slot string, now time.Time) bool {
	if !m.Active || m.StartDate.After(now) {
		return false
	}
	if m.EndDate != nil && m.EndDate.Before(now) {
		return false
	}
	return m.HasSlot(slot)
}
