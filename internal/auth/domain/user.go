package domain

import "time"

// User is the notification target for a patient. Profile and credentials are
// managed by the auth subsystem; adherence code only reads it by ID.
type User struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	Email          string    `json:"email" gorm:"uniqueIndex;not null"`
	Name           string    `json:"name"`
	CaregiverEmail string    `json:"caregiver_email,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
