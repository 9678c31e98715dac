package usecase

import (
	"context"
	"time"

	"medbs-backend/internal/adherence/domain"
)

// AdherenceUsecase defines the acknowledgement and reporting operations on
// dose occurrences. Every operation is scoped to the calling user.
type AdherenceUsecase interface {
	// CreateManualOccurrence logs a dose for one of the user's medicines.
	CreateManualOccurrence(ctx context.Context, userID string, req ManualLogRequest) (*domain.DoseOccurrence, error)

	// MarkTaken sets taken and stamps or clears takenAt. alertSent is left as is.
	MarkTaken(ctx context.Context, userID, occurrenceID string, taken bool) (*domain.DoseOccurrence, error)

	// SetSnooze sets snoozed and snoozeUntil.
	SetSnooze(ctx context.Context, userID, occurrenceID string, snoozed bool, until *time.Time) (*domain.DoseOccurrence, error)

	// UpdateOccurrence applies the taken and snooze changes present in req.
	UpdateOccurrence(ctx context.Context, userID, occurrenceID string, req UpdateRequest) (*domain.DoseOccurrence, error)

	// BulkConfirmToday marks every pending, unsnoozed occurrence of today as
	// taken when command is a confirmation phrase.
	BulkConfirmToday(ctx context.Context, userID, command string) (*BulkConfirmResult, error)

	// ListOccurrences returns the user's occurrences newest first, optionally
	// limited to one day and one medicine.
	ListOccurrences(ctx context.Context, userID string, date, medicineID string) ([]*domain.DoseOccurrence, error)

	// ComputeAdherenceStats aggregates the last windowDays days. A
	// non-positive window uses DefaultStatsWindow.
	ComputeAdherenceStats(ctx context.Context, userID string, windowDays int) (*domain.AdherenceStats, error)
}

const DefaultStatsWindow = 7

// ManualLogRequest represents a dose logged by hand
type ManualLogRequest struct {
	MedicineID    string  `json:"medicine_id" binding:"required"`
	Date          string  `json:"date"`           // YYYY-MM-DD or RFC3339, defaults to today
	ScheduledTime *string `json:"scheduled_time"` // HH:MM
	Taken         *bool   `json:"taken"`          // defaults to true
}

// UpdateRequest represents the acknowledgement fields that can be changed
type UpdateRequest struct {
	Taken       *bool      `json:"taken,omitempty"`
	Snoozed     *bool      `json:"snoozed,omitempty"`
	SnoozeUntil *time.Time `json:"snooze_until,omitempty"`
}

type BulkConfirmResult struct {
	Recognized bool   `json:"recognized"`
	Count      int64  `json:"count"`
	Message    string `json:"message"`
}
