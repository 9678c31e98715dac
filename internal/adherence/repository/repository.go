package repository

import (
	"context"
	"time"

	"medbs-backend/internal/adherence/domain"
)

// OccurrenceRepository is the Dose Record Store. Every mutation is a single
// conditional UPDATE so it can interleave safely with the periodic tasks.
type OccurrenceRepository interface {
	// FindForSlot returns the occurrence of medicineID on the day starting at
	// dayStart for slot, or nil, nil if none exists.
	FindForSlot(ctx context.Context, medicineID string, dayStart time.Time, slot string) (*domain.DoseOccurrence, error)

	// CreateIfAbsent inserts occ unless the (medicine, day, slot) uniqueness
	// constraint already holds a row. Reports whether a row was inserted.
	CreateIfAbsent(ctx context.Context, occ *domain.DoseOccurrence) (bool, error)

	// Create inserts occ. A slot conflict yields domain.ErrOccurrenceExists.
	Create(ctx context.Context, occ *domain.DoseOccurrence) error

	// Acknowledge applies ack to an occurrence owned by userID in one
	// statement and returns the row as written, or nil, nil when no such
	// occurrence exists.
	Acknowledge(ctx context.Context, id, userID string, ack domain.Acknowledgement) (*domain.DoseOccurrence, error)

	// ConfirmPending marks every pending, unsnoozed occurrence of userID in
	// [dayStart, dayEnd) as taken at takenAt and returns the affected count.
	ConfirmPending(ctx context.Context, userID string, dayStart, dayEnd, takenAt time.Time) (int64, error)

	// FindMissed returns unacknowledged, unsnoozed, unalerted occurrences dated
	// on or after since and created at or before createdBefore.
	FindMissed(ctx context.Context, since, createdBefore time.Time) ([]*domain.DoseOccurrence, error)

	// MarkAlertSent flips alertSent false->true while the occurrence is still
	// pending and unsnoozed. It reports false when nothing changed.
	MarkAlertSent(ctx context.Context, id string) (bool, error)

	// ReleaseExpiredSnoozes clears snoozed on occurrences whose snoozeUntil is
	// at or before now and returns the affected count.
	ReleaseExpiredSnoozes(ctx context.Context, now time.Time) (int64, error)

	// ListByUser returns userID's occurrences newest first.
	ListByUser(ctx context.Context, userID string, filter domain.ListFilter) ([]*domain.DoseOccurrence, error)

	// ListSince returns userID's occurrences dated on or after since.
	ListSince(ctx context.Context, userID string, since time.Time) ([]*domain.DoseOccurrence, error)
}
