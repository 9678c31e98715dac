package repository

import (
	"context"
	"errors"
	"time"

	"medbs-backend/internal/adherence/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gormOccurrenceRepository implements OccurrenceRepository using GORM
type gormOccurrenceRepository struct {
	db *gorm.DB
}

// NewGormOccurrenceRepository creates a new GORM-based OccurrenceRepository.
// The slot uniqueness index is created by database.Migrate.
func NewGormOccurrenceRepository(db *gorm.DB) OccurrenceRepository {
	return &gormOccurrenceRepository{db: db}
}

func (r *gormOccurrenceRepository) FindForSlot(ctx context.Context, medicineID string, dayStart time.Time, slot string) (*domain.DoseOccurrence, error) {
	var occ domain.DoseOccurrence
	err := r.db.WithContext(ctx).
		Where("medicine_id = ? AND scheduled_time = ? AND date >= ? AND date < ?",
			medicineID, slot, dayStart, dayStart.AddDate(0, 0, 1)).
		First(&occ).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &occ, nil
}

func (r *gormOccurrenceRepository) CreateIfAbsent(ctx context.Context, occ *domain.DoseOccurrence) (bool, error) {
	prepare(occ)
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(occ)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *gormOccurrenceRepository) Create(ctx context.Context, occ *domain.DoseOccurrence) error {
	prepare(occ)
	err := r.db.WithContext(ctx).Create(occ).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrOccurrenceExists
	}
	return err
}

func (r *gormOccurrenceRepository) Acknowledge(ctx context.Context, id, userID string, ack domain.Acknowledgement) (*domain.DoseOccurrence, error) {
	updates := map[string]interface{}{"updated_at": time.Now()}
	if ack.Taken != nil {
		updates["taken"] = *ack.Taken
		updates["taken_at"] = ack.TakenAt
	}
	if ack.Snoozed != nil {
		updates["snoozed"] = *ack.Snoozed
		updates["snooze_until"] = ack.SnoozeUntil
	}

	var occ domain.DoseOccurrence
	res := r.db.WithContext(ctx).Model(&occ).
		Clauses(clause.Returning{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &occ, nil
}

func (r *gormOccurrenceRepository) ConfirmPending(ctx context.Context, userID string, dayStart, dayEnd, takenAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.DoseOccurrence{}).
		Where("user_id = ? AND date >= ? AND date < ? AND taken = ? AND snoozed = ?",
			userID, dayStart, dayEnd, false, false).
		Updates(map[string]interface{}{
			"taken":      true,
			"taken_at":   takenAt,
			"updated_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}

func (r *gormOccurrenceRepository) FindMissed(ctx context.Context, since, createdBefore time.Time) ([]*domain.DoseOccurrence, error) {
	var occurrences []*domain.DoseOccurrence
	err := r.db.WithContext(ctx).
		Where("taken = ? AND snoozed = ? AND alert_sent = ? AND date >= ? AND created_at <= ?",
			false, false, false, since, createdBefore).
		Order("created_at ASC").
		Find(&occurrences).Error
	return occurrences, err
}

func (r *gormOccurrenceRepository) MarkAlertSent(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.DoseOccurrence{}).
		Where("id = ? AND alert_sent = ? AND taken = ? AND snoozed = ?", id, false, false, false).
		Updates(map[string]interface{}{
			"alert_sent": true,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *gormOccurrenceRepository) ReleaseExpiredSnoozes(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.DoseOccurrence{}).
		Where("snoozed = ? AND snooze_until IS NOT NULL AND snooze_until <= ?", true, now).
		Updates(map[string]interface{}{
			"snoozed":    false,
			"updated_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}

func (r *gormOccurrenceRepository) ListByUser(ctx context.Context, userID string, filter domain.ListFilter) ([]*domain.DoseOccurrence, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)

	if filter.Day != nil {
		query = query.Where("date >= ? AND date < ?", *filter.Day, filter.Day.AddDate(0, 0, 1))
	}
	if filter.MedicineID != "" {
		query = query.Where("medicine_id = ?", filter.MedicineID)
	}

	var occurrences []*domain.DoseOccurrence
	err := query.Order("date DESC, scheduled_time DESC, created_at DESC").Find(&occurrences).Error
	return occurrences, err
}

func (r *gormOccurrenceRepository) ListSince(ctx context.Context, userID string, since time.Time) ([]*domain.DoseOccurrence, error) {
	var occurrences []*domain.DoseOccurrence
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date >= ?", userID, since).
		Find(&occurrences).Error
	return occurrences, err
}

func prepare(occ *domain.DoseOccurrence) {
	if occ.ID == "" {
		occ.ID = uuid.New().String()
	}
	if occ.CreatedAt.IsZero() {
		occ.CreatedAt = time.Now()
	}
	occ.UpdatedAt = occ.CreatedAt
}
