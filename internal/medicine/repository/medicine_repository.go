package repository

import (
	"context"
	"errors"
	"time"

	"medbs-backend/internal/medicine/domain"

	"gorm.io/gorm"
)

// MedicineRepository is read access to medication schedules.
type MedicineRepository interface {
	// ListActiveForSlot returns active schedules that include slot and whose
	// validity window contains now, the set domain.Medicine.DueAt accepts.
	ListActiveForSlot(ctx context.Context, slot string, now time.Time) ([]*domain.Medicine, error)

	// FindByID returns nil, nil when the medicine does not exist.
	FindByID(ctx context.Context, id string) (*domain.Medicine, error)

	// FindByIDForUser returns nil, nil when the medicine does not exist or is
	// owned by another user.
	FindByIDForUser(ctx context.Context, id, userID string) (*domain.Medicine, error)
}

type gormMedicineRepository struct {
	db *gorm.DB
}

func NewMedicineRepository(db *gorm.DB) MedicineRepository {
	return &gormMedicineRepository{db: db}
}

func (r *gormMedicineRepository) ListActiveForSlot(ctx context.Context, slot string, now time.Time) ([]*domain.Medicine, error) {
	var medicines []*domain.Medicine
	err := r.db.WithContext(ctx).
		Where("active = ? AND ? = ANY(timing) AND start_date <= ?", true, slot, now).
		Where("end_date IS NULL OR end_date >= ?", now).
		Find(&medicines).Error
	return medicines, err
}

func (r *gormMedicineRepository) FindByID(ctx context.Context, id string) (*domain.Medicine, error) {
	return r.first(ctx, r.db.Where("id = ?", id))
}

func (r *gormMedicineRepository) FindByIDForUser(ctx context.Context, id, userID string) (*domain.Medicine, error) {
	return r.first(ctx, r.db.Where("id = ? AND user_id = ?", id, userID))
}

func (r *gormMedicineRepository) first(ctx context.Context, query *gorm.DB) (*domain.Medicine, error) {
	var medicine domain.Medicine
	err := query.WithContext(ctx).First(&medicine).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &medicine, nil
}
