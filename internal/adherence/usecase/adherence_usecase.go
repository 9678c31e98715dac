package usecase

import (
	"context"
	"fmt"
	"time"

	"medbs-backend/internal/adherence/domain"
	"medbs-backend/internal/adherence/repository"
	medicinerepo "medbs-backend/internal/medicine/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// adherenceUsecase implements AdherenceUsecase interface
type adherenceUsecase struct {
	occurrences repository.OccurrenceRepository
	medicines   medicinerepo.MedicineRepository
	log         *zap.Logger
	loc         *time.Location
	now         func() time.Time
}

// NewAdherenceUsecase creates a new instance of adherenceUsecase. Calendar
// days are resolved in loc; now may be nil to use the wall clock.
func NewAdherenceUsecase(
	occurrences repository.OccurrenceRepository,
	medicines medicinerepo.MedicineRepository,
	log *zap.Logger,
	loc *time.Location,
	now func() time.Time,
) AdherenceUsecase {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &adherenceUsecase{
		occurrences: occurrences,
		medicines:   medicines,
		log:         log.Named("adherence"),
		loc:         loc,
		now:         now,
	}
}

func (u *adherenceUsecase) CreateManualOccurrence(ctx context.Context, userID string, req ManualLogRequest) (*domain.DoseOccurrence, error) {
	medicine, err := u.medicines.FindByIDForUser(ctx, req.MedicineID, userID)
	if err != nil {
		return nil, fmt.Errorf("find medicine: %w", err)
	}
	if medicine == nil {
		return nil, domain.ErrMedicineNotFound
	}

	now := u.now()
	day := domain.DayStart(now, u.loc)
	if req.Date != "" {
		if day, err = u.parseDay(req.Date); err != nil {
			return nil, err
		}
	}

	var slot *string
	if req.ScheduledTime != nil && *req.ScheduledTime != "" {
		if !domain.ValidSlot(*req.ScheduledTime) {
			return nil, domain.ErrInvalidSlot
		}
		s := *req.ScheduledTime
		slot = &s
	}

	taken := true
	if req.Taken != nil {
		taken = *req.Taken
	}

	occ := &domain.DoseOccurrence{
		ID:            uuid.New().String(),
		MedicineID:    medicine.ID,
		UserID:        userID,
		Date:          day,
		ScheduledTime: slot,
		Taken:         taken,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if taken {
		occ.TakenAt = &now
	}

	if err := u.occurrences.Create(ctx, occ); err != nil {
		return nil, err
	}
	return occ, nil
}

func (u *adherenceUsecase) MarkTaken(ctx context.Context, userID, occurrenceID string, taken bool) (*domain.DoseOccurrence, error) {
	return u.acknowledge(ctx, userID, occurrenceID, UpdateRequest{Taken: &taken})
}

func (u *adherenceUsecase) SetSnooze(ctx context.Context, userID, occurrenceID string, snoozed bool, until *time.Time) (*domain.DoseOccurrence, error) {
	return u.acknowledge(ctx, userID, occurrenceID, UpdateRequest{Snoozed: &snoozed, SnoozeUntil: until})
}

func (u *adherenceUsecase) UpdateOccurrence(ctx context.Context, userID, occurrenceID string, req UpdateRequest) (*domain.DoseOccurrence, error) {
	if req.Taken == nil && req.Snoozed == nil {
		return nil, domain.ErrEmptyUpdate
	}
	return u.acknowledge(ctx, userID, occurrenceID, req)
}

// acknowledge writes the taken and snooze halves of req together so a sweep
// never observes one without the other.
func (u *adherenceUsecase) acknowledge(ctx context.Context, userID, occurrenceID string, req UpdateRequest) (*domain.DoseOccurrence, error) {
	ack := domain.Acknowledgement{Taken: req.Taken, Snoozed: req.Snoozed}
	if req.Taken != nil && *req.Taken {
		now := u.now()
		ack.TakenAt = &now
	}
	if req.Snoozed != nil && *req.Snoozed {
		ack.SnoozeUntil = req.SnoozeUntil
	}

	occ, err := u.occurrences.Acknowledge(ctx, occurrenceID, userID, ack)
	if err != nil {
		return nil, err
	}
	if occ == nil {
		return nil, domain.ErrOccurrenceNotFound
	}
	return occ, nil
}

func (u *adherenceUsecase) BulkConfirmToday(ctx context.Context, userID, command string) (*BulkConfirmResult, error) {
	if !domain.IsConfirmation(command) {
		return &BulkConfirmResult{Recognized: false, Message: "Could not recognize confirmation."}, nil
	}

	now := u.now()
	start, end := domain.DayBounds(now, u.loc)
	count, err := u.occurrences.ConfirmPending(ctx, userID, start, end, now)
	if err != nil {
		return nil, fmt.Errorf("confirm pending doses: %w", err)
	}

	u.log.Info("bulk confirmation", zap.String("user_id", userID), zap.Int64("count", count))
	return &BulkConfirmResult{
		Recognized: true,
		Count:      count,
		Message:    fmt.Sprintf("Marked %d dose(s) as taken.", count),
	}, nil
}

func (u *adherenceUsecase) ListOccurrences(ctx context.Context, userID string, date, medicineID string) ([]*domain.DoseOccurrence, error) {
	filter := domain.ListFilter{MedicineID: medicineID}
	if date != "" {
		day, err := u.parseDay(date)
		if err != nil {
			return nil, err
		}
		filter.Day = &day
	}
	occurrences, err := u.occurrences.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	summaries := make(map[string]*domain.MedicineSummary)
	for _, occ := range occurrences {
		summary, seen := summaries[occ.MedicineID]
		if !seen {
			medicine, err := u.medicines.FindByIDForUser(ctx, occ.MedicineID, userID)
			if err != nil {
				return nil, fmt.Errorf("find medicine: %w", err)
			}
			if medicine != nil {
				summary = &domain.MedicineSummary{
					ID:     medicine.ID,
					Name:   medicine.Name,
					Dosage: medicine.Dosage,
					Timing: medicine.Timing,
				}
			}
			summaries[occ.MedicineID] = summary
		}
		occ.Medicine = summary
	}
	return occurrences, nil
}

func (u *adherenceUsecase) ComputeAdherenceStats(ctx context.Context, userID string, windowDays int) (*domain.AdherenceStats, error) {
	if windowDays <= 0 {
		windowDays = DefaultStatsWindow
	}
	since := domain.DayStart(u.now(), u.loc).AddDate(0, 0, -windowDays)

	occs, err := u.occurrences.ListSince(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("list occurrences: %w", err)
	}
	stats := domain.ComputeStats(occs, u.loc)
	return &stats, nil
}

// parseDay accepts a calendar date or a timestamp and returns local midnight
// of that day.
func (u *adherenceUsecase) parseDay(value string) (time.Time, error) {
	if t, err := time.ParseInLocation(time.DateOnly, value, u.loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return domain.DayStart(t, u.loc), nil
	}
	return time.Time{}, domain.ErrInvalidDate
}
