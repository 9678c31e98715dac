package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"medbs-backend/internal/adherence/domain"

	"github.com/google/uuid"
)

// MemoryOccurrenceRepository is an in-process OccurrenceRepository with the
// same (medicine, day, slot) uniqueness rule as the Postgres index. It backs
// tests and single-process tooling; rows do not survive a restart.
type MemoryOccurrenceRepository struct {
	mu   sync.Mutex
	rows map[string]*domain.DoseOccurrence
	// Now stamps updated_at; defaults to time.Now.
	Now func() time.Time
}

func NewMemoryOccurrenceRepository() *MemoryOccurrenceRepository {
	return &MemoryOccurrenceRepository{
		rows: make(map[string]*domain.DoseOccurrence),
		Now:  time.Now,
	}
}

type slotKey struct {
	medicineID string
	day        int64
	slot       string
}

func keyOf(o *domain.DoseOccurrence) (slotKey, bool) {
	if o.ScheduledTime == nil {
		return slotKey{}, false
	}
	return slotKey{o.MedicineID, o.Date.Unix(), *o.ScheduledTime}, true
}

// Get returns a copy of the row with id, for assertions.
func (r *MemoryOccurrenceRepository) Get(id string) (*domain.DoseOccurrence, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.rows[id]
	if !ok {
		return nil, false
	}
	return clone(o), true
}

// All returns copies of every row ordered by creation time.
func (r *MemoryOccurrenceRepository) All() []*domain.DoseOccurrence {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.collect(func(*domain.DoseOccurrence) bool { return true })
}

func (r *MemoryOccurrenceRepository) FindForSlot(_ context.Context, medicineID string, dayStart time.Time, slot string) (*domain.DoseOccurrence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dayEnd := dayStart.AddDate(0, 0, 1)
	for _, o := range r.rows {
		if o.MedicineID == medicineID && o.Slot() == slot && !o.Date.Before(dayStart) && o.Date.Before(dayEnd) {
			return clone(o), nil
		}
	}
	return nil, nil
}

func (r *MemoryOccurrenceRepository) CreateIfAbsent(_ context.Context, occ *domain.DoseOccurrence) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflicts(occ) {
		return false, nil
	}
	r.insert(occ)
	return true, nil
}

func (r *MemoryOccurrenceRepository) Create(_ context.Context, occ *domain.DoseOccurrence) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflicts(occ) {
		return domain.ErrOccurrenceExists
	}
	r.insert(occ)
	return nil
}

func (r *MemoryOccurrenceRepository) Acknowledge(_ context.Context, id, userID string, ack domain.Acknowledgement) (*domain.DoseOccurrence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.rows[id]
	if !ok || o.UserID != userID {
		return nil, nil
	}
	if ack.Taken != nil {
		o.Taken = *ack.Taken
		o.TakenAt = ack.TakenAt
	}
	if ack.Snoozed != nil {
		o.Snoozed = *ack.Snoozed
		o.SnoozeUntil = ack.SnoozeUntil
	}
	o.UpdatedAt = r.Now()
	return clone(o), nil
}

func (r *MemoryOccurrenceRepository) ConfirmPending(_ context.Context, userID string, dayStart, dayEnd, takenAt time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, o := range r.rows {
		if o.UserID == userID && !o.Date.Before(dayStart) && o.Date.Before(dayEnd) && !o.Taken && !o.Snoozed {
			at := takenAt
			o.Taken = true
			o.TakenAt = &at
			o.UpdatedAt = r.Now()
			n++
		}
	}
	return n, nil
}

func (r *MemoryOccurrenceRepository) FindMissed(_ context.Context, since, createdBefore time.Time) ([]*domain.DoseOccurrence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.collect(func(o *domain.DoseOccurrence) bool {
		return !o.Taken && !o.Snoozed && !o.AlertSent && !o.Date.Before(since) && !o.CreatedAt.After(createdBefore)
	}), nil
}

func (r *MemoryOccurrenceRepository) MarkAlertSent(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.rows[id]
	if !ok || o.AlertSent || o.Taken || o.Snoozed {
		return false, nil
	}
	o.AlertSent = true
	o.UpdatedAt = r.Now()
	return true, nil
}

func (r *MemoryOccurrenceRepository) ReleaseExpiredSnoozes(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, o := range r.rows {
		if o.Snoozed && o.SnoozeUntil != nil && !o.SnoozeUntil.After(now) {
			o.Snoozed = false
			o.UpdatedAt = r.Now()
			n++
		}
	}
	return n, nil
}

func (r *MemoryOccurrenceRepository) ListByUser(_ context.Context, userID string, filter domain.ListFilter) ([]*domain.DoseOccurrence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := r.collect(func(o *domain.DoseOccurrence) bool {
		if o.UserID != userID {
			return false
		}
		if filter.Day != nil && (o.Date.Before(*filter.Day) || !o.Date.Before(filter.Day.AddDate(0, 0, 1))) {
			return false
		}
		return filter.MedicineID == "" || o.MedicineID == filter.MedicineID
	})
	sort.SliceStable(res, func(i, j int) bool { return res[i].Date.After(res[j].Date) })
	return res, nil
}

func (r *MemoryOccurrenceRepository) ListSince(_ context.Context, userID string, since time.Time) ([]*domain.DoseOccurrence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.collect(func(o *domain.DoseOccurrence) bool {
		return o.UserID == userID && !o.Date.Before(since)
	}), nil
}

func (r *MemoryOccurrenceRepository) conflicts(occ *domain.DoseOccurrence) bool {
	key, ok := keyOf(occ)
	if !ok {
		return false
	}
	for _, o := range r.rows {
		if k, slotted := keyOf(o); slotted && k == key {
			return true
		}
	}
	return false
}

func (r *MemoryOccurrenceRepository) insert(occ *domain.DoseOccurrence) {
	if occ.ID == "" {
		occ.ID = uuid.New().String()
	}
	if occ.CreatedAt.IsZero() {
		occ.CreatedAt = r.Now()
	}
	occ.UpdatedAt = occ.CreatedAt
	r.rows[occ.ID] = clone(occ)
}

func (r *MemoryOccurrenceRepository) collect(keep func(*domain.DoseOccurrence) bool) []*domain.DoseOccurrence {
	var res []*domain.DoseOccurrence
	for _, o := range r.rows {
		if keep(o) {
			res = append(res, clone(o))
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res
}

func clone(o *domain.DoseOccurrence) *domain.DoseOccurrence {
	c := *o
	if o.ScheduledTime != nil {
		s := *o.ScheduledTime
		c.ScheduledTime = &s
	}
	if o.TakenAt != nil {
		t := *o.TakenAt
		c.TakenAt = &t
	}
	if o.SnoozeUntil != nil {
		t := *o.SnoozeUntil
		c.SnoozeUntil = &t
	}
	return &c
}

var _ OccurrenceRepository = (*MemoryOccurrenceRepository)(nil)
