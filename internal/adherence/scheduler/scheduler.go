package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"medbs-backend/internal/adherence/domain"
	"medbs-backend/internal/adherence/repository"
	medicinedomain "medbs-backend/internal/medicine/domain"
	medicinerepo "medbs-backend/internal/medicine/repository"
	"medbs-backend/internal/notification"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier accepts notification work without blocking the caller.
type Notifier interface {
	EnqueueReminder(job notification.ReminderJob) bool
	EnqueueCaregiverAlert(job notification.CaregiverAlertJob) bool
}

type Options struct {
	MatchInterval time.Duration
	SweepInterval time.Duration
	GracePeriod   time.Duration
	Location      *time.Location
	// ReleaseExpiredSnoozes un-snoozes occurrences whose snoozeUntil has
	// passed at the start of every sweep.
	ReleaseExpiredSnoozes bool
	Now                   func() time.Time
}

// Engine runs the two periodic adherence tasks: the timing matcher creates
// dose occurrences as their slot comes up, and the sweeper escalates
// occurrences left unacknowledged past the grace period.
type Engine struct {
	medicines   medicinerepo.MedicineRepository
	occurrences repository.OccurrenceRepository
	notifier    Notifier
	log         *zap.Logger

	matchInterval  time.Duration
	sweepInterval  time.Duration
	grace          time.Duration
	loc            *time.Location
	releaseSnoozes bool
	now            func() time.Time

	mu       sync.Mutex
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// MatchResult summarizes one matcher tick.
type MatchResult struct {
	Slot     string
	Matched  int
	Created  int
	Existing int
	Failed   int
	Err      error // set when the tick aborted before processing medicines
}

// SweepResult summarizes one sweeper tick.
type SweepResult struct {
	Candidates int
	Alerted    int
	Orphaned   int
	Skipped    int // already flagged by a concurrent sweep
	Failed     int
	Released   int64
	Err        error
}

func NewEngine(
	medicines medicinerepo.MedicineRepository,
	occurrences repository.OccurrenceRepository,
	notifier Notifier,
	log *zap.Logger,
	opts Options,
) *Engine {
	if opts.MatchInterval <= 0 {
		opts.MatchInterval = time.Minute
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 15 * time.Minute
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = 15 * time.Minute
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		medicines:      medicines,
		occurrences:    occurrences,
		notifier:       notifier,
		log:            log.Named("scheduler"),
		matchInterval:  opts.MatchInterval,
		sweepInterval:  opts.SweepInterval,
		grace:          opts.GracePeriod,
		loc:            opts.Location,
		releaseSnoozes: opts.ReleaseExpiredSnoozes,
		now:            opts.Now,
	}
}

// Start launches both periodic tasks. Each runs once immediately and then on
// its interval until Stop is called or ctx is cancelled.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopChan != nil {
		return
	}
	stop := make(chan struct{})
	e.stopChan = stop

	e.log.Info("starting",
		zap.Duration("match_interval", e.matchInterval),
		zap.Duration("sweep_interval", e.sweepInterval),
		zap.Duration("grace_period", e.grace),
		zap.String("timezone", e.loc.String()))

	e.wg.Add(2)
	go e.loop(ctx, stop, taskMatch, e.matchInterval, func(ctx context.Context) { e.MatchTick(ctx) })
	go e.loop(ctx, stop, taskSweep, e.sweepInterval, func(ctx context.Context) { e.SweepTick(ctx) })
}

// Stop halts both tasks and waits for an in-flight tick to finish.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.stopChan == nil {
		e.mu.Unlock()
		return
	}
	close(e.stopChan)
	e.stopChan = nil
	e.mu.Unlock()

	e.wg.Wait()
	e.log.Info("stopped")
}

func (e *Engine) loop(ctx context.Context, stop <-chan struct{}, task string, interval time.Duration, tick func(context.Context)) {
	defer e.wg.Done()

	e.safeTick(ctx, task, tick)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.safeTick(ctx, task, tick)
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// safeTick keeps a panicking tick from taking the loop down with it.
func (e *Engine) safeTick(ctx context.Context, task string, tick func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			TickErrorsTotal.WithLabelValues(task).Inc()
			e.log.Error("tick panicked", zap.String("task", task), zap.Any("panic", r))
		}
	}()
	tick(ctx)
}

// protect turns a panic in one item into an error for that item.
func protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// MatchTick creates today's occurrence for every active medicine scheduled at
// the current minute, at most once per (medicine, day, slot), and queues a
// reminder for each one it creates.
func (e *Engine) MatchTick(ctx context.Context) MatchResult {
	now := e.now().In(e.loc)
	slot := domain.SlotLabel(now)
	dayStart := domain.DayStart(now, e.loc)
	result := MatchResult{Slot: slot}

	medicines, err := e.medicines.ListActiveForSlot(ctx, slot, now)
	if err != nil {
		TickErrorsTotal.WithLabelValues(taskMatch).Inc()
		e.log.Error("list schedules for slot", zap.String("slot", slot), zap.Error(err))
		result.Err = err
		return result
	}

	seen := make(map[string]bool, len(medicines))
	for _, med := range medicines {
		if seen[med.ID] {
			continue
		}
		seen[med.ID] = true
		result.Matched++

		var created bool
		err := protect(func() (err error) {
			created, err = e.matchOne(ctx, med, slot, dayStart, now)
			return err
		})
		switch {
		case err != nil:
			result.Failed++
			e.log.Error("create occurrence",
				zap.String("medicine_id", med.ID),
				zap.String("slot", slot),
				zap.Error(err))
		case created:
			result.Created++
		default:
			result.Existing++
		}
	}

	if result.Matched > 0 {
		e.log.Info("match tick",
			zap.String("slot", slot),
			zap.Int("matched", result.Matched),
			zap.Int("created", result.Created),
			zap.Int("failed", result.Failed))
	}
	return result
}

func (e *Engine) matchOne(ctx context.Context, med *medicinedomain.Medicine, slot string, dayStart, now time.Time) (bool, error) {
	existing, err := e.occurrences.FindForSlot(ctx, med.ID, dayStart, slot)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	scheduled := slot
	occ := &domain.DoseOccurrence{
		ID:            uuid.New().String(),
		MedicineID:    med.ID,
		UserID:        med.UserID,
		Date:          dayStart,
		ScheduledTime: &scheduled,
		CreatedAt:     now,
	}
	created, err := e.occurrences.CreateIfAbsent(ctx, occ)
	if err != nil || !created {
		return false, err
	}
	OccurrencesCreatedTotal.Inc()

	// The row is committed; the reminder is best-effort from here on.
	if !e.notifier.EnqueueReminder(notification.ReminderJob{
		OccurrenceID:  occ.ID,
		UserID:        med.UserID,
		MedicineID:    med.ID,
		MedicineName:  med.Name,
		Dosage:        med.Dosage,
		ScheduledTime: slot,
	}) {
		e.log.Warn("reminder not queued", zap.String("occurrence_id", occ.ID))
	}
	return true, nil
}

// SweepTick flags every occurrence from today that is still pending and
// unsnoozed after the grace period and queues one caregiver alert for it.
// The flag is committed before the alert is attempted, so a failing email
// channel cannot cause repeated alerts.
func (e *Engine) SweepTick(ctx context.Context) SweepResult {
	now := e.now().In(e.loc)
	threshold := now.Add(-e.grace)
	dayStart := domain.DayStart(now, e.loc)
	var result SweepResult

	if e.releaseSnoozes {
		released, err := e.occurrences.ReleaseExpiredSnoozes(ctx, now)
		if err != nil {
			e.log.Error("release expired snoozes", zap.Error(err))
		}
		result.Released = released
	}

	missed, err := e.occurrences.FindMissed(ctx, dayStart, threshold)
	if err != nil {
		TickErrorsTotal.WithLabelValues(taskSweep).Inc()
		e.log.Error("find missed occurrences", zap.Error(err))
		result.Err = err
		return result
	}
	result.Candidates = len(missed)

	for _, occ := range missed {
		var outcome sweepOutcome
		err := protect(func() (err error) {
			outcome, err = e.sweepOne(ctx, occ)
			return err
		})
		if err != nil {
			result.Failed++
			e.log.Error("escalate missed occurrence",
				zap.String("occurrence_id", occ.ID),
				zap.String("medicine_id", occ.MedicineID),
				zap.Error(err))
			continue
		}
		switch outcome {
		case sweepAlerted:
			result.Alerted++
		case sweepOrphaned:
			result.Orphaned++
		case sweepSkipped:
			result.Skipped++
		}
	}

	if result.Candidates > 0 {
		e.log.Info("sweep tick",
			zap.Int("candidates", result.Candidates),
			zap.Int("alerted", result.Alerted),
			zap.Int("orphaned", result.Orphaned),
			zap.Int("failed", result.Failed))
	}
	return result
}

type sweepOutcome int

const (
	sweepAlerted sweepOutcome = iota
	sweepOrphaned
	sweepSkipped
)

func (e *Engine) sweepOne(ctx context.Context, occ *domain.DoseOccurrence) (sweepOutcome, error) {
	med, err := e.medicines.FindByID(ctx, occ.MedicineID)
	if err != nil {
		return 0, err
	}
	if med == nil {
		e.log.Warn("occurrence references missing medicine",
			zap.String("occurrence_id", occ.ID),
			zap.String("medicine_id", occ.MedicineID))
		return sweepOrphaned, nil
	}

	marked, err := e.occurrences.MarkAlertSent(ctx, occ.ID)
	if err != nil {
		return 0, err
	}
	if !marked {
		return sweepSkipped, nil
	}
	AlertsMarkedTotal.Inc()

	if !e.notifier.EnqueueCaregiverAlert(notification.CaregiverAlertJob{
		OccurrenceID:  occ.ID,
		UserID:        occ.UserID,
		MedicineName:  med.Name,
		ScheduledTime: occ.Slot(),
		Date:          occ.Date,
	}) {
		e.log.Warn("caregiver alert not queued", zap.String("occurrence_id", occ.ID))
	}
	return sweepAlerted, nil
}
