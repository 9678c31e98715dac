package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	authdomain "medbs-backend/internal/auth/domain"
	"medbs-backend/pkg/fcm"
	"medbs-backend/pkg/mailer"

	"go.uber.org/zap"
)

// Outcome is the result of one delivery attempt.
type Outcome string

const (
	OutcomeSent    Outcome = "sent"
	OutcomeSkipped Outcome = "skipped" // no target configured, not an error
	OutcomeFailed  Outcome = "failed"
)

// PushSender delivers a push notification to device tokens and returns the
// tokens that were rejected.
type PushSender interface {
	SendToDevices(ctx context.Context, tokens []string, n fcm.NotificationData) ([]string, error)
}

type MailSender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

type UserFinder interface {
	FindByID(ctx context.Context, id string) (*authdomain.User, error)
}

type TokenStore interface {
	GetTokensByUserID(ctx context.Context, userID string) ([]authdomain.FCMToken, error)
	DeleteToken(ctx context.Context, token string) error
}

type Options struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration // per delivery attempt
}

type job struct {
	reminder *ReminderJob
	alert    *CaregiverAlertJob
}

// Dispatcher performs best-effort, single-attempt deliveries. Callers commit
// record state first and then enqueue; the queue is drained by a fixed pool
// of workers, so an enqueue never waits on a transport.
type Dispatcher struct {
	users  UserFinder
	tokens TokenStore
	push   PushSender // nil disables push
	mail   MailSender // nil disables email
	log    *zap.Logger

	timeout     time.Duration
	workerCount int
	queue       chan job
	wg          sync.WaitGroup

	mu      sync.RWMutex
	started bool
	stopped bool
}

func NewDispatcher(users UserFinder, tokens TokenStore, push PushSender, mail MailSender, log *zap.Logger, opts Options) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 3
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 500
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Dispatcher{
		users:       users,
		tokens:      tokens,
		push:        push,
		mail:        mail,
		log:         log.Named("dispatcher"),
		timeout:     opts.Timeout,
		workerCount: opts.Workers,
		queue:       make(chan job, opts.QueueSize),
	}
}

// Start launches the workers. Calling it more than once is a no-op.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.stopped {
		return
	}
	for i := 0; i < d.workerCount; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	d.started = true
	d.log.Info("workers started", zap.Int("workers", d.workerCount))
}

// Stop rejects further jobs, drains the queue and waits for the workers.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	d.log.Info("workers stopped")
}

// EnqueueReminder queues a push reminder without blocking. It reports false
// when the job was dropped.
func (d *Dispatcher) EnqueueReminder(r ReminderJob) bool {
	return d.enqueue(job{reminder: &r}, channelPush)
}

// EnqueueCaregiverAlert queues a caregiver email without blocking. It reports
// false when the job was dropped.
func (d *Dispatcher) EnqueueCaregiverAlert(a CaregiverAlertJob) bool {
	return d.enqueue(job{alert: &a}, channelEmail)
}

func (d *Dispatcher) enqueue(j job, channel string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		DroppedTotal.WithLabelValues(channel).Inc()
		return false
	}
	select {
	case d.queue <- j:
		return true
	default:
		DroppedTotal.WithLabelValues(channel).Inc()
		d.log.Warn("queue full, notification dropped", zap.String("channel", channel))
		return false
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.queue {
		d.run(j)
	}
}

func (d *Dispatcher) run(j job) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("notification panicked", zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	switch {
	case j.reminder != nil:
		d.DispatchReminder(ctx, *j.reminder)
	case j.alert != nil:
		d.DispatchCaregiverAlert(ctx, *j.alert)
	}
}

// DispatchReminder pushes a reminder to every device the user registered.
// A user with no devices is skipped. Rejected tokens are pruned.
func (d *Dispatcher) DispatchReminder(ctx context.Context, r ReminderJob) Outcome {
	log := d.log.With(zap.String("occurrence_id", r.OccurrenceID), zap.String("user_id", r.UserID))

	if d.push == nil {
		return d.record(channelPush, OutcomeSkipped)
	}

	tokens, err := d.tokens.GetTokensByUserID(ctx, r.UserID)
	if err != nil {
		log.Error("load device tokens", zap.Error(err))
		return d.record(channelPush, OutcomeFailed)
	}
	if len(tokens) == 0 {
		return d.record(channelPush, OutcomeSkipped)
	}

	tokenStrings := make([]string, 0, len(tokens))
	for _, t := range tokens {
		tokenStrings = append(tokenStrings, t.Token)
	}

	failedTokens, sendErr := d.push.SendToDevices(ctx, tokenStrings, reminderNotification(r))

	for _, token := range failedTokens {
		if err := d.tokens.DeleteToken(ctx, token); err != nil {
			log.Warn("prune device token", zap.Error(err))
		}
	}

	if sendErr != nil {
		log.Error("push reminder failed", zap.Error(sendErr))
		return d.record(channelPush, OutcomeFailed)
	}
	log.Info("push reminder sent",
		zap.String("medicine", r.MedicineName),
		zap.Int("devices", len(tokenStrings)-len(failedTokens)))
	return d.record(channelPush, OutcomeSent)
}

// DispatchCaregiverAlert emails the user's caregiver once. A user without a
// caregiver address, or an unconfigured mailer, is skipped.
func (d *Dispatcher) DispatchCaregiverAlert(ctx context.Context, a CaregiverAlertJob) Outcome {
	log := d.log.With(zap.String("occurrence_id", a.OccurrenceID), zap.String("user_id", a.UserID))

	if d.mail == nil {
		return d.record(channelEmail, OutcomeSkipped)
	}

	user, err := d.users.FindByID(ctx, a.UserID)
	if err != nil {
		log.Error("load user", zap.Error(err))
		return d.record(channelEmail, OutcomeFailed)
	}
	if user == nil {
		log.Warn("user not found, caregiver alert skipped")
		return d.record(channelEmail, OutcomeSkipped)
	}
	if user.CaregiverEmail == "" {
		return d.record(channelEmail, OutcomeSkipped)
	}

	msg := caregiverAlertMessage(user.CaregiverEmail, user.Name, a)
	if err := d.mail.Send(ctx, msg); err != nil {
		if errors.Is(err, mailer.ErrNotConfigured) {
			log.Warn("email not configured, caregiver alert skipped")
			return d.record(channelEmail, OutcomeSkipped)
		}
		log.Error("caregiver alert failed", zap.Error(err))
		return d.record(channelEmail, OutcomeFailed)
	}
	log.Info("caregiver alert sent", zap.String("medicine", a.MedicineName))
	return d.record(channelEmail, OutcomeSent)
}

func (d *Dispatcher) record(channel string, outcome Outcome) Outcome {
	AttemptsTotal.WithLabelValues(channel, string(outcome)).Inc()
	return outcome
}
