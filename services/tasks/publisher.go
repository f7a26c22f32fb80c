package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/kishan2613/Sarthi/models"
)

// Enqueuer is the part of *asynq.Client the publisher needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskRemover is the part of *asynq.Inspector the publisher needs.
type TaskRemover interface {
	DeleteTask(queue, id string) error
}

// AsynqPublisher turns booking events into notification tasks. Enqueue
// failures are logged and never surface to the caller.
type AsynqPublisher struct {
	client   Enqueuer
	remover  TaskRemover
	location *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// NewAsynqPublisher builds the publisher. remover may be nil, in which case
// reminders of cancelled bookings stay queued and are dropped by the worker.
func NewAsynqPublisher(client Enqueuer, remover TaskRemover, loc *time.Location, logger *zap.Logger) *AsynqPublisher {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AsynqPublisher{client: client, remover: remover, location: loc, logger: logger, now: time.Now}
}

func (p *AsynqPublisher) BookingCreated(ctx context.Context, b models.Booking, slot *models.Slot) {
	notice := models.NoticeFor(b, slot)
	log := p.logger.With(zap.String("reference", notice.Reference), zap.String("kind", string(notice.Kind)))

	task, opts, err := NewBookingConfirmedTask(notice)
	if err != nil {
		log.Error("failed to build confirmation task", zap.Error(err))
		return
	}
	if _, err := p.client.EnqueueContext(ctx, task, opts...); err != nil {
		log.Warn("failed to enqueue confirmation", zap.Error(err))
	}

	fireAt, ok := ReminderTime(notice.Date, p.location, p.now())
	if !ok {
		log.Debug("no reminder scheduled", zap.String("date", notice.Date))
		return
	}
	task, opts, err = NewBookingReminderTask(notice, fireAt)
	if err != nil {
		log.Error("failed to build reminder task", zap.Error(err))
		return
	}
	if _, err := p.client.EnqueueContext(ctx, task, opts...); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return
		}
		log.Warn("failed to schedule reminder", zap.Time("fireAt", fireAt), zap.Error(err))
		return
	}
	log.Info("reminder scheduled", zap.Time("fireAt", fireAt))
}

// BookingCancelled removes the booking's pending reminder.
func (p *AsynqPublisher) BookingCancelled(ctx context.Context, b models.Booking) {
	if p.remover == nil {
		return
	}
	err := p.remover.DeleteTask(Queue, ReminderTaskID(b.Reference))
	switch {
	case err == nil:
		p.logger.Info("reminder removed", zap.String("reference", b.Reference))
	case errors.Is(err, asynq.ErrTaskNotFound), errors.Is(err, asynq.ErrQueueNotFound):
	default:
		p.logger.Warn("failed to remove reminder", zap.String("reference", b.Reference), zap.Error(err))
	}
}
