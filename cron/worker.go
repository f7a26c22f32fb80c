package cron

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/kishan2613/Sarthi/apperror"
	"github.com/kishan2613/Sarthi/config"
	"github.com/kishan2613/Sarthi/models"
	"github.com/kishan2613/Sarthi/services/notification"
	"github.com/kishan2613/Sarthi/services/tasks"
)

// RedisOpt returns the asynq connection for the notification queue.
func RedisOpt(cfg config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisQueueDB,
	}
}

// BookingLookup reads the current state of a booking before it is notified.
type BookingLookup interface {
	GetByReference(ctx context.Context, reference string) (*models.Booking, error)
}

// NewMux routes notification tasks to the notifier. Notices for bookings
// that are no longer Booked are dropped. bookings may be nil.
func NewMux(notifier notification.Notifier, bookings BookingLookup, logger *zap.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeBookingConfirmed, handleNotice(notifier, bookings, logger, notification.Confirmation))
	mux.HandleFunc(tasks.TypeBookingReminder, handleNotice(notifier, bookings, logger, notification.Reminder))
	return mux
}

// InitNotificationWorker runs the async worker in background until ctx is
// done.
func InitNotificationWorker(ctx context.Context, cfg config.Config, notifier notification.Notifier, bookings BookingLookup, logger *zap.Logger) {
	srv := asynq.NewServer(
		RedisOpt(cfg),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				tasks.Queue: 1,
			},
			Logger: logger.Sugar(),
		},
	)
	mux := NewMux(notifier, bookings, logger)

	go monitorRedisConnection(ctx, cfg, logger)

	go func() {
		logger.Info("starting notification worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Start(mux)
			if err == nil {
				break
			}
			logger.Error("failed to start notification worker",
				zap.Int("attempt", attempts), zap.Int("maxAttempts", maxAttempts), zap.Error(err))
			if attempts == maxAttempts {
				logger.Error("notification worker disabled after max retry attempts")
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(attempts*2) * time.Second):
			}
		}

		<-ctx.Done()
		srv.Shutdown()
		logger.Info("notification worker stopped")
	}()
}

func handleNotice(notifier notification.Notifier, bookings BookingLookup, logger *zap.Logger, build func(models.BookingNotice) models.Notification) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		notice, err := tasks.ParseNotice(task)
		if err != nil {
			logger.Error("dropping task with invalid payload", zap.String("type", task.Type()), zap.Error(err))
			return errors.Join(err, asynq.SkipRetry)
		}

		if bookings != nil {
			b, err := bookings.GetByReference(ctx, notice.Reference)
			switch {
			case errors.Is(err, apperror.ErrNotFound):
				logger.Info("dropping notice for unknown booking", zap.String("reference", notice.Reference))
				return nil
			case err != nil:
				return err
			case b.Status != models.StatusBooked:
				logger.Info("dropping notice for inactive booking",
					zap.String("type", task.Type()),
					zap.String("reference", notice.Reference),
					zap.String("status", string(b.Status)))
				return nil
			}
		}

		if err := notifier.Notify(ctx, build(notice)); err != nil {
			logger.Warn("failed to send notification",
				zap.String("type", task.Type()),
				zap.String("reference", notice.Reference),
				zap.Error(err))
			return err
		}
		return nil
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection(ctx context.Context, cfg config.Config, logger *zap.Logger) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisQueueDB,
	})
	defer client.Close()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Ping(ctx).Err(); err != nil {
				logger.Warn("notification queue redis connection lost", zap.Error(err))
			}
		}
	}
}
