package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kishan2613/Sarthi/models"
)

const (
	TypeBookingConfirmed = "booking:confirmed"
	TypeBookingReminder  = "booking:reminder"

	// ReminderHour is the local hour, on the day before the visit, at which
	// reminders fire.
	ReminderHour = 18

	// Queue is the asynq queue notifications are enqueued on.
	Queue = "default"

	maxRetry = 5
)

// ReminderTaskID is the asynq task id of a booking's reminder.
func ReminderTaskID(reference string) string {
	return "reminder:" + reference
}

func NewBookingConfirmedTask(notice models.BookingNotice) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(notice)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeBookingConfirmed, b)
	opts := []asynq.Option{asynq.MaxRetry(maxRetry)}

	return task, opts, nil
}

// NewBookingReminderTask schedules a reminder for fireAt. The task id is
// derived from the reference so a booking is reminded at most once.
func NewBookingReminderTask(notice models.BookingNotice, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(notice)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeBookingReminder, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.TaskID(ReminderTaskID(notice.Reference)),
		asynq.MaxRetry(maxRetry),
	}

	return task, opts, nil
}

// ParseNotice decodes a task payload.
func ParseNotice(task *asynq.Task) (models.BookingNotice, error) {
	var n models.BookingNotice
	if err := json.Unmarshal(task.Payload(), &n); err != nil {
		return n, fmt.Errorf("invalid %s payload: %w", task.Type(), err)
	}
	return n, nil
}

// ReminderTime returns when the reminder for a visit on date should fire.
// ok is false when the date cannot be parsed or the moment has passed.
func ReminderTime(date string, loc *time.Location, now time.Time) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation(models.DateLayout, date, loc)
	if err != nil {
		return time.Time{}, false
	}
	fireAt := time.Date(day.Year(), day.Month(), day.Day()-1, ReminderHour, 0, 0, 0, loc)
	if !fireAt.After(now) {
		return time.Time{}, false
	}
	return fireAt, true
}
