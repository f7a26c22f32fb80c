package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kishan2613/Sarthi/models"
)

const (
	TypeConfirmation = "confirmation"
	TypeReminder     = "reminder"
)

// Notifier delivers a booking notification to the pilgrim.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// Confirmation builds the message sent right after a booking is stored.
func Confirmation(notice models.BookingNotice) models.Notification {
	var body string
	if notice.Kind == models.KindQueue {
		body = fmt.Sprintf("Ticket %s for %d person(s) at %s on %s. Please enter through %s.",
			notice.Reference, notice.Persons, notice.TempleName, notice.Date, notice.GateNumber)
	} else {
		body = fmt.Sprintf("Booking %s for %d person(s) at %s, %s %s is confirmed.",
			notice.Reference, notice.Persons, notice.Ghat, notice.Date, notice.Time)
	}
	return models.Notification{
		Type:      TypeConfirmation,
		Title:     "Booking Successful ✅",
		Body:      body,
		Notice:    notice,
		CreatedAt: time.Now().UTC(),
	}
}

// Reminder builds the message sent on the evening before the visit.
func Reminder(notice models.BookingNotice) models.Notification {
	where := strings.TrimSpace(notice.Ghat + " " + notice.Time)
	if notice.Kind == models.KindQueue {
		where = strings.TrimSpace(notice.TempleName + " via " + notice.GateNumber)
	}
	return models.Notification{
		Type:      TypeReminder,
		Title:     "Your visit is tomorrow",
		Body:      fmt.Sprintf("Reminder: %s, %s. Reference %s.", where, notice.Date, notice.Reference),
		Notice:    notice,
		CreatedAt: time.Now().UTC(),
	}
}
