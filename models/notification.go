package models

import "time"

// BookingNotice is the payload carried by booking notification tasks.
type BookingNotice struct {
	BookingID  string        `json:"bookingId"`
	Reference  string        `json:"reference"`
	Kind       BookingKind   `json:"kind"`
	Name       string        `json:"name"`
	Phone      string        `json:"phone"`
	Email      string        `json:"email,omitempty"`
	Persons    int           `json:"persons"`
	Date       string        `json:"date"`
	Time       string        `json:"time,omitempty"`
	Ghat       string        `json:"ghat,omitempty"`
	TempleName string        `json:"templeName,omitempty"`
	GateNumber string        `json:"gateNumber,omitempty"`
	Status     BookingStatus `json:"status"`
}

// Notification is what a notifier delivers to a pilgrim.
type Notification struct {
	Type      string        `json:"type"`
	Title     string        `json:"title"`
	Body      string        `json:"body"`
	Notice    BookingNotice `json:"notice"`
	CreatedAt time.Time     `json:"createdAt"`
}

// NoticeFor builds the notification payload for a booking. slot may be nil
// for queue tickets.
func NoticeFor(b Booking, slot *Slot) BookingNotice {
	n := BookingNotice{
		BookingID: b.ID.Hex(),
		Reference: b.Reference,
		Kind:      b.Kind,
		Persons:   b.PartySize(),
		Status:    b.Status,
	}
	if r := b.Slot; r != nil {
		n.Name = r.User.FullName
		n.Phone = r.User.Phone
		n.Email = r.User.Email
	}
	if slot != nil {
		n.Date = slot.Date
		n.Time = slot.Time
		n.Ghat = slot.Ghat
	}
	if q := b.Queue; q != nil {
		n.Name = q.Name
		n.Phone = q.Phone
		n.Date = q.Date
		n.TempleName = q.TempleName
		n.GateNumber = q.GateNumber
	}
	return n
}
