// models/booking_response.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SlotBookingView is the wire shape of a slot booking, mirroring the
// request body the booking form sends.
type SlotBookingView struct {
	ID             primitive.ObjectID `json:"_id"`
	Kind           BookingKind        `json:"kind"`
	BookingID      string             `json:"bookingId"`
	User           PilgrimView        `json:"user"`
	Slot           string             `json:"slot"`
	BookingDetails BookingDetails     `json:"bookingDetails"`
	Status         BookingStatus      `json:"status"`
	CreatedAt      time.Time          `json:"createdAt"`
}

type PilgrimView struct {
	FullName      string `json:"fullName"`
	Phone         string `json:"phone"`
	Email         string `json:"email,omitempty"`
	AadhaarNumber string `json:"aadhaarNumber"` // masked
}

// QueueTicketView is the wire shape of a queue ticket.
type QueueTicketView struct {
	ID         primitive.ObjectID `json:"_id"`
	Kind       BookingKind        `json:"kind"`
	TempleName string             `json:"templeName"`
	Name       string             `json:"name"`
	Phone      string             `json:"phone"`
	Persons    int                `json:"persons"`
	Date       string             `json:"date"`
	TicketID   string             `json:"ticketId"`
	GateNumber string             `json:"gateNumber"`
	Status     BookingStatus      `json:"status"`
	CreatedAt  time.Time          `json:"createdAt"`
}

// SlotBookingResponse is returned by POST /api/slots/book.
type SlotBookingResponse struct {
	Message     string          `json:"message"`
	Booking     SlotBookingView `json:"booking"`
	UpdatedSlot Slot            `json:"updatedSlot"`
}

// QueueBookingResponse is returned by POST /api/queue/form.
type QueueBookingResponse struct {
	Message string          `json:"message"`
	Booking QueueTicketView `json:"booking"`
}

// MaskAadhaar renders the stored last four digits as XXXX-XXXX-1234.
func MaskAadhaar(last4 string) string {
	if last4 == "" {
		return ""
	}
	return "XXXX-XXXX-" + last4
}

func (b Booking) SlotView() SlotBookingView {
	v := SlotBookingView{
		ID:        b.ID,
		Kind:      b.Kind,
		BookingID: b.Reference,
		Status:    b.Status,
		CreatedAt: b.CreatedAt,
	}
	if r := b.Slot; r != nil {
		v.Slot = r.SlotID.Hex()
		v.BookingDetails = BookingDetails{NumberOfPeople: r.NumberOfPeople}
		v.User = PilgrimView{
			FullName:      r.User.FullName,
			Phone:         r.User.Phone,
			Email:         r.User.Email,
			AadhaarNumber: MaskAadhaar(r.User.AadhaarLast4),
		}
	}
	return v
}

func (b Booking) QueueView() QueueTicketView {
	v := QueueTicketView{
		ID:        b.ID,
		Kind:      b.Kind,
		TicketID:  b.Reference,
		Status:    b.Status,
		CreatedAt: b.CreatedAt,
	}
	if q := b.Queue; q != nil {
		v.TempleName = q.TempleName
		v.Name = q.Name
		v.Phone = q.Phone
		v.Persons = q.Persons
		v.Date = q.Date
		v.GateNumber = q.GateNumber
	}
	return v
}

// View picks the wire shape matching the booking kind.
func (b Booking) View() any {
	if b.Kind == KindQueue {
		return b.QueueView()
	}
	return b.SlotView()
}

func BookingViews(bookings []Booking) []any {
	out := make([]any, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, b.View())
	}
	return out
}

func QueueViews(bookings []Booking) []QueueTicketView {
	out := make([]QueueTicketView, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, b.QueueView())
	}
	return out
}
