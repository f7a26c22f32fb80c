package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookingKind discriminates the two booking variants stored in one collection.
type BookingKind string

const (
	KindSlot  BookingKind = "slot"
	KindQueue BookingKind = "queue"
)

type BookingStatus string

const (
	StatusBooked    BookingStatus = "Booked"
	StatusCancelled BookingStatus = "Cancelled"
	StatusCompleted BookingStatus = "Completed"
)

// CanTransition reports whether a booking may move from s to next.
// Booked is the only non-terminal state.
func (s BookingStatus) CanTransition(next BookingStatus) bool {
	return s == StatusBooked && (next == StatusCancelled || next == StatusCompleted)
}

// Booking is the single persisted reservation record. Exactly one of Slot or
// Queue is set, matching Kind.
type Booking struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Kind      BookingKind        `bson:"kind" json:"kind"`
	Reference string             `bson:"reference" json:"reference"` // bookingId or ticketId, unique
	Status    BookingStatus      `bson:"status" json:"status"`
	Slot      *SlotReservation   `bson:"slot,omitempty" json:"slot,omitempty"`
	Queue     *QueueTicket       `bson:"queue,omitempty" json:"queue,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// SlotReservation is the capacity-bound variant.
type SlotReservation struct {
	SlotID         primitive.ObjectID `bson:"slotId" json:"slotId"`
	User           Pilgrim            `bson:"user" json:"user"`
	NumberOfPeople int                `bson:"numberOfPeople" json:"numberOfPeople"`
}

// Pilgrim is the contact snapshot taken at booking time. The national id is
// kept only as a bcrypt hash plus its last four digits.
type Pilgrim struct {
	FullName      string `bson:"fullName" json:"fullName"`
	Phone         string `bson:"phone" json:"phone"`
	Email         string `bson:"email,omitempty" json:"email,omitempty"`
	AadhaarLast4  string `bson:"aadhaarLast4" json:"aadhaarLast4"`
	AadhaarDigest string `bson:"aadhaarDigest" json:"-"`
}

// QueueTicket is the capacity-unconstrained temple queue variant.
type QueueTicket struct {
	TempleName string `bson:"templeName" json:"templeName"`
	Name       string `bson:"name" json:"name"`
	Phone      string `bson:"phone" json:"phone"`
	Persons    int    `bson:"persons" json:"persons"`
	Date       string `bson:"date" json:"date"`
	GateNumber string `bson:"gateNumber" json:"gateNumber"`
}

// PartySize is the number of persons the booking covers.
func (b Booking) PartySize() int {
	switch {
	case b.Slot != nil:
		return b.Slot.NumberOfPeople
	case b.Queue != nil:
		return b.Queue.Persons
	}
	return 0
}

// BookingFilter narrows booking listings. Zero values match everything.
type BookingFilter struct {
	Kind   BookingKind   `form:"kind"`
	Status BookingStatus `form:"status"`
}

func (f BookingFilter) Matches(b Booking) bool {
	return (f.Kind == "" || f.Kind == b.Kind) && (f.Status == "" || f.Status == b.Status)
}
