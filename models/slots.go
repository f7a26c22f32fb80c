package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SlotStatus string

const (
	SlotAvailable SlotStatus = "Available"
	SlotFull      SlotStatus = "Full"
)

// Slot is a bookable darshan/snan window at one ghat on one day.
// Booked and Bookings are only ever written through the capacity ledger.
type Slot struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Date      string               `bson:"date" json:"date"`         // e.g., "2028-04-10"
	Time      string               `bson:"time" json:"time"`         // display window, e.g., "06:00-07:00"
	Ghat      string               `bson:"ghat" json:"ghat"`         // location label, e.g., "Ram Ghat"
	Capacity  int                  `bson:"capacity" json:"capacity"` // max persons
	Booked    int                  `bson:"booked" json:"booked"`     // persons currently holding a reservation
	Status    SlotStatus           `bson:"status" json:"status"`
	Bookings  []primitive.ObjectID `bson:"bookings" json:"bookings"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// StatusFor derives the slot status from its counters.
func StatusFor(booked, capacity int) SlotStatus {
	if booked >= capacity {
		return SlotFull
	}
	return SlotAvailable
}

// RecomputeStatus must run before every write of a slot.
func (s *Slot) RecomputeStatus() {
	s.Status = StatusFor(s.Booked, s.Capacity)
}

func (s Slot) Remaining() int {
	if r := s.Capacity - s.Booked; r > 0 {
		return r
	}
	return 0
}

func (s Slot) CanAdmit(persons int) bool {
	return persons > 0 && s.Capacity-s.Booked >= persons
}

// Clone returns a copy that does not share the Bookings backing array.
func (s Slot) Clone() Slot {
	c := s
	c.Bookings = append([]primitive.ObjectID(nil), s.Bookings...)
	return c
}

// SlotFilter narrows slot listings. Zero values match everything.
type SlotFilter struct {
	Date   string     `form:"date"`
	Ghat   string     `form:"ghat"`
	Status SlotStatus `form:"status"`
}

func (f SlotFilter) IsZero() bool {
	return f == SlotFilter{}
}

func (f SlotFilter) Matches(s Slot) bool {
	return (f.Date == "" || f.Date == s.Date) &&
		(f.Ghat == "" || f.Ghat == s.Ghat) &&
		(f.Status == "" || f.Status == s.Status)
}

// SlotPatch carries the admin-editable slot fields. Nil means unchanged.
type SlotPatch struct {
	Date     *string
	Time     *string
	Ghat     *string
	Capacity *int
}
