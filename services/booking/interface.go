package booking

import (
	"context"

	"github.com/kishan2613/Sarthi/models"
)

// BookingService is the booking surface used by the HTTP handlers.
type BookingService interface {
	// BookSlot validates the request, issues a reference and admits the
	// party against the slot's remaining capacity.
	BookSlot(ctx context.Context, req models.SlotBookingRequest) (*models.Booking, *models.Slot, error)
	// BookQueueTicket stores a capacity-free queue ticket with a ticket id
	// and gate.
	BookQueueTicket(ctx context.Context, req models.QueueBookingRequest) (*models.Booking, error)
	ListBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error)
	GetBooking(ctx context.Context, reference string) (*models.Booking, error)
	// UpdateStatus moves a Booked booking to Cancelled or Completed.
	UpdateStatus(ctx context.Context, id string, to models.BookingStatus) (*models.Booking, error)
}

// SlotCache is invalidated whenever a booking changes slot counters.
type SlotCache interface {
	Invalidate(ctx context.Context) error
}

// EventPublisher receives booking lifecycle events after they are stored.
// Publishing never fails the request.
type EventPublisher interface {
	BookingCreated(ctx context.Context, b models.Booking, slot *models.Slot)
	BookingCancelled(ctx context.Context, b models.Booking)
}
