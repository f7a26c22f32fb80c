package memoryRepo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kishan2613/Sarthi/apperror"
	"github.com/kishan2613/Sarthi/models"
)

// BookingStore implements bookingRepo.BookingRepository and
// bookingRepo.CapacityLedger.
type BookingStore struct{ s *Store }

func cloneBooking(b *models.Booking) *models.Booking {
	out := *b
	if b.Slot != nil {
		r := *b.Slot
		out.Slot = &r
	}
	if b.Queue != nil {
		q := *b.Queue
		out.Queue = &q
	}
	return &out
}

func stamp(b *models.Booking) {
	now := time.Now().UTC()
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	if b.Status == "" {
		b.Status = models.StatusBooked
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

func (r *BookingStore) EnsureIndexes(context.Context) error { return nil }

// insertLocked stores b. Callers hold the store mutex.
func (r *BookingStore) insertLocked(b *models.Booking) error {
	if _, taken := r.s.refs[b.Reference]; taken {
		return apperror.Conflict("booking reference " + b.Reference + " already exists")
	}
	if _, taken := r.s.bookings[b.ID]; taken {
		return apperror.Conflict("booking " + b.ID.Hex() + " already exists")
	}
	r.s.bookings[b.ID] = cloneBooking(b)
	r.s.refs[b.Reference] = b.ID
	r.s.order = append(r.s.order, b.ID)
	return nil
}

func (r *BookingStore) Insert(ctx context.Context, booking *models.Booking) error {
	if err := alive(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stamp(booking)
	return r.insertLocked(booking)
}

func (r *BookingStore) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	oid, err := parseID(id, "booking")
	if err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[oid]
	if !ok {
		return nil, apperror.NotFound("booking not found")
	}
	return cloneBooking(b), nil
}

func (r *BookingStore) GetByReference(ctx context.Context, reference string) (*models.Booking, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	oid, ok := r.s.refs[reference]
	if !ok {
		return nil, apperror.NotFound("booking not found")
	}
	return cloneBooking(r.s.bookings[oid]), nil
}

func (r *BookingStore) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []models.Booking{}
	for _, oid := range r.s.order {
		if b := r.s.bookings[oid]; filter.Matches(*b) {
			out = append(out, *cloneBooking(b))
		}
	}
	return out, nil
}

func (r *BookingStore) UpdateStatus(ctx context.Context, id string, from, to models.BookingStatus) (*models.Booking, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	oid, err := parseID(id, "booking")
	if err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.swapStatusLocked(oid, from, to)
}

func (r *BookingStore) swapStatusLocked(oid primitive.ObjectID, from, to models.BookingStatus) (*models.Booking, error) {
	b, ok := r.s.bookings[oid]
	if !ok {
		return nil, apperror.NotFound("booking not found")
	}
	if b.Status != from {
		return nil, apperror.Newf(apperror.CodeConflict, "booking is %s and cannot become %s", b.Status, to)
	}
	b.Status = to
	b.UpdatedAt = time.Now().UTC()
	return cloneBooking(b), nil
}

// Reserve implements CapacityLedger.
func (r *BookingStore) Reserve(ctx context.Context, booking *models.Booking) (*models.Slot, error) {
	if booking.Kind != models.KindSlot || booking.Slot == nil {
		return nil, apperror.Validation("only slot bookings consume slot capacity")
	}
	if err := alive(ctx); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	slot, ok := r.s.slots[booking.Slot.SlotID]
	if !ok {
		return nil, apperror.NotFound("slot not found")
	}
	persons := booking.Slot.NumberOfPeople
	if !slot.CanAdmit(persons) {
		return nil, apperror.Newf(apperror.CodeSlotFull,
			"slot has %d place(s) left, %d requested", slot.Remaining(), persons)
	}

	stamp(booking)
	if err := r.insertLocked(booking); err != nil {
		return nil, err
	}

	slot.Booked += persons
	slot.Bookings = append(slot.Bookings, booking.ID)
	slot.UpdatedAt = booking.UpdatedAt
	slot.RecomputeStatus()

	out := slot.Clone()
	return &out, nil
}

// Cancel implements CapacityLedger.
func (r *BookingStore) Cancel(ctx context.Context, id string) (*models.Booking, *models.Slot, error) {
	if err := alive(ctx); err != nil {
		return nil, nil, err
	}
	oid, err := parseID(id, "booking")
	if err != nil {
		return nil, nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, err := r.swapStatusLocked(oid, models.StatusBooked, models.StatusCancelled)
	if err != nil {
		return nil, nil, err
	}
	if b.Slot == nil {
		return b, nil, nil
	}

	slot, ok := r.s.slots[b.Slot.SlotID]
	if !ok {
		return b, nil, nil
	}
	for i, ref := range slot.Bookings {
		if ref == b.ID {
			slot.Bookings = append(slot.Bookings[:i], slot.Bookings[i+1:]...)
			slot.Booked = max(0, slot.Booked-b.Slot.NumberOfPeople)
			break
		}
	}
	slot.UpdatedAt = b.UpdatedAt
	slot.RecomputeStatus()

	out := slot.Clone()
	return b, &out, nil
}
