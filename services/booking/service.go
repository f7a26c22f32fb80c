package booking

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/kishan2613/Sarthi/apperror"
	bookingRepo "github.com/kishan2613/Sarthi/database/repository/booking"
	slotRepo "github.com/kishan2613/Sarthi/database/repository/slot"
	"github.com/kishan2613/Sarthi/models"
)

// DefaultBookingService implements BookingService. Cache and Events are
// optional.
type DefaultBookingService struct {
	Repo       bookingRepo.BookingRepository
	Accountant *CapacityAccountant
	Issuer     *TicketIssuer
	Identity   IdentityProtector
	Cache      SlotCache
	Events     EventPublisher
	Logger     *zap.Logger
}

func (s *DefaultBookingService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *DefaultBookingService) BookSlot(ctx context.Context, req models.SlotBookingRequest) (*models.Booking, *models.Slot, error) {
	// Step 1: reject bad input before anything is written.
	if err := models.ValidateStruct(req); err != nil {
		return nil, nil, err
	}
	slotID, err := slotRepo.ParseID(strings.TrimSpace(req.Slot))
	if err != nil {
		return nil, nil, err
	}

	// Step 2: snapshot the pilgrim.
	pilgrim, err := s.Identity.Snapshot(req.User)
	if err != nil {
		return nil, nil, err
	}

	// Step 3: issue the booking id.
	b := &models.Booking{
		Kind:   models.KindSlot,
		Status: models.StatusBooked,
		Slot: &models.SlotReservation{
			SlotID:         slotID,
			User:           pilgrim,
			NumberOfPeople: req.BookingDetails.NumberOfPeople,
		},
	}
	if err := s.Issuer.Issue(b); err != nil {
		return nil, nil, err
	}

	// Step 4: admit against capacity and persist, as one unit.
	slot, err := s.Accountant.Admit(ctx, b)
	if err != nil {
		return nil, nil, err
	}

	s.invalidate(ctx)
	s.publish(ctx, *b, slot)
	s.logger().Info("slot booking created",
		zap.String("reference", b.Reference),
		zap.String("slotId", slot.ID.Hex()),
		zap.Int("persons", b.Slot.NumberOfPeople),
	)
	return b, slot, nil
}

func (s *DefaultBookingService) BookQueueTicket(ctx context.Context, req models.QueueBookingRequest) (*models.Booking, error) {
	if err := models.ValidateStruct(req); err != nil {
		return nil, err
	}
	date, err := models.NormalizeDate(req.Date)
	if err != nil {
		return nil, apperror.Validation(err.Error())
	}
	gate := strings.TrimSpace(req.GateNumber)
	if gate != "" && !s.Issuer.IsGate(gate) {
		return nil, apperror.Newf(apperror.CodeValidation, "gateNumber must be one of %s", strings.Join(s.Issuer.Gates(), ", "))
	}

	b := &models.Booking{
		Kind:      models.KindQueue,
		Reference: strings.TrimSpace(req.TicketID),
		Status:    models.StatusBooked,
		Queue: &models.QueueTicket{
			TempleName: strings.TrimSpace(req.TempleName),
			Name:       strings.TrimSpace(req.UserName),
			Phone:      strings.TrimSpace(req.Phone),
			Persons:    req.NumberOfPersons,
			Date:       date,
			GateNumber: gate,
		},
	}
	if err := s.Issuer.Issue(b); err != nil {
		return nil, err
	}
	if err := s.Repo.Insert(ctx, b); err != nil {
		return nil, err
	}

	s.publish(ctx, *b, nil)
	s.logger().Info("queue ticket issued",
		zap.String("ticketId", b.Reference),
		zap.String("gate", b.Queue.GateNumber),
		zap.Int("persons", b.Queue.Persons),
	)
	return b, nil
}

func (s *DefaultBookingService) ListBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	return s.Repo.List(ctx, filter)
}

func (s *DefaultBookingService) GetBooking(ctx context.Context, reference string) (*models.Booking, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, apperror.Validation("reference is required")
	}
	return s.Repo.GetByReference(ctx, reference)
}

func (s *DefaultBookingService) UpdateStatus(ctx context.Context, id string, to models.BookingStatus) (*models.Booking, error) {
	if to != models.StatusCancelled && to != models.StatusCompleted {
		return nil, apperror.Newf(apperror.CodeValidation, "status must be %s or %s", models.StatusCancelled, models.StatusCompleted)
	}

	current, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransition(to) {
		return nil, apperror.Newf(apperror.CodeConflict, "booking is %s and cannot become %s", current.Status, to)
	}

	var updated *models.Booking
	if to == models.StatusCancelled && current.Kind == models.KindSlot {
		updated, _, err = s.Accountant.Release(ctx, id)
		if err != nil {
			return nil, err
		}
		s.invalidate(ctx)
	} else {
		updated, err = s.Repo.UpdateStatus(ctx, id, models.StatusBooked, to)
		if err != nil {
			return nil, err
		}
	}

	if to == models.StatusCancelled && s.Events != nil {
		s.Events.BookingCancelled(ctx, *updated)
	}
	return updated, nil
}

func (s *DefaultBookingService) invalidate(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx); err != nil {
		s.logger().Warn("failed to invalidate slot cache", zap.Error(err))
	}
}

func (s *DefaultBookingService) publish(ctx context.Context, b models.Booking, slot *models.Slot) {
	if s.Events != nil {
		s.Events.BookingCreated(ctx, b, slot)
	}
}
