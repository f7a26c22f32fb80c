package booking

import (
	"context"

	"go.uber.org/zap"

	"github.com/kishan2613/Sarthi/apperror"
	bookingRepo "github.com/kishan2613/Sarthi/database/repository/booking"
	"github.com/kishan2613/Sarthi/models"
)

// MaxPartySize bounds a single slot booking.
const MaxPartySize = 10

// CapacityAccountant owns every change to a slot's booked count. Admission
// is atomic and rejecting: a party that does not fit fails with SLOT_FULL
// and leaves the slot untouched.
type CapacityAccountant struct {
	Ledger bookingRepo.CapacityLedger
	Logger *zap.Logger
}

func NewCapacityAccountant(ledger bookingRepo.CapacityLedger, logger *zap.Logger) *CapacityAccountant {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CapacityAccountant{Ledger: ledger, Logger: logger}
}

// Admit reserves places for a slot booking and persists it.
func (a *CapacityAccountant) Admit(ctx context.Context, b *models.Booking) (*models.Slot, error) {
	if b.Kind != models.KindSlot || b.Slot == nil {
		return nil, apperror.Validation("booking does not reference a slot")
	}
	if n := b.Slot.NumberOfPeople; n < 1 || n > MaxPartySize {
		return nil, apperror.Newf(apperror.CodeValidation, "numberOfPeople must be between 1 and %d", MaxPartySize)
	}

	slot, err := a.Ledger.Reserve(ctx, b)
	if err != nil {
		a.Logger.Info("slot admission refused",
			zap.String("slotId", b.Slot.SlotID.Hex()),
			zap.Int("persons", b.Slot.NumberOfPeople),
			zap.String("code", string(apperror.CodeOf(err))),
			zap.Error(err),
		)
		return nil, err
	}

	a.Logger.Info("slot admission accepted",
		zap.String("slotId", slot.ID.Hex()),
		zap.String("reference", b.Reference),
		zap.Int("persons", b.Slot.NumberOfPeople),
		zap.Int("booked", slot.Booked),
		zap.Int("capacity", slot.Capacity),
		zap.String("status", string(slot.Status)),
	)
	return slot, nil
}

// Release cancels a booking and returns its places to the slot.
func (a *CapacityAccountant) Release(ctx context.Context, bookingID string) (*models.Booking, *models.Slot, error) {
	b, slot, err := a.Ledger.Cancel(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	if slot != nil {
		a.Logger.Info("slot places released",
			zap.String("slotId", slot.ID.Hex()),
			zap.String("reference", b.Reference),
			zap.Int("persons", b.PartySize()),
			zap.Int("booked", slot.Booked),
			zap.String("status", string(slot.Status)),
		)
	}
	return b, slot, nil
}
