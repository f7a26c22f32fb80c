package bookingRepo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/kishan2613/Sarthi/apperror"
	"github.com/kishan2613/Sarthi/database"
	slotRepo "github.com/kishan2613/Sarthi/database/repository/slot"
	"github.com/kishan2613/Sarthi/models"
)

// Reserve implements CapacityLedger.
func (r *MongoBookingRepo) Reserve(ctx context.Context, booking *models.Booking) (*models.Slot, error) {
	if booking.Kind != models.KindSlot || booking.Slot == nil {
		return nil, apperror.Validation("only slot bookings consume slot capacity")
	}
	stamp(booking)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if r.transactional {
		return r.reserveTransactionally(ctx, booking)
	}
	return r.reserveWithCompensation(ctx, booking)
}

// Cancel implements CapacityLedger.
func (r *MongoBookingRepo) Cancel(ctx context.Context, id string) (*models.Booking, *models.Slot, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if r.transactional {
		return r.cancelTransactionally(ctx, oid)
	}
	return r.cancelWithCompensation(ctx, oid)
}

// admit adds the party to the slot in one conditional write. The filter only
// matches while booked+persons <= capacity, so concurrent admissions can
// never overshoot.
func (r *MongoBookingRepo) admit(ctx context.Context, booking *models.Booking) (*models.Slot, error) {
	persons := booking.Slot.NumberOfPeople
	filter := bson.M{
		"_id":   booking.Slot.SlotID,
		"$expr": slotRepo.FitsExpr(persons),
	}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "booked", Value: bson.D{{Key: "$add", Value: bson.A{"$booked", persons}}}},
			{Key: "bookings", Value: bson.D{{Key: "$concatArrays", Value: bson.A{slotRepo.BookingsOrEmpty(), bson.A{booking.ID}}}}},
			{Key: "updatedAt", Value: booking.UpdatedAt},
		}}},
		slotRepo.StatusStage(),
	}

	var slot models.Slot
	err := r.slots.FindOneAndUpdate(ctx, filter, pipeline,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&slot)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, r.explainRejection(ctx, booking.Slot.SlotID, persons)
	}
	if err != nil {
		return nil, database.TranslateError(err, "slot")
	}
	return &slot, nil
}

// explainRejection tells a missing slot apart from a full one.
func (r *MongoBookingRepo) explainRejection(ctx context.Context, slotID primitive.ObjectID, persons int) error {
	var current models.Slot
	if err := r.slots.FindOne(ctx, bson.M{"_id": slotID}).Decode(&current); err != nil {
		return database.TranslateError(err, "slot")
	}
	return apperror.Newf(apperror.CodeSlotFull,
		"slot has %d place(s) left, %d requested", current.Remaining(), persons)
}

// release hands a booking's places back to its slot. The filter requires the
// booking to still be listed on the slot, which makes a repeated release a
// no-op. When nothing matched, the slot is returned unchanged.
func (r *MongoBookingRepo) release(ctx context.Context, slotID, bookingID primitive.ObjectID, persons int) (*models.Slot, error) {
	filter := bson.M{"_id": slotID, "bookings": bookingID}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "booked", Value: bson.D{{Key: "$max", Value: bson.A{
				0,
				bson.D{{Key: "$subtract", Value: bson.A{"$booked", persons}}},
			}}}},
			{Key: "bookings", Value: bson.D{{Key: "$filter", Value: bson.D{
				{Key: "input", Value: slotRepo.BookingsOrEmpty()},
				{Key: "as", Value: "b"},
				{Key: "cond", Value: bson.D{{Key: "$ne", Value: bson.A{"$$b", bookingID}}}},
			}}}},
			{Key: "updatedAt", Value: time.Now().UTC()},
		}}},
		slotRepo.StatusStage(),
	}

	var slot models.Slot
	err := r.slots.FindOneAndUpdate(ctx, filter, pipeline,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&slot)
	if errors.Is(err, mongo.ErrNoDocuments) {
		err = r.slots.FindOne(ctx, bson.M{"_id": slotID}).Decode(&slot)
	}
	if err != nil {
		return nil, database.TranslateError(err, "slot")
	}
	return &slot, nil
}

// reserveWithCompensation is used when the deployment has no transactions:
// admit first, and undo the admission if the booking was not stored. When
// the insert outcome is ambiguous the booking is looked up before anything
// is undone.
func (r *MongoBookingRepo) reserveWithCompensation(ctx context.Context, booking *models.Booking) (*models.Slot, error) {
	slot, err := r.admit(ctx, booking)
	if err != nil {
		return nil, err
	}

	_, err = r.coll.InsertOne(ctx, booking)
	if err == nil {
		return slot, nil
	}

	rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()
	log := r.logger.With(
		zap.String("slotId", booking.Slot.SlotID.Hex()),
		zap.String("bookingId", booking.ID.Hex()),
		zap.Int("persons", booking.Slot.NumberOfPeople),
	)

	if ambiguousWrite(err) {
		found, lookupErr := r.stored(rbCtx, booking.ID)
		if lookupErr != nil {
			log.Error("booking insert outcome unknown, slot admission kept", zap.Error(err), zap.NamedError("lookupError", lookupErr))
			return nil, insertError(err, booking.Reference)
		}
		if found {
			log.Warn("booking insert reported an error but was applied", zap.Error(err))
			return slot, nil
		}
	}

	if _, rbErr := r.release(rbCtx, booking.Slot.SlotID, booking.ID, booking.Slot.NumberOfPeople); rbErr != nil {
		log.Error("failed to roll back slot admission", zap.Error(rbErr))
	}
	return nil, insertError(err, booking.Reference)
}

// ambiguousWrite reports whether a failed write may still have been applied
// by the server.
func ambiguousWrite(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		mongo.IsTimeout(err) ||
		mongo.IsNetworkError(err)
}

func (r *MongoBookingRepo) stored(ctx context.Context, id primitive.ObjectID) (bool, error) {
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *MongoBookingRepo) cancelWithCompensation(ctx context.Context, oid primitive.ObjectID) (*models.Booking, *models.Slot, error) {
	booking, err := r.swapStatus(ctx, oid, models.StatusBooked, models.StatusCancelled)
	if err != nil {
		return nil, nil, err
	}
	if booking.Slot == nil {
		return booking, nil, nil
	}

	slot, err := r.release(ctx, booking.Slot.SlotID, booking.ID, booking.Slot.NumberOfPeople)
	if err != nil {
		rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		if _, rbErr := r.swapStatus(rbCtx, oid, models.StatusCancelled, models.StatusBooked); rbErr != nil {
			r.logger.Error("failed to restore booking status after release failure",
				zap.String("bookingId", oid.Hex()),
				zap.Error(rbErr),
			)
		}
		return nil, nil, err
	}
	return booking, slot, nil
}
