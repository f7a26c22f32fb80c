package bookingRepo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kishan2613/Sarthi/database"
	"github.com/kishan2613/Sarthi/models"
)

// inTransaction runs fn inside a single multi-document transaction. The
// driver reruns fn on TransientTransactionError (a write conflict with a
// concurrent booking) and retries the commit on UnknownTransactionCommitResult,
// until ctx expires.
func (r *MongoBookingRepo) inTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	sess, err := r.coll.Database().Client().StartSession()
	if err != nil {
		return database.TranslateError(err, "session")
	}
	defer sess.EndSession(context.WithoutCancel(ctx))

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, retryable(fn(sc))
	})
	return database.TranslateError(err, "transaction")
}

// retryable surfaces a labelled driver error from under our own wrapping so
// the transaction runner sees its labels.
func retryable(err error) error {
	var le mongo.LabeledError
	if errors.As(err, &le) && le.HasErrorLabel(database.TransientTransactionLabel) {
		return le
	}
	return err
}

func (r *MongoBookingRepo) reserveTransactionally(ctx context.Context, booking *models.Booking) (*models.Slot, error) {
	var slot *models.Slot
	err := r.inTransaction(ctx, func(sc mongo.SessionContext) error {
		slot = nil
		s, err := r.admit(sc, booking)
		if err != nil {
			return err
		}
		if _, err := r.coll.InsertOne(sc, booking); err != nil {
			return insertError(err, booking.Reference)
		}
		slot = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return slot, nil
}

func (r *MongoBookingRepo) cancelTransactionally(ctx context.Context, oid primitive.ObjectID) (*models.Booking, *models.Slot, error) {
	var (
		booking *models.Booking
		slot    *models.Slot
	)
	err := r.inTransaction(ctx, func(sc mongo.SessionContext) error {
		booking, slot = nil, nil
		b, err := r.swapStatus(sc, oid, models.StatusBooked, models.StatusCancelled)
		if err != nil {
			return err
		}
		if b.Slot == nil {
			booking = b
			return nil
		}
		s, err := r.release(sc, b.Slot.SlotID, b.ID, b.Slot.NumberOfPeople)
		if err != nil {
			return err
		}
		booking, slot = b, s
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return booking, slot, nil
}
