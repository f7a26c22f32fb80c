package bookingRepo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"

	"github.com/kishan2613/Sarthi/apperror"
	slotRepo "github.com/kishan2613/Sarthi/database/repository/slot"
	"github.com/kishan2613/Sarthi/models"
)

func toDoc(t *testing.T, v any) bson.D {
	t.Helper()
	raw, err := bson.Marshal(v)
	require.NoError(t, err)
	var d bson.D
	require.NoError(t, bson.Unmarshal(raw, &d))
	return d
}

func duplicateKey() bson.D {
	return mtest.CreateWriteErrorsResponse(mtest.WriteError{
		Index:   0,
		Code:    11000,
		Message: "E11000 duplicate key error collection: sarthi.bookings index: unique_reference",
	})
}

func slotBooking(slotID primitive.ObjectID, persons int) *models.Booking {
	return &models.Booking{
		Kind:      models.KindSlot,
		Reference: "BKG-LX2J9K1A-7Q2ZD",
		Slot: &models.SlotReservation{
			SlotID:         slotID,
			NumberOfPeople: persons,
			User:           models.Pilgrim{FullName: "Asha Verma", Phone: "9876543210", AadhaarLast4: "9012"},
		},
	}
}

func newRepo(mt *mtest.T) *MongoBookingRepo {
	return NewMongoBookingRepo(mt.DB, time.Second, false, zap.NewNop())
}

func newTxnRepo(mt *mtest.T) *MongoBookingRepo {
	return NewMongoBookingRepo(mt.DB, 5*time.Second, true, zap.NewNop())
}

func writeConflict() bson.D {
	return mtest.CreateCommandErrorResponse(mtest.CommandError{
		Code:    112,
		Name:    "WriteConflict",
		Message: "WriteConflict error: this operation conflicted with another operation",
		Labels:  []string{"TransientTransactionError"},
	})
}

func networkFailure() bson.D {
	return mtest.CreateCommandErrorResponse(mtest.CommandError{
		Code:    6,
		Name:    "HostUnreachable",
		Message: "connection reset by peer",
		Labels:  []string{"NetworkError"},
	})
}

// commandNames lists the commands sent by the client, in order.
func commandNames(mt *mtest.T) []string {
	var names []string
	for _, evt := range mt.GetAllStartedEvents() {
		names = append(names, evt.CommandName)
	}
	return names
}

func TestMongoBookingRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("insert stamps defaults", func(mt *mtest.T) {
		repo := newRepo(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		b := &models.Booking{Kind: models.KindQueue, Reference: "TKT-1", Queue: &models.QueueTicket{Persons: 2}}
		require.NoError(t, repo.Insert(ctx, b))
		assert.False(t, b.ID.IsZero())
		assert.Equal(t, models.StatusBooked, b.Status)
		assert.False(t, b.CreatedAt.IsZero())
	})

	mt.Run("duplicate reference is a conflict", func(mt *mtest.T) {
		repo := newRepo(mt)
		mt.AddMockResponses(duplicateKey())

		err := repo.Insert(ctx, &models.Booking{Kind: models.KindQueue, Reference: "TKT-1"})
		assert.ErrorIs(t, err, apperror.ErrConflict)
	})

	mt.Run("list by kind", func(mt *mtest.T) {
		repo := newRepo(mt)
		ns := mt.DB.Name() + "." + CollectionName
		q := models.Booking{ID: primitive.NewObjectID(), Kind: models.KindQueue, Reference: "TKT-1", Status: models.StatusBooked,
			Queue: &models.QueueTicket{TempleName: "Mahakal", Persons: 3, GateNumber: "Gate-4"}}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toDoc(t, q)))

		out, err := repo.List(ctx, models.BookingFilter{Kind: models.KindQueue})
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "Gate-4", out[0].Queue.GateNumber)
	})

	mt.Run("reserve admits and stores the booking", func(mt *mtest.T) {
		repo := newRepo(mt)
		slotID := primitive.NewObjectID()
		b := slotBooking(slotID, 2)
		after := models.Slot{ID: slotID, Capacity: 2, Booked: 2, Status: models.SlotFull}
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: toDoc(t, after)}),
			mtest.CreateSuccessResponse(),
		)

		slot, err := repo.Reserve(ctx, b)
		require.NoError(t, err)
		assert.Equal(t, 2, slot.Booked)
		assert.Equal(t, models.SlotFull, slot.Status)
		assert.False(t, b.ID.IsZero())
		assert.Equal(t, models.StatusBooked, b.Status)
	})

	mt.Run("reserve on a full slot", func(mt *mtest.T) {
		repo := newRepo(mt)
		slotID := primitive.NewObjectID()
		ns := mt.DB.Name() + "." + slotRepo.CollectionName
		full := models.Slot{ID: slotID, Capacity: 2, Booked: 2, Status: models.SlotFull}
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toDoc(t, full)),
		)

		_, err := repo.Reserve(ctx, slotBooking(slotID, 2))
		require.Error(t, err)
		assert.Equal(t, apperror.CodeSlotFull, apperror.CodeOf(err))
		assert.Contains(t, err.Error(), "0 place(s) left, 2 requested")
	})

	mt.Run("reserve on a missing slot", func(mt *mtest.T) {
		repo := newRepo(mt)
		ns := mt.DB.Name() + "." + slotRepo.CollectionName
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
		)

		_, err := repo.Reserve(ctx, slotBooking(primitive.NewObjectID(), 1))
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	mt.Run("reserve rolls back the slot when the insert collides", func(mt *mtest.T) {
		repo := newRepo(mt)
		slotID := primitive.NewObjectID()
		admitted := models.Slot{ID: slotID, Capacity: 5, Booked: 3, Status: models.SlotAvailable}
		released := models.Slot{ID: slotID, Capacity: 5, Booked: 1, Status: models.SlotAvailable}
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: toDoc(t, admitted)}),
			duplicateKey(),
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: toDoc(t, released)}),
		)

		_, err := repo.Reserve(ctx, slotBooking(slotID, 2))
		assert.ErrorIs(t, err, apperror.ErrConflict)
		assert.Contains(t, err.Error(), "BKG-LX2J9K1A-7Q2ZD")
	})

	mt.Run("queue bookings never touch the ledger", func(mt *mtest.T) {
		repo := newRepo(mt)
		_, err := repo.Reserve(ctx, &models.Booking{Kind: models.KindQueue})
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})

	mt.Run("cancel releases places", func(mt *mtest.T) {
		repo := newRepo(mt)
		slotID := primitive.NewObjectID()
		cancelled := slotBooking(slotID, 2)
		cancelled.ID = primitive.NewObjectID()
		cancelled.Status = models.StatusCancelled
		released := models.Slot{ID: slotID, Capacity: 2, Booked: 0, Status: models.SlotAvailable}
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: toDoc(t, cancelled)}),
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: toDoc(t, released)}),
		)

		b, slot, err := repo.Cancel(ctx, cancelled.ID.Hex())
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, b.Status)
		assert.Equal(t, 0, slot.Booked)
		assert.Equal(t, models.SlotAvailable, slot.Status)
	})

	mt.Run("cancel of a completed booking is a conflict", func(mt *mtest.T) {
		repo := newRepo(mt)
		done := slotBooking(primitive.NewObjectID(), 1)
		done.ID = primitive.NewObjectID()
		done.Status = models.StatusCompleted
		ns := mt.DB.Name() + "." + CollectionName
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toDoc(t, done)),
		)

		_, _, err := repo.Cancel(ctx, done.ID.Hex())
		assert.ErrorIs(t, err, apperror.ErrConflict)
	})

	mt.Run("reserve keeps the admission when an ambiguous insert was applied", func(mt *mtest.T) {
		repo := newRepo(mt)
		slotID := primitive.NewObjectID()
		b := slotBooking(slotID, 2)
		b.ID = primitive.NewObjectID()
		admitted := models.Slot{ID: slotID, Capacity: 5, Booked: 2, Status: models.SlotAvailable}
		ns := mt.DB.Name() + "." + CollectionName
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: toDoc(t, admitted)}),
			networkFailure(),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toDoc(t, b)),
		)

		slot, err := repo.Reserve(ctx, b)
		require.NoError(t, err)
		assert.Equal(t, 2, slot.Booked)
		assert.Equal(t, []string{"findAndModify", "insert", "find"}, commandNames(mt))
	})

	mt.Run("reserve releases after an ambiguous insert that was not applied", func(mt *mtest.T) {
		repo := newRepo(mt)
		slotID := primitive.NewObjectID()
		admitted := models.Slot{ID: slotID, Capacity: 5, Booked: 2, Status: models.SlotAvailable}
		released := models.Slot{ID: slotID, Capacity: 5, Booked: 0, Status: models.SlotAvailable}
		ns := mt.DB.Name() + "." + CollectionName
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: toDoc(t, admitted)}),
			networkFailure(),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: toDoc(t, released)}),
		)

		_, err := repo.Reserve(ctx, slotBooking(slotID, 2))
		assert.ErrorIs(t, err, apperror.ErrUnavailable)
		assert.Equal(t, []string{"findAndModify", "insert", "find", "findAndModify"}, commandNames(mt))
	})
}

func TestMongoBookingRepoTransactions(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("reserve commits admission and booking together", func(mt *mtest.T) {
		repo := newTxnRepo(mt)
		slotID := primitive.NewObjectID()
		after := models.Slot{ID: slotID, Capacity: 4, Booked: 2, Status: models.SlotAvailable}
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: toDoc(t, after)}),
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(),
		)

		slot, err := repo.Reserve(ctx, slotBooking(slotID, 2))
		require.NoError(t, err)
		assert.Equal(t, 2, slot.Booked)
		assert.Equal(t, []string{"findAndModify", "insert", "commitTransaction"}, commandNames(mt))
	})

	mt.Run("duplicate reference aborts without touching the slot again", func(mt *mtest.T) {
		repo := newTxnRepo(mt)
		slotID := primitive.NewObjectID()
		admitted := models.Slot{ID: slotID, Capacity: 4, Booked: 2, Status: models.SlotAvailable}
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: toDoc(t, admitted)}),
			duplicateKey(),
			mtest.CreateSuccessResponse(),
		)

		_, err := repo.Reserve(ctx, slotBooking(slotID, 2))
		assert.ErrorIs(t, err, apperror.ErrConflict)
		assert.Equal(t, []string{"findAndModify", "insert", "abortTransaction"}, commandNames(mt))
	})

	mt.Run("write conflict with a concurrent booking is retried", func(mt *mtest.T) {
		repo := newTxnRepo(mt)
		slotID := primitive.NewObjectID()
		after := models.Slot{ID: slotID, Capacity: 4, Booked: 4, Status: models.SlotFull}
		mt.AddMockResponses(
			writeConflict(),
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: toDoc(t, after)}),
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(),
		)

		slot, err := repo.Reserve(ctx, slotBooking(slotID, 2))
		require.NoError(t, err)
		assert.Equal(t, 4, slot.Booked)
		assert.Equal(t, models.SlotFull, slot.Status)
		assert.Equal(t,
			[]string{"findAndModify", "abortTransaction", "findAndModify", "insert", "commitTransaction"},
			commandNames(mt))
	})

	mt.Run("cancel releases places in one transaction", func(mt *mtest.T) {
		repo := newTxnRepo(mt)
		slotID := primitive.NewObjectID()
		cancelled := slotBooking(slotID, 2)
		cancelled.ID = primitive.NewObjectID()
		cancelled.Status = models.StatusCancelled
		released := models.Slot{ID: slotID, Capacity: 2, Booked: 0, Status: models.SlotAvailable}
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: toDoc(t, cancelled)}),
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: toDoc(t, released)}),
			mtest.CreateSuccessResponse(),
		)

		b, slot, err := repo.Cancel(ctx, cancelled.ID.Hex())
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, b.Status)
		assert.Equal(t, 0, slot.Booked)
		assert.Equal(t, []string{"findAndModify", "findAndModify", "commitTransaction"}, commandNames(mt))
	})
}
