package slotRepo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kishan2613/Sarthi/apperror"
	"github.com/kishan2613/Sarthi/database"
	"github.com/kishan2613/Sarthi/models"
)

var errSlotNotFound = apperror.NotFound("slot not found")

// ParseID converts a hex slot id. Malformed ids cannot exist, so they are
// reported as not found.
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, errSlotNotFound
	}
	return oid, nil
}

func duplicateSlot(date, window, ghat string) error {
	return apperror.Newf(apperror.CodeConflict, "a slot for %s %s at %s already exists", date, window, ghat)
}

func (r *mongoSlotRepo) Create(ctx context.Context, slot *models.Slot) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	now := time.Now().UTC()
	if slot.ID.IsZero() {
		slot.ID = primitive.NewObjectID()
	}
	slot.Booked = 0
	slot.Bookings = []primitive.ObjectID{}
	slot.CreatedAt = now
	slot.UpdatedAt = now
	slot.RecomputeStatus()

	if _, err := r.coll.InsertOne(ctx, slot); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return duplicateSlot(slot.Date, slot.Time, slot.Ghat)
		}
		return database.TranslateError(err, "slot")
	}
	return nil
}

func (r *mongoSlotRepo) GetByID(ctx context.Context, id string) (*models.Slot, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var slot models.Slot
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&slot); err != nil {
		return nil, database.TranslateError(err, "slot")
	}
	return &slot, nil
}

func (r *mongoSlotRepo) List(ctx context.Context, filter models.SlotFilter) ([]models.Slot, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}, {Key: "ghat", Value: 1}})
	cursor, err := r.coll.Find(ctx, filterFor(filter), opts)
	if err != nil {
		return nil, database.TranslateError(err, "slot")
	}
	defer cursor.Close(ctx)

	slots := []models.Slot{}
	if err := cursor.All(ctx, &slots); err != nil {
		return nil, database.TranslateError(err, "slot")
	}
	return slots, nil
}

// Update applies an admin patch and recomputes status in the same write. A
// capacity below the current booked count is refused so accepted bookings
// stay valid.
func (r *mongoSlotRepo) Update(ctx context.Context, id string, patch models.SlotPatch) (*models.Slot, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.M{"_id": oid}
	fields := bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}
	if patch.Date != nil {
		fields = append(fields, bson.E{Key: "date", Value: literal(*patch.Date)})
	}
	if patch.Time != nil {
		fields = append(fields, bson.E{Key: "time", Value: literal(*patch.Time)})
	}
	if patch.Ghat != nil {
		fields = append(fields, bson.E{Key: "ghat", Value: literal(*patch.Ghat)})
	}
	if patch.Capacity != nil {
		fields = append(fields, bson.E{Key: "capacity", Value: *patch.Capacity})
		filter["$expr"] = bson.D{{Key: "$lte", Value: bson.A{"$booked", *patch.Capacity}}}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: fields}},
		StatusStage(),
	}

	var updated models.Slot
	err = r.coll.FindOneAndUpdate(ctx, filter, pipeline,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	switch {
	case err == nil:
		return &updated, nil
	case errors.Is(err, mongo.ErrNoDocuments) && patch.Capacity != nil:
		return nil, r.explainMiss(ctx, oid, *patch.Capacity)
	case mongo.IsDuplicateKeyError(err):
		return nil, apperror.Conflict("another slot already uses this date, time and ghat")
	}
	return nil, database.TranslateError(err, "slot")
}

// literal keeps a pipeline stage from reading a value starting with "$" as a
// field path.
func literal(v any) bson.D {
	return bson.D{{Key: "$literal", Value: v}}
}

// explainMiss decides why a capacity-guarded update matched nothing.
func (r *mongoSlotRepo) explainMiss(ctx context.Context, oid primitive.ObjectID, capacity int) error {
	var current models.Slot
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&current); err != nil {
		return database.TranslateError(err, "slot")
	}
	return apperror.Newf(apperror.CodeConflict,
		"capacity %d is below the %d persons already booked", capacity, current.Booked)
}

