package bookingRepo

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

var errBookingNotFound = apperror.NotFound("booking not found")

// ParseID converts a hex booking id, reporting malformed ids as not found.
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, errBookingNotFound
	}
	return oid, nil
}

// stamp fills the storage-owned fields of a new booking.
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

// insertError maps a failed booking insert. A duplicate reference is a
// Conflict the caller may retry with a fresh reference.
func insertError(err error, reference string) error {
	if mongo.IsDuplicateKeyError(err) {
		return apperror.Wrap(err, apperror.CodeConflict, "booking reference "+reference+" already exists")
	}
	return database.TranslateError(err, "booking")
}

func (r *MongoBookingRepo) Insert(ctx context.Context, booking *models.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	stamp(booking)
	if _, err := r.coll.InsertOne(ctx, booking); err != nil {
		return insertError(err, booking.Reference)
	}
	return nil
}

func (r *MongoBookingRepo) findOne(ctx context.Context, filter bson.M) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var b models.Booking
	if err := r.coll.FindOne(ctx, filter).Decode(&b); err != nil {
		return nil, database.TranslateError(err, "booking")
	}
	return &b, nil
}

func (r *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoBookingRepo) GetByReference(ctx context.Context, reference string) (*models.Booking, error) {
	return r.findOne(ctx, bson.M{"reference": reference})
}

func (r *MongoBookingRepo) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	q := bson.M{}
	if filter.Kind != "" {
		q["kind"] = filter.Kind
	}
	if filter.Status != "" {
		q["status"] = filter.Status
	}

	cursor, err := r.coll.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, database.TranslateError(err, "booking")
	}
	defer cursor.Close(ctx)

	bookings := []models.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, database.TranslateError(err, "booking")
	}
	return bookings, nil
}

// UpdateStatus moves a booking from one status to another with a
// compare-and-set on the current status.
func (r *MongoBookingRepo) UpdateStatus(ctx context.Context, id string, from, to models.BookingStatus) (*models.Booking, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return r.swapStatus(ctx, oid, from, to)
}

func (r *MongoBookingRepo) swapStatus(ctx context.Context, oid primitive.ObjectID, from, to models.BookingStatus) (*models.Booking, error) {
	filter := bson.M{"_id": oid, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now().UTC()}}

	var b models.Booking
	err := r.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, r.explainStatusMiss(ctx, oid, to)
	}
	if err != nil {
		return nil, database.TranslateError(err, "booking")
	}
	return &b, nil
}

func (r *MongoBookingRepo) explainStatusMiss(ctx context.Context, oid primitive.ObjectID, to models.BookingStatus) error {
	var current models.Booking
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&current); err != nil {
		return database.TranslateError(err, "booking")
	}
	return apperror.Newf(apperror.CodeConflict, "booking is %s and cannot become %s", current.Status, to)
}
