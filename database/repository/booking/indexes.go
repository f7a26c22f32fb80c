package bookingRepo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes on the bookings collection.
func (r *MongoBookingRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*r.timeout)
	defer cancel()

	indexModels := []mongo.IndexModel{
		// bookingId / ticketId
		{
			Keys:    bson.D{{Key: "reference", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_reference"),
		},
		{
			Keys:    bson.D{{Key: "kind", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("kind_created_idx"),
		},
		{
			Keys:    bson.D{{Key: "slot.slotId", Value: 1}},
			Options: options.Index().SetName("slot_ref_idx").SetSparse(true),
		},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	return nil
}
