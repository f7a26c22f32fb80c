package slotRepo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes on the slots collection.
func (r *mongoSlotRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*r.timeout)
	defer cancel()

	indexModels := []mongo.IndexModel{
		// One slot per day, window and ghat.
		{
			Keys:    bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}, {Key: "ghat", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_date_time_ghat"),
		},
		{
			Keys:    bson.D{{Key: "ghat", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetName("ghat_date_idx"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("status_idx"),
		},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create slot indexes: %w", err)
	}
	return nil
}
