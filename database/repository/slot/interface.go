// File: database/repository/slot/interface.go
package slotRepo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kishan2613/Sarthi/models"
)

// SlotRepository persists slot inventory. Implementations never touch
// booked or bookings outside of a capacity ledger.
type SlotRepository interface {
	EnsureIndexes(ctx context.Context) error
	Create(ctx context.Context, slot *models.Slot) error
	GetByID(ctx context.Context, id string) (*models.Slot, error)
	List(ctx context.Context, filter models.SlotFilter) ([]models.Slot, error)
	Update(ctx context.Context, id string, patch models.SlotPatch) (*models.Slot, error)
}

const CollectionName = "slots"

type mongoSlotRepo struct {
	coll    *mongo.Collection
	timeout time.Duration
}

// NewMongoSlotRepo constructs a MongoDB SlotRepository on db.
func NewMongoSlotRepo(db *mongo.Database, timeout time.Duration) SlotRepository {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &mongoSlotRepo{
		coll:    db.Collection(CollectionName),
		timeout: timeout,
	}
}
