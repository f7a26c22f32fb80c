// File: database/repository/booking/interface.go
package bookingRepo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	slotRepo "github.com/kishan2613/Sarthi/database/repository/slot"
	"github.com/kishan2613/Sarthi/models"
)

// BookingRepository persists booking records of both kinds.
type BookingRepository interface {
	EnsureIndexes(ctx context.Context) error
	Insert(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	GetByReference(ctx context.Context, reference string) (*models.Booking, error)
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error)
	UpdateStatus(ctx context.Context, id string, from, to models.BookingStatus) (*models.Booking, error)
}

// CapacityLedger is the only writer of a slot's booked count and bookings
// list. Each call is all-or-nothing across the slot and booking records.
type CapacityLedger interface {
	// Reserve admits a slot booking if the slot still has room for its
	// party, then persists the booking. It returns the slot as written.
	Reserve(ctx context.Context, booking *models.Booking) (*models.Slot, error)
	// Cancel moves a Booked booking to Cancelled and hands its places back.
	// The returned slot is nil for queue tickets.
	Cancel(ctx context.Context, id string) (*models.Booking, *models.Slot, error)
}

const CollectionName = "bookings"

// MongoBookingRepo implements both BookingRepository and CapacityLedger.
type MongoBookingRepo struct {
	coll          *mongo.Collection
	slots         *mongo.Collection
	timeout       time.Duration
	transactional bool
	logger        *zap.Logger
}

// NewMongoBookingRepo constructs the booking store. With transactional set,
// ledger writes run in a multi-document transaction and need a replica set;
// otherwise a failed booking insert is compensated on the slot.
func NewMongoBookingRepo(db *mongo.Database, timeout time.Duration, transactional bool, logger *zap.Logger) *MongoBookingRepo {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MongoBookingRepo{
		coll:          db.Collection(CollectionName),
		slots:         db.Collection(slotRepo.CollectionName),
		timeout:       timeout,
		transactional: transactional,
		logger:        logger,
	}
}
