package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/kishan2613/Sarthi/config"
	"github.com/kishan2613/Sarthi/database"
	bookingRepo "github.com/kishan2613/Sarthi/database/repository/booking"
	memoryRepo "github.com/kishan2613/Sarthi/database/repository/memory"
	slotRepo "github.com/kishan2613/Sarthi/database/repository/slot"
)

// Re-export the repository interfaces used by services.
type (
	SlotRepository    = slotRepo.SlotRepository
	BookingRepository = bookingRepo.BookingRepository
	CapacityLedger    = bookingRepo.CapacityLedger
)

// Stores bundles the repositories for the configured driver. Mongo is nil
// for the memory driver.
type Stores struct {
	Driver   string
	Slots    SlotRepository
	Bookings BookingRepository
	Ledger   CapacityLedger
	Mongo    *mongo.Client
}

// Open builds the stores selected by STORE_DRIVER and ensures indexes.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Stores, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		store := memoryRepo.NewStore()
		logger.Warn("Using in-memory store; data is lost on restart")
		return &Stores{
			Driver:   config.DriverMemory,
			Slots:    store.Slots(),
			Bookings: store.Bookings(),
			Ledger:   store.Bookings(),
		}, nil

	case config.DriverMongo:
		client, err := database.InitDB(cfg.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.DatabaseName)
		slots := slotRepo.NewMongoSlotRepo(db, cfg.DBTimeout)
		bookings := bookingRepo.NewMongoBookingRepo(db, cfg.DBTimeout, cfg.MongoTransactions, logger)

		if err := slots.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure slot indexes: %w", err)
		}
		if err := bookings.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure booking indexes: %w", err)
		}
		return &Stores{
			Driver:   config.DriverMongo,
			Slots:    slots,
			Bookings: bookings,
			Ledger:   bookings,
			Mongo:    client,
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// Close disconnects the Mongo client when one was opened.
func (s *Stores) Close(ctx context.Context) error {
	if s.Mongo == nil {
		return nil
	}
	return s.Mongo.Disconnect(ctx)
}
