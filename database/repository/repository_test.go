package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kishan2613/Sarthi/config"
)

func TestOpenMemoryDriver(t *testing.T) {
	stores, err := Open(context.Background(), config.Config{StoreDriver: config.DriverMemory}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, config.DriverMemory, stores.Driver)
	assert.NotNil(t, stores.Slots)
	assert.NotNil(t, stores.Bookings)
	assert.NotNil(t, stores.Ledger)
	assert.Nil(t, stores.Mongo)
	assert.NoError(t, stores.Close(context.Background()))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.Config{StoreDriver: "sqlite"}, zap.NewNop())
	assert.ErrorContains(t, err, "sqlite")
}
