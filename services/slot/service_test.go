package slot

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kishan2613/Sarthi/apperror"
	memoryRepo "github.com/kishan2613/Sarthi/database/repository/memory"
	slotRepo "github.com/kishan2613/Sarthi/database/repository/slot"
	"github.com/kishan2613/Sarthi/models"
	"github.com/kishan2613/Sarthi/utils"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func newService(t *testing.T) (*DefaultSlotService, *miniredis.Miniredis) {
	t.Helper()
	mr, client := newRedis(t)
	store := memoryRepo.NewStore()
	return NewDefaultSlotService(store.Slots(), NewRedisSlotCache(client, time.Minute), zap.NewNop()), mr
}

func createReq(date, window, ghat string, capacity int) models.CreateSlotRequest {
	return models.CreateSlotRequest{Date: date, Time: window, Ghat: ghat, Capacity: capacity}
}

func TestCreateSlot(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	slot, err := svc.CreateSlot(ctx, createReq("2028-04-10T00:00:00Z", " 06:00-07:00 ", "Ram Ghat", 50))
	require.NoError(t, err)
	assert.False(t, slot.ID.IsZero())
	assert.Equal(t, "2028-04-10", slot.Date)
	assert.Equal(t, "06:00-07:00", slot.Time)
	assert.Equal(t, 0, slot.Booked)
	assert.Equal(t, models.SlotAvailable, slot.Status)
	assert.Empty(t, slot.Bookings)

	_, err = svc.CreateSlot(ctx, createReq("2028-04-10", "06:00-07:00", "Ram Ghat", 10))
	assert.ErrorIs(t, err, apperror.ErrConflict)

	_, err = svc.CreateSlot(ctx, createReq("2028-04-10", "07:00-08:00", "Ram Ghat", 0))
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.CreateSlot(ctx, createReq("10/04/2028", "07:00-08:00", "Ram Ghat", 5))
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestListSlotsOrderingAndFilters(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	for _, r := range []models.CreateSlotRequest{
		createReq("2028-04-11", "06:00-07:00", "Ram Ghat", 5),
		createReq("2028-04-10", "08:00-09:00", "Ram Ghat", 5),
		createReq("2028-04-10", "06:00-07:00", "Datta Ghat", 5),
	} {
		_, err := svc.CreateSlot(ctx, r)
		require.NoError(t, err)
	}

	all, err := svc.ListSlots(ctx, models.SlotFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Datta Ghat", all[0].Ghat)
	assert.Equal(t, "08:00-09:00", all[1].Time)
	assert.Equal(t, "2028-04-11", all[2].Date)

	day, err := svc.ListSlots(ctx, models.SlotFilter{Date: "2028-04-10"})
	require.NoError(t, err)
	assert.Len(t, day, 2)

	ram, err := svc.ListSlots(ctx, models.SlotFilter{Ghat: "Ram Ghat", Status: models.SlotAvailable})
	require.NoError(t, err)
	assert.Len(t, ram, 2)

	_, err = svc.ListSlots(ctx, models.SlotFilter{Status: "Closed"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestListSlotsUsesCache(t *testing.T) {
	svc, mr := newService(t)
	ctx := context.Background()

	_, err := svc.CreateSlot(ctx, createReq("2028-04-10", "06:00-07:00", "Ram Ghat", 5))
	require.NoError(t, err)
	assert.False(t, mr.Exists(utils.SlotListCacheKey), "create must invalidate")

	_, err = svc.ListSlots(ctx, models.SlotFilter{})
	require.NoError(t, err)
	assert.True(t, mr.Exists(utils.SlotListCacheKey))
	assert.Equal(t, time.Minute, mr.TTL(utils.SlotListCacheKey))

	// Filtered listings bypass the cache entirely.
	mr.Del(utils.SlotListCacheKey)
	_, err = svc.ListSlots(ctx, models.SlotFilter{Ghat: "Ram Ghat"})
	require.NoError(t, err)
	assert.False(t, mr.Exists(utils.SlotListCacheKey))
}

func TestListSlotsSurvivesCacheOutage(t *testing.T) {
	svc, mr := newService(t)
	ctx := context.Background()
	_, err := svc.CreateSlot(ctx, createReq("2028-04-10", "06:00-07:00", "Ram Ghat", 5))
	require.NoError(t, err)

	mr.Close()
	slots, err := svc.ListSlots(ctx, models.SlotFilter{})
	require.NoError(t, err)
	assert.Len(t, slots, 1)
}

func TestUpdateSlot(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	slot, err := svc.CreateSlot(ctx, createReq("2028-04-10", "06:00-07:00", "Ram Ghat", 5))
	require.NoError(t, err)

	capacity := 8
	ghat := "  Datta Ghat "
	updated, err := svc.UpdateSlot(ctx, slot.ID.Hex(), models.UpdateSlotRequest{Capacity: &capacity, Ghat: &ghat})
	require.NoError(t, err)
	assert.Equal(t, 8, updated.Capacity)
	assert.Equal(t, "Datta Ghat", updated.Ghat)

	_, err = svc.UpdateSlot(ctx, slot.ID.Hex(), models.UpdateSlotRequest{})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	zero := 0
	_, err = svc.UpdateSlot(ctx, slot.ID.Hex(), models.UpdateSlotRequest{Capacity: &zero})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.UpdateSlot(ctx, "000000000000000000000000", models.UpdateSlotRequest{Capacity: &capacity})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestGetSlot(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	slot, err := svc.CreateSlot(ctx, createReq("2028-04-10", "06:00-07:00", "Ram Ghat", 5))
	require.NoError(t, err)

	got, err := svc.GetSlot(ctx, slot.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, slot.ID, got.ID)

	_, err = svc.GetSlot(ctx, "not-an-id")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestRedisSlotCacheRoundTrip(t *testing.T) {
	mr, client := newRedis(t)
	cache := NewRedisSlotCache(client, 0)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	in := []models.Slot{{Date: "2028-04-10", Time: "06:00-07:00", Ghat: "Ram Ghat", Capacity: 5, Status: models.SlotAvailable}}
	gen, err := cache.Generation(ctx)
	require.NoError(t, err)
	require.NoError(t, cache.Set(ctx, gen, in))
	assert.Equal(t, defaultListTTL, mr.TTL(utils.SlotListCacheKey))

	out, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, out, 1)
	assert.Equal(t, "Ram Ghat", out[0].Ghat)

	require.NoError(t, mr.Set(utils.SlotListCacheKey, "{not json"))
	_, ok, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists(utils.SlotListCacheKey))

	require.NoError(t, cache.Set(ctx, gen, in))
	require.NoError(t, cache.Invalidate(ctx))
	assert.False(t, mr.Exists(utils.SlotListCacheKey))

	// gen was read before the invalidation, so the listing is stale.
	require.NoError(t, cache.Set(ctx, gen, in))
	assert.False(t, mr.Exists(utils.SlotListCacheKey))
}

// invalidatingRepo invalidates the cache while a listing is being read, as a
// concurrent booking would.
type invalidatingRepo struct {
	slotRepo.SlotRepository
	cache *RedisSlotCache
}

func (r invalidatingRepo) List(ctx context.Context, filter models.SlotFilter) ([]models.Slot, error) {
	slots, err := r.SlotRepository.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return slots, r.cache.Invalidate(ctx)
}

func TestListSlotsDoesNotCacheListingReadBeforeInvalidation(t *testing.T) {
	mr, client := newRedis(t)
	cache := NewRedisSlotCache(client, time.Minute)
	store := memoryRepo.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Slots().Create(ctx, &models.Slot{Date: "2028-04-10", Time: "06:00-07:00", Ghat: "Ram Ghat", Capacity: 5}))

	svc := NewDefaultSlotService(invalidatingRepo{SlotRepository: store.Slots(), cache: cache}, cache, zap.NewNop())
	slots, err := svc.ListSlots(ctx, models.SlotFilter{})
	require.NoError(t, err)
	assert.Len(t, slots, 1)
	assert.False(t, mr.Exists(utils.SlotListCacheKey))

	// Without a racing invalidation the listing is cached.
	svc.Repo = store.Slots()
	_, err = svc.ListSlots(ctx, models.SlotFilter{})
	require.NoError(t, err)
	assert.True(t, mr.Exists(utils.SlotListCacheKey))
}
