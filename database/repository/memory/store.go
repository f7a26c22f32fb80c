// Package memoryRepo is a process-local implementation of the slot store,
// booking store and capacity ledger. It backs STORE_DRIVER=memory and the
// service tests.
package memoryRepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kishan2613/Sarthi/apperror"
	"github.com/kishan2613/Sarthi/database"
	"github.com/kishan2613/Sarthi/models"
)

// Store holds all collections behind one mutex, so every ledger call is a
// single critical section.
type Store struct {
	mu       sync.Mutex
	slots    map[primitive.ObjectID]*models.Slot
	slotKeys map[string]primitive.ObjectID
	bookings map[primitive.ObjectID]*models.Booking
	refs     map[string]primitive.ObjectID
	order    []primitive.ObjectID
}

func NewStore() *Store {
	return &Store{
		slots:    make(map[primitive.ObjectID]*models.Slot),
		slotKeys: make(map[string]primitive.ObjectID),
		bookings: make(map[primitive.ObjectID]*models.Booking),
		refs:     make(map[string]primitive.ObjectID),
	}
}

func (s *Store) Slots() *SlotStore { return &SlotStore{s: s} }

func (s *Store) Bookings() *BookingStore { return &BookingStore{s: s} }

func slotKey(date, window, ghat string) string {
	return date + "\x00" + window + "\x00" + ghat
}

// alive maps a finished context onto the storage error taxonomy.
func alive(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return database.TranslateError(err, "store")
	}
	return nil
}

func parseID(id, what string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperror.NotFound(what + " not found")
	}
	return oid, nil
}

// SlotStore implements slotRepo.SlotRepository.
type SlotStore struct{ s *Store }

func (r *SlotStore) EnsureIndexes(context.Context) error { return nil }

func (r *SlotStore) Create(ctx context.Context, slot *models.Slot) error {
	if err := alive(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := slotKey(slot.Date, slot.Time, slot.Ghat)
	if _, taken := r.s.slotKeys[key]; taken {
		return apperror.Newf(apperror.CodeConflict, "a slot for %s %s at %s already exists", slot.Date, slot.Time, slot.Ghat)
	}

	now := time.Now().UTC()
	if slot.ID.IsZero() {
		slot.ID = primitive.NewObjectID()
	}
	slot.Booked = 0
	slot.Bookings = []primitive.ObjectID{}
	slot.CreatedAt = now
	slot.UpdatedAt = now
	slot.RecomputeStatus()

	stored := slot.Clone()
	r.s.slots[slot.ID] = &stored
	r.s.slotKeys[key] = slot.ID
	return nil
}

func (r *SlotStore) GetByID(ctx context.Context, id string) (*models.Slot, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	oid, err := parseID(id, "slot")
	if err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	slot, ok := r.s.slots[oid]
	if !ok {
		return nil, apperror.NotFound("slot not found")
	}
	out := slot.Clone()
	return &out, nil
}

func (r *SlotStore) List(ctx context.Context, filter models.SlotFilter) ([]models.Slot, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []models.Slot{}
	for _, slot := range r.s.slots {
		if filter.Matches(*slot) {
			out = append(out, slot.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		return a.Ghat < b.Ghat
	})
	return out, nil
}

func (r *SlotStore) Update(ctx context.Context, id string, patch models.SlotPatch) (*models.Slot, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	oid, err := parseID(id, "slot")
	if err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.slots[oid]
	if !ok {
		return nil, apperror.NotFound("slot not found")
	}
	next := current.Clone()
	if patch.Date != nil {
		next.Date = *patch.Date
	}
	if patch.Time != nil {
		next.Time = *patch.Time
	}
	if patch.Ghat != nil {
		next.Ghat = *patch.Ghat
	}
	if patch.Capacity != nil {
		if *patch.Capacity < current.Booked {
			return nil, apperror.Newf(apperror.CodeConflict,
				"capacity %d is below the %d persons already booked", *patch.Capacity, current.Booked)
		}
		next.Capacity = *patch.Capacity
	}

	oldKey := slotKey(current.Date, current.Time, current.Ghat)
	newKey := slotKey(next.Date, next.Time, next.Ghat)
	if newKey != oldKey {
		if _, taken := r.s.slotKeys[newKey]; taken {
			return nil, apperror.Conflict("another slot already uses this date, time and ghat")
		}
		delete(r.s.slotKeys, oldKey)
		r.s.slotKeys[newKey] = oid
	}

	next.UpdatedAt = time.Now().UTC()
	next.RecomputeStatus()
	r.s.slots[oid] = &next

	out := next.Clone()
	return &out, nil
}
