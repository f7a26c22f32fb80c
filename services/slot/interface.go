package slot

import (
	"context"

	"github.com/kishan2613/Sarthi/models"
)

// SlotService exposes slot inventory to handlers. Booked counts are
// changed only by the booking service.
type SlotService interface {
	ListSlots(ctx context.Context, filter models.SlotFilter) ([]models.Slot, error)
	GetSlot(ctx context.Context, id string) (*models.Slot, error)
	CreateSlot(ctx context.Context, req models.CreateSlotRequest) (*models.Slot, error)
	UpdateSlot(ctx context.Context, id string, req models.UpdateSlotRequest) (*models.Slot, error)
}

// ListCache stores the unfiltered slot listing. Set only stores a listing
// read under the generation that is still current, so a listing loaded
// before an invalidation is never written back.
type ListCache interface {
	Get(ctx context.Context) ([]models.Slot, bool, error)
	Generation(ctx context.Context) (int64, error)
	Set(ctx context.Context, gen int64, slots []models.Slot) error
	Invalidate(ctx context.Context) error
}
