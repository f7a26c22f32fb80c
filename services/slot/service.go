package slot

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/kishan2613/Sarthi/apperror"
	slotRepo "github.com/kishan2613/Sarthi/database/repository/slot"
	"github.com/kishan2613/Sarthi/models"
)

// DefaultSlotService implements SlotService. Cache is optional.
type DefaultSlotService struct {
	Repo   slotRepo.SlotRepository
	Cache  ListCache
	Logger *zap.Logger
}

func NewDefaultSlotService(repo slotRepo.SlotRepository, cache ListCache, logger *zap.Logger) *DefaultSlotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultSlotService{Repo: repo, Cache: cache, Logger: logger}
}

// ListSlots returns slots ordered by date, time and ghat. Only the
// unfiltered listing goes through the cache.
func (s *DefaultSlotService) ListSlots(ctx context.Context, filter models.SlotFilter) ([]models.Slot, error) {
	if filter.Date != "" {
		date, err := models.NormalizeDate(filter.Date)
		if err != nil {
			return nil, apperror.Validation(err.Error())
		}
		filter.Date = date
	}
	if filter.Status != "" && filter.Status != models.SlotAvailable && filter.Status != models.SlotFull {
		return nil, apperror.Newf(apperror.CodeValidation, "status must be %s or %s", models.SlotAvailable, models.SlotFull)
	}

	cacheable := filter.IsZero() && s.Cache != nil
	var gen int64
	if cacheable {
		slots, ok, err := s.Cache.Get(ctx)
		if err != nil {
			s.Logger.Warn("slot cache read failed", zap.Error(err))
		} else if ok {
			return slots, nil
		}
		if gen, err = s.Cache.Generation(ctx); err != nil {
			s.Logger.Warn("slot cache generation read failed", zap.Error(err))
			cacheable = false
		}
	}

	slots, err := s.Repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if cacheable {
		if err := s.Cache.Set(ctx, gen, slots); err != nil {
			s.Logger.Warn("slot cache write failed", zap.Error(err))
		}
	}
	return slots, nil
}

func (s *DefaultSlotService) GetSlot(ctx context.Context, id string) (*models.Slot, error) {
	return s.Repo.GetByID(ctx, strings.TrimSpace(id))
}

func (s *DefaultSlotService) CreateSlot(ctx context.Context, req models.CreateSlotRequest) (*models.Slot, error) {
	if err := models.ValidateStruct(req); err != nil {
		return nil, err
	}
	date, err := models.NormalizeDate(req.Date)
	if err != nil {
		return nil, apperror.Validation(err.Error())
	}
	slot := &models.Slot{
		Date:     date,
		Time:     strings.TrimSpace(req.Time),
		Ghat:     strings.TrimSpace(req.Ghat),
		Capacity: req.Capacity,
	}
	if err := s.Repo.Create(ctx, slot); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.Logger.Info("slot created",
		zap.String("slotId", slot.ID.Hex()),
		zap.String("date", slot.Date),
		zap.String("time", slot.Time),
		zap.String("ghat", slot.Ghat),
		zap.Int("capacity", slot.Capacity),
	)
	return slot, nil
}

// UpdateSlot edits descriptive fields or capacity. Capacity may not drop
// below the places already booked.
func (s *DefaultSlotService) UpdateSlot(ctx context.Context, id string, req models.UpdateSlotRequest) (*models.Slot, error) {
	if req.IsEmpty() {
		return nil, apperror.Validation("at least one of date, time, ghat or capacity is required")
	}
	if err := models.ValidateStruct(req); err != nil {
		return nil, err
	}

	var patch models.SlotPatch
	if req.Date != nil {
		date, err := models.NormalizeDate(*req.Date)
		if err != nil {
			return nil, apperror.Validation(err.Error())
		}
		patch.Date = &date
	}
	if req.Time != nil {
		t := strings.TrimSpace(*req.Time)
		patch.Time = &t
	}
	if req.Ghat != nil {
		g := strings.TrimSpace(*req.Ghat)
		patch.Ghat = &g
	}
	patch.Capacity = req.Capacity

	slot, err := s.Repo.Update(ctx, strings.TrimSpace(id), patch)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.Logger.Info("slot updated",
		zap.String("slotId", slot.ID.Hex()),
		zap.Int("capacity", slot.Capacity),
		zap.Int("booked", slot.Booked),
		zap.String("status", string(slot.Status)),
	)
	return slot, nil
}

func (s *DefaultSlotService) invalidate(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx); err != nil {
		s.Logger.Warn("failed to invalidate slot cache", zap.Error(err))
	}
}
