package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kishan2613/Sarthi/apperror"
	"github.com/kishan2613/Sarthi/models"
	"github.com/kishan2613/Sarthi/services/slot"
	"github.com/kishan2613/Sarthi/utils"
)

type SlotHandler struct {
	Service slot.SlotService
}

func NewSlotHandler(svc slot.SlotService) *SlotHandler {
	return &SlotHandler{Service: svc}
}

// ListSlotsHandler returns every slot with live booked/status values.
// Optional query filters: date, ghat, status.
func (h *SlotHandler) ListSlotsHandler(c *gin.Context) {
	var filter models.SlotFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		utils.JSONError(c, http.StatusBadRequest, apperror.CodeValidation, "Invalid query", err.Error())
		return
	}

	slots, err := h.Service.ListSlots(c.Request.Context(), filter)
	if err != nil {
		utils.AbortWithError(c, "Failed to fetch slots", err)
		return
	}
	c.JSON(http.StatusOK, slots)
}

func (h *SlotHandler) GetSlotHandler(c *gin.Context) {
	s, err := h.Service.GetSlot(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.AbortWithError(c, "Failed to fetch slot", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *SlotHandler) CreateSlotHandler(c *gin.Context) {
	var req models.CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, apperror.CodeValidation, "Invalid request payload", err.Error())
		return
	}

	s, err := h.Service.CreateSlot(c.Request.Context(), req)
	if err != nil {
		utils.AbortWithError(c, "Failed to create slot", err)
		return
	}
	getLogger(c).Info("Slot created",
		zap.String("slotId", s.ID.Hex()),
		zap.String("admin", c.GetString(utils.AdminKey)))
	c.JSON(http.StatusCreated, s)
}

func (h *SlotHandler) UpdateSlotHandler(c *gin.Context) {
	var req models.UpdateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, apperror.CodeValidation, "Invalid request payload", err.Error())
		return
	}

	s, err := h.Service.UpdateSlot(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		utils.AbortWithError(c, "Failed to update slot", err)
		return
	}
	getLogger(c).Info("Slot updated",
		zap.String("slotId", s.ID.Hex()),
		zap.String("admin", c.GetString(utils.AdminKey)))
	c.JSON(http.StatusOK, s)
}
