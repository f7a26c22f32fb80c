package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kishan2613/Sarthi/apperror"
	"github.com/kishan2613/Sarthi/models"
	"github.com/kishan2613/Sarthi/services/booking"
	"github.com/kishan2613/Sarthi/utils"
)

const (
	bookingSucceeded = "Booking Successful ✅"
	bookingFailed    = "Booking Failed ❌"
)

type BookingHandler struct {
	Service booking.BookingService
}

func NewBookingHandler(svc booking.BookingService) *BookingHandler {
	return &BookingHandler{Service: svc}
}

// BookSlotHandler reserves places on a slot for a party of 1..10.
func (h *BookingHandler) BookSlotHandler(c *gin.Context) {
	logger := getLogger(c)

	var req models.SlotBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, apperror.CodeValidation, bookingFailed, err.Error())
		return
	}

	b, updated, err := h.Service.BookSlot(c.Request.Context(), req)
	if err != nil {
		utils.AbortWithError(c, bookingFailed, err)
		return
	}

	logger.Info("Slot booked", zap.String("bookingId", b.Reference), zap.String("slotId", updated.ID.Hex()))
	c.JSON(http.StatusCreated, models.SlotBookingResponse{
		Message:     bookingSucceeded,
		Booking:     b.SlotView(),
		UpdatedSlot: *updated,
	})
}

// BookQueueHandler issues a temple queue ticket with a gate.
func (h *BookingHandler) BookQueueHandler(c *gin.Context) {
	logger := getLogger(c)

	var req models.QueueBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, apperror.CodeValidation, bookingFailed, err.Error())
		return
	}

	b, err := h.Service.BookQueueTicket(c.Request.Context(), req)
	if err != nil {
		utils.AbortWithError(c, bookingFailed, err)
		return
	}

	logger.Info("Queue ticket issued", zap.String("ticketId", b.Reference), zap.String("gate", b.Queue.GateNumber))
	c.JSON(http.StatusCreated, models.QueueBookingResponse{
		Message: bookingSucceeded,
		Booking: b.QueueView(),
	})
}

func (h *BookingHandler) ListQueueHandler(c *gin.Context) {
	bookings, err := h.Service.ListBookings(c.Request.Context(), models.BookingFilter{Kind: models.KindQueue})
	if err != nil {
		utils.AbortWithError(c, "Failed to fetch queue bookings", err)
		return
	}
	c.JSON(http.StatusOK, models.QueueViews(bookings))
}

// ListBookingsHandler returns bookings of both kinds, optionally filtered by
// kind and status.
func (h *BookingHandler) ListBookingsHandler(c *gin.Context) {
	var filter models.BookingFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		utils.JSONError(c, http.StatusBadRequest, apperror.CodeValidation, "Invalid query", err.Error())
		return
	}
	if filter.Kind != "" && filter.Kind != models.KindSlot && filter.Kind != models.KindQueue {
		utils.JSONError(c, http.StatusBadRequest, apperror.CodeValidation, "Invalid query", "kind must be slot or queue")
		return
	}

	bookings, err := h.Service.ListBookings(c.Request.Context(), filter)
	if err != nil {
		utils.AbortWithError(c, "Failed to fetch bookings", err)
		return
	}
	c.JSON(http.StatusOK, models.BookingViews(bookings))
}

func (h *BookingHandler) GetBookingHandler(c *gin.Context) {
	b, err := h.Service.GetBooking(c.Request.Context(), c.Param("reference"))
	if err != nil {
		utils.AbortWithError(c, "Failed to fetch booking", err)
		return
	}
	c.JSON(http.StatusOK, b.View())
}

// UpdateStatusHandler moves a booking to Cancelled or Completed.
func (h *BookingHandler) UpdateStatusHandler(c *gin.Context) {
	var req models.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, apperror.CodeValidation, "Invalid request payload", err.Error())
		return
	}
	if err := models.ValidateStruct(req); err != nil {
		utils.AbortWithError(c, "Failed to update booking", err)
		return
	}

	b, err := h.Service.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		utils.AbortWithError(c, "Failed to update booking", err)
		return
	}

	getLogger(c).Info("Booking status updated",
		zap.String("reference", b.Reference),
		zap.String("status", string(b.Status)),
		zap.String("admin", c.GetString(utils.AdminKey)))
	c.JSON(http.StatusOK, gin.H{
		"message": "Booking updated",
		"booking": b.View(),
	})
}
