package handlers

import "github.com/gin-gonic/gin"

// HandlerBundle groups all endpoint handlers for route registration.
type HandlerBundle struct {
	Slots    *SlotHandler
	Bookings *BookingHandler
	Admin    *AdminHandler

	HealthHandler gin.HandlerFunc
}
