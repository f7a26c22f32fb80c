package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kishan2613/Sarthi/utils"
)

// HealthHandler reports the last dependency snapshot; 503 when any
// configured dependency failed its ping.
func HealthHandler(monitor *utils.HealthMonitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := monitor.Status()
		if !status.Healthy() {
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		c.JSON(http.StatusOK, status)
	}
}
