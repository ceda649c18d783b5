package handlers

import (
	"net/http"

	"solera/utils"

	"github.com/gin-gonic/gin"
)

// HandlerBundle groups the handler sets the route registrar wires up.
type HandlerBundle struct {
	Booking *BookingHandler
	Cron    *CronHandler
}

// HealthHandler reports the latest dependency health snapshot.
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, utils.GetHealthStatus())
}
