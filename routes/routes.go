package routes

import (
	"solera/handlers"
	"solera/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires all endpoint groups onto the router.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", handlers.HealthHandler)

	// Public capability-token routes. Rate limited to slow token guessing;
	// the generic not-found responses do the rest.
	token := r.Group("/api/bookings/token")
	token.Use(middleware.RateLimitMiddleware())
	{
		token.GET("/:token", hb.Booking.GetBookingByTokenHandler)
		token.GET("/:token/deposit-image", hb.Booking.GetDepositImageByTokenHandler)
		token.POST("/:token/evidence", hb.Booking.UploadDepositEvidenceHandler)
	}

	// Admin routes behind the domain-restricted identity provider session.
	admin := r.Group("/api/admin")
	admin.Use(middleware.AdminAuthMiddleware())
	{
		admin.GET("/bookings/:id", hb.Booking.GetBookingByIDHandler)
		admin.GET("/bookings/:id/deposit-image", hb.Booking.GetDepositImageByIDHandler)
	}

	// Scheduler-triggered routes behind the shared cron secret.
	cron := r.Group("/api/cron")
	cron.Use(middleware.CronAuthMiddleware())
	{
		cron.POST("/auto-update", hb.Cron.AutoUpdateHandler)
		cron.POST("/reminders", hb.Cron.RemindersHandler)
		cron.POST("/digest/daily", hb.Cron.DailyDigestHandler)
		cron.POST("/digest/weekly", hb.Cron.WeeklyDigestHandler)
	}
}
