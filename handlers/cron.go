package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"solera/services/lifecycle"
	"solera/services/notification"
	"solera/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// cronBudget is the hard wall-clock budget imposed by the external invoker on
// every scheduler-triggered pass. Exceeding it is retryable, not fatal: each
// booking update and ledger write is independently atomic.
const cronBudget = 30 * time.Second

// CronHandler exposes the scheduler-triggered entry points. Routes mounting
// these handlers must sit behind CronAuthMiddleware.
type CronHandler struct {
	Engine   *lifecycle.Engine
	Notifier *notification.Service
	Logger   *zap.Logger
}

// NewCronHandler constructs the cron handler.
func NewCronHandler(engine *lifecycle.Engine, notifier *notification.Service, logger *zap.Logger) *CronHandler {
	return &CronHandler{Engine: engine, Notifier: notifier, Logger: logger}
}

// budgeted maps a context deadline hit to the typed timeout error.
func budgeted(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return utils.NewTimeoutError(err)
	}
	return err
}

// AutoUpdateHandler runs one reconciliation pass.
func (h *CronHandler) AutoUpdateHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), cronBudget)
	defer cancel()

	result, err := h.Engine.Reconcile(ctx, time.Now())
	if err != nil {
		utils.RespondError(c, budgeted(err))
		return
	}
	c.JSON(http.StatusOK, result)
}

// RemindersHandler runs one reminder dispatch pass.
func (h *CronHandler) RemindersHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), cronBudget)
	defer cancel()

	result, err := h.Notifier.SendBookingReminders(ctx, time.Now())
	if err != nil {
		utils.RespondError(c, budgeted(err))
		return
	}
	c.JSON(http.StatusOK, result)
}

// DailyDigestHandler sends (or dedup-skips) the daily operations digest.
func (h *CronHandler) DailyDigestHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), cronBudget)
	defer cancel()

	if err := h.Notifier.SendDailyBookingDigest(ctx, time.Now()); err != nil {
		utils.RespondError(c, budgeted(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// WeeklyDigestHandler sends (or dedup-skips) the weekly operations digest.
func (h *CronHandler) WeeklyDigestHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), cronBudget)
	defer cancel()

	if err := h.Notifier.SendWeeklyBookingDigest(ctx, time.Now()); err != nil {
		utils.RespondError(c, budgeted(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
