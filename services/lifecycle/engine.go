package lifecycle

import (
	"context"
	"time"

	bookingRepo "solera/database/repository/booking"
	"solera/models"

	"go.uber.org/zap"
)

// Engine is the auto-update reconciliation engine. It advances booking state
// purely as a function of wall-clock time: callers supply now explicitly so
// transition logic never reads the clock itself and stays deterministic.
type Engine struct {
	Repo        bookingRepo.Repository
	GracePeriod time.Duration // how long after start a check-in is still awaited
	BatchSize   int64         // max candidates per pass, bounds pass duration
	Logger      *zap.Logger
}

// NewEngine constructs a reconciliation engine.
func NewEngine(repo bookingRepo.Repository, gracePeriod time.Duration, batchSize int64, logger *zap.Logger) *Engine {
	return &Engine{
		Repo:        repo,
		GracePeriod: gracePeriod,
		BatchSize:   batchSize,
		Logger:      logger,
	}
}

// pendingTransition is one rule outcome awaiting persistence.
type pendingTransition struct {
	newStatus models.BookingStatus
	reason    string
}

// evaluate applies the transition rules to one booking. Cancellation rules run
// before finish rules: a booking that was never honored must never silently
// appear as finished, even when both conditions hold at once.
func (e *Engine) evaluate(b *models.Booking, now int64) *pendingTransition {
	switch b.Status {
	case models.StatusPending, models.StatusPostponed:
		if b.StartDate < now {
			return &pendingTransition{models.StatusCancelled, models.ReasonStartDatePassed}
		}
	case models.StatusAccepted:
		graceLimit := b.StartDate + int64(e.GracePeriod.Seconds())
		if graceLimit < now && b.CheckedInAt == nil {
			return &pendingTransition{models.StatusCancelled, models.ReasonNoCheckin}
		}
		if b.EffectiveEnd() < now {
			return &pendingTransition{models.StatusFinished, models.ReasonEndDatePassed}
		}
	case models.StatusPaidDeposit:
		if b.EffectiveEnd() < now {
			return &pendingTransition{models.StatusFinished, models.ReasonEndDatePassed}
		}
	}
	return nil
}

// Reconcile runs one pass over the non-terminal bookings, applying every
// time-eligible transition. Re-running immediately with the same now is a
// no-op. Per-booking update failures are logged and skipped; only a failure
// fetching the candidate set aborts the pass.
func (e *Engine) Reconcile(ctx context.Context, now time.Time) (*models.AutoUpdateResult, error) {
	nowUnix := now.Unix()

	candidates, err := e.Repo.FindActive(ctx, e.BatchSize)
	if err != nil {
		return nil, err
	}

	result := &models.AutoUpdateResult{}
	for i := range candidates {
		b := &candidates[i]

		pt := e.evaluate(b, nowUnix)
		if pt == nil {
			result.Unchanged++
			continue
		}

		applied, err := e.Repo.UpdateStatusIfCurrent(ctx, b.ID, b.Status, pt.newStatus, nowUnix)
		if err != nil {
			e.Logger.Error("auto-update: failed to transition booking, skipping",
				zap.String("bookingId", b.ID),
				zap.String("from", string(b.Status)),
				zap.String("to", string(pt.newStatus)),
				zap.Error(err),
			)
			continue
		}
		if !applied {
			// A concurrent actor moved the booking first; their write wins.
			e.Logger.Debug("auto-update: transition no-op, status changed concurrently",
				zap.String("bookingId", b.ID),
				zap.String("expected", string(b.Status)),
			)
			result.Unchanged++
			continue
		}

		switch pt.newStatus {
		case models.StatusCancelled:
			result.Cancelled++
		case models.StatusFinished:
			result.Finished++
		}
		result.Transitions = append(result.Transitions, models.TransitionRecord{
			BookingID: b.ID,
			OldStatus: b.Status,
			NewStatus: pt.newStatus,
			Reason:    pt.reason,
		})
		e.Logger.Info("auto-update: booking transitioned",
			zap.String("bookingId", b.ID),
			zap.String("from", string(b.Status)),
			zap.String("to", string(pt.newStatus)),
			zap.String("reason", pt.reason),
		)
	}

	e.Logger.Info("auto-update: pass complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("cancelled", result.Cancelled),
		zap.Int("finished", result.Finished),
	)
	return result, nil
}
