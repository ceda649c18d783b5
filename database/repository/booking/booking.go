package bookingRepo

import (
	"context"

	"solera/models"
)

// Repository defines storage operations for bookings. Status mutations go
// through conditional single-row updates keyed by the current status, which is
// the subsystem's only cross-process concurrency primitive.
type Repository interface {
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	GetByResponseToken(ctx context.Context, token string) (*models.Booking, error)

	// FindActive returns up to limit non-terminal bookings, the candidate
	// set for one reconciliation pass.
	FindActive(ctx context.Context, limit int64) ([]models.Booking, error)

	// FindAcceptedStartingBetween returns accepted bookings whose start date
	// falls in the half-open window [from, to).
	FindAcceptedStartingBetween(ctx context.Context, from, to int64) ([]models.Booking, error)

	// UpdateStatusIfCurrent atomically moves a booking from one status to
	// another. It reports false (and no error) when the booking no longer
	// holds the expected status, so racing actors no-op instead of
	// overwriting each other.
	UpdateStatusIfCurrent(ctx context.Context, id string, from, to models.BookingStatus, now int64) (bool, error)

	// AttachDepositEvidence records the deposit slip URL and advances the
	// booking to paid_deposit. Legal only while the booking is in
	// pending_deposit; reports false when that precondition fails.
	AttachDepositEvidence(ctx context.Context, id, evidenceURL string, now int64) (bool, error)

	// CountByStatus aggregates booking counts per status for digests.
	CountByStatus(ctx context.Context) (map[models.BookingStatus]int64, error)
}
