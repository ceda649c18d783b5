package emaillogRepo

import (
	"context"

	"solera/models"
)

// Repository is the append-only dedup ledger for outbound notifications.
// The at-most-once-per-window guarantee lives in the storage layer's unique
// index, not in process memory: reminder and digest passes may run
// concurrently from separate processes.
type Repository interface {
	// HasBeenSent reports whether a ledger row exists for the exact key
	// tuple within the rolling dedup window ending at now.
	HasBeenSent(ctx context.Context, bookingID *string, emailType, status, recipient string, now int64) (bool, error)

	// LogSent inserts a ledger row. A uniqueness violation means another
	// writer already logged the same send and is treated as success.
	LogSent(ctx context.Context, entry *models.EmailSentLog) error

	// PruneBefore deletes rows older than the cutoff. Retention is an
	// operational nicety, not required for correctness.
	PruneBefore(ctx context.Context, cutoff int64) (int64, error)
}
