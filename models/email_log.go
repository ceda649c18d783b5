package models

// EmailType identifies the kind of notification a ledger row records.
const (
	EmailTypeReminder7Day  = "reminder_7day"
	EmailTypeReminder24H   = "reminder_24h"
	EmailTypeDigestDaily   = "digest_daily"
	EmailTypeDigestWeekly  = "digest_weekly"
	EmailDeliveryStateSent = "sent"
)

// EmailSentLog is a dedup ledger entry. Rows are append-only: a unique index
// on (booking_id, email_type, status, recipient_email, day_bucket) is the sole
// at-most-once delivery guarantee, enforced by the storage layer because
// concurrent dispatcher passes may race from separate processes.
type EmailSentLog struct {
	ID        string  `bson:"id" json:"id"`                           // Ledger row id (UUID)
	BookingID *string `bson:"booking_id" json:"booking_id"`           // Owning booking; nil for non-booking emails (digests)
	EmailType string  `bson:"email_type" json:"email_type"`           // One of the EmailType* constants
	Status    string  `bson:"status" json:"status"`                   // Delivery state key component, e.g. "sent"
	Recipient string  `bson:"recipient_email" json:"recipient_email"` // Destination address
	SentAt    int64   `bson:"sent_at" json:"sent_at"`                 // Unix seconds
	DayBucket int64   `bson:"day_bucket" json:"day_bucket"`           // SentAt / 86400, part of the unique key
}

// DedupWindowSeconds is the rolling window within which at most one ledger row
// may exist per key tuple.
const DedupWindowSeconds = 24 * 60 * 60

// EmailDayBucket maps a Unix timestamp to the day bucket used in the unique
// ledger key.
func EmailDayBucket(unixSeconds int64) int64 {
	return unixSeconds / 86400
}
