package models

// BookingStatus is the closed set of lifecycle states a booking can be in.
// Values arriving from storage or the wire must go through ParseBookingStatus;
// unknown values are rejected rather than defaulted.
type BookingStatus string

const (
	StatusPending        BookingStatus = "pending"
	StatusPendingDeposit BookingStatus = "pending_deposit"
	StatusPaidDeposit    BookingStatus = "paid_deposit"
	StatusAccepted       BookingStatus = "accepted"
	StatusPostponed      BookingStatus = "postponed"
	StatusRejected       BookingStatus = "rejected"
	StatusCancelled      BookingStatus = "cancelled"
	StatusFinished       BookingStatus = "finished"
)

// allStatuses drives ParseBookingStatus; keep in sync with the constants above.
var allStatuses = map[BookingStatus]bool{
	StatusPending:        true,
	StatusPendingDeposit: true,
	StatusPaidDeposit:    true,
	StatusAccepted:       true,
	StatusPostponed:      true,
	StatusRejected:       true,
	StatusCancelled:      true,
	StatusFinished:       true,
}

// transitions is the exhaustive forward transition table. A status missing a
// target here cannot move there, which also encodes monotonicity: terminal
// states map to an empty set and nothing transitions backward.
var transitions = map[BookingStatus]map[BookingStatus]bool{
	StatusPending: {
		StatusPendingDeposit: true,
		StatusAccepted:       true,
		StatusPostponed:      true,
		StatusRejected:       true,
		StatusCancelled:      true,
	},
	StatusPendingDeposit: {
		StatusPaidDeposit: true,
		StatusRejected:    true,
		StatusCancelled:   true,
	},
	StatusPaidDeposit: {
		StatusAccepted:  true,
		StatusRejected:  true,
		StatusCancelled: true,
		StatusFinished:  true,
	},
	StatusAccepted: {
		StatusPostponed: true,
		StatusCancelled: true,
		StatusFinished:  true,
	},
	StatusPostponed: {
		StatusAccepted:  true,
		StatusRejected:  true,
		StatusCancelled: true,
	},
	StatusRejected:  {},
	StatusCancelled: {},
	StatusFinished:  {},
}

// ParseBookingStatus validates a raw status value read at the storage boundary.
func ParseBookingStatus(raw string) (BookingStatus, bool) {
	s := BookingStatus(raw)
	if !allStatuses[s] {
		return "", false
	}
	return s, true
}

// IsTerminal reports whether the status admits no further transitions.
func (s BookingStatus) IsTerminal() bool {
	return s == StatusRejected || s == StatusCancelled || s == StatusFinished
}

// CanTransitionTo reports whether moving from s to target is legal.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	return transitions[s][target]
}

// TerminalStatuses returns the statuses excluded from reconciliation passes.
func TerminalStatuses() []BookingStatus {
	return []BookingStatus{StatusRejected, StatusCancelled, StatusFinished}
}

// Booking represents a venue reservation request/contract.
type Booking struct {
	ID                 string        `bson:"id" json:"id"`                                 // Unique booking identifier (UUID)
	ResponseToken      string        `bson:"response_token" json:"-"`                      // Opaque capability token; grants access to this booking without a session
	CustomerName       string        `bson:"customer_name" json:"customer_name"`           // Display name of the requester
	Email              string        `bson:"email" json:"email"`                           // Requester contact email (PII, emitted as-is)
	EventType          string        `bson:"event_type,omitempty" json:"event_type"`       // Free-form event description (e.g., "wedding")
	StartDate          int64         `bson:"start_date" json:"start_date"`                 // Scheduled start, Unix seconds
	EndDate            *int64        `bson:"end_date,omitempty" json:"end_date"`           // Scheduled end, Unix seconds; nil for single-moment events
	Status             BookingStatus `bson:"status" json:"status"`                         // Current lifecycle state
	DepositEvidenceURL string        `bson:"deposit_evidence_url,omitempty" json:"-"`      // Blob-storage URL of the deposit slip; never exposed to callers
	CheckedInAt        *int64        `bson:"checked_in_at,omitempty" json:"checked_in_at"` // When the party actually showed up; nil until check-in
	CreatedAt          int64         `bson:"created_at" json:"created_at"`                 // Unix seconds
	UpdatedAt          int64         `bson:"updated_at" json:"updated_at"`                 // Unix seconds
}

// EffectiveEnd returns the timestamp after which the booking counts as over.
// Bookings without an explicit end date end at their start date.
func (b *Booking) EffectiveEnd() int64 {
	if b.EndDate != nil {
		return *b.EndDate
	}
	return b.StartDate
}

// HasDepositEvidence reports whether a deposit slip has been submitted.
func (b *Booking) HasDepositEvidence() bool {
	return b.DepositEvidenceURL != ""
}

// BookingSummary is the sanitized view returned on the public token routes.
type BookingSummary struct {
	ID           string        `json:"id"`
	CustomerName string        `json:"customer_name"`
	EventType    string        `json:"event_type"`
	StartDate    int64         `json:"start_date"`
	EndDate      *int64        `json:"end_date"`
	Status       BookingStatus `json:"status"`
	HasEvidence  bool          `json:"has_deposit_evidence"`
}

// Summary builds the public view of a booking.
func (b *Booking) Summary() BookingSummary {
	return BookingSummary{
		ID:           b.ID,
		CustomerName: b.CustomerName,
		EventType:    b.EventType,
		StartDate:    b.StartDate,
		EndDate:      b.EndDate,
		Status:       b.Status,
		HasEvidence:  b.HasDepositEvidence(),
	}
}
