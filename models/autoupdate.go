package models

// Transition reasons recorded by the reconciliation engine.
const (
	ReasonStartDatePassed = "start_date_passed_without_decision"
	ReasonNoCheckin       = "no_checkin_past_grace_period"
	ReasonEndDatePassed   = "end_date_passed"
)

// TransitionRecord describes one status change applied during a pass.
type TransitionRecord struct {
	BookingID string        `json:"booking_id"`
	OldStatus BookingStatus `json:"old_status"`
	NewStatus BookingStatus `json:"new_status"`
	Reason    string        `json:"reason"`
}

// AutoUpdateResult summarizes one reconciliation pass. It is a value object
// constructed fresh per invocation and never persisted.
type AutoUpdateResult struct {
	Cancelled   int                `json:"cancelled"`
	Finished    int                `json:"finished"`
	Unchanged   int                `json:"unchanged"`
	Transitions []TransitionRecord `json:"transitions"`
}

// ReminderFailure records one recipient whose reminder could not be delivered.
// One recipient's transport failure never blocks reminders to others.
type ReminderFailure struct {
	BookingID string `json:"booking_id"`
	Error     string `json:"error"`
}

// ReminderResult summarizes one reminder dispatch pass.
type ReminderResult struct {
	Sent7Day   int               `json:"sent_7day"`
	Sent24Hour int               `json:"sent_24hour"`
	Errors     []ReminderFailure `json:"errors"`
}
