package models

import "testing"

func TestParseBookingStatus(t *testing.T) {
	valid := []string{
		"pending", "pending_deposit", "paid_deposit", "accepted",
		"postponed", "rejected", "cancelled", "finished",
	}
	for _, raw := range valid {
		s, ok := ParseBookingStatus(raw)
		if !ok {
			t.Errorf("ParseBookingStatus(%q) rejected a valid status", raw)
		}
		if string(s) != raw {
			t.Errorf("ParseBookingStatus(%q) = %q", raw, s)
		}
	}

	invalid := []string{"", "PENDING", "confirmed", "deleted", "pending "}
	for _, raw := range invalid {
		if _, ok := ParseBookingStatus(raw); ok {
			t.Errorf("ParseBookingStatus(%q) accepted an unknown status", raw)
		}
	}
}

func TestTerminalStatusesHaveNoTransitions(t *testing.T) {
	all := []BookingStatus{
		StatusPending, StatusPendingDeposit, StatusPaidDeposit, StatusAccepted,
		StatusPostponed, StatusRejected, StatusCancelled, StatusFinished,
	}
	for _, terminal := range TerminalStatuses() {
		if !terminal.IsTerminal() {
			t.Errorf("%s should report IsTerminal", terminal)
		}
		for _, target := range all {
			if terminal.CanTransitionTo(target) {
				t.Errorf("terminal status %s must not transition to %s", terminal, target)
			}
		}
	}
}

func TestNoBackwardTransitions(t *testing.T) {
	// The engine's forward paths must be legal...
	forward := []struct{ from, to BookingStatus }{
		{StatusPending, StatusCancelled},
		{StatusPostponed, StatusCancelled},
		{StatusAccepted, StatusCancelled},
		{StatusAccepted, StatusFinished},
		{StatusPaidDeposit, StatusFinished},
		{StatusPendingDeposit, StatusPaidDeposit},
	}
	for _, tr := range forward {
		if !tr.from.CanTransitionTo(tr.to) {
			t.Errorf("expected %s -> %s to be legal", tr.from, tr.to)
		}
	}

	// ...and nothing may move backward out of a settled state.
	backward := []struct{ from, to BookingStatus }{
		{StatusFinished, StatusPending},
		{StatusCancelled, StatusAccepted},
		{StatusRejected, StatusPending},
		{StatusAccepted, StatusPending},
		{StatusPaidDeposit, StatusPendingDeposit},
	}
	for _, tr := range backward {
		if tr.from.CanTransitionTo(tr.to) {
			t.Errorf("backward transition %s -> %s must be illegal", tr.from, tr.to)
		}
	}
}

func TestEffectiveEnd(t *testing.T) {
	end := int64(2000)
	withEnd := &Booking{StartDate: 1000, EndDate: &end}
	if got := withEnd.EffectiveEnd(); got != 2000 {
		t.Errorf("EffectiveEnd with end date = %d, want 2000", got)
	}

	withoutEnd := &Booking{StartDate: 1000}
	if got := withoutEnd.EffectiveEnd(); got != 1000 {
		t.Errorf("EffectiveEnd without end date = %d, want 1000", got)
	}
}

func TestSummaryOmitsSensitiveFields(t *testing.T) {
	b := &Booking{
		ID:                 "b1",
		ResponseToken:      "secret-token",
		CustomerName:       "Ana",
		Email:              "ana@example.com",
		Status:             StatusPendingDeposit,
		DepositEvidenceURL: "https://blob.example.com/slip.jpg",
	}
	s := b.Summary()
	if !s.HasEvidence {
		t.Error("summary should report evidence presence")
	}
	// The summary type has no token or URL fields at all; this guards the
	// boolean projection of the evidence.
	if s.ID != "b1" || s.Status != StatusPendingDeposit {
		t.Errorf("unexpected summary: %+v", s)
	}
}
