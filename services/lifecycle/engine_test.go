package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"solera/models"

	"go.uber.org/zap"
)

// fakeBookingRepo is an in-memory stand-in for the Mongo repository. Status
// updates honor the compare-and-swap contract so concurrency semantics can be
// exercised without a database.
type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking

	failFetch   bool
	failUpdate  map[string]bool                 // booking id -> force update error
	interfereAs map[string]models.BookingStatus // booking id -> status swapped in before the engine's CAS lands
	updateCalls int
}

func newFakeBookingRepo(bookings ...*models.Booking) *fakeBookingRepo {
	repo := &fakeBookingRepo{
		bookings:    make(map[string]*models.Booking),
		failUpdate:  make(map[string]bool),
		interfereAs: make(map[string]models.BookingStatus),
	}
	for _, b := range bookings {
		repo.bookings[b.ID] = b
	}
	return repo
}

func (r *fakeBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBookingRepo) GetByResponseToken(ctx context.Context, token string) (*models.Booking, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeBookingRepo) FindActive(ctx context.Context, limit int64) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFetch {
		return nil, errors.New("fetch failed")
	}
	var out []models.Booking
	for _, b := range r.bookings {
		if b.Status.IsTerminal() {
			continue
		}
		if int64(len(out)) >= limit {
			break
		}
		out = append(out, *b)
	}
	return out, nil
}

func (r *fakeBookingRepo) FindAcceptedStartingBetween(ctx context.Context, from, to int64) ([]models.Booking, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeBookingRepo) UpdateStatusIfCurrent(ctx context.Context, id string, from, to models.BookingStatus, now int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++
	if r.failUpdate[id] {
		return false, errors.New("update failed")
	}
	b, ok := r.bookings[id]
	if !ok {
		return false, nil
	}
	if swapped, interfered := r.interfereAs[id]; interfered {
		b.Status = swapped
		delete(r.interfereAs, id)
	}
	if b.Status != from {
		return false, nil
	}
	b.Status = to
	b.UpdatedAt = now
	return true, nil
}

func (r *fakeBookingRepo) AttachDepositEvidence(ctx context.Context, id, evidenceURL string, now int64) (bool, error) {
	return false, errors.New("not implemented")
}

func (r *fakeBookingRepo) CountByStatus(ctx context.Context) (map[models.BookingStatus]int64, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeBookingRepo) status(id string) models.BookingStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bookings[id].Status
}

func newTestEngine(repo *fakeBookingRepo) *Engine {
	return NewEngine(repo, 6*time.Hour, 500, zap.NewNop())
}

func booking(id string, status models.BookingStatus, start int64) *models.Booking {
	return &models.Booking{
		ID:        id,
		Email:     id + "@example.com",
		Status:    status,
		StartDate: start,
	}
}

func TestReconcileCancelsPendingPastStart(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	repo := newFakeBookingRepo(booking("b1", models.StatusPending, now.Unix()-3600))
	engine := newTestEngine(repo)

	result, err := engine.Reconcile(context.Background(), now)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Cancelled != 1 {
		t.Fatalf("cancelled = %d, want 1", result.Cancelled)
	}
	if got := repo.status("b1"); got != models.StatusCancelled {
		t.Errorf("status = %s, want cancelled", got)
	}
	if len(result.Transitions) != 1 || result.Transitions[0].Reason != models.ReasonStartDatePassed {
		t.Errorf("unexpected transitions: %+v", result.Transitions)
	}
}

func TestReconcileCancelsPostponedPastStart(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	repo := newFakeBookingRepo(booking("b1", models.StatusPostponed, now.Unix()-10))
	engine := newTestEngine(repo)

	result, err := engine.Reconcile(context.Background(), now)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Cancelled != 1 || repo.status("b1") != models.StatusCancelled {
		t.Errorf("postponed booking past start should cancel, got %+v", result)
	}
}

func TestReconcileCancelsAcceptedWithoutCheckinPastGrace(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	// Started 7 hours ago against a 6-hour grace period, never checked in.
	repo := newFakeBookingRepo(booking("b1", models.StatusAccepted, now.Unix()-7*3600))
	engine := newTestEngine(repo)

	result, err := engine.Reconcile(context.Background(), now)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Cancelled != 1 {
		t.Fatalf("cancelled = %d, want 1", result.Cancelled)
	}
	if result.Transitions[0].Reason != models.ReasonNoCheckin {
		t.Errorf("reason = %s, want %s", result.Transitions[0].Reason, models.ReasonNoCheckin)
	}
}

func TestReconcileAcceptedWithinGraceUnchanged(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	// Started 2 hours ago, within the 6-hour grace period, no end date set.
	repo := newFakeBookingRepo(booking("b1", models.StatusAccepted, now.Unix()-2*3600))
	engine := newTestEngine(repo)

	result, err := engine.Reconcile(context.Background(), now)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	// EffectiveEnd falls back to the start date, which has passed, so the
	// booking finishes; it must not cancel while grace is still running.
	if result.Cancelled != 0 {
		t.Errorf("booking within grace must not cancel: %+v", result)
	}
	if result.Finished != 1 {
		t.Errorf("finished = %d, want 1", result.Finished)
	}
}

func TestReconcileCancellationPrecedesFinish(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	end := now.Unix() - 86400
	b := booking("b1", models.StatusAccepted, now.Unix()-172800) // started 2 days ago
	b.EndDate = &end                                             // ended 1 day ago
	repo := newFakeBookingRepo(b)
	engine := newTestEngine(repo)

	result, err := engine.Reconcile(context.Background(), now)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Cancelled != 1 || result.Finished != 0 {
		t.Fatalf("want cancellation to take precedence, got cancelled=%d finished=%d", result.Cancelled, result.Finished)
	}
	if repo.status("b1") != models.StatusCancelled {
		t.Errorf("status = %s, want cancelled", repo.status("b1"))
	}
}

func TestReconcileFinishesCheckedInAcceptedPastEnd(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	end := now.Unix() - 3600
	checkin := now.Unix() - 172800
	b := booking("b1", models.StatusAccepted, now.Unix()-172800)
	b.EndDate = &end
	b.CheckedInAt = &checkin
	repo := newFakeBookingRepo(b)
	engine := newTestEngine(repo)

	result, err := engine.Reconcile(context.Background(), now)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Finished != 1 || result.Cancelled != 0 {
		t.Fatalf("checked-in booking past end should finish: %+v", result)
	}
	if result.Transitions[0].Reason != models.ReasonEndDatePassed {
		t.Errorf("reason = %s", result.Transitions[0].Reason)
	}
}

func TestReconcileFinishesPaidDepositPastEnd(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	end := now.Unix() - 60
	b := booking("b1", models.StatusPaidDeposit, now.Unix()-7200)
	b.EndDate = &end
	repo := newFakeBookingRepo(b)
	engine := newTestEngine(repo)

	result, err := engine.Reconcile(context.Background(), now)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Finished != 1 {
		t.Fatalf("paid_deposit past end should finish: %+v", result)
	}
}

func TestReconcileFutureBookingsUnchanged(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	repo := newFakeBookingRepo(
		booking("b1", models.StatusPending, now.Unix()+3600),
		booking("b2", models.StatusAccepted, now.Unix()+86400),
		booking("b3", models.StatusPendingDeposit, now.Unix()-86400), // no rule covers pending_deposit
	)
	engine := newTestEngine(repo)

	result, err := engine.Reconcile(context.Background(), now)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Cancelled != 0 || result.Finished != 0 || result.Unchanged != 3 {
		t.Errorf("no transitions expected: %+v", result)
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	repo := newFakeBookingRepo(
		booking("b1", models.StatusPending, now.Unix()-3600),
		booking("b2", models.StatusAccepted, now.Unix()-10*3600),
	)
	engine := newTestEngine(repo)

	first, err := engine.Reconcile(context.Background(), now)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	if len(first.Transitions) != 2 {
		t.Fatalf("first pass transitions = %d, want 2", len(first.Transitions))
	}

	second, err := engine.Reconcile(context.Background(), now)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if len(second.Transitions) != 0 || second.Cancelled != 0 || second.Finished != 0 {
		t.Errorf("second pass must be a no-op: %+v", second)
	}
}

func TestReconcilePerItemFailureDoesNotAbortBatch(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	repo := newFakeBookingRepo(
		booking("bad", models.StatusPending, now.Unix()-3600),
		booking("good", models.StatusPending, now.Unix()-3600),
	)
	repo.failUpdate["bad"] = true
	engine := newTestEngine(repo)

	result, err := engine.Reconcile(context.Background(), now)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Cancelled != 1 {
		t.Fatalf("cancelled = %d, want 1 (failed item skipped)", result.Cancelled)
	}
	for _, tr := range result.Transitions {
		if tr.BookingID == "bad" {
			t.Error("failed booking must not appear in the transition list")
		}
	}
	if repo.status("good") != models.StatusCancelled {
		t.Errorf("good booking should still have transitioned")
	}
}

func TestReconcileFetchFailureIsFatal(t *testing.T) {
	repo := newFakeBookingRepo()
	repo.failFetch = true
	engine := newTestEngine(repo)

	result, err := engine.Reconcile(context.Background(), time.Unix(1_700_000_000, 0))
	if err == nil {
		t.Fatal("expected error when candidate fetch fails")
	}
	if result != nil {
		t.Errorf("no partial result on fetch failure, got %+v", result)
	}
}

func TestReconcileConcurrentActorWins(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	repo := newFakeBookingRepo(booking("b1", models.StatusPending, now.Unix()-3600))
	// Another process accepts the booking between the fetch and the CAS.
	repo.interfereAs["b1"] = models.StatusAccepted
	engine := newTestEngine(repo)

	result, err := engine.Reconcile(context.Background(), now)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Cancelled != 0 || len(result.Transitions) != 0 {
		t.Errorf("interfered update must no-op, got %+v", result)
	}
	if repo.status("b1") != models.StatusAccepted {
		t.Errorf("concurrent actor's write must survive, got %s", repo.status("b1"))
	}
}

func TestReconcileRespectsBatchBound(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	repo := newFakeBookingRepo(
		booking("b1", models.StatusPending, now.Unix()-3600),
		booking("b2", models.StatusPending, now.Unix()-3600),
		booking("b3", models.StatusPending, now.Unix()-3600),
	)
	engine := NewEngine(repo, 6*time.Hour, 2, zap.NewNop())

	result, err := engine.Reconcile(context.Background(), now)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Cancelled != 2 {
		t.Errorf("bounded pass should process exactly 2 candidates, got %d", result.Cancelled)
	}
}
