package notification

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"solera/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Ledger rows older than this are pruned during the daily digest run.
// Retention is generous relative to the 24h dedup window; pruning is an
// operational cleanup, never a correctness requirement.
const ledgerRetention = 7 * 24 * time.Hour

// SendDailyBookingDigest mails the operations address a summary of current
// booking counts. The dedup ledger absorbs duplicate cron firings within the
// same window, so the digest goes out at most once per day.
func (s *Service) SendDailyBookingDigest(ctx context.Context, now time.Time) error {
	if err := s.sendDigest(ctx, now, models.EmailTypeDigestDaily, "Daily booking digest"); err != nil {
		return err
	}
	s.pruneLedger(ctx, now)
	return nil
}

// SendWeeklyBookingDigest mails the weekly variant of the summary.
func (s *Service) SendWeeklyBookingDigest(ctx context.Context, now time.Time) error {
	return s.sendDigest(ctx, now, models.EmailTypeDigestWeekly, "Weekly booking digest")
}

func (s *Service) sendDigest(ctx context.Context, now time.Time, emailType, subject string) error {
	nowUnix := now.Unix()

	// Digest rows carry a nil booking id; the key tuple is (nil, type,
	// "sent", recipient) within the rolling window.
	already, err := s.Ledger.HasBeenSent(ctx, nil, emailType, models.EmailDeliveryStateSent, s.OpsEmail, nowUnix)
	if err != nil {
		return err
	}
	if already {
		s.Logger.Info("digest: already sent within window, skipping",
			zap.String("emailType", emailType),
		)
		return nil
	}

	counts, err := s.Bookings.CountByStatus(ctx)
	if err != nil {
		return err
	}

	body := digestBody(now, counts)
	if err := s.Mailer.Send(ctx, s.OpsEmail, subject, body); err != nil {
		return err
	}

	entry := &models.EmailSentLog{
		ID:        uuid.New().String(),
		BookingID: nil,
		EmailType: emailType,
		Status:    models.EmailDeliveryStateSent,
		Recipient: s.OpsEmail,
		SentAt:    nowUnix,
	}
	if err := s.Ledger.LogSent(ctx, entry); err != nil {
		return err
	}

	s.Logger.Info("digest: sent", zap.String("emailType", emailType))
	return nil
}

// pruneLedger drops expired dedup rows. Failures are logged and swallowed.
func (s *Service) pruneLedger(ctx context.Context, now time.Time) {
	cutoff := now.Add(-ledgerRetention).Unix()
	deleted, err := s.Ledger.PruneBefore(ctx, cutoff)
	if err != nil {
		s.Logger.Warn("digest: ledger prune failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		s.Logger.Info("digest: pruned expired ledger rows", zap.Int64("deleted", deleted))
	}
}

// digestBody renders the status breakdown in a stable order.
func digestBody(now time.Time, counts map[models.BookingStatus]int64) string {
	statuses := make([]string, 0, len(counts))
	for status := range counts {
		statuses = append(statuses, string(status))
	}
	sort.Strings(statuses)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Booking summary as of %s\n\n", now.UTC().Format("2006-01-02 15:04 MST"))

	var total int64
	for _, status := range statuses {
		count := counts[models.BookingStatus(status)]
		total += count
		fmt.Fprintf(&sb, "  %-16s %d\n", status, count)
	}
	fmt.Fprintf(&sb, "\nTotal bookings: %d\n", total)

	awaiting := counts[models.StatusPending] + counts[models.StatusPendingDeposit] + counts[models.StatusPaidDeposit]
	if awaiting > 0 {
		fmt.Fprintf(&sb, "Awaiting a decision: %d\n", awaiting)
	}
	return sb.String()
}
