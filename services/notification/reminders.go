package notification

import (
	"context"
	"fmt"
	"time"

	bookingRepo "solera/database/repository/booking"
	emaillogRepo "solera/database/repository/emaillog"
	"solera/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Reminder lookahead windows. Both are half-open day buckets centered on the
// nominal lead time so hourly cron invocations never double-fire across
// boundaries: a booking falls in exactly one invocation day per window.
const (
	window7DayFrom = 6*24*time.Hour + 12*time.Hour  // 6.5 days
	window7DayTo   = 7*24*time.Hour + 12*time.Hour  // 7.5 days
	window24HFrom  = 12 * time.Hour                 // 0.5 days
	window24HTo    = 36 * time.Hour                 // 1.5 days
)

// Service dispatches booking reminders and operational digests. All sends
// flow through the dedup ledger; the service itself holds no state and may
// run concurrently with itself from any number of processes.
type Service struct {
	Bookings bookingRepo.Repository
	Ledger   emaillogRepo.Repository
	Mailer   Mailer
	OpsEmail string
	Logger   *zap.Logger
}

// NewService constructs the notification dispatcher.
func NewService(bookings bookingRepo.Repository, ledger emaillogRepo.Repository, mailer Mailer, opsEmail string, logger *zap.Logger) *Service {
	return &Service{
		Bookings: bookings,
		Ledger:   ledger,
		Mailer:   mailer,
		OpsEmail: opsEmail,
		Logger:   logger,
	}
}

// SendBookingReminders scans accepted bookings starting roughly 7 days and
// roughly 24 hours out and mails each requester at most once per window per
// day. One recipient's transport failure never blocks the rest; only a
// failure fetching a candidate window aborts the pass.
func (s *Service) SendBookingReminders(ctx context.Context, now time.Time) (*models.ReminderResult, error) {
	result := &models.ReminderResult{}

	sent7, err := s.dispatchWindow(ctx, now, window7DayFrom, window7DayTo, models.EmailTypeReminder7Day, result)
	if err != nil {
		return nil, err
	}
	result.Sent7Day = sent7

	sent24, err := s.dispatchWindow(ctx, now, window24HFrom, window24HTo, models.EmailTypeReminder24H, result)
	if err != nil {
		return nil, err
	}
	result.Sent24Hour = sent24

	s.Logger.Info("reminders: pass complete",
		zap.Int("sent7Day", result.Sent7Day),
		zap.Int("sent24Hour", result.Sent24Hour),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

func (s *Service) dispatchWindow(ctx context.Context, now time.Time, from, to time.Duration, emailType string, result *models.ReminderResult) (int, error) {
	nowUnix := now.Unix()
	windowFrom := now.Add(from).Unix()
	windowTo := now.Add(to).Unix()

	candidates, err := s.Bookings.FindAcceptedStartingBetween(ctx, windowFrom, windowTo)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range candidates {
		b := &candidates[i]

		already, err := s.Ledger.HasBeenSent(ctx, &b.ID, emailType, models.EmailDeliveryStateSent, b.Email, nowUnix)
		if err != nil {
			s.recordFailure(result, b.ID, emailType, err)
			continue
		}
		if already {
			continue
		}

		subject, body := reminderEmail(emailType, b)
		if err := s.Mailer.Send(ctx, b.Email, subject, body); err != nil {
			s.recordFailure(result, b.ID, emailType, err)
			continue
		}

		entry := &models.EmailSentLog{
			ID:        uuid.New().String(),
			BookingID: &b.ID,
			EmailType: emailType,
			Status:    models.EmailDeliveryStateSent,
			Recipient: b.Email,
			SentAt:    nowUnix,
		}
		if err := s.Ledger.LogSent(ctx, entry); err != nil {
			// The mail went out but the ledger write failed; surface it so
			// operators can correlate a possible duplicate tomorrow.
			s.recordFailure(result, b.ID, emailType, err)
			continue
		}
		sent++
	}
	return sent, nil
}

func (s *Service) recordFailure(result *models.ReminderResult, bookingID, emailType string, err error) {
	s.Logger.Warn("reminders: skipping booking",
		zap.String("bookingId", bookingID),
		zap.String("emailType", emailType),
		zap.Error(err),
	)
	result.Errors = append(result.Errors, models.ReminderFailure{
		BookingID: bookingID,
		Error:     err.Error(),
	})
}

// reminderEmail renders the subject and body for one reminder type.
func reminderEmail(emailType string, b *models.Booking) (string, string) {
	start := time.Unix(b.StartDate, 0).UTC().Format("Monday, 2 January 2006 at 15:04 MST")

	switch emailType {
	case models.EmailTypeReminder7Day:
		subject := "Your reservation is one week away"
		body := fmt.Sprintf(
			"Hello %s,\n\nThis is a reminder that your %s reservation is scheduled for %s.\n\nIf your plans have changed, please reply to this email so we can adjust the booking.\n\nSee you soon,\nThe venue team",
			b.CustomerName, b.EventType, start,
		)
		return subject, body
	case models.EmailTypeReminder24H:
		subject := "Your reservation is tomorrow"
		body := fmt.Sprintf(
			"Hello %s,\n\nYour %s reservation takes place on %s.\n\nRemember to check in with our staff on arrival.\n\nSee you soon,\nThe venue team",
			b.CustomerName, b.EventType, start,
		)
		return subject, body
	}
	return "Reservation reminder", fmt.Sprintf("Hello %s, your reservation is coming up on %s.", b.CustomerName, start)
}
