package gateway

import (
	"context"
	"io"
	"net/http"
	"time"

	bookingRepo "solera/database/repository/booking"
	"solera/models"
	"solera/utils"

	"go.uber.org/zap"
)

// maxEvidenceBytes caps an upstream evidence read. Deposit slips are photos
// or PDFs; anything beyond this is a misbehaving upstream.
const maxEvidenceBytes = 20 << 20

// Service is the secure resource access gateway: it resolves bookings by
// capability token or id and proxies deposit evidence bytes from blob
// storage so the underlying storage URL is never exposed to callers.
type Service struct {
	Bookings bookingRepo.Repository
	Client   *http.Client
	Logger   *zap.Logger
}

// NewService constructs the gateway with a bounded upstream client.
func NewService(bookings bookingRepo.Repository, logger *zap.Logger) *Service {
	return &Service{
		Bookings: bookings,
		Client:   &http.Client{Timeout: 15 * time.Second},
		Logger:   logger,
	}
}

// GetBookingByToken resolves the booking owning a capability token. Any
// failure mode collapses into the same generic not-found: an invalid token
// must be indistinguishable from a missing record so tokens cannot be
// enumerated.
func (s *Service) GetBookingByToken(ctx context.Context, token string) (*models.Booking, error) {
	if token == "" {
		return nil, utils.NewNotFoundError()
	}
	b, err := s.Bookings.GetByResponseToken(ctx, token)
	if err != nil {
		if !utils.IsNotFound(err) {
			s.Logger.Error("gateway: token lookup failed", zap.Error(err))
		}
		return nil, utils.NewNotFoundError()
	}
	return b, nil
}

// GetBookingByID resolves a booking for the authenticated-admin path.
func (s *Service) GetBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	if id == "" {
		return nil, utils.NewNotFoundError()
	}
	b, err := s.Bookings.GetByID(ctx, id)
	if err != nil {
		if utils.IsNotFound(err) {
			return nil, utils.NewNotFoundError()
		}
		return nil, err
	}
	return b, nil
}

// ResolveDepositImage fetches the deposit evidence blob and returns its bytes
// and content type. A booking without evidence yields the same not-found as
// an unresolvable booking. Upstream failures are external-service errors
// carrying the upstream status where available.
func (s *Service) ResolveDepositImage(ctx context.Context, b *models.Booking) ([]byte, string, error) {
	if b == nil || !b.HasDepositEvidence() {
		return nil, "", utils.NewNotFoundError()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.DepositEvidenceURL, nil)
	if err != nil {
		return nil, "", utils.NewInternalError("gateway: building evidence request", err)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", utils.NewTimeoutError(ctx.Err())
		}
		return nil, "", utils.NewExternalServiceError("evidence storage unreachable", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.Logger.Warn("gateway: evidence fetch returned non-200",
			zap.String("bookingId", b.ID),
			zap.Int("upstreamStatus", resp.StatusCode),
		)
		return nil, "", utils.NewExternalServiceError("evidence storage error", resp.StatusCode, nil)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxEvidenceBytes))
	if err != nil {
		return nil, "", utils.NewExternalServiceError("evidence read failed", 0, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}
