package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	bookingRepo "solera/database/repository/booking"
	"solera/models"
	"solera/services/gateway"
	"solera/services/storage"
	"solera/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// evidenceExtensions lists the upload types accepted for deposit slips.
var evidenceExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".pdf":  true,
}

// BookingHandler serves the public token routes and the admin booking routes.
type BookingHandler struct {
	Gateway  *gateway.Service
	Storage  storage.EvidenceStorage
	Bookings bookingRepo.Repository
	Logger   *zap.Logger
}

// NewBookingHandler constructs the booking handler.
func NewBookingHandler(gw *gateway.Service, store storage.EvidenceStorage, bookings bookingRepo.Repository, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{
		Gateway:  gw,
		Storage:  store,
		Bookings: bookings,
		Logger:   logger,
	}
}

// GetBookingByTokenHandler returns the sanitized booking view for a
// capability token.
func (h *BookingHandler) GetBookingByTokenHandler(c *gin.Context) {
	b, err := h.Gateway.GetBookingByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b.Summary())
}

// GetDepositImageByTokenHandler streams the deposit evidence for the booking
// owning the capability token.
func (h *BookingHandler) GetDepositImageByTokenHandler(c *gin.Context) {
	b, err := h.Gateway.GetBookingByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	h.streamDepositImage(c, b)
}

// GetBookingByIDHandler returns a booking on the authenticated-admin path.
func (h *BookingHandler) GetBookingByIDHandler(c *gin.Context) {
	b, err := h.Gateway.GetBookingByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// GetDepositImageByIDHandler streams the deposit evidence on the
// authenticated-admin path.
func (h *BookingHandler) GetDepositImageByIDHandler(c *gin.Context) {
	b, err := h.Gateway.GetBookingByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	h.streamDepositImage(c, b)
}

// streamDepositImage proxies the evidence bytes. The blob URL never reaches
// the caller; only bytes and a content type do, with sniffing and framing
// disabled at the edge.
func (h *BookingHandler) streamDepositImage(c *gin.Context, b *models.Booking) {
	data, contentType, err := h.Gateway.ResolveDepositImage(c.Request.Context(), b)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("X-Frame-Options", "DENY")
	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, contentType, data)
}

// UploadDepositEvidenceHandler accepts the deposit slip on the token path.
// The upload is only legal while the booking awaits its deposit; the
// conditional status update enforces that even against concurrent submissions.
func (h *BookingHandler) UploadDepositEvidenceHandler(c *gin.Context) {
	b, err := h.Gateway.GetBookingByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	file, err := c.FormFile("evidence")
	if err != nil {
		utils.RespondError(c, utils.NewValidationError("missing evidence file"))
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !evidenceExtensions[ext] {
		utils.RespondError(c, utils.NewValidationError("unsupported evidence file type"))
		return
	}

	tmpPath := filepath.Join(os.TempDir(), "evidence-"+b.ID+ext)
	if err := c.SaveUploadedFile(file, tmpPath); err != nil {
		utils.RespondError(c, utils.NewInternalError("failed to buffer upload", err))
		return
	}
	defer os.Remove(tmpPath)

	evidenceURL, err := h.Storage.UploadEvidence(c.Request.Context(), tmpPath, b.ID)
	if err != nil {
		utils.RespondError(c, utils.NewExternalServiceError("evidence storage upload failed", 0, err))
		return
	}

	now := time.Now().Unix()
	applied, err := h.Bookings.AttachDepositEvidence(c.Request.Context(), b.ID, evidenceURL, now)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if !applied {
		utils.RespondError(c, utils.NewValidationError("booking is not awaiting a deposit"))
		return
	}

	h.Logger.Info("deposit evidence attached", zap.String("bookingId", b.ID))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
