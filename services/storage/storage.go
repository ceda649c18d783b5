package storage

import (
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryStorage implements EvidenceStorage on Cloudinary.
type CloudinaryStorage struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryStorage creates a new CloudinaryStorage instance.
func NewCloudinaryStorage(cld *cloudinary.Cloudinary) *CloudinaryStorage {
	return &CloudinaryStorage{cld: cld}
}

// UploadEvidence uploads a deposit slip into the evidence folder, keyed by
// booking id so a re-submission replaces the previous slip rather than
// accumulating copies. Returns the HTTPS delivery URL.
func (s *CloudinaryStorage) UploadEvidence(ctx context.Context, localFilePath, bookingID string) (string, error) {
	result, err := s.cld.Upload.Upload(ctx, localFilePath, uploader.UploadParams{
		Folder:   "deposit-evidence",
		PublicID: bookingID,
	})
	if err != nil {
		return "", fmt.Errorf("CloudinaryStorage: failed to upload evidence: %w", err)
	}
	if result.SecureURL == "" {
		return "", fmt.Errorf("CloudinaryStorage: no delivery URL returned")
	}
	return result.SecureURL, nil
}
