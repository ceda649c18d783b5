package storage

import "context"

// EvidenceStorage writes deposit evidence into external blob storage and
// returns the delivery URL recorded on the booking. There is no read path
// here: evidence is only ever read back through the access gateway proxy.
type EvidenceStorage interface {
	UploadEvidence(ctx context.Context, localFilePath, bookingID string) (string, error)
}
