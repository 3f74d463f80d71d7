package secondary

import (
	"context"

	"gitlab.com/ddpbfs.net/internal/domain"
)

// VerificationExtractor obtains the verification blob of a protected document
type VerificationExtractor interface {
	Extract(ctx context.Context, docType domain.DocumentType, path string) (domain.VerificationBlob, error)
}
