package secondary

import (
	"context"
	"time"

	"gitlab.com/ddpbfs.net/internal/domain"
)

// ClientRepository mirrors registry state to an external store for diagnostics.
// The in-memory registry stays authoritative.
type ClientRepository interface {
	// SaveClient stores the record and lets it expire after ttl
	SaveClient(ctx context.Context, client domain.ClientRecord, ttl time.Duration) error

	// RemoveClient deletes the record of a departed or evicted client
	RemoveClient(ctx context.Context, clientID string) error

	GetAllClients(ctx context.Context) ([]domain.ClientRecord, error)
}
