package clientport

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"gitlab.com/ddpbfs.net/internal/core/ports/primary"
	"gitlab.com/ddpbfs.net/internal/core/ports/secondary"
	"gitlab.com/ddpbfs.net/internal/domain"
)

const clientKeyPrefix = "client:"

var _ secondary.ClientRepository = (*ClientRepository)(nil)

// ClientRepository mirrors registry records into Redis
type ClientRepository struct {
	redisClient *redis.Client
	keyPrefix   string
	logger      primary.Logger
}

// NewClientRepository creates a new Redis client repository. Keys are
// namespaced by session so concurrent coordinators can share one server.
func NewClientRepository(redisClient *redis.Client, session string, logger primary.Logger) *ClientRepository {
	prefix := clientKeyPrefix
	if session != "" {
		prefix = session + ":" + clientKeyPrefix
	}
	return &ClientRepository{
		redisClient: redisClient,
		keyPrefix:   prefix,
		logger:      logger,
	}
}

// Ping checks the server is reachable
func (r *ClientRepository) Ping(ctx context.Context) error {
	if err := r.redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to reach redis: %w", err)
	}
	return nil
}

func (r *ClientRepository) Close() error {
	return r.redisClient.Close()
}

func (r *ClientRepository) key(id string) string {
	return r.keyPrefix + id
}

// SaveClient stores the record with an expiry matching the inactivity threshold
func (r *ClientRepository) SaveClient(ctx context.Context, client domain.ClientRecord, ttl time.Duration) error {
	clientJSON, err := json.Marshal(client)
	if err != nil {
		return fmt.Errorf("failed to marshal client record: %w", err)
	}

	if err := r.redisClient.Set(ctx, r.key(client.ID), clientJSON, ttl).Err(); err != nil {
		r.logger.Error("Failed to save client record", "clientID", client.ID, "error", err)
		return fmt.Errorf("failed to save client record: %w", err)
	}
	return nil
}

func (r *ClientRepository) RemoveClient(ctx context.Context, clientID string) error {
	if err := r.redisClient.Del(ctx, r.key(clientID)).Err(); err != nil {
		r.logger.Error("Failed to remove client record", "clientID", clientID, "error", err)
		return fmt.Errorf("failed to remove client record: %w", err)
	}
	return nil
}

// GetAllClients retrieves every mirrored record
func (r *ClientRepository) GetAllClients(ctx context.Context) ([]domain.ClientRecord, error) {
	var cursor uint64
	var clientKeys []string
	var err error

	for {
		var keys []string
		keys, cursor, err = r.redisClient.Scan(ctx, cursor, r.keyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan client keys: %w", err)
		}
		clientKeys = append(clientKeys, keys...)
		if cursor == 0 {
			break
		}
	}

	clients := make([]domain.ClientRecord, 0, len(clientKeys))
	if len(clientKeys) == 0 {
		return clients, nil
	}

	clientData, err := r.redisClient.MGet(ctx, clientKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve client data: %w", err)
	}

	for _, data := range clientData {
		// expired between SCAN and MGET
		if data == nil {
			continue
		}
		raw, ok := data.(string)
		if !ok {
			continue
		}
		var client domain.ClientRecord
		if err := json.Unmarshal([]byte(raw), &client); err != nil {
			return nil, fmt.Errorf("failed to unmarshal client data: %w", err)
		}
		clients = append(clients, client)
	}
	return clients, nil
}
