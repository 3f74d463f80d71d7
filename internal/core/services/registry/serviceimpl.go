package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"gitlab.com/ddpbfs.net/internal/core/ports/primary"
	"gitlab.com/ddpbfs.net/internal/core/ports/secondary"
	"gitlab.com/ddpbfs.net/internal/domain"
)

var _ IClientRegistry = &ClientRegistry{}

var ErrClientNotFound = errors.New("client not found")

const mirrorTimeout = 2 * time.Second

// ClientRegistry implements IClientRegistry in memory, optionally mirroring
// records to a ClientRepository
type ClientRegistry struct {
	mu        sync.RWMutex
	clients   map[string]*domain.Client
	threshold time.Duration
	mirror    secondary.ClientRepository
	// mirrorMu orders mirror writes; each one re-reads the map so a late write never resurrects a removed client
	mirrorMu sync.Mutex
	logger   primary.Logger
}

// RegistryOption configures a ClientRegistry
type RegistryOption func(*ClientRegistry)

// WithMirror copies every change to repo on a best-effort basis
func WithMirror(repo secondary.ClientRepository) RegistryOption {
	return func(r *ClientRegistry) {
		r.mirror = repo
	}
}

func NewClientRegistry(threshold time.Duration, logger primary.Logger, options ...RegistryOption) *ClientRegistry {
	r := &ClientRegistry{
		clients:   make(map[string]*domain.Client),
		threshold: threshold,
		logger:    logger,
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// Threshold is the inactivity window after which a client may be reclaimed
func (r *ClientRegistry) Threshold() time.Duration {
	return r.threshold
}

func (r *ClientRegistry) Lookup(id string) *domain.Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.clients[id]
	if !exists {
		return nil
	}
	cp := *c
	return &cp
}

func (r *ClientRegistry) Upsert(id string, now time.Time) *domain.Client {
	r.mu.Lock()
	c, exists := r.clients[id]
	if !exists {
		c = domain.NewClient(id, now)
		r.clients[id] = c
		r.logger.Info("Client registered", "clientID", id)
	} else {
		c.Refresh(now)
	}
	cp := *c
	r.mu.Unlock()

	r.save(id)
	return &cp
}

func (r *ClientRegistry) Touch(id string, now time.Time) bool {
	r.mu.Lock()
	c, exists := r.clients[id]
	if !exists {
		r.mu.Unlock()
		return false
	}
	c.Refresh(now)
	r.mu.Unlock()

	r.save(id)
	return true
}

func (r *ClientRegistry) Assign(id string, unit *domain.WorkUnit) error {
	r.mu.Lock()
	c, exists := r.clients[id]
	if !exists {
		r.mu.Unlock()
		return fmt.Errorf("failed to assign work: %w: %s", ErrClientNotFound, id)
	}
	c.Assignment = unit
	r.mu.Unlock()

	r.save(id)
	return nil
}

func (r *ClientRegistry) Release(id string) {
	r.mu.Lock()
	_, exists := r.clients[id]
	delete(r.clients, id)
	r.mu.Unlock()

	if exists {
		r.logger.Info("Client released", "clientID", id)
		r.remove(id)
	}
}

func (r *ClientRegistry) Evict(id string) *domain.WorkUnit {
	r.mu.Lock()
	c, exists := r.clients[id]
	if !exists {
		r.mu.Unlock()
		return nil
	}
	delete(r.clients, id)
	r.mu.Unlock()

	r.remove(id)
	return c.Assignment
}

func (r *ClientRegistry) Reclaim(id string, now time.Time, requeue func(*domain.WorkUnit)) bool {
	r.mu.Lock()
	c, exists := r.clients[id]
	if !exists || c.Active(now, r.threshold) {
		r.mu.Unlock()
		return false
	}
	// Len must never report the client gone while its candidates are still out of the queue
	if c.Assignment != nil {
		requeue(c.Assignment)
	}
	delete(r.clients, id)
	r.mu.Unlock()

	r.remove(id)
	return true
}

func (r *ClientRegistry) Snapshot(now time.Time) []*domain.Client {
	r.mu.RLock()
	clients := make([]*domain.Client, 0, len(r.clients))
	for _, c := range r.clients {
		cp := *c
		// Annotate with active status (not modifying the registry's record)
		cp.IsActive = c.Active(now, r.threshold)
		clients = append(clients, &cp)
	}
	r.mu.RUnlock()

	sort.Slice(clients, func(i, j int) bool { return clients[i].ID < clients[j].ID })
	return clients
}

func (r *ClientRegistry) Active(now time.Time) []*domain.Client {
	all := r.Snapshot(now)
	active := make([]*domain.Client, 0, len(all))
	for _, c := range all {
		if c.IsActive {
			active = append(active, c)
		}
	}
	return active
}

func (r *ClientRegistry) Expired(now time.Time) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	expired := make([]string, 0)
	for id, c := range r.clients {
		if !c.Active(now, r.threshold) {
			expired = append(expired, id)
		}
	}
	sort.Strings(expired)
	return expired
}

func (r *ClientRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// save mirrors the current state of id, or nothing if it is no longer registered
func (r *ClientRegistry) save(id string) {
	if r.mirror == nil {
		return
	}
	r.mirrorMu.Lock()
	defer r.mirrorMu.Unlock()

	r.mu.RLock()
	c, exists := r.clients[id]
	var cp domain.Client
	if exists {
		cp = *c
	}
	r.mu.RUnlock()
	if !exists {
		return
	}

	cp.IsActive = true
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	if err := r.mirror.SaveClient(ctx, cp.Record(), r.threshold); err != nil {
		r.logger.Warn("Failed to mirror client", "clientID", id, "error", err)
	}
}

// remove drops id from the mirror unless it has registered again since
func (r *ClientRegistry) remove(id string) {
	if r.mirror == nil {
		return
	}
	r.mirrorMu.Lock()
	defer r.mirrorMu.Unlock()

	r.mu.RLock()
	_, exists := r.clients[id]
	r.mu.RUnlock()
	if exists {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	if err := r.mirror.RemoveClient(ctx, id); err != nil {
		r.logger.Warn("Failed to remove mirrored client", "clientID", id, "error", err)
	}
}
