package registry

import (
	"time"

	"gitlab.com/ddpbfs.net/internal/domain"
)

// IClientRegistry is the authoritative set of known clients and their assignments
type IClientRegistry interface {
	// Lookup returns a copy of the client, or nil when unknown
	Lookup(id string) *domain.Client

	// Upsert creates the client if absent and refreshes its last activity
	Upsert(id string, now time.Time) *domain.Client

	// Touch refreshes a known client and reports whether it was known
	Touch(id string, now time.Time) bool

	// Assign records unit as the client's assignment, replacing any previous one
	Assign(id string, unit *domain.WorkUnit) error

	// Release removes a client that is leaving voluntarily; its assignment is dropped, not returned
	Release(id string)

	// Evict removes the client and returns its assignment for requeueing
	Evict(id string) *domain.WorkUnit

	// Reclaim evicts the client if it is still inactive at now, handing its
	// assignment to requeue before the eviction becomes visible
	Reclaim(id string, now time.Time, requeue func(*domain.WorkUnit)) bool

	// Snapshot returns every registered client annotated with its activity at now
	Snapshot(now time.Time) []*domain.Client

	// Active returns the clients seen within the inactivity threshold
	Active(now time.Time) []*domain.Client

	// Expired returns the ids of clients whose last activity is at least the threshold ago
	Expired(now time.Time) []string

	Len() int
}
