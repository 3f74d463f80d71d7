package domain

import "time"

// Clients send heartbeats every 60 seconds and are considered inactive
// after missing one of them.
const (
	HeartbeatInterval   = 60 * time.Second
	InactivityThreshold = 2 * HeartbeatInterval
)

// Client represents a brute-force worker known to the coordinator
type Client struct {
	ID           string    `json:"id"`
	LastActivity time.Time `json:"last_activity"`
	// Assignment is the unit currently entrusted to the client, if any.
	// The registry owns it; the client only refers to it.
	Assignment *WorkUnit `json:"-"`
	IsActive   bool      `json:"is_active"`
}

// NewClient creates a client first seen at now
func NewClient(id string, now time.Time) *Client {
	return &Client{
		ID:           id,
		LastActivity: now,
	}
}

// Active reports whether the client has been seen within threshold of now
func (c *Client) Active(now time.Time, threshold time.Duration) bool {
	return now.Sub(c.LastActivity) < threshold
}

func (c *Client) Refresh(now time.Time) {
	c.LastActivity = now
}

// AssignedCount is the number of candidates currently held by the client
func (c *Client) AssignedCount() int {
	return c.Assignment.Size()
}

// ClientRecord is the serialisable view of a client mirrored to external stores
type ClientRecord struct {
	ID            string    `json:"id"`
	LastActivity  time.Time `json:"last_activity"`
	AssignedCount int       `json:"assigned_count"`
	IsActive      bool      `json:"is_active"`
}

func (c *Client) Record() ClientRecord {
	return ClientRecord{
		ID:            c.ID,
		LastActivity:  c.LastActivity,
		AssignedCount: c.AssignedCount(),
		IsActive:      c.IsActive,
	}
}
