package coordinator

import (
	"time"

	"gitlab.com/ddpbfs.net/internal/core/services/generator"
	"gitlab.com/ddpbfs.net/internal/domain"
)

// Status is a point-in-time view of the session for operators
type Status struct {
	Found     bool          `json:"found"`
	Clients   int           `json:"clients"`
	Active    int           `json:"active_clients"`
	Processed int64         `json:"processed"`
	Space     int64         `json:"space"`
	Queued    int           `json:"queued"`
	Exhausted bool          `json:"queue_exhausted"`
	Speed     float64       `json:"speed_hps"`
	Uptime    time.Duration `json:"uptime_ns"`
}

// Status reports session progress. Speed is processed candidates per second since start.
func (c *Coordinator) Status() Status {
	now := time.Now()
	clients := c.registry.Snapshot(now)

	active := 0
	for _, cl := range clients {
		if cl.IsActive {
			active++
		}
	}

	var uptime time.Duration
	if started := c.startedAt(); !started.IsZero() {
		uptime = now.Sub(started)
	}
	processed := c.dispatchSvc.Processed()
	var speed float64
	if uptime > 0 {
		speed = float64(processed) / uptime.Seconds()
	}

	return Status{
		Found:     c.found.IsSet(),
		Clients:   len(clients),
		Active:    active,
		Processed: processed,
		Space:     generator.Count(len(c.cfg.Alphabet), c.cfg.MinLength, c.cfg.MaxLength),
		Queued:    c.queue.Len(),
		Exhausted: c.queue.Exhausted(),
		Speed:     speed,
		Uptime:    uptime,
	}
}

// Clients returns the registry annotated with activity
func (c *Coordinator) Clients() []domain.ClientRecord {
	clients := c.registry.Snapshot(time.Now())
	records := make([]domain.ClientRecord, 0, len(clients))
	for _, cl := range clients {
		records = append(records, cl.Record())
	}
	return records
}
