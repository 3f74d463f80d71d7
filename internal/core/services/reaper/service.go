package reaper

import (
	"time"

	"gitlab.com/ddpbfs.net/internal/core/ports/primary"
	"gitlab.com/ddpbfs.net/internal/core/services/registry"
	"gitlab.com/ddpbfs.net/internal/domain"
)

// Requeuer takes back the candidates of an abandoned work unit
type Requeuer interface {
	Requeue(cs []domain.Candidate)
}

// SweepReport summarises one reaper pass
type SweepReport struct {
	Evicted   []string
	Requeued  int
	Remaining int
}

// ReaperService evicts silent clients and returns their work to the queue
type ReaperService struct {
	registry registry.IClientRegistry
	queue    Requeuer
	logger   primary.Logger
}

func NewReaperService(registry registry.IClientRegistry, queue Requeuer, logger primary.Logger) *ReaperService {
	return &ReaperService{
		registry: registry,
		queue:    queue,
		logger:   logger,
	}
}

// Sweep evicts every client inactive at now. Each evicted client's unit is
// requeued whole, in its original order.
func (s *ReaperService) Sweep(now time.Time) SweepReport {
	var report SweepReport
	for _, id := range s.registry.Expired(now) {
		requeued := 0
		evicted := s.registry.Reclaim(id, now, func(unit *domain.WorkUnit) {
			candidates := unit.Candidates()
			s.queue.Requeue(candidates)
			requeued = len(candidates)
		})
		if !evicted {
			// heard from since Expired was taken
			continue
		}
		report.Evicted = append(report.Evicted, id)
		report.Requeued += requeued
		s.logger.Info("Client is inactive", "clientID", id, "requeued", requeued)
	}
	report.Remaining = s.registry.Len()
	if len(report.Evicted) > 0 {
		s.logger.Info("Active clients", "count", report.Remaining)
	}
	return report
}
