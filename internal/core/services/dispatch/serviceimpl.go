package dispatch

import (
	"context"
	"sync/atomic"
	"time"

	"gitlab.com/ddpbfs.net/internal/core/ports/primary"
	"gitlab.com/ddpbfs.net/internal/core/services/registry"
	"gitlab.com/ddpbfs.net/internal/domain"
)

var _ IDispatchService = &DispatchService{}

// Source is the queue side dispatch draws candidates from
type Source interface {
	Drain(ctx context.Context, max int, timeout time.Duration) []domain.Candidate
	Exhausted() bool
}

// DispatchService implements IDispatchService
type DispatchService struct {
	registry     registry.IClientRegistry
	source       Source
	found        *domain.FoundFlag
	blob         domain.VerificationBlob
	payloadSize  int
	drainTimeout time.Duration
	processed    atomic.Int64
	logger       primary.Logger
	now          func() time.Time
}

func NewDispatchService(
	registry registry.IClientRegistry,
	source Source,
	found *domain.FoundFlag,
	blob domain.VerificationBlob,
	payloadSize int,
	drainTimeout time.Duration,
	logger primary.Logger,
) *DispatchService {
	return &DispatchService{
		registry:     registry,
		source:       source,
		found:        found,
		blob:         blob,
		payloadSize:  payloadSize,
		drainTimeout: drainTimeout,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *DispatchService) Prepare(ctx context.Context) *domain.WorkUnit {
	candidates := s.source.Drain(ctx, s.payloadSize, s.drainTimeout)
	if len(candidates) == 0 {
		return nil
	}
	return domain.NewWorkUnit(candidates, s.blob)
}

func (s *DispatchService) Handle(contact Contact, unit *domain.WorkUnit) Outcome {
	if contact.Found {
		if s.found.Set(contact.CorrectPassword) {
			s.logger.Info("Correct password reported", "clientID", contact.ClientID, "password", contact.CorrectPassword)
		}
		return OutcomeFound
	}

	known := s.registry.Lookup(contact.ClientID)
	if known != nil {
		// A repeat contact without a find means the previous batch was checked in full
		s.processed.Add(int64(known.AssignedCount()))
	}

	if unit == nil {
		if known == nil {
			s.logger.Debug("No work left for new client", "clientID", contact.ClientID)
			return OutcomeRejected
		}
		// The client stops once it receives nothing
		s.registry.Release(contact.ClientID)
		return OutcomeReleased
	}

	s.registry.Upsert(contact.ClientID, s.now())
	if err := s.registry.Assign(contact.ClientID, unit); err != nil {
		// Evicted between Upsert and Assign; try again as a fresh client
		s.registry.Upsert(contact.ClientID, s.now())
		if err := s.registry.Assign(contact.ClientID, unit); err != nil {
			s.logger.Error("Failed to record assignment", "clientID", contact.ClientID, "error", err)
		}
	}
	return OutcomeSend
}

func (s *DispatchService) Exhausted() bool {
	return s.source.Exhausted()
}

func (s *DispatchService) Processed() int64 {
	return s.processed.Load()
}
