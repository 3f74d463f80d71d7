package dispatch

import (
	"context"

	"gitlab.com/ddpbfs.net/internal/domain"
)

// Outcome is what the dispatch server must do with the connection
type Outcome int

const (
	// OutcomeFound means the client reported the password
	OutcomeFound Outcome = iota + 1
	// OutcomeSend means the prepared unit was assigned and must be written back
	OutcomeSend
	// OutcomeRejected means an unknown client arrived with no work left
	OutcomeRejected
	// OutcomeReleased means a known client finished and no work is left for it
	OutcomeReleased
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeSend:
		return "send"
	case OutcomeRejected:
		return "rejected"
	case OutcomeReleased:
		return "released"
	default:
		return "unknown"
	}
}

// Contact is one decoded client request
type Contact struct {
	ClientID        string
	Found           bool
	CorrectPassword string
}

// IDispatchService decides how each client contact is answered
type IDispatchService interface {
	// Prepare batches the next unit from the queue, or returns nil when nothing arrived in time
	Prepare(ctx context.Context) *domain.WorkUnit

	// Handle applies a contact against the registry. unit may be nil when no work is prepared;
	// it is consumed only when the outcome is OutcomeSend.
	Handle(contact Contact, unit *domain.WorkUnit) Outcome

	// Exhausted reports that no further work will ever be preparable
	Exhausted() bool

	Processed() int64
}
