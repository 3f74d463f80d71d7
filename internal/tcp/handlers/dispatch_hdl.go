package handlers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"gitlab.com/ddpbfs.net/internal/core/ports/primary"
	"gitlab.com/ddpbfs.net/internal/core/services/dispatch"
	"gitlab.com/ddpbfs.net/internal/domain"
	"gitlab.com/ddpbfs.net/internal/tcp/connectionmanager"
	"gitlab.com/ddpbfs.net/internal/tcp/defs"
)

// ErrMalformedRequest marks a request that could not be decoded or lacks a required field
var ErrMalformedRequest = errors.New("malformed request")

// dispatchRequest mirrors defs.DispatchRequest with pointers so absent keys can be told apart
type dispatchRequest struct {
	ID              string  `json:"id"`
	Found           *bool   `json:"found"`
	CorrectPassword *string `json:"correct_password"`
}

func (r *dispatchRequest) validate() (defs.DispatchRequest, error) {
	if r.ID == "" {
		return defs.DispatchRequest{}, fmt.Errorf("%w: missing id", ErrMalformedRequest)
	}
	if r.Found == nil {
		return defs.DispatchRequest{}, fmt.Errorf("%w: missing found", ErrMalformedRequest)
	}
	request := defs.DispatchRequest{ID: r.ID, Found: *r.Found}
	if request.Found {
		if r.CorrectPassword == nil || *r.CorrectPassword == "" {
			return defs.DispatchRequest{}, fmt.Errorf("%w: missing correct_password", ErrMalformedRequest)
		}
		request.CorrectPassword = *r.CorrectPassword
	}
	return request, nil
}

// DispatchHandler runs one work exchange with a client
type DispatchHandler struct {
	DispatchService dispatch.IDispatchService
	Logger          primary.Logger
	ReadTimeout     time.Duration
}

func NewDispatchHandler(dispatchService dispatch.IDispatchService, logger primary.Logger) *DispatchHandler {
	return &DispatchHandler{
		DispatchService: dispatchService,
		Logger:          logger,
		ReadTimeout:     defs.ReadTimeout,
	}
}

// Exchange reads the client's request and answers it with unit when appropriate.
// The caller closes conn. unit is consumed only when the outcome is OutcomeSend.
func (h *DispatchHandler) Exchange(ctx context.Context, conn net.Conn, unit *domain.WorkUnit) (dispatch.Outcome, error) {
	var raw dispatchRequest
	if err := connectionmanager.DecodeMessage(conn, h.ReadTimeout, &raw); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	request, err := raw.validate()
	if err != nil {
		return 0, err
	}

	outcome := h.DispatchService.Handle(dispatch.Contact{
		ClientID:        request.ID,
		Found:           request.Found,
		CorrectPassword: request.CorrectPassword,
	}, unit)

	if outcome != dispatch.OutcomeSend {
		h.Logger.Debug("Closing without work", "clientID", request.ID, "outcome", outcome.String())
		return outcome, nil
	}

	assignment := defs.WorkAssignment{
		Data:      string(unit.Blob()),
		Passwords: unit.Candidates(),
	}
	if err := connectionmanager.SendMessage(conn, assignment); err != nil {
		// The assignment stays recorded; the reaper reclaims it if the client goes silent
		h.Logger.Error("Failed to send work", "clientID", request.ID, "error", err)
		return outcome, err
	}

	h.Logger.Info("Sent new instruction", "clientID", request.ID, "address", conn.RemoteAddr().String(), "candidates", unit.Size())
	return outcome, nil
}
