package handlers

import (
	"context"
	"fmt"
	"net"
	"time"

	"gitlab.com/ddpbfs.net/internal/core/ports/primary"
	"gitlab.com/ddpbfs.net/internal/core/services/registry"
	"gitlab.com/ddpbfs.net/internal/domain"
	"gitlab.com/ddpbfs.net/internal/tcp/connectionmanager"
	"gitlab.com/ddpbfs.net/internal/tcp/defs"
)

var _ primary.ConnHandler = (*HeartbeatHandler)(nil)

// HeartbeatHandler refreshes the liveness of known clients
type HeartbeatHandler struct {
	Registry    registry.IClientRegistry
	Found       *domain.FoundFlag
	Logger      primary.Logger
	ReadTimeout time.Duration
	Now         func() time.Time
}

func NewHeartbeatHandler(registry registry.IClientRegistry, found *domain.FoundFlag, logger primary.Logger) *HeartbeatHandler {
	return &HeartbeatHandler{
		Registry:    registry,
		Found:       found,
		Logger:      logger,
		ReadTimeout: defs.ReadTimeout,
		Now:         time.Now,
	}
}

// HandleConn implements the ConnHandler interface
func (h *HeartbeatHandler) HandleConn(ctx context.Context, conn net.Conn) error {
	var heartbeat defs.HeartbeatRequest
	if err := connectionmanager.DecodeMessage(conn, h.ReadTimeout, &heartbeat); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	if heartbeat.ID == "" {
		return fmt.Errorf("%w: missing id", ErrMalformedRequest)
	}

	// Unknown ids are not registered by a heartbeat
	if h.Registry.Touch(heartbeat.ID, h.Now()) {
		h.Logger.Debug("Client heartbeat received", "clientID", heartbeat.ID)
	}

	return connectionmanager.SendMessage(conn, defs.HeartbeatResponse{Found: h.Found.IsSet()})
}
