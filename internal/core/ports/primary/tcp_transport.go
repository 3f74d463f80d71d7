package primary

import (
	"context"
	"net"
)

// ConnHandler handles one connect/respond/close exchange on a listener
type ConnHandler interface {
	HandleConn(ctx context.Context, conn net.Conn) error
}
