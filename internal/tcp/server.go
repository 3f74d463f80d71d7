package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"gitlab.com/ddpbfs.net/internal/core/ports/primary"
	"gitlab.com/ddpbfs.net/internal/tcp/connectionmanager"
	"gitlab.com/ddpbfs.net/internal/tcp/defs"
)

// ErrAcceptTimeout is returned by AcceptOne when no client connected before the deadline
var ErrAcceptTimeout = errors.New("accept timed out")

// ErrServerStopped is returned once the listener has been closed
var ErrServerStopped = errors.New("server stopped")

// TCPServer owns one listener. It either serves connections concurrently with a
// ConnHandler or hands them out one at a time through AcceptOne.
type TCPServer struct {
	name          string
	address       string
	handler       primary.ConnHandler
	logger        primary.Logger
	listener      *net.TCPListener
	connectionMgr *connectionmanager.ConnectionManager
	stopCh        chan struct{}
	stopOnce      sync.Once
	wg            sync.WaitGroup
}

// TCPServerOption configures a TCPServer
type TCPServerOption func(*TCPServer)

// WithAddress sets the server address
func WithAddress(address string) TCPServerOption {
	return func(s *TCPServer) {
		s.address = address
	}
}

// WithHandler sets the handler used by Serve
func WithHandler(handler primary.ConnHandler) TCPServerOption {
	return func(s *TCPServer) {
		s.handler = handler
	}
}

// NewTCPServer creates a new TCP server
func NewTCPServer(name string, logger primary.Logger, options ...TCPServerOption) *TCPServer {
	server := &TCPServer{
		name:          name,
		address:       ":9000", // Default address
		logger:        logger,
		connectionMgr: connectionmanager.NewConnectionManager(logger),
		stopCh:        make(chan struct{}),
	}

	for _, option := range options {
		option(server)
	}

	return server
}

// Listen binds the listener without accepting anything yet
func (s *TCPServer) Listen() error {
	addr, err := net.ResolveTCPAddr("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to resolve %s address %q: %w", s.name, s.address, err)
	}
	s.listener, err = net.ListenTCP("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start %s server: %w", s.name, err)
	}

	s.logger.Info("TCP server listening", "server", s.name, "address", s.listener.Addr().String())
	return nil
}

// Addr returns the bound address, or nil before Listen
func (s *TCPServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections in a goroutine, handling each in its own goroutine
func (s *TCPServer) Serve(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptConnections(ctx)
	}()
}

// acceptConnections accepts incoming connections
func (s *TCPServer) acceptConnections(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			default:
				s.logger.Error("Failed to accept connection", "server", s.name, "error", err)
				time.Sleep(defs.ConnectionRetryDelay) // Avoid tight loop on error
				continue
			}
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(ctx, conn)
		}()
	}
}

// handleConnection runs the handler on one connection and closes it
func (s *TCPServer) handleConnection(ctx context.Context, conn net.Conn) {
	id := s.connectionMgr.Track(conn)
	defer func() {
		s.connectionMgr.Forget(id)
		conn.Close()
	}()

	if err := s.handler.HandleConn(ctx, conn); err != nil {
		s.logger.Warn("Dropped connection", "server", s.name, "remote", conn.RemoteAddr().String(), "error", err)
	}
}

// AcceptOne waits up to timeout for the next connection. The caller must pass the
// connection to Done when finished with it.
func (s *TCPServer) AcceptOne(timeout time.Duration) (net.Conn, error) {
	select {
	case <-s.stopCh:
		return nil, ErrServerStopped
	default:
	}

	if err := s.listener.SetDeadline(time.Now().Add(timeout)); err != nil {
		return nil, fmt.Errorf("failed to set accept deadline: %w", err)
	}
	conn, err := s.listener.Accept()
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, ErrAcceptTimeout
		}
		select {
		case <-s.stopCh:
			return nil, ErrServerStopped
		default:
		}
		return nil, fmt.Errorf("failed to accept connection: %w", err)
	}

	s.connectionMgr.Track(conn)
	return conn, nil
}

// Done closes a connection obtained from AcceptOne
func (s *TCPServer) Done(conn net.Conn) {
	s.connectionMgr.ForgetConn(conn)
	conn.Close()
}

// Stop closes the listener and every in-flight connection, then waits for handlers
func (s *TCPServer) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)

		if s.listener != nil {
			if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
				s.logger.Error("Failed to close listener", "server", s.name, "error", err)
			}
		}

		remaining := s.connectionMgr.Count()
		s.connectionMgr.CloseAll()
		s.logger.Info("TCP server stopped", "server", s.name, "closedConnections", remaining)
	})
	s.wg.Wait()
}
