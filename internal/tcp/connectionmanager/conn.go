package connectionmanager

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"gitlab.com/ddpbfs.net/internal/core/ports/primary"
	"gitlab.com/ddpbfs.net/internal/tcp/defs"
)

// ConnectionManager tracks in-flight client connections so they can be
// torn down on shutdown
type ConnectionManager struct {
	Connections map[string]net.Conn
	ConnMutex   sync.RWMutex
	Logger      primary.Logger
}

// NewConnectionManager creates a new connection manager
func NewConnectionManager(logger primary.Logger) *ConnectionManager {
	return &ConnectionManager{
		Connections: make(map[string]net.Conn),
		Logger:      logger,
	}
}

// Track registers conn and returns the id it is tracked under
func (cm *ConnectionManager) Track(conn net.Conn) string {
	id := uuid.New().String()
	cm.ConnMutex.Lock()
	cm.Connections[id] = conn
	cm.ConnMutex.Unlock()
	return id
}

// Forget stops tracking a finished connection
func (cm *ConnectionManager) Forget(id string) {
	cm.ConnMutex.Lock()
	delete(cm.Connections, id)
	cm.ConnMutex.Unlock()
}

// ForgetConn stops tracking conn when its id is not at hand
func (cm *ConnectionManager) ForgetConn(conn net.Conn) {
	cm.ConnMutex.Lock()
	defer cm.ConnMutex.Unlock()
	for id, c := range cm.Connections {
		if c == conn {
			delete(cm.Connections, id)
			return
		}
	}
}

// Count returns the number of in-flight connections
func (cm *ConnectionManager) Count() int {
	cm.ConnMutex.RLock()
	defer cm.ConnMutex.RUnlock()
	return len(cm.Connections)
}

// CloseAll closes every tracked connection
func (cm *ConnectionManager) CloseAll() {
	cm.ConnMutex.Lock()
	defer cm.ConnMutex.Unlock()

	for id, conn := range cm.Connections {
		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			cm.Logger.Error("Failed to close connection", "connID", id, "error", err)
		}
		delete(cm.Connections, id)
	}
}

// ReadMessage reads until the peer half-closes its side. A read timeout is
// treated as the end of the message and whatever arrived is returned.
func ReadMessage(conn net.Conn, timeout time.Duration) ([]byte, error) {
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, fmt.Errorf("failed to set read deadline: %w", err)
	}

	data, err := io.ReadAll(io.LimitReader(conn, defs.MaxMessageSize))
	if err != nil {
		var netErr net.Error
		if !errors.As(err, &netErr) || !netErr.Timeout() {
			return data, fmt.Errorf("failed to read message: %w", err)
		}
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.CloseRead()
	}
	return data, nil
}

// DecodeMessage reads one message from conn and unmarshals it into v
func DecodeMessage(conn net.Conn, timeout time.Duration, v interface{}) error {
	data, err := ReadMessage(conn, timeout)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("empty message")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse message: %w", err)
	}
	return nil
}

// SendMessage writes v as JSON and half-closes the write side so the peer
// sees the end of the message
func SendMessage(conn net.Conn, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := conn.SetWriteDeadline(time.Now().Add(defs.WriteTimeout)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("failed to write message payload: %w", err)
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err := tcpConn.CloseWrite(); err != nil {
			return fmt.Errorf("failed to close write side: %w", err)
		}
	}
	return nil
}
