package tcp

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/ddpbfs.net/internal/adapter/logging"
	"gitlab.com/ddpbfs.net/internal/tcp/connectionmanager"
)

type echoHandler struct {
	calls atomic.Int32
	fail  bool
}

func (h *echoHandler) HandleConn(_ context.Context, conn net.Conn) error {
	h.calls.Add(1)
	data, err := connectionmanager.ReadMessage(conn, time.Second)
	if err != nil {
		return err
	}
	if h.fail {
		return errors.New("refused")
	}
	_, err = conn.Write(data)
	return err
}

func newLoopbackServer(t *testing.T, options ...TCPServerOption) *TCPServer {
	t.Helper()
	options = append([]TCPServerOption{WithAddress("127.0.0.1:0")}, options...)
	s := NewTCPServer("test", logging.NewNopLogger(), options...)
	require.NoError(t, s.Listen())
	t.Cleanup(s.Stop)
	return s
}

func roundTrip(t *testing.T, addr net.Addr, payload string) string {
	t.Helper()
	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte(payload))
	require.NoError(t, err)
	require.NoError(t, conn.(*net.TCPConn).CloseWrite())
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	data, err := io.ReadAll(conn)
	require.NoError(t, err)
	return string(data)
}

func TestAddrBeforeListen(t *testing.T) {
	s := NewTCPServer("idle", logging.NewNopLogger())
	assert.Nil(t, s.Addr())
}

func TestListenRejectsBadAddress(t *testing.T) {
	s := NewTCPServer("bad", logging.NewNopLogger(), WithAddress("127.0.0.1:99999"))
	assert.Error(t, s.Listen())
}

func TestServeHandlesConnectionsConcurrently(t *testing.T) {
	h := &echoHandler{}
	s := newLoopbackServer(t, WithHandler(h))
	s.Serve(context.Background())

	done := make(chan string, 3)
	for _, msg := range []string{"one", "two", "three"} {
		go func(msg string) {
			done <- roundTrip(t, s.Addr(), msg)
		}(msg)
	}
	got := map[string]bool{}
	for i := 0; i < 3; i++ {
		got[<-done] = true
	}

	assert.Equal(t, map[string]bool{"one": true, "two": true, "three": true}, got)
	assert.Equal(t, int32(3), h.calls.Load())
}

func TestServeSurvivesHandlerError(t *testing.T) {
	h := &echoHandler{fail: true}
	s := newLoopbackServer(t, WithHandler(h))
	s.Serve(context.Background())

	assert.Empty(t, roundTrip(t, s.Addr(), "first"))
	assert.Empty(t, roundTrip(t, s.Addr(), "second"))
	assert.Equal(t, int32(2), h.calls.Load())
}

func TestAcceptOneTimesOut(t *testing.T) {
	s := newLoopbackServer(t)

	_, err := s.AcceptOne(20 * time.Millisecond)
	assert.ErrorIs(t, err, ErrAcceptTimeout)
}

func TestAcceptOneHandsOutConnection(t *testing.T) {
	s := newLoopbackServer(t)

	reply := make(chan string, 1)
	go func() {
		reply <- roundTrip(t, s.Addr(), `{"id":"c1"}`)
	}()

	conn, err := s.AcceptOne(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, s.connectionMgr.Count())

	data, err := connectionmanager.ReadMessage(conn, time.Second)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"c1"}`, string(data))
	require.NoError(t, connectionmanager.SendMessage(conn, map[string]bool{"ok": true}))
	s.Done(conn)

	assert.JSONEq(t, `{"ok":true}`, <-reply)
	assert.Equal(t, 0, s.connectionMgr.Count())
}

func TestAcceptOneAfterStop(t *testing.T) {
	s := newLoopbackServer(t)
	s.Stop()

	_, err := s.AcceptOne(time.Second)
	assert.ErrorIs(t, err, ErrServerStopped)
}

func TestStopUnblocksAcceptOne(t *testing.T) {
	s := newLoopbackServer(t)

	errCh := make(chan error, 1)
	go func() {
		_, err := s.AcceptOne(5 * time.Second)
		errCh <- err
	}()
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrServerStopped)
	case <-time.After(2 * time.Second):
		t.Fatal("AcceptOne still blocked after Stop")
	}
}

type recordingLogger struct {
	mu    sync.Mutex
	infos map[string][]interface{}
}

func (l *recordingLogger) Info(msg string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos[msg] = args
}
func (l *recordingLogger) Error(string, ...interface{}) {}
func (l *recordingLogger) Debug(string, ...interface{}) {}
func (l *recordingLogger) Warn(string, ...interface{})  {}

func TestStopClosesOpenConnections(t *testing.T) {
	logger := &recordingLogger{infos: make(map[string][]interface{})}
	s := NewTCPServer("test", logger, WithAddress("127.0.0.1:0"))
	require.NoError(t, s.Listen())

	client, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	_, err = s.AcceptOne(2 * time.Second)
	require.NoError(t, err)
	require.Equal(t, 1, s.connectionMgr.Count())

	s.Stop()
	assert.Equal(t, 0, s.connectionMgr.Count())

	logger.mu.Lock()
	defer logger.mu.Unlock()
	assert.Equal(t, []interface{}{"server", "test", "closedConnections", 1}, logger.infos["TCP server stopped"])

	// the peer sees the connection closed
	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	data, err := io.ReadAll(client)
	assert.NoError(t, err)
	assert.Empty(t, data)
}
