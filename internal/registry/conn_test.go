package registry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConnPair(t *testing.T) (server *websocket.Conn, client *websocket.Conn) {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	ready := make(chan *websocket.Conn, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		ready <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	clientConn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { clientConn.Close() })

	serverConn := <-ready
	t.Cleanup(func() { serverConn.Close() })

	return serverConn, clientConn
}

func TestWSConn_SendDeliversInOrder(t *testing.T) {
	server, client := newTestConnPair(t)
	conn := NewWSConn(server, clockwork.NewRealClock())
	t.Cleanup(conn.Close)

	for _, msg := range []string{`{"n":1}`, `{"n":2}`, `{"n":3}`} {
		require.NoError(t, conn.Send([]byte(msg)))
	}

	for _, want := range []string{`{"n":1}`, `{"n":2}`, `{"n":3}`} {
		client.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, got, err := client.ReadMessage()
		require.NoError(t, err)
		assert.JSONEq(t, want, string(got))
	}
}

func TestWSConn_SendAfterCloseFails(t *testing.T) {
	server, _ := newTestConnPair(t)
	conn := NewWSConn(server, clockwork.NewRealClock())

	conn.Close()
	conn.Close()

	assert.ErrorIs(t, conn.Send([]byte(`{}`)), ErrConnClosed)
}

func TestWSConn_SlowConsumerReported(t *testing.T) {
	server, _ := newTestConnPair(t)
	conn := NewWSConn(server, clockwork.NewRealClock())
	t.Cleanup(conn.Close)

	// The client never reads; once the socket buffers and the queue fill up
	// Send must fail instead of blocking.
	payload := []byte(`{"content":"` + strings.Repeat("x", 64*1024) + `"}`)
	var err error
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if err = conn.Send(payload); err != nil {
			break
		}
	}
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSlowConsumer) || errors.Is(err, ErrConnClosed), "unexpected error: %v", err)
}

func TestWSConn_ReadMessagesStopsOnHandlerError(t *testing.T) {
	server, client := newTestConnPair(t)
	conn := NewWSConn(server, clockwork.NewRealClock())
	t.Cleanup(conn.Close)

	errBad := errors.New("bad frame")
	done := make(chan error, 1)
	go func() {
		done <- conn.ReadMessages(func(data []byte) error {
			if string(data) == "bad" {
				return errBad
			}
			return nil
		})
	}()

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte("ok")))
	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte("bad")))

	select {
	case err := <-done:
		assert.ErrorIs(t, err, errBad)
	case <-time.After(2 * time.Second):
		t.Fatal("ReadMessages did not return")
	}
}

func TestWSConn_ReadMessagesEndsWhenClientLeaves(t *testing.T) {
	server, client := newTestConnPair(t)
	conn := NewWSConn(server, clockwork.NewRealClock())
	t.Cleanup(conn.Close)

	done := make(chan error, 1)
	go func() {
		done <- conn.ReadMessages(func([]byte) error { return nil })
	}()

	client.Close()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ReadMessages did not return after client close")
	}
}

func TestWSConn_GracefulCloseSendsReason(t *testing.T) {
	server, client := newTestConnPair(t)
	conn := NewWSConn(server, clockwork.NewRealClock())

	conn.CloseGraceful("Server shutting down")

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := client.ReadMessage()

	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		assert.Equal(t, websocket.CloseNormalClosure, closeErr.Code)
		assert.Contains(t, closeErr.Text, "shutting down")
	} else {
		assert.Error(t, err, "connection should be closed")
	}
}

func TestWSConn_ThroughRegistry(t *testing.T) {
	r := newTestRegistry(t, 0)
	server, client := newTestConnPair(t)
	conn := NewWSConn(server, clockwork.NewRealClock())

	require.NoError(t, r.Register(UserKey(2), conn))

	sent, err := r.Broadcast(context.Background(), UserKey(2), []byte(`{"type":"personal"}`))
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := client.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"personal"}`, string(msg))

	r.Unregister(UserKey(2), conn)
	assert.Equal(t, 0, r.Count(UserKey(2)))
	assert.ErrorIs(t, conn.Send([]byte(`{}`)), ErrConnClosed)
}
