package hub

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mkw68Mkw/fast-chat/internal/domain"
)

var testOptions = Options{
	PingInterval:   50 * time.Millisecond,
	PongWait:       time.Second,
	WriteWait:      time.Second,
	MaxMessageSize: 4096,
	SendBuffer:     8,
}

// dialTestClient upgrades one server-side connection into a Client and
// returns the peer's side of the socket.
func dialTestClient(t *testing.T, opts Options) (*Client, *websocket.Conn) {
	t.Helper()

	serverConns := make(chan *websocket.Conn, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		serverConns <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	peer, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { peer.Close() })

	var serverConn *websocket.Conn
	select {
	case serverConn = <-serverConns:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for server connection")
	}

	session := domain.NewSession("s1", "1")
	client := NewClient(serverConn, session, opts)
	t.Cleanup(client.Close)
	return client, peer
}

func TestClientDeliversFramesInOrder(t *testing.T) {
	client, peer := dialTestClient(t, testOptions)
	go client.WritePump()

	for _, msg := range []string{"one", "two", "three"} {
		require.NoError(t, client.Send([]byte(msg)))
	}

	for _, want := range []string{"one", "two", "three"} {
		require.NoError(t, peer.SetReadDeadline(time.Now().Add(time.Second)))
		msgType, data, err := peer.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, websocket.TextMessage, msgType)
		assert.Equal(t, want, string(data))
	}
}

func TestClientCloseWithCodeReachesPeer(t *testing.T) {
	client, peer := dialTestClient(t, testOptions)
	go client.WritePump()

	client.CloseWithCode(CloseSuperseded, "superseded by a newer session")

	require.NoError(t, peer.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := peer.ReadMessage()
	require.Error(t, err)

	closeErr, ok := err.(*websocket.CloseError)
	require.True(t, ok, "expected close error, got %v", err)
	assert.Equal(t, CloseSuperseded, closeErr.Code)
	assert.Equal(t, "superseded by a newer session", closeErr.Text)
}

func TestClientSendAfterCloseFails(t *testing.T) {
	client, _ := dialTestClient(t, testOptions)

	client.Close()

	err := client.Send([]byte("late"))
	assert.ErrorIs(t, err, ErrHandleClosed)
}

func TestClientSendBufferOverflow(t *testing.T) {
	opts := testOptions
	opts.SendBuffer = 2
	client, _ := dialTestClient(t, opts)
	// No write pump: nothing drains the queue.

	require.NoError(t, client.Send([]byte("a")))
	require.NoError(t, client.Send([]byte("b")))

	err := client.Send([]byte("c"))
	assert.ErrorIs(t, err, ErrSendBufferFull)
}

func TestClientCloseIsIdempotent(t *testing.T) {
	client, peer := dialTestClient(t, testOptions)
	go client.WritePump()

	client.CloseWithCode(CloseUnauthorized, "unauthorized")
	client.CloseWithCode(CloseSuperseded, "superseded")
	client.Close()

	// The peer observes only the first close code.
	require.NoError(t, peer.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := peer.ReadMessage()
	closeErr, ok := err.(*websocket.CloseError)
	require.True(t, ok, "expected close error, got %v", err)
	assert.Equal(t, CloseUnauthorized, closeErr.Code)
}

func TestClientReadPumpDeliversSequentially(t *testing.T) {
	client, peer := dialTestClient(t, testOptions)
	go client.WritePump()

	var got []string
	done := make(chan struct{})
	go func() {
		client.ReadPump(func(data []byte) {
			got = append(got, string(data))
		})
		close(done)
	}()

	for _, msg := range []string{"eins", "zwei", "drei"} {
		require.NoError(t, peer.WriteMessage(websocket.TextMessage, []byte(msg)))
	}
	require.NoError(t, peer.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("read pump did not stop after peer close")
	}

	// The handler runs on the read pump goroutine, so no synchronization
	// is needed once it has returned.
	assert.Equal(t, []string{"eins", "zwei", "drei"}, got)
}
