package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialPair(t *testing.T) (*connection, *websocket.Conn) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	serverReady := make(chan *connection, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sock, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		serverReady <- newConnection("conn1", sock, testLogger())
	}))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	c := <-serverReady
	t.Cleanup(c.Close)
	return c, client
}

func TestConnection_Enqueue_DeliversJSONFrame(t *testing.T) {
	c, client := dialPair(t)

	assert.True(t, c.enqueue("join:success", map[string]int{"n": 1}))

	require.NoError(t, client.SetReadDeadline(time.Now().Add(time.Second)))
	var env outboundEnvelope
	require.NoError(t, client.ReadJSON(&env))
	assert.Equal(t, "join:success", env.Event)
}

func TestConnection_Enqueue_AfterCloseReturnsFalse(t *testing.T) {
	c, _ := dialPair(t)
	c.Close()

	assert.False(t, c.enqueue("join:success", nil))
}

func dialRawSocket(t *testing.T) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	serverReady := make(chan *websocket.Conn, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sock, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		serverReady <- sock
	}))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return <-serverReady
}

func TestConnection_Enqueue_DropsConnectionWhenMailboxFull(t *testing.T) {
	// Built without newConnection so writePump never drains sendCh,
	// letting the buffer actually fill deterministically.
	c := &connection{
		id:     "conn1",
		conn:   dialRawSocket(t),
		sendCh: make(chan outboundEnvelope, mailboxSize),
		logger: testLogger(),
		done:   make(chan struct{}),
	}
	t.Cleanup(c.Close)

	for i := 0; i < mailboxSize; i++ {
		c.sendCh <- outboundEnvelope{Event: "filler"}
	}

	assert.False(t, c.enqueue("overflow", nil))

	assert.Eventually(t, func() bool {
		select {
		case <-c.done:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestConnection_ReadLoop_DispatchesDecodedFrames(t *testing.T) {
	c, client := dialPair(t)

	received := make(chan inboundEnvelope, 1)
	go c.readLoop(func(env inboundEnvelope) {
		received <- env
	})

	require.NoError(t, client.WriteJSON(map[string]any{"event": "type", "data": map[string]any{"character": "a", "rid": 1}}))

	select {
	case env := <-received:
		assert.Equal(t, "type", env.Event)
	case <-time.After(time.Second):
		t.Fatal("readLoop did not dispatch the frame")
	}
}
