package ws

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// dialTestConnection spins up a one-shot upgrade server and returns a
// *connection registered in hub plus the client-side socket used to
// observe what the Hub sends it.
func dialTestConnection(t *testing.T, hub *Hub, connID string) (*connection, *websocket.Conn) {
	t.Helper()

	upgrader := websocket.Upgrader{}
	serverReady := make(chan *connection, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sock, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		c := newConnection(connID, sock, testLogger())
		hub.register(c)
		serverReady <- c
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

func TestHub_EmitTo_DeliversToRegisteredConnection(t *testing.T) {
	hub := NewHub(testLogger())
	_, client := dialTestConnection(t, hub, "conn1")

	assert.True(t, hub.EmitTo("conn1", "check:success", map[string]string{"status": "started"}))

	require.NoError(t, client.SetReadDeadline(time.Now().Add(time.Second)))
	var env outboundEnvelope
	require.NoError(t, client.ReadJSON(&env))
	assert.Equal(t, "check:success", env.Event)
}

func TestHub_EmitTo_UnknownConnectionReturnsFalse(t *testing.T) {
	hub := NewHub(testLogger())
	assert.False(t, hub.EmitTo("ghost", "check:success", nil))
}

func TestHub_Broadcast_ExcludesGivenConnection(t *testing.T) {
	hub := NewHub(testLogger())
	_, clientA := dialTestConnection(t, hub, "connA")
	_, clientB := dialTestConnection(t, hub, "connB")

	hub.Join("connA", "room1")
	hub.Join("connB", "room1")

	hub.Broadcast("room1", "update:all", map[string]string{"x": "1"}, "connA")

	require.NoError(t, clientB.SetReadDeadline(time.Now().Add(time.Second)))
	var env outboundEnvelope
	require.NoError(t, clientB.ReadJSON(&env))
	assert.Equal(t, "update:all", env.Event)

	require.NoError(t, clientA.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	err := clientA.ReadJSON(&env)
	assert.Error(t, err, "excluded connection should not receive the broadcast")
}

func TestHub_Leave_RemovesConnectionFromRoom(t *testing.T) {
	hub := NewHub(testLogger())
	_, client := dialTestConnection(t, hub, "conn1")

	hub.Join("conn1", "room1")
	hub.Leave("conn1", "room1")

	hub.Broadcast("room1", "update:all", nil)

	require.NoError(t, client.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	var env outboundEnvelope
	err := client.ReadJSON(&env)
	assert.Error(t, err, "connection that left the room should not receive further broadcasts")
}

func TestHub_Unregister_RemovesConnectionFromAllRooms(t *testing.T) {
	hub := NewHub(testLogger())
	conn, _ := dialTestConnection(t, hub, "conn1")

	hub.Join("conn1", "room1")
	hub.unregister(conn.id)

	assert.False(t, hub.EmitTo("conn1", "anything", nil))
	_, roomLeft := hub.rooms["room1"]
	assert.False(t, roomLeft, "room emptied by unregister is dropped")
}
