package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// outboundEnvelope is the wire frame every server->client event is wrapped
// in: `{ event: "...", data: ... }`, camelCase throughout.
type outboundEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// connection is one socket's write mailbox. Reads happen synchronously on
// the caller's own goroutine (see Handler.ServeHTTP); writes are
// serialized through sendCh by a dedicated pump goroutine, since
// gorilla/websocket forbids concurrent writers on the same conn.
type connection struct {
	id     string
	conn   *websocket.Conn
	sendCh chan outboundEnvelope
	logger *slog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

const mailboxSize = 64

func newConnection(id string, conn *websocket.Conn, logger *slog.Logger) *connection {
	c := &connection{
		id:     id,
		conn:   conn,
		sendCh: make(chan outboundEnvelope, mailboxSize),
		logger: logger.With("conn_id", id),
		done:   make(chan struct{}),
	}
	go c.writePump()
	return c
}

func (c *connection) writePump() {
	for {
		select {
		case <-c.done:
			return
		case env, ok := <-c.sendCh:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(env); err != nil {
				c.logger.Warn("ws send failed", "event", env.Event, "error", err)
				c.Close()
				return
			}
		}
	}
}

// enqueue attempts a non-blocking send; a saturated mailbox is treated as a
// slow consumer and the connection is dropped rather than stalling the
// broadcaster, matching the Transport contract's best-effort delivery.
func (c *connection) enqueue(event string, payload any) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.sendCh <- outboundEnvelope{Event: event, Data: payload}:
		return true
	default:
		c.logger.Warn("ws mailbox full, dropping connection", "event", event)
		go c.Close()
		return false
	}
}

func (c *connection) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

type inboundEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (c *connection) readLoop(onMessage func(inboundEnvelope)) {
	c.conn.SetReadLimit(32 * 1024)
	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var env inboundEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.logger.Warn("discarding malformed inbound frame", "error", err)
			continue
		}
		onMessage(env)
	}
}
