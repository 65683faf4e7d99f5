// Package transport defines the outbound event-delivery contract the
// Tournament Runtime depends on. A concrete websocket implementation lives
// in internal/transport/ws; the core only ever sees this interface.
package transport

// Transport delivers JSON-encoded events to sockets, individually or by
// room membership. All sends are fire-and-forget: a delivery failure is
// logged by the implementation and never propagates to the caller, per the
// core's best-effort broadcast policy.
type Transport interface {
	// EmitTo sends event to a single connection. Returns false if the
	// connection was not found or the send could not be queued.
	EmitTo(connID, event string, payload any) bool

	// Broadcast sends event to every connection joined to room, skipping
	// any connection id present in exclude.
	Broadcast(room, event string, payload any, exclude ...string)

	// Join subscribes a connection to a room.
	Join(connID, room string)

	// Leave unsubscribes a connection from a room.
	Leave(connID, room string)
}
