// Package transport defines the polymorphic transport contract mcpcore's
// dispatcher runs on (§4.5), plus cancellation semantics shared by every
// concrete implementation (TCP and WebSocket).
package transport

import "context"

// Handler is supplied by the dispatcher. OnMessage is invoked once per
// framed request; a non-nil response is framed and written back to the
// originating connection. A nil response with a non-zero errCode is logged
// by the transport but nothing is sent — mirrors a connection-level
// protocol violation rather than an application error.
type Handler interface {
	OnMessage(ctx context.Context, clientID string, msg []byte) (response []byte, errCode int)
	OnError(ctx context.Context, clientID string, err error)
}

// Transport is the polymorphic contract every concrete transport satisfies.
// A server transport accepts connections and fans out to per-client
// handling; a client transport owns a single bidirectional stream. Both
// shapes share Start/Stop/Send/Destroy.
type Transport interface {
	// Start begins accepting/reading, dispatching frames to h. Returns once
	// the transport is ready (e.g. listening), not once it's stopped.
	Start(h Handler) error

	// Stop unblocks any goroutine parked in accept/read/write within bounded
	// time and prevents new work from starting. Idempotent: repeated Stop
	// calls after the first are no-ops.
	Stop() error

	// Send writes a framed message to clientID. Server transports route by
	// client ID; client transports ignore it (single stream).
	Send(clientID string, msg []byte) error

	// Destroy releases all resources. Idempotent after Stop; calling Destroy
	// before Stop implies Stop.
	Destroy() error
}
