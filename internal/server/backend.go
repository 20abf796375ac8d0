package server

import (
	"context"
)

// Backend is an interface for a server that handles the game-level protocol
// for clients owned by a Frontend.
type Backend interface {
	// Identifier returns a uniquely identifying string, mostly used for logging.
	Identifier() string

	// Init is called before a Backend is started as a hook for the Backend to
	// perform any necessary initialization before it can accept clients.
	Init(ctx context.Context) error

	// SetUpClient performs any initialization on the Client needed to be
	// able to begin the session.
	SetUpClient(c *Client)

	// Handle is the main entry point for processing client messages. It
	// receives one complete frame payload at a time. Returning an error tears
	// the connection down.
	Handle(ctx context.Context, c *Client, frame []byte) error

	// OnDisconnect is invoked after a client's connection has been torn down
	// so that the Backend can release anything bound to it.
	OnDisconnect(c *Client)
}
