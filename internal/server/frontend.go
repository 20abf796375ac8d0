package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"runtime/debug"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/nxyexiong/CardGameDemo/internal/core"
	"github.com/nxyexiong/CardGameDemo/internal/protocol"
)

// clientEvent carries one complete frame (or the terminal error) from a
// connection's reader goroutine to the server loop.
type clientEvent struct {
	client  *Client
	payload []byte
	err     error
}

// Frontend implements the client connection logic: it owns the listening
// socket and every accepted connection, and drives the Backend with complete
// frames.
//
// Reader goroutines do nothing but accumulate bytes and cut frames; every
// piece of mutable server state (router tables, seat bindings, game state) is
// touched exclusively by the single loop goroutine, which is what makes the
// Backend safe without locks.
type Frontend struct {
	Address string
	Backend Backend
	Config  *core.Config
	Logger  *logrus.Logger

	boundAddr net.Addr
}

// BoundAddr returns the address the listening socket actually bound to,
// available once Start has returned. Mostly useful when Address requests an
// ephemeral port.
func (f *Frontend) BoundAddr() net.Addr {
	return f.boundAddr
}

// Start initializes the server backend and opens a TCP socket for the
// specified server. The connection loop is spun off in its own goroutine and
// added to the WaitGroup. Context cancellation stops the server.
func (f *Frontend) Start(ctx context.Context, wg *sync.WaitGroup) error {
	if err := f.Backend.Init(ctx); err != nil {
		return fmt.Errorf("error initializing %s server: %v", f.Backend.Identifier(), err)
	}

	socket, err := f.createSocket()
	if err != nil {
		return fmt.Errorf("error creating socket on %s: %v", f.Address, err)
	}
	f.boundAddr = socket.Addr()

	wg.Add(1)
	go f.serverLoop(ctx, socket, wg)

	return nil
}

// createSocket opens a TCP socket to listen for client connections on the
// Address provided to the Frontend.
func (f *Frontend) createSocket() (*net.TCPListener, error) {
	hostAddr, err := net.ResolveTCPAddr("tcp", f.Address)
	if err != nil {
		return nil, fmt.Errorf("error resolving address %s", err.Error())
	}

	socket, err := net.ListenTCP("tcp", hostAddr)
	if err != nil {
		return nil, fmt.Errorf("error listening on socket: %s", err.Error())
	}

	return socket, nil
}

// serverLoop owns all connections and all backend state. It multiplexes new
// connections and decoded frames onto a single goroutine and only returns
// once the context has been cancelled.
func (f *Frontend) serverLoop(ctx context.Context, socket *net.TCPListener, wg *sync.WaitGroup) {
	defer wg.Done()

	f.Logger.Infof("[%s] waiting for connections on %v", f.Backend.Identifier(), socket.Addr())

	connections := make(chan *net.TCPConn)
	go func() {
		for {
			connection, err := socket.AcceptTCP()
			if err != nil {
				select {
				case <-ctx.Done():
					return
				default:
				}
				f.Logger.Warnf("failed to accept connection: %s", err.Error())
				continue
			}

			select {
			case connections <- connection:
			case <-ctx.Done():
				_ = connection.Close()
				return
			}
		}
	}()

	events := make(chan clientEvent, 64)
	clients := make(map[*Client]struct{})

	defer func() {
		_ = socket.Close()
		for c := range clients {
			f.closeConnection(c)
		}
		f.Logger.Infof("[%v] exited", f.Backend.Identifier())
	}()

	for {
		select {
		case <-ctx.Done():
			f.Logger.Infof("[%v] shutting down", f.Backend.Identifier())
			return

		case connection := <-connections:
			if len(clients) >= f.Config.MaxConnections {
				f.Logger.Warnf("[%s] rejecting connection from %s: connection limit reached",
					f.Backend.Identifier(), connection.RemoteAddr())
				_ = connection.Close()
				continue
			}

			c := NewClient(connection)
			f.Backend.SetUpClient(c)
			clients[c] = struct{}{}

			f.Logger.Infof("[%s] accepted connection from %s", f.Backend.Identifier(), c.RemoteKey())
			go f.readLoop(c, events)

		case ev := <-events:
			if _, ok := clients[ev.client]; !ok {
				// Stale event from a connection already torn down.
				continue
			}

			if ev.err != nil {
				if ev.err != io.EOF {
					f.Logger.Warnf("[%s] client %s: %s",
						f.Backend.Identifier(), ev.client.RemoteKey(), ev.err)
				}
				delete(clients, ev.client)
				f.closeConnection(ev.client)
				continue
			}

			if err := f.handleFrame(ctx, ev.client, ev.payload); err != nil {
				f.Logger.Warnf("[%s] error in client communication with %s: %s",
					f.Backend.Identifier(), ev.client.RemoteKey(), err)
				delete(clients, ev.client)
				f.closeConnection(ev.client)
			}
		}
	}
}

// handleFrame passes one frame to the Backend, converting panics into
// connection teardown so a single misbehaving client can't take out the loop.
func (f *Frontend) handleFrame(ctx context.Context, c *Client, payload []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in client communication: %v, trace: %s", r, debug.Stack())
		}
	}()

	return f.Backend.Handle(ctx, c, payload)
}

// readLoop accumulates bytes from one connection and forwards complete frames
// to the server loop. It exits when the connection dies or a framing
// violation occurs, reporting the terminal condition as its final event.
func (f *Frontend) readLoop(c *Client, events chan<- clientEvent) {
	buffer := make([]byte, 2048)

	for {
		n, err := c.Read(buffer)
		if n == 0 && err == nil {
			err = io.EOF
		}
		if err != nil {
			events <- clientEvent{client: c, err: err}
			return
		}

		c.recvBuf = append(c.recvBuf, buffer[:n]...)

		// A single read may complete several frames.
		for {
			payload, rest, err := protocol.DecodeFrame(c.recvBuf)
			if err != nil {
				events <- clientEvent{client: c, err: err}
				return
			}
			if payload == nil {
				break
			}

			// The payload aliases recvBuf, which the next read will reuse.
			owned := append([]byte(nil), payload...)
			c.recvBuf = append(c.recvBuf[:0], rest...)

			events <- clientEvent{client: c, payload: owned}
		}
	}
}

// closeConnection disconnects the client and notifies the Backend so that any
// seat binding is released.
func (f *Frontend) closeConnection(c *Client) {
	if err := c.Close(); err != nil {
		f.Logger.Warnf("failed to close client connection: %s", err)
	}

	f.Backend.OnDisconnect(c)

	f.Logger.Infof("[%s] disconnected client %s", f.Backend.Identifier(), c.RemoteKey())
}
