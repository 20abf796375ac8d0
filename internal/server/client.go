package server

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/nxyexiong/CardGameDemo/internal/protocol"
)

// Writes that cannot make progress within this window indicate a dead or
// stalled peer; the connection is torn down rather than blocking the loop.
const writeTimeout = 5 * time.Second

// Client represents a single connected player socket.
type Client struct {
	connection net.Conn
	ipAddr     string
	port       string

	// Accumulating receive buffer; touched only by the connection's reader
	// goroutine.
	recvBuf []byte

	// Next sequence number for server-initiated requests on this connection;
	// touched only by the server loop goroutine.
	nextSeq int
}

func NewClient(connection net.Conn) *Client {
	addr := connection.RemoteAddr().String()
	ipAddr, port := addr, ""
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		ipAddr, port = addr[:i], addr[i+1:]
	}

	return &Client{
		connection: connection,
		ipAddr:     ipAddr,
		port:       port,
	}
}

func (c *Client) IPAddr() string { return c.ipAddr }
func (c *Client) Port() string   { return c.port }

// RemoteKey uniquely identifies the connection for the lifetime of the socket.
func (c *Client) RemoteKey() string {
	return c.ipAddr + ":" + c.port
}

// NextSeq returns the next connection-scoped sequence number for a
// server-initiated request.
func (c *Client) NextSeq() int {
	seq := c.nextSeq
	c.nextSeq++
	return seq
}

// Read consumes the available bytes directly from the client's connection.
func (c *Client) Read(b []byte) (int, error) {
	return c.connection.Read(b)
}

// Close the connection.
func (c *Client) Close() error {
	return c.connection.Close()
}

// SendFrame length-prefixes the payload and writes the whole frame to the
// connection.
func (c *Client) SendFrame(payload []byte) error {
	frame, err := protocol.EncodeFrame(payload)
	if err != nil {
		return fmt.Errorf("encoding frame for %s: %w", c.RemoteKey(), err)
	}
	return c.transmit(frame)
}

// transmit writes the contents of data to the connection until all bytes have
// been written.
func (c *Client) transmit(data []byte) error {
	if err := c.connection.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("setting write deadline for %s: %w", c.RemoteKey(), err)
	}

	bytesSent := 0
	for bytesSent < len(data) {
		b, err := c.connection.Write(data[bytesSent:])
		if err != nil {
			return fmt.Errorf("failed to send to client %v: %s", c.RemoteKey(), err.Error())
		}
		bytesSent += b
	}

	return nil
}
