package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/nxyexiong/CardGameDemo/internal/protocol"
)

// HandlerFunc processes one inbound request payload and returns the
// string-encoded response payload plus an optional callback to run after the
// response has been queued for transmission. Deferring state mutation to the
// callback preserves client-observed ordering: the client always sees the
// response to its request before any state update pushed as a result of it.
type HandlerFunc func(c *Client, data string) (responseData string, done func())

// ResponseCallback completes a server-initiated request when the matching
// client response arrives.
type ResponseCallback func(c *Client, data string)

// Router decodes envelopes, dispatches inbound requests to named handlers,
// and correlates inbound responses to outstanding server-initiated requests
// by connection-scoped sequence number.
type Router struct {
	logger   *logrus.Logger
	handlers map[string]HandlerFunc

	// Outstanding server-initiated requests. Entries expire after the
	// configured TTL so a silent client cannot leak them forever, and are
	// purged eagerly when their connection tears down.
	pending *cache.Cache
}

func NewRouter(logger *logrus.Logger, pendingTTL time.Duration) *Router {
	return &Router{
		logger:   logger,
		handlers: make(map[string]HandlerFunc),
		pending:  cache.New(pendingTTL, 2*pendingTTL),
	}
}

// RegisterHandler binds a message type name to its handler. Registering the
// same type twice replaces the previous handler.
func (r *Router) RegisterHandler(msgType string, handler HandlerFunc) {
	r.handlers[msgType] = handler
}

// HandleFrame decodes one frame payload and routes it. A returned error means
// the frame was malformed and the connection should be torn down.
func (r *Router) HandleFrame(c *Client, frame []byte) error {
	env, err := protocol.DecodeEnvelope(frame)
	if err != nil {
		return fmt.Errorf("client %s: %w", c.RemoteKey(), err)
	}

	switch env.Type {
	case protocol.EnvelopeRequest:
		req, err := env.DecodeRequest()
		if err != nil {
			return fmt.Errorf("client %s: %w", c.RemoteKey(), err)
		}
		return r.handleRequest(c, req)

	case protocol.EnvelopeResponse:
		resp, err := env.DecodeResponse()
		if err != nil {
			return fmt.Errorf("client %s: %w", c.RemoteKey(), err)
		}
		r.handleResponse(c, resp)
	}

	return nil
}

// handleRequest dispatches an inbound request and sends its response. The
// handler's done callback runs only after the response bytes were handed to
// the connection.
func (r *Router) handleRequest(c *Client, req *protocol.Request) error {
	var responseData string
	var done func()

	if handler, ok := r.handlers[req.Type]; ok {
		responseData, done = handler(c, req.Data)
	} else {
		// An unknown type still gets an (empty) response so the client's own
		// pending entry is released.
		r.logger.Warnf("client %s sent unknown request type %q", c.RemoteKey(), req.Type)
	}

	respEnv, err := protocol.EncodeResponseEnvelope(req.Seq, responseData)
	if err != nil {
		return err
	}
	if err := c.SendFrame(respEnv); err != nil {
		return err
	}

	if done != nil {
		done()
	}
	return nil
}

// handleResponse completes the pending request matching the response's
// sequence number. An unmatched sequence is logged and dropped.
func (r *Router) handleResponse(c *Client, resp *protocol.Response) {
	key := pendingKey(c, resp.Seq)

	entry, ok := r.pending.Get(key)
	if !ok {
		r.logger.Warnf("client %s sent response with unknown sequence %d", c.RemoteKey(), resp.Seq)
		return
	}
	r.pending.Delete(key)

	if callback, ok := entry.(ResponseCallback); ok && callback != nil {
		callback(c, resp.Data)
	}
}

// SendRequest assigns the connection's next sequence number, registers the
// completion callback, and sends the request envelope to the client.
func (r *Router) SendRequest(c *Client, msgType string, payload interface{}, callback ResponseCallback) error {
	seq := c.NextSeq()

	raw, err := protocol.EncodeRequestEnvelope(seq, msgType, payload)
	if err != nil {
		return err
	}

	r.pending.Set(pendingKey(c, seq), callback, cache.DefaultExpiration)

	if err := c.SendFrame(raw); err != nil {
		r.pending.Delete(pendingKey(c, seq))
		return err
	}
	return nil
}

// DropPending discards every outstanding request registered for the given
// connection. Their callbacks are never invoked.
func (r *Router) DropPending(c *Client) {
	prefix := c.RemoteKey() + "/"
	for key := range r.pending.Items() {
		if strings.HasPrefix(key, prefix) {
			r.pending.Delete(key)
		}
	}
}

// PendingCount reports how many server-initiated requests are awaiting a
// response for the given connection.
func (r *Router) PendingCount(c *Client) int {
	prefix := c.RemoteKey() + "/"
	count := 0
	for key := range r.pending.Items() {
		if strings.HasPrefix(key, prefix) {
			count++
		}
	}
	return count
}

func pendingKey(c *Client, seq int) string {
	return fmt.Sprintf("%s/%d", c.RemoteKey(), seq)
}
