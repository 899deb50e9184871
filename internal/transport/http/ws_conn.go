package http

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/coder/websocket"

	"github.com/vovakirdan/clubroom-server/internal/core"
	"github.com/vovakirdan/clubroom-server/internal/proto"
)

var (
	errSendBufferFull = errors.New("send buffer full")
	errServerClosed   = errors.New("closed by server")
)

// wsConn implements core.Connection. Frames are queued and written by
// writeLoop; Close is honored only after every queued frame went out.
type wsConn struct {
	out     chan []byte
	closing chan struct{}
	once    sync.Once

	mu     sync.Mutex
	code   core.CloseCode
	reason string
}

func newWSConn(buffer int) *wsConn {
	return &wsConn{
		out:     make(chan []byte, buffer),
		closing: make(chan struct{}),
	}
}

// Send queues payload. It never blocks.
func (c *wsConn) Send(payload []byte) error {
	select {
	case <-c.closing:
		return core.ErrConnectionClosed
	default:
	}
	select {
	case c.out <- payload:
		return nil
	default:
		return errSendBufferFull
	}
}

// Close asks writeLoop to close the socket after the pending frames.
func (c *wsConn) Close(code core.CloseCode, reason string) error {
	c.once.Do(func() {
		c.mu.Lock()
		c.code, c.reason = code, reason
		c.mu.Unlock()
		close(c.closing)
	})
	return nil
}

func (c *wsConn) sendError(code, msg string) {
	payload, err := json.Marshal(proto.Outbound{Event: proto.EventError, Data: proto.Error{Code: code, Msg: msg}})
	if err != nil {
		return
	}
	_ = c.Send(payload)
}

func (c *wsConn) writeLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		select {
		case payload := <-c.out:
			if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
				return err
			}
		case <-c.closing:
			if err := c.flush(ctx, conn); err != nil {
				return err
			}
			c.mu.Lock()
			code, reason := c.code, c.reason
			c.mu.Unlock()
			_ = conn.Close(websocket.StatusCode(code), reason)
			return errServerClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *wsConn) flush(ctx context.Context, conn *websocket.Conn) error {
	for {
		select {
		case payload := <-c.out:
			if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}
