package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Mkw68Mkw/fast-chat/internal/domain"
)

// Options configures per-connection behavior.
type Options struct {
	PingInterval   time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

// Client wraps a websocket connection into a Handle. All writes go through
// a single buffered channel drained by WritePump, so frames reach the peer
// in the order they were enqueued.
type Client struct {
	conn    *websocket.Conn
	session *domain.Session
	opts    Options

	send chan []byte
	done chan struct{}
	once sync.Once
}

// NewClient creates a client over an upgraded websocket connection.
func NewClient(conn *websocket.Conn, session *domain.Session, opts Options) *Client {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 256
	}
	return &Client{
		conn:    conn,
		session: session,
		opts:    opts,
		send:    make(chan []byte, opts.SendBuffer),
		done:    make(chan struct{}),
	}
}

// Session returns the session owned by this connection.
func (c *Client) Session() *domain.Session {
	return c.session
}

// Send enqueues a text frame for delivery. It fails immediately when the
// handle is closed or the outbound queue is full; a full queue means the
// peer stopped draining and the connection is treated as dead.
func (c *Client) Send(data []byte) error {
	select {
	case <-c.done:
		return ErrHandleClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrHandleClosed
	default:
		return ErrSendBufferFull
	}
}

// CloseWithCode sends a close frame carrying a policy code, then closes the
// connection. Safe to call multiple times and concurrently with the pumps.
func (c *Client) CloseWithCode(code int, reason string) {
	c.shutdown(code, reason)
}

// Close closes the connection without a policy close frame.
func (c *Client) Close() {
	c.shutdown(0, "")
}

func (c *Client) shutdown(code int, reason string) {
	c.once.Do(func() {
		if code != 0 {
			deadline := time.Now().Add(c.opts.WriteWait)
			msg := websocket.FormatCloseMessage(code, reason)
			_ = c.conn.WriteControl(websocket.CloseMessage, msg, deadline)
		}
		close(c.done)
		_ = c.conn.Close()
	})
}

// Done is closed once the connection has been shut down.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// ReadPump reads inbound frames and passes them to handler sequentially.
// It returns when the peer disconnects, the connection errors, or the
// handle is closed. The caller runs session teardown afterwards.
func (c *Client) ReadPump(handler func(data []byte)) {
	defer c.Close()

	c.conn.SetReadLimit(c.opts.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		c.session.Touch()
		handler(data)
	}
}

// WritePump drains the outbound queue onto the connection and keeps the
// peer alive with pings. One goroutine per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return

		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
