package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

const sseKeepAliveInterval = 30 * time.Second

// SSEConn streams live metric updates to one dashboard client over
// server-sent events. Updates that arrive while the send buffer is full are
// dropped; the next cadence tick supersedes them anyway.
type SSEConn struct {
	writer    http.ResponseWriter
	flusher   http.Flusher
	send      chan RealTimeMetrics
	done      chan struct{}
	closeOnce sync.Once

	mu        sync.RWMutex
	connected bool
}

func NewSSEConn(w http.ResponseWriter) (*SSEConn, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, http.ErrNotSupported
	}

	return &SSEConn{
		writer:    w,
		flusher:   flusher,
		send:      make(chan RealTimeMetrics, 16),
		done:      make(chan struct{}),
		connected: true,
	}, nil
}

func (c *SSEConn) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

func (c *SSEConn) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()

		close(c.done)
	})
	return nil
}

// Push queues an update for the write loop, dropping it when the buffer is
// full or the connection is gone.
func (c *SSEConn) Push(update RealTimeMetrics) {
	select {
	case c.send <- update:
	case <-c.done:
	default:
	}
}

func (c *SSEConn) Run(ctx context.Context) error {
	ticker := time.NewTicker(sseKeepAliveInterval)
	defer ticker.Stop()
	defer func() { _ = c.Close() }()

	for {
		select {
		case update := <-c.send:
			if err := c.writeUpdate(update); err != nil {
				return err
			}
		case <-ticker.C:
			if err := c.writeKeepAlive(); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return nil
		}
	}
}

func (c *SSEConn) writeUpdate(update RealTimeMetrics) error {
	data, err := json.Marshal(update)
	if err != nil {
		return err
	}

	if _, err := c.writer.Write([]byte("event: metrics\ndata: ")); err != nil {
		return err
	}
	if _, err := c.writer.Write(data); err != nil {
		return err
	}
	if _, err := c.writer.Write([]byte("\n\n")); err != nil {
		return err
	}

	c.flusher.Flush()
	return nil
}

func (c *SSEConn) writeKeepAlive() error {
	if _, err := c.writer.Write([]byte(":keepalive\n\n")); err != nil {
		return err
	}
	c.flusher.Flush()
	return nil
}
