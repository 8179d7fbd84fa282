package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"adventkeeper/internal/common"
	"adventkeeper/internal/engine"
	"adventkeeper/internal/logging"
)

// DefaultTimeout is the deadline for a single worker call.
const DefaultTimeout = 30 * time.Second

// EngineFactory builds the engine owned by a freshly started worker. It runs
// on every (re)initialization, so a worker that crashed can come back with a
// clean engine on the next call.
type EngineFactory func() (*engine.Engine, error)

// Client is the foreground side of the transport. It correlates requests to
// responses by ID, enforces a per-call deadline, and survives worker crashes
// by rejecting everything pending and lazily restarting the worker on next
// use. Safe for concurrent use.
type Client struct {
	newEngine EngineFactory
	timeout   time.Duration
	log       logging.Logger

	mu      sync.Mutex
	seq     int
	pending map[string]chan Response
	h       *handle
	closed  bool
}

// NewClient validates the environment once and returns a ready client. The
// worker itself starts lazily on first use.
func NewClient(factory EngineFactory, timeout time.Duration, log logging.Logger) (*Client, error) {
	if factory == nil {
		return nil, fmt.Errorf("%w: no engine factory", common.ErrUnsupportedEnvironment)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		newEngine: factory,
		timeout:   timeout,
		log:       log.With("component", "worker-client"),
		pending:   make(map[string]chan Response),
	}, nil
}

// ensureWorker starts the worker goroutine pair if none is running.
func (c *Client) ensureWorker() (*handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, common.ErrWorkerClosed
	}
	if c.h != nil {
		return c.h, nil
	}

	eng, err := c.newEngine()
	if err != nil {
		return nil, err
	}

	h := newHandle()
	c.h = h
	go serve(eng, h, c.log)
	go c.receive(h)

	return h, nil
}

// receive routes responses to their pending calls. Responses with no pending
// entry (late arrivals after a timeout) are dropped silently. A crash rejects
// every pending call and detaches the handle so the next use reinitializes.
func (c *Client) receive(h *handle) {
	for {
		select {
		case resp, ok := <-h.responses:
			if !ok {
				return
			}
			c.settle(resp)
		case <-h.crashed:
			c.mu.Lock()
			if c.h == h {
				c.h = nil
			}
			c.mu.Unlock()
			c.failAllPending(common.ErrWorkerFailed)
			return
		}
	}
}

func (c *Client) settle(resp Response) {
	c.mu.Lock()
	ch, ok := c.pending[resp.ID]
	if ok {
		delete(c.pending, resp.ID)
	}
	c.mu.Unlock()

	if ok {
		ch <- resp
	}
}

func (c *Client) failAllPending(err error) {
	c.mu.Lock()
	stale := c.pending
	c.pending = make(map[string]chan Response)
	c.mu.Unlock()

	for id, ch := range stale {
		ch <- Response{ID: id, Success: false, Error: err.Error()}
	}
}

func (c *Client) register() (string, chan Response) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	id := fmt.Sprintf("msg_%d", c.seq)
	ch := make(chan Response, 1)
	c.pending[id] = ch
	return id, ch
}

func (c *Client) unregister(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// Call sends one request and waits for its matched response, the per-call
// deadline, or context cancellation, whichever comes first. After a timeout
// the call is abandoned; the underlying file operation may still complete in
// the background.
func (c *Client) Call(ctx context.Context, typ MsgType, payload any, fileID string) (json.RawMessage, error) {
	h, err := c.ensureWorker()
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if payload != nil {
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
	}

	id, ch := c.register()
	req := Request{ID: id, Type: typ, Payload: raw, FileID: fileID}

	select {
	case h.requests <- req:
	case <-h.crashed:
		c.unregister(id)
		return nil, common.ErrWorkerFailed
	case <-ctx.Done():
		c.unregister(id)
		return nil, ctx.Err()
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		if !resp.Success {
			return nil, remapError(resp.Error)
		}
		return resp.Data, nil
	case <-h.crashed:
		c.unregister(id)
		return nil, common.ErrWorkerFailed
	case <-timer.C:
		c.unregister(id)
		return nil, fmt.Errorf("%w after %v", common.ErrTimeout, c.timeout)
	case <-ctx.Done():
		c.unregister(id)
		return nil, ctx.Err()
	}
}

// Close stops the worker. Pending calls are rejected; subsequent calls fail
// with ErrWorkerClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	h := c.h
	c.h = nil
	c.mu.Unlock()

	if h != nil {
		close(h.done)
	}
	c.failAllPending(common.ErrWorkerClosed)
	return nil
}

// remapError re-attaches well-known sentinels to error strings that crossed
// the worker boundary, so facade callers can keep using errors.Is.
func remapError(msg string) error {
	sentinels := []error{
		common.ErrQuotaExceeded,
		common.ErrMalformedRecord,
		common.ErrWriteFailure,
		common.ErrUnsupportedEnvironment,
		common.ErrWorkerFailed,
		common.ErrWorkerClosed,
		common.ErrorNotFound,
	}
	for _, s := range sentinels {
		if strings.HasPrefix(msg, s.Error()) {
			rest := strings.TrimPrefix(msg, s.Error())
			if rest == "" {
				return s
			}
			return fmt.Errorf("%w%s", s, rest)
		}
	}
	return fmt.Errorf("worker operation failed: %s", msg)
}
