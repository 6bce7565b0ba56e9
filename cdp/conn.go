// Package cdp implements the transport and session-multiplexing layer of the
// Chrome DevTools Protocol: one websocket connection to a browser process,
// shared by any number of concurrent callers and event subscribers.
//
// A single background goroutine reads frames from the socket and routes each
// one: responses go to the caller blocked on the matching call id, events go
// to the subscribers of their session. Callers issue typed commands with
// Call, which blocks until the response, a timeout, or connection loss.
package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// readLimit is the max inbound frame size. Screenshot and coverage results
// are sent as single frames and can run to tens of megabytes.
const readLimit = 256 << 20

const defaultCallTimeout = 60 * time.Second

// Conn is one connection to a browser's debugging endpoint. All sessions
// (tabs) attached to the browser are multiplexed over it. A Conn is safe for
// concurrent use.
type Conn struct {
	log *zap.SugaredLogger
	ws  *websocket.Conn

	callTimeout time.Duration

	lastID atomic.Int64

	writeMu sync.Mutex

	calls  *callRegistry
	router *sessionRouter

	closeOnce sync.Once
	done      chan struct{}
}

type Option func(c *Conn)

func WithLogger(l *zap.Logger) Option {
	return func(c *Conn) {
		c.log = l.Named("cdp").Sugar()
	}
}

// WithCallTimeout sets how long Call waits for a response before giving up
// with a CallTimeoutError.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Conn) {
		c.callTimeout = d
	}
}

// Dial connects to a browser debugging endpoint, e.g. the
// webSocketDebuggerUrl reported by /json/version, and starts the receive
// loop.
func Dial(ctx context.Context, wsURL string, opts ...Option) (*Conn, error) {
	ws, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing debugging endpoint: %w", err)
	}
	return NewConn(ws, opts...), nil
}

// NewConn wraps an already-established websocket connection and starts the
// receive loop. How the endpoint was discovered or the browser launched is
// the caller's concern.
func NewConn(ws *websocket.Conn, opts ...Option) *Conn {
	ws.SetReadLimit(readLimit)
	c := &Conn{
		log:         zap.NewNop().Sugar(),
		ws:          ws,
		callTimeout: defaultCallTimeout,
		done:        make(chan struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	c.calls = newCallRegistry(c.log.Named("calls"))
	c.router = newSessionRouter(c.log.Named("router"))
	go c.receiveLoop()
	return c
}

// Subscribe registers a new subscriber for the given session's events. An
// empty session id subscribes to browser-level events. Only events arriving
// after the subscription exists are delivered; there is no replay.
func (c *Conn) Subscribe(sessionID string) *Subscription {
	return c.router.subscribe(sessionID)
}

// Done is closed once the connection is gone and all pending calls have been
// failed.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Close closes the websocket. Pending calls are failed with ErrConnClosed by
// the receive loop as it winds down. Safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.ws.Close(websocket.StatusNormalClosure, "")
	})
	return err
}

func (c *Conn) nextID() int64 {
	return c.lastID.Add(1)
}

// send writes one frame. Writes from concurrent callers are serialized so
// frames are never interleaved; no ordering is promised across callers.
func (c *Conn) send(ctx context.Context, req request) error {
	b, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}
	if err := c.ws.Write(ctx, websocket.MessageText, b); err != nil {
		return fmt.Errorf("writing %s: %w", req.Method, ErrConnClosed)
	}
	return nil
}

// receiveLoop is the single reader. It runs for the life of the connection;
// on stream termination it fails every pending call and closes every
// subscription so no caller is left hanging.
func (c *Conn) receiveLoop() {
	defer func() {
		c.calls.failAll(ErrConnClosed)
		c.router.closeAll()
		close(c.done)
		c.Close()
	}()

	ctx := context.Background()
	for {
		_, data, err := c.ws.Read(ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status == websocket.StatusNormalClosure {
				c.log.Debug("connection closed")
			} else {
				c.log.Debugf("receive loop terminating: %s", err)
			}
			return
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			c.log.Warnf("dropping malformed frame: %s", err)
			continue
		}
		switch {
		case f.isResponse():
			c.calls.deliver(f.ID, reply{result: f.Result, remoteErr: f.Error})
		case f.isEvent():
			c.router.route(Event{Method: f.Method, SessionID: f.SessionID, Params: f.Params})
		default:
			c.log.Warnf("dropping frame with neither id nor method: %s", truncate(data, 200))
		}
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
