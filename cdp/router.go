package cdp

import (
	"sync"

	"go.uber.org/zap"
)

// sessionRouter fans inbound events out to the subscribers of their session.
// Delivery is best-effort: an event for a session with no subscribers is
// dropped, and a subscriber that attaches later never sees it. Events with
// no session id go to browser-level subscribers (the "" key).
type sessionRouter struct {
	log *zap.SugaredLogger

	mu     sync.Mutex
	subs   map[string]map[*Subscription]struct{}
	closed bool
}

func newSessionRouter(log *zap.SugaredLogger) *sessionRouter {
	return &sessionRouter{
		log:  log,
		subs: make(map[string]map[*Subscription]struct{}),
	}
}

func (r *sessionRouter) subscribe(sessionID string) *Subscription {
	s := &Subscription{
		router:    r,
		sessionID: sessionID,
		out:       make(chan Event),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	go s.pump()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		s.close()
		return s
	}
	set, ok := r.subs[sessionID]
	if !ok {
		set = make(map[*Subscription]struct{})
		r.subs[sessionID] = set
	}
	set[s] = struct{}{}
	return s
}

func (r *sessionRouter) unsubscribe(s *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.subs[s.sessionID]
	if !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(r.subs, s.sessionID)
	}
}

// route enqueues ev on every current subscriber of its session. Enqueueing
// never blocks, so a slow consumer cannot stall the receive loop.
func (r *sessionRouter) route(ev Event) {
	r.mu.Lock()
	set := r.subs[ev.SessionID]
	targets := make([]*Subscription, 0, len(set))
	for s := range set {
		targets = append(targets, s)
	}
	r.mu.Unlock()

	if len(targets) == 0 {
		r.log.Debugf("dropping event %s for session %q: no subscribers", ev.Method, ev.SessionID)
		return
	}
	for _, s := range targets {
		s.enqueue(ev)
	}
}

// closeAll tears down every subscription; invoked on connection loss so
// per-tab drain loops observe a closed channel and exit.
func (r *sessionRouter) closeAll() {
	r.mu.Lock()
	r.closed = true
	var all []*Subscription
	for _, set := range r.subs {
		for s := range set {
			all = append(all, s)
		}
	}
	r.subs = make(map[string]map[*Subscription]struct{})
	r.mu.Unlock()

	for _, s := range all {
		s.close()
	}
}

// Subscription is one consumer's view of a session's event stream. Events
// are buffered without bound and delivered in arrival order on the channel
// returned by Events.
type Subscription struct {
	router    *sessionRouter
	sessionID string

	mu    sync.Mutex
	queue []Event

	out       chan Event
	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Events returns the receive side of the subscription. The channel is closed
// when the subscription is closed or the connection is lost.
func (s *Subscription) Events() <-chan Event { return s.out }

// SessionID reports the session this subscription is registered for; empty
// means browser-level events.
func (s *Subscription) SessionID() string { return s.sessionID }

// Close removes the subscription from the router and closes the event
// channel. Events already queued but not yet consumed are discarded.
func (s *Subscription) Close() {
	s.router.unsubscribe(s)
	s.close()
}

func (s *Subscription) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Subscription) enqueue(ev Event) {
	s.mu.Lock()
	s.queue = append(s.queue, ev)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// pump moves events from the unbounded queue to the consumer channel,
// preserving order. It is the only goroutine that sends on or closes out.
func (s *Subscription) pump() {
	defer close(s.out)
	for {
		s.mu.Lock()
		var ev Event
		have := len(s.queue) > 0
		if have {
			ev = s.queue[0]
			s.queue = s.queue[1:]
		}
		s.mu.Unlock()

		if !have {
			select {
			case <-s.wake:
				continue
			case <-s.done:
				return
			}
		}

		select {
		case s.out <- ev:
		case <-s.done:
			return
		}
	}
}
