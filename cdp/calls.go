package cdp

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// callRegistry correlates inbound responses with the callers blocked on
// them. Each pending call id maps to a one-shot slot; a response, a timeout,
// or connection loss consumes the slot, whichever happens first.
type callRegistry struct {
	log *zap.SugaredLogger

	mu      sync.Mutex
	pending map[int64]chan reply
	closed  bool
}

func newCallRegistry(log *zap.SugaredLogger) *callRegistry {
	return &callRegistry{
		log:     log,
		pending: make(map[int64]chan reply),
	}
}

// register allocates a delivery slot for id. The returned channel has
// capacity 1 so delivery never blocks the receive loop, even if the caller
// already gave up waiting.
func (r *callRegistry) register(id int64) (chan reply, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrConnClosed
	}
	if _, ok := r.pending[id]; ok {
		// Ids are minted from a per-connection atomic counter, so a
		// collision means the counter is broken.
		return nil, fmt.Errorf("call id %d already registered", id)
	}
	ch := make(chan reply, 1)
	r.pending[id] = ch
	return ch, nil
}

// forget drops the slot for id without delivering anything. Used when the
// write for the request never made it onto the wire.
func (r *callRegistry) forget(id int64) {
	r.mu.Lock()
	delete(r.pending, id)
	r.mu.Unlock()
}

// deliver fulfills the slot for id. Late, duplicate, or unknown ids are
// logged and discarded: the browser is allowed to notify more than once.
func (r *callRegistry) deliver(id int64, rep reply) {
	r.mu.Lock()
	ch, ok := r.pending[id]
	delete(r.pending, id)
	r.mu.Unlock()
	if !ok {
		r.log.Debugf("discarding response for unknown call id %d", id)
		return
	}
	ch <- rep
}

// failAll delivers err to every outstanding slot, unblocking all waiters,
// and fails any subsequent register. Idempotent.
func (r *callRegistry) failAll(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	for id, ch := range r.pending {
		ch <- reply{err: err}
		delete(r.pending, id)
	}
}

func (r *callRegistry) pendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
