package cdp

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testLog *zap.SugaredLogger

func init() {
	l, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	testLog = l.Sugar()
}

func TestCallRegistryDeliverOnce(t *testing.T) {
	r := newCallRegistry(testLog)

	ch, err := r.register(1)
	require.NoError(t, err)

	r.deliver(1, reply{result: json.RawMessage(`{"a":1}`)})
	rep := <-ch
	assert.JSONEq(t, `{"a":1}`, string(rep.result))

	// A duplicate delivery is discarded, not redelivered.
	r.deliver(1, reply{result: json.RawMessage(`{"a":2}`)})
	select {
	case rep := <-ch:
		t.Fatalf("unexpected second delivery: %s", rep.result)
	default:
	}
}

func TestCallRegistryIDCollision(t *testing.T) {
	r := newCallRegistry(testLog)

	_, err := r.register(7)
	require.NoError(t, err)
	_, err = r.register(7)
	require.Error(t, err)
}

func TestCallRegistryUnknownIDDiscarded(t *testing.T) {
	r := newCallRegistry(testLog)
	// Must not panic or block.
	r.deliver(42, reply{result: json.RawMessage(`{}`)})
	assert.Equal(t, 0, r.pendingCount())
}

func TestCallRegistryFailAll(t *testing.T) {
	r := newCallRegistry(testLog)

	chans := make([]chan reply, 3)
	for i := range chans {
		ch, err := r.register(int64(i + 1))
		require.NoError(t, err)
		chans[i] = ch
	}

	r.failAll(ErrConnClosed)
	for _, ch := range chans {
		rep := <-ch
		assert.ErrorIs(t, rep.err, ErrConnClosed)
	}
	assert.Equal(t, 0, r.pendingCount())

	// Idempotent, and registration after close fails fast.
	r.failAll(errors.New("other"))
	_, err := r.register(99)
	assert.ErrorIs(t, err, ErrConnClosed)
}

func TestCallRegistryConcurrent(t *testing.T) {
	r := newCallRegistry(testLog)

	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 1; i <= n; i++ {
		id := int64(i)
		go func() {
			defer wg.Done()
			ch, err := r.register(id)
			require.NoError(t, err)
			rep := <-ch
			assert.NoError(t, rep.err)
		}()
	}

	// Deliver from a second goroutine, retrying ids that aren't registered
	// yet.
	go func() {
		delivered := make(map[int64]bool)
		for len(delivered) < n {
			for i := int64(1); i <= n; i++ {
				if delivered[i] {
					continue
				}
				r.mu.Lock()
				_, ok := r.pending[i]
				r.mu.Unlock()
				if ok {
					r.deliver(i, reply{result: json.RawMessage(`{}`)})
					delivered[i] = true
				}
			}
		}
	}()

	wg.Wait()
	assert.Equal(t, 0, r.pendingCount())
}
