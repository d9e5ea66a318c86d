package protocol

import (
	"context"
	"sync"
	"time"
)

// BlockingEngine drives a blocking transport from any number of goroutines.
//
// The back-pressure wait is a plain sleep and queries are serialized by a
// sync.Mutex. The context is only checked before waiting or locking.
type BlockingEngine struct {
	*core
}

var _ Engine = (*BlockingEngine)(nil)

// NewBlocking creates a BlockingEngine for t.
func NewBlocking(t Transport, opts ...Option) (*BlockingEngine, error) {
	c, err := newCore(t, Blocking, &mutexGate{}, nil, opts)
	if err != nil {
		return nil, err
	}

	clock := c.clock
	c.wait = func(ctx context.Context, d time.Duration) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		clock.Sleep(d)

		return nil
	}

	return &BlockingEngine{core: c}, nil
}

type mutexGate struct {
	mu sync.Mutex
}

func (g *mutexGate) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()

	return nil
}

func (g *mutexGate) release() {
	g.mu.Unlock()
}
