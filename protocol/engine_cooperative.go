package protocol

import (
	"context"
)

// CooperativeEngine drives a context-aware transport.
//
// Waiting for the back-pressure floor and for the query lock are both
// abortable: a cancelled context returns ctx.Err() without touching the wire.
type CooperativeEngine struct {
	*core
}

var _ Engine = (*CooperativeEngine)(nil)

// NewCooperative creates a CooperativeEngine for t.
func NewCooperative(t Transport, opts ...Option) (*CooperativeEngine, error) {
	c, err := newCore(t, Cooperative, newChanGate(), nil, opts)
	if err != nil {
		return nil, err
	}
	c.wait = c.clock.Wait

	return &CooperativeEngine{core: c}, nil
}

// chanGate is a one-slot semaphore.
type chanGate struct {
	sem chan struct{}
}

func newChanGate() *chanGate {
	return &chanGate{sem: make(chan struct{}, 1)}
}

func (g *chanGate) acquire(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case g.sem <- struct{}{}:
		return nil
	}
}

func (g *chanGate) release() {
	<-g.sem
}
