package protocol

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually driven Clock; sleeping advances it instantly.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
	c.sleeps = append(c.sleeps, d)
}

func (c *fakeClock) Wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.Sleep(d)

	return nil
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func (c *fakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]time.Duration(nil), c.sleeps...)
}

type wireEvent struct {
	kind string // "write", "query-start", "query-end"
	data string
	at   time.Time
}

// fakeTransport records every operation with the time it reached the wire.
type fakeTransport struct {
	mu      sync.Mutex
	clock   Clock
	model   ExecModel
	events  []wireEvent
	replies map[string]string
	garbage []byte

	writeErr error
	readErr  error
	// queryHook runs inside WriteReadUntil, between the write and the read.
	queryHook func()
}

func newFakeTransport(clock Clock, model ExecModel) *fakeTransport {
	return &fakeTransport{clock: clock, model: model, replies: map[string]string{}}
}

func (f *fakeTransport) Open(context.Context) error { return nil }

func (f *fakeTransport) Close() error { return nil }

func (f *fakeTransport) ExecModel() ExecModel { return f.model }

func (f *fakeTransport) record(kind string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = append(f.events, wireEvent{kind: kind, data: string(data), at: f.clock.Now()})
}

func (f *fakeTransport) Write(_ context.Context, data []byte) error {
	f.record("write", data)

	return f.writeErr
}

func (f *fakeTransport) WriteReadUntil(_ context.Context, data []byte, _ byte) ([]byte, error) {
	f.record("query-start", data)
	if f.queryHook != nil {
		f.queryHook()
	}
	defer f.record("query-end", data)

	if f.writeErr != nil {
		return nil, f.writeErr
	}
	if f.readErr != nil {
		return nil, f.readErr
	}

	f.mu.Lock()
	reply, ok := f.replies[string(data)]
	f.mu.Unlock()
	if !ok {
		return []byte("\r\n"), nil
	}

	return []byte(reply), nil
}

func (f *fakeTransport) Events() []wireEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]wireEvent(nil), f.events...)
}

// drainingTransport hands out pending garbage on Drain.
type drainingTransport struct {
	*fakeTransport
	drained int
}

func (d *drainingTransport) Drain(context.Context) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	g := d.garbage
	d.garbage = nil
	d.drained++

	return g, nil
}

func newTestEngine(t *testing.T, tr Transport, opts ...Option) Engine {
	t.Helper()

	e, err := New(tr, opts...)
	if err != nil {
		t.Fatalf("newTestEngine: %v", err)
	}

	return e
}
