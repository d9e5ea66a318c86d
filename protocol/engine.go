package protocol

import (
	"context"
	"sync"
	"time"

	"github.com/arloliu/go-julabo/logger"
)

// Engine serializes and paces the traffic to one bath.
type Engine interface {
	// Send writes a command and does not wait for a reply.
	Send(ctx context.Context, command string) error
	// Query writes a request and returns the decoded reply line.
	Query(ctx context.Context, command string) (string, error)
	// ExecModel reports the execution model the engine was built for.
	ExecModel() ExecModel
	// Metrics returns the engine metrics.
	Metrics() *Metrics
}

// New creates the engine matching the transport's execution model.
func New(t Transport, opts ...Option) (Engine, error) {
	if t == nil {
		return nil, ErrTransportNil
	}

	if t.ExecModel() == Cooperative {
		return NewCooperative(t, opts...)
	}

	return NewBlocking(t, opts...)
}

// gate is the mutual exclusion primitive guarding queries.
type gate interface {
	acquire(ctx context.Context) error
	release()
}

// waitFunc suspends the caller for the back-pressure delay.
type waitFunc func(ctx context.Context, d time.Duration) error

// core holds everything both engines share; they differ only in gate and wait.
type core struct {
	transport Transport
	drainer   Drainer
	cfg       *Config
	logger    logger.Logger
	clock     Clock
	gate      gate
	wait      waitFunc
	model     ExecModel

	tsMu        sync.Mutex
	lastQuery   time.Time
	lastCommand time.Time

	metrics Metrics
}

func newCore(t Transport, model ExecModel, g gate, w waitFunc, opts []Option) (*core, error) {
	if t == nil {
		return nil, ErrTransportNil
	}

	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	c := &core{
		transport: t,
		cfg:       cfg,
		logger:    cfg.logger.With("engine", model.String()),
		clock:     cfg.clock,
		gate:      g,
		wait:      w,
		model:     model,
	}

	if d, ok := t.(Drainer); ok && cfg.drain {
		c.drainer = d
	}

	return c, nil
}

// ExecModel returns the execution model of the engine.
func (c *core) ExecModel() ExecModel { return c.model }

// Metrics returns the engine metrics.
func (c *core) Metrics() *Metrics { return &c.metrics }

// Send frames command, waits out the back-pressure floor and writes it.
//
// The command timestamp is updated even when the write fails.
func (c *core) Send(ctx context.Context, command string) error {
	data := Encode(command)
	c.logger.Debug("write", "data", string(data))

	if c.cfg.serializeCommands {
		if err := c.gate.acquire(ctx); err != nil {
			return err
		}
		defer c.gate.release()
	}

	if err := c.backPressure(ctx, &c.lastCommand); err != nil {
		return err
	}

	err := c.transport.Write(ctx, data)
	c.markCommand()
	c.metrics.incCommandCount()

	if err != nil {
		c.metrics.incErrCount()
		return wrapTransportErr("write", err)
	}

	return nil
}

// Query frames command and performs the write/read exchange under the query lock.
//
// The query timestamp is updated whenever the transport was used, failed or not.
func (c *core) Query(ctx context.Context, command string) (string, error) {
	data := Encode(command)
	c.logger.Debug("write", "data", string(data))

	if err := c.gate.acquire(ctx); err != nil {
		return "", err
	}
	defer c.gate.release()

	if err := c.backPressure(ctx, &c.lastQuery); err != nil {
		return "", err
	}

	c.metrics.incInflightQueries()
	defer c.metrics.decInflightQueries()

	reply, err := c.exchange(ctx, data)
	c.markQuery()
	c.metrics.incQueryCount()

	if err != nil {
		c.metrics.incErrCount()
		return "", err
	}

	c.logger.Debug("read", "data", string(reply))

	text, err := Decode(reply)
	if err != nil {
		c.metrics.incErrCount()
		return "", err
	}

	return text, nil
}

// exchange drains stale input then writes data and reads the reply line.
// Must be called with the gate held.
func (c *core) exchange(ctx context.Context, data []byte) ([]byte, error) {
	if c.drainer != nil {
		garbage, err := c.drainer.Drain(ctx)
		if err != nil {
			return nil, wrapTransportErr("drain", err)
		}
		if len(garbage) > 0 {
			c.metrics.addDrainedBytes(len(garbage))
			c.logger.Warn("disposed of garbage", "data", string(garbage))
		}
	}

	reply, err := c.transport.WriteReadUntil(ctx, data, ReplyTerminator)
	if err != nil {
		return nil, wrapTransportErr("write_read", err)
	}

	return reply, nil
}

// waitTime returns how long the caller must stay idle before the next operation.
// Must be called with tsMu held.
func (c *core) waitTime(now time.Time) time.Duration {
	floor := c.lastQuery.Add(c.cfg.queryLatency)
	if cmd := c.lastCommand.Add(c.cfg.commandLatency); cmd.After(floor) {
		floor = cmd
	}

	return floor.Sub(now)
}

// backPressure waits until the shared floor has passed, then claims the slot
// by stamping last with the current time. The floor is re-read after every
// wait since another operation may have reached the wire meanwhile.
func (c *core) backPressure(ctx context.Context, last *time.Time) error {
	for {
		c.tsMu.Lock()
		now := c.clock.Now()
		d := c.waitTime(now)
		if d <= 0 {
			*last = now
			c.tsMu.Unlock()

			return nil
		}
		c.tsMu.Unlock()

		c.metrics.addBackPressure(d)
		if err := c.wait(ctx, d); err != nil {
			return err
		}
	}
}

func (c *core) markCommand() {
	now := c.clock.Now()
	c.tsMu.Lock()
	c.lastCommand = now
	c.tsMu.Unlock()
}

func (c *core) markQuery() {
	now := c.clock.Now()
	c.tsMu.Lock()
	c.lastQuery = now
	c.tsMu.Unlock()
}
