package device

import (
	"context"
	"fmt"
	"io"

	"github.com/arloliu/go-julabo/attr"
	"github.com/arloliu/go-julabo/logger"
	"github.com/arloliu/go-julabo/protocol"
	"github.com/arloliu/go-julabo/transport"
	"golang.org/x/sync/errgroup"
)

// Device binds one engine to one profile. It resolves attribute names and
// returns whatever the engine and codecs return, errors included.
type Device struct {
	engine  protocol.Engine
	profile *attr.Profile
	closer  io.Closer
}

// New binds e to p. The caller keeps ownership of the engine's transport.
func New(e protocol.Engine, p *attr.Profile) *Device {
	return &Device{engine: e, profile: p}
}

// Open selects a transport for url, opens it, and returns a device with the
// profile of model. Close releases the transport.
func Open(ctx context.Context, url, model string, opts ...Option) (*Device, error) {
	profile, err := ProfileFor(model)
	if err != nil {
		return nil, err
	}

	cfg := &config{logger: logger.GetLogger()}
	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	l := cfg.logger.With("device", url, "model", profile.Name())

	tr, err := transport.ForURL(url, append([]transport.Option{transport.WithLogger(l)}, cfg.transportOpts...)...)
	if err != nil {
		return nil, err
	}
	if err := tr.Open(ctx); err != nil {
		return nil, err
	}

	engine, err := protocol.New(tr, append([]protocol.Option{protocol.WithLogger(l)}, cfg.engineOpts...)...)
	if err != nil {
		_ = tr.Close()
		return nil, err
	}

	l.Info("device opened", "exec_model", engine.ExecModel().String())

	return &Device{engine: engine, profile: profile, closer: tr}, nil
}

// Close closes the transport if the device was created by Open.
func (d *Device) Close() error {
	if d.closer == nil {
		return nil
	}

	return d.closer.Close()
}

// Engine returns the bound engine, for use with typed attributes.
func (d *Device) Engine() protocol.Engine { return d.engine }

// Profile returns the device profile.
func (d *Device) Profile() *attr.Profile { return d.profile }

// Names returns the attribute names in profile order.
func (d *Device) Names() []string { return d.profile.Names() }

// Attribute resolves name.
func (d *Device) Attribute(name string) (attr.Attribute, error) {
	a, ok := d.profile.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no %q", ErrUnknownAttribute, d.profile.Name(), name)
	}

	return a, nil
}

// Get reads the attribute called name.
func (d *Device) Get(ctx context.Context, name string) (any, error) {
	a, err := d.Attribute(name)
	if err != nil {
		return nil, err
	}

	return a.Load(ctx, d.engine)
}

// Set writes v to the attribute called name.
func (d *Device) Set(ctx context.Context, name string, v any) error {
	a, err := d.Attribute(name)
	if err != nil {
		return err
	}

	return a.Store(ctx, d.engine, v)
}

// Invoke runs the command called name, e.g. "start".
func (d *Device) Invoke(ctx context.Context, name string) error {
	a, err := d.Attribute(name)
	if err != nil {
		return err
	}

	return a.Invoke(ctx, d.engine)
}

// Reading is one attribute value of a Snapshot.
type Reading struct {
	Name  string
	Value any
}

// Snapshot reads every readable attribute. The reads are issued concurrently
// and serialized by the engine; results are in profile order. The first
// failure cancels the remaining reads and is returned.
func (d *Device) Snapshot(ctx context.Context) ([]Reading, error) {
	attrs := d.profile.Readable()
	out := make([]Reading, len(attrs))

	g, gctx := errgroup.WithContext(ctx)
	for i, a := range attrs {
		g.Go(func() error {
			v, err := a.Load(gctx, d.engine)
			if err != nil {
				return fmt.Errorf("%s: %w", a.Name(), err)
			}
			out[i] = Reading{Name: a.Name(), Value: v}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}
