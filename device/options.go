package device

import (
	"errors"

	"github.com/arloliu/go-julabo/logger"
	"github.com/arloliu/go-julabo/protocol"
	"github.com/arloliu/go-julabo/transport"
)

type config struct {
	transportOpts []transport.Option
	engineOpts    []protocol.Option
	logger        logger.Logger
}

// Option is a functional option for Open.
type Option interface {
	apply(*config) error
}

type optFunc func(*config) error

func (f optFunc) apply(cfg *config) error { return f(cfg) }

// WithTransportOptions passes options to the transport selected by URL.
func WithTransportOptions(opts ...transport.Option) Option {
	return optFunc(func(cfg *config) error {
		cfg.transportOpts = append(cfg.transportOpts, opts...)
		return nil
	})
}

// WithEngineOptions passes options to the protocol engine.
func WithEngineOptions(opts ...protocol.Option) Option {
	return optFunc(func(cfg *config) error {
		cfg.engineOpts = append(cfg.engineOpts, opts...)
		return nil
	})
}

// WithLogger sets the logger of the device, its transport and its engine.
// Transport and engine options given explicitly take precedence.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *config) error {
		if l == nil {
			return errors.New("julabo: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
