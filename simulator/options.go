package simulator

import (
	"errors"

	"github.com/arloliu/go-julabo/logger"
)

type config struct {
	noise     bool
	registers map[string]string
	logger    logger.Logger
}

// Option is a functional option for configuring a Bath.
type Option interface {
	apply(*config) error
}

type optFunc func(*config) error

func (f optFunc) apply(cfg *config) error { return f(cfg) }

// WithFlowControlNoise makes replies carry XON/XOFF bytes, as some
// serial-to-ethernet converters forward them.
func WithFlowControlNoise(enable bool) Option {
	return optFunc(func(cfg *config) error {
		cfg.noise = enable
		return nil
	})
}

// WithRegisters overrides default register values.
func WithRegisters(regs map[string]string) Option {
	return optFunc(func(cfg *config) error {
		cfg.registers = regs
		return nil
	})
}

// WithLogger sets the bath logger.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *config) error {
		if l == nil {
			return errors.New("julabo: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
