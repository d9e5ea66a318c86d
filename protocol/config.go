package protocol

import (
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-julabo/logger"
)

// Default hardware timings (CF31 manual p.72).
const (
	DefaultCommandLatency = 250 * time.Millisecond // idle time after a command
	DefaultQueryLatency   = 10 * time.Millisecond  // idle time after a query

	MaxLatency = 10 * time.Second
)

// Config holds the engine configuration.
type Config struct {
	commandLatency    time.Duration
	queryLatency      time.Duration
	serializeCommands bool
	drain             bool
	clock             Clock
	logger            logger.Logger
}

// NewConfig creates an engine configuration with the hardware defaults.
//
// opts are functional options applied in order; see With* functions.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		commandLatency: DefaultCommandLatency,
		queryLatency:   DefaultQueryLatency,
		drain:          true,
		clock:          SystemClock(),
		logger:         logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// CommandLatency returns the idle time enforced after a command.
func (cfg *Config) CommandLatency() time.Duration { return cfg.commandLatency }

// QueryLatency returns the idle time enforced after a query.
func (cfg *Config) QueryLatency() time.Duration { return cfg.queryLatency }

// SerializedCommands returns whether commands share the query lock.
func (cfg *Config) SerializedCommands() bool { return cfg.serializeCommands }

// Drain returns whether stale input is discarded before each query.
func (cfg *Config) Drain() bool { return cfg.drain }

// GetLogger returns the configured logger.
func (cfg *Config) GetLogger() logger.Logger { return cfg.logger }

// Option is a functional option for configuring an engine.
type Option interface {
	apply(*Config) error
}

type optFunc func(*Config) error

func (f optFunc) apply(cfg *Config) error { return f(cfg) }

// WithCommandLatency sets the idle time required after a command. Range: 0–10s.
func WithCommandLatency(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d < 0 || d > MaxLatency {
			return fmt.Errorf("julabo: command latency %v out of range [0, %v]", d, MaxLatency)
		}
		cfg.commandLatency = d

		return nil
	})
}

// WithQueryLatency sets the idle time required after a query. Range: 0–10s.
func WithQueryLatency(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d < 0 || d > MaxLatency {
			return fmt.Errorf("julabo: query latency %v out of range [0, %v]", d, MaxLatency)
		}
		cfg.queryLatency = d

		return nil
	})
}

// WithSerializedCommands makes commands acquire the query lock as well, so a
// command can never be written between a query's write and its read.
// Disabled by default.
func WithSerializedCommands(enabled bool) Option {
	return optFunc(func(cfg *Config) error {
		cfg.serializeCommands = enabled

		return nil
	})
}

// WithDrain enables or disables discarding stale input before each query on
// transports implementing Drainer. Enabled by default.
func WithDrain(enabled bool) Option {
	return optFunc(func(cfg *Config) error {
		cfg.drain = enabled

		return nil
	})
}

// WithClock sets the time source.
func WithClock(c Clock) Option {
	return optFunc(func(cfg *Config) error {
		if c == nil {
			return errors.New("julabo: clock must not be nil")
		}
		cfg.clock = c

		return nil
	})
}

// WithLogger sets the logger for the engine.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *Config) error {
		if l == nil {
			return errors.New("julabo: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
