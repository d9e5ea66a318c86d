package transport

import (
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-julabo/logger"
)

// Defaults matching the bath's serial interface.
const (
	DefaultBaudRate     = 9600
	DefaultReadTimeout  = 1 * time.Second
	DefaultWriteTimeout = 1 * time.Second
	DefaultDialTimeout  = 3 * time.Second

	// drainWindow bounds how long Drain listens for stale bytes on a socket.
	drainWindow = time.Millisecond
)

// Config holds transport settings shared by all implementations.
type Config struct {
	baudRate     int
	readTimeout  time.Duration
	writeTimeout time.Duration
	dialTimeout  time.Duration
	logger       logger.Logger
}

// NewConfig creates a transport configuration.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		baudRate:     DefaultBaudRate,
		readTimeout:  DefaultReadTimeout,
		writeTimeout: DefaultWriteTimeout,
		dialTimeout:  DefaultDialTimeout,
		logger:       logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// BaudRate returns the serial line speed.
func (cfg *Config) BaudRate() int { return cfg.baudRate }

// ReadTimeout returns the maximum wait for a reply line.
func (cfg *Config) ReadTimeout() time.Duration { return cfg.readTimeout }

// WriteTimeout returns the socket write timeout.
func (cfg *Config) WriteTimeout() time.Duration { return cfg.writeTimeout }

// DialTimeout returns the TCP connect timeout.
func (cfg *Config) DialTimeout() time.Duration { return cfg.dialTimeout }

// Option is a functional option for configuring a transport.
type Option interface {
	apply(*Config) error
}

type optFunc func(*Config) error

func (f optFunc) apply(cfg *Config) error { return f(cfg) }

// WithBaudRate sets the serial line speed.
func WithBaudRate(baud int) Option {
	return optFunc(func(cfg *Config) error {
		if baud <= 0 {
			return fmt.Errorf("julabo: invalid baud rate %d", baud)
		}
		cfg.baudRate = baud

		return nil
	})
}

// WithReadTimeout sets the maximum wait for a reply line.
func WithReadTimeout(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d <= 0 {
			return errors.New("julabo: read timeout must be positive")
		}
		cfg.readTimeout = d

		return nil
	})
}

// WithWriteTimeout sets the socket write timeout.
func WithWriteTimeout(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d <= 0 {
			return errors.New("julabo: write timeout must be positive")
		}
		cfg.writeTimeout = d

		return nil
	})
}

// WithDialTimeout sets the TCP connect timeout.
func WithDialTimeout(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d <= 0 {
			return errors.New("julabo: dial timeout must be positive")
		}
		cfg.dialTimeout = d

		return nil
	})
}

// WithLogger sets the transport logger.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *Config) error {
		if l == nil {
			return errors.New("julabo: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
