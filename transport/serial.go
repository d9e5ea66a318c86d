package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/arloliu/go-julabo/logger"
	"github.com/arloliu/go-julabo/protocol"
	"github.com/tarm/serial"
)

// serialPort is the subset of *serial.Port used here.
type serialPort interface {
	io.ReadWriteCloser
	Flush() error
}

// allow tests to replace the device
var openPort = func(c *serial.Config) (serialPort, error) { return serial.OpenPort(c) }

// Serial is a blocking transport over a local serial line.
type Serial struct {
	path   string
	cfg    *Config
	logger logger.Logger

	mu     sync.Mutex
	port   serialPort
	reader *bufio.Reader
}

var (
	_ protocol.Transport = (*Serial)(nil)
	_ protocol.Drainer   = (*Serial)(nil)
)

// NewSerial creates a transport for the serial device at path. It is not opened.
func NewSerial(path string, opts ...Option) (*Serial, error) {
	if path == "" {
		return nil, errors.New("julabo: serial device path is empty")
	}

	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	return &Serial{path: path, cfg: cfg, logger: cfg.logger.With("port", path)}, nil
}

// Path returns the device path.
func (s *Serial) Path() string { return s.path }

func (s *Serial) ExecModel() protocol.ExecModel { return protocol.Blocking }

// Open opens the device with the bath line settings: 7 data bits, even parity, 1 stop bit.
func (s *Serial) Open(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port != nil {
		return nil
	}

	port, err := openPort(&serial.Config{
		Name:        s.path,
		Baud:        s.cfg.baudRate,
		ReadTimeout: s.cfg.readTimeout,
		Size:        7,
		Parity:      serial.ParityEven,
		StopBits:    serial.Stop1,
	})
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", protocol.ErrTransport, s.path, err)
	}

	s.port = port
	s.reader = bufio.NewReader(port)
	s.logger.Info("serial port opened", "baud", s.cfg.baudRate)

	return nil
}

// Close closes the device. Closing a closed transport is a no-op.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		return nil
	}

	err := s.port.Close()
	s.port = nil
	s.reader = nil
	s.logger.Info("serial port closed")

	if err != nil {
		return fmt.Errorf("%w: close %s: %w", protocol.ErrTransport, s.path, err)
	}

	return nil
}

func (s *Serial) Write(_ context.Context, data []byte) error {
	port, _, err := s.current()
	if err != nil {
		return err
	}

	return writeAll(port, data)
}

func (s *Serial) WriteReadUntil(_ context.Context, data []byte, delim byte) ([]byte, error) {
	port, reader, err := s.current()
	if err != nil {
		return nil, err
	}

	if err := writeAll(port, data); err != nil {
		return nil, err
	}

	line, err := reader.ReadBytes(delim)
	if err != nil {
		// tarm/serial reports an expired read timeout as io.EOF
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: no reply from %s within %v (got %q)", protocol.ErrTimeout, s.path, s.cfg.readTimeout, line)
		}
		return nil, fmt.Errorf("%w: read: %w", protocol.ErrTransport, err)
	}

	return line, nil
}

// Drain discards buffered input and flushes the driver's receive queue.
func (s *Serial) Drain(_ context.Context) ([]byte, error) {
	port, reader, err := s.current()
	if err != nil {
		return nil, err
	}

	garbage := drainBuffered(reader)
	if err := port.Flush(); err != nil {
		return garbage, fmt.Errorf("%w: flush: %w", protocol.ErrTransport, err)
	}

	return garbage, nil
}

func (s *Serial) current() (serialPort, *bufio.Reader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		return nil, nil, fmt.Errorf("%w: %s", protocol.ErrClosed, s.path)
	}

	return s.port, s.reader, nil
}

func writeAll(w io.Writer, data []byte) error {
	for written := 0; written < len(data); {
		n, err := w.Write(data[written:])
		written += n

		if err != nil {
			return fmt.Errorf("%w: write: %w", protocol.ErrTransport, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: write: %w", protocol.ErrTransport, io.ErrShortWrite)
		}
	}

	return nil
}

func drainBuffered(r *bufio.Reader) []byte {
	n := r.Buffered()
	if n == 0 {
		return nil
	}

	garbage := make([]byte, n)
	_, _ = io.ReadFull(r, garbage)

	return garbage
}
