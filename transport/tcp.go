package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/arloliu/go-julabo/logger"
	"github.com/arloliu/go-julabo/protocol"
)

// TCP is a cooperative transport over a TCP socket, used both for raw TCP
// and serial-over-TCP converters.
type TCP struct {
	addr   string
	cfg    *Config
	logger logger.Logger

	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
}

var (
	_ protocol.Transport = (*TCP)(nil)
	_ protocol.Drainer   = (*TCP)(nil)
)

// NewTCP creates a transport for addr ("host:port"). It is not connected.
func NewTCP(addr string, opts ...Option) (*TCP, error) {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return nil, fmt.Errorf("julabo: invalid address %q: %w", addr, err)
	}

	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	return &TCP{addr: addr, cfg: cfg, logger: cfg.logger.With("addr", addr)}, nil
}

// Addr returns the remote address.
func (t *TCP) Addr() string { return t.addr }

func (t *TCP) ExecModel() protocol.ExecModel { return protocol.Cooperative }

// Open connects to the remote end.
func (t *TCP) Open(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		return nil
	}

	dialer := net.Dialer{Timeout: t.cfg.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %w", protocol.ErrTransport, t.addr, err)
	}

	t.conn = conn
	t.reader = bufio.NewReader(conn)
	t.logger.Info("tcp connected")

	return nil
}

// Close closes the socket. Closing a closed transport is a no-op.
func (t *TCP) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return nil
	}

	err := t.conn.Close()
	t.conn = nil
	t.reader = nil
	t.logger.Info("tcp disconnected")

	if err != nil {
		return fmt.Errorf("%w: close %s: %w", protocol.ErrTransport, t.addr, err)
	}

	return nil
}

func (t *TCP) Write(ctx context.Context, data []byte) error {
	conn, _, err := t.current()
	if err != nil {
		return err
	}

	stop := interruptOnDone(ctx, conn)
	defer stop()

	if err := conn.SetWriteDeadline(deadline(ctx, t.cfg.writeTimeout)); err != nil {
		return fmt.Errorf("%w: %w", protocol.ErrTransport, err)
	}

	return t.mapErr(ctx, "write", writeAll(conn, data))
}

func (t *TCP) WriteReadUntil(ctx context.Context, data []byte, delim byte) ([]byte, error) {
	conn, reader, err := t.current()
	if err != nil {
		return nil, err
	}

	stop := interruptOnDone(ctx, conn)
	defer stop()

	if err := conn.SetWriteDeadline(deadline(ctx, t.cfg.writeTimeout)); err != nil {
		return nil, fmt.Errorf("%w: %w", protocol.ErrTransport, err)
	}
	if err := writeAll(conn, data); err != nil {
		return nil, t.mapErr(ctx, "write", err)
	}

	if err := conn.SetReadDeadline(deadline(ctx, t.cfg.readTimeout)); err != nil {
		return nil, fmt.Errorf("%w: %w", protocol.ErrTransport, err)
	}

	line, err := reader.ReadBytes(delim)
	if err != nil {
		return nil, t.mapErr(ctx, "read", err)
	}

	return line, nil
}

// Drain returns whatever arrived since the last reply: buffered bytes plus
// anything readable within a short window.
func (t *TCP) Drain(_ context.Context) ([]byte, error) {
	conn, reader, err := t.current()
	if err != nil {
		return nil, err
	}

	garbage := drainBuffered(reader)

	buf := make([]byte, 256)
	for {
		if err := conn.SetReadDeadline(time.Now().Add(drainWindow)); err != nil {
			return garbage, fmt.Errorf("%w: %w", protocol.ErrTransport, err)
		}

		n, err := reader.Read(buf)
		garbage = append(garbage, buf[:n]...)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				return garbage, nil
			}
			return garbage, fmt.Errorf("%w: drain: %w", protocol.ErrTransport, err)
		}
	}
}

func (t *TCP) current() (net.Conn, *bufio.Reader, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return nil, nil, fmt.Errorf("%w: %s", protocol.ErrClosed, t.addr)
	}

	return t.conn, t.reader, nil
}

// mapErr classifies an I/O error: cancellation wins over deadline expiry.
func (t *TCP) mapErr(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %s: %w", protocol.ErrTransport, op, ctxErr)
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return fmt.Errorf("%w: %s %s: %w", protocol.ErrTimeout, op, t.addr, err)
	}
	if errors.Is(err, protocol.ErrTransport) {
		return err
	}

	return fmt.Errorf("%w: %s: %w", protocol.ErrTransport, op, err)
}

// deadline returns the earlier of now+timeout and the context deadline.
func deadline(ctx context.Context, timeout time.Duration) time.Time {
	d := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		return ctxDeadline
	}

	return d
}

// interruptOnDone unblocks pending I/O on conn when ctx is cancelled.
func interruptOnDone(ctx context.Context, conn net.Conn) (stop func() bool) {
	return context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
}
