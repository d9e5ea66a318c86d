package simulator

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/arloliu/go-julabo/internal/task"
	"github.com/arloliu/go-julabo/logger"
	"github.com/arloliu/go-julabo/protocol"
)

// Server serves one Bath over TCP. Each connection is a request/reply line
// stream, which is what a serial-to-ethernet converter in raw mode exposes.
type Server struct {
	bath   *Bath
	addr   string
	logger logger.Logger

	mu  sync.Mutex
	ln  net.Listener
	mgr *task.Manager
}

// NewServer creates a server for bath listening on addr once started.
func NewServer(bath *Bath, addr string) *Server {
	return &Server{
		bath:   bath,
		addr:   addr,
		logger: bath.logger.With("listen", addr),
	}
}

// Start begins listening and accepting connections. The server stops when
// ctx is done or Close is called.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ln != nil {
		return fmt.Errorf("julabo: simulator %s already started", s.bath.Name())
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("julabo: simulator listen %s: %w", s.addr, err)
	}

	mgr := task.NewManager(ctx, s.logger)
	context.AfterFunc(mgr.Context(), func() { _ = ln.Close() })

	if err := mgr.Start("accept", func() bool { return s.accept(ln, mgr) }); err != nil {
		_ = ln.Close()
		return err
	}

	s.ln = ln
	s.mgr = mgr
	s.logger.Info("simulator listening", "addr", ln.Addr().String(), "class", string(s.bath.Class()))

	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ln != nil {
		return s.ln.Addr().String()
	}

	return s.addr
}

// Close stops accepting, drops every connection and waits for their tasks.
func (s *Server) Close() error {
	s.mu.Lock()
	ln, mgr := s.ln, s.mgr
	s.ln, s.mgr = nil, nil
	s.mu.Unlock()

	if ln == nil {
		return nil
	}

	err := ln.Close()
	mgr.Stop()
	mgr.Wait()

	if err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}

	return nil
}

func (s *Server) accept(ln net.Listener, mgr *task.Manager) bool {
	conn, err := ln.Accept()
	if err != nil {
		if errors.Is(err, net.ErrClosed) {
			return false
		}
		s.logger.Warn("accept failed", "error", err)

		return true
	}

	remote := conn.RemoteAddr().String()
	s.logger.Debug("client connected", "remote", remote)

	err = mgr.Go("conn "+remote, func(ctx context.Context) {
		s.serveConn(ctx, conn)
	}, func() {
		_ = conn.Close()
		s.logger.Debug("client disconnected", "remote", remote)
	})
	if err != nil {
		_ = conn.Close()
		return false
	}

	return true
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadBytes(protocol.CommandTerminator)
		if err != nil {
			return
		}

		reply := s.bath.HandleLine(line)
		if reply == nil {
			continue
		}
		if _, err := conn.Write(reply); err != nil {
			s.logger.Warn("reply failed", "error", err)
			return
		}
	}
}
