package transport

import (
	"bufio"
	"net"
	"sync"
	"testing"
)

// lineServer is a loopback TCP peer answering CR-terminated requests.
type lineServer struct {
	ln net.Listener

	mu       sync.Mutex
	requests []string
	// handle returns the raw reply for a request; nil means no reply.
	handle func(req string) []byte
	conns  []net.Conn
}

func newLineServer(t *testing.T, handle func(req string) []byte) *lineServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("newLineServer: %v", err)
	}

	s := &lineServer{ln: ln, handle: handle}
	t.Cleanup(func() {
		_ = ln.Close()
		s.mu.Lock()
		for _, c := range s.conns {
			_ = c.Close()
		}
		s.mu.Unlock()
	})

	go s.serve()

	return s
}

func (s *lineServer) Addr() string { return s.ln.Addr().String() }

func (s *lineServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.mu.Unlock()

		go s.handleConn(conn)
	}
}

func (s *lineServer) handleConn(conn net.Conn) {
	r := bufio.NewReader(conn)
	for {
		req, err := r.ReadString('\r')
		if err != nil {
			return
		}

		s.mu.Lock()
		s.requests = append(s.requests, req)
		s.mu.Unlock()

		if reply := s.handle(req); reply != nil {
			if _, err := conn.Write(reply); err != nil {
				return
			}
		}
	}
}

func (s *lineServer) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.requests...)
}

// Push writes unsolicited bytes to every connected client.
func (s *lineServer) Push(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.conns {
		_, _ = c.Write(data)
	}
}
