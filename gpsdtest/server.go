// Package gpsdtest provides an in-process fake gpsd for tests.
package gpsdtest

import (
	"bufio"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gear6io/gpsd4go/protocol"
	"github.com/stretchr/testify/require"
)

// Responder returns the lines to send back for one command line received
// from a client. Returning nil sends nothing.
type Responder func(command string) []string

// Server is a scripted gpsd listening on 127.0.0.1.
type Server struct {
	t  testing.TB
	ln net.Listener

	mu        sync.Mutex
	conns     map[net.Conn]struct{}
	received  []string
	responder Responder
	banner    []string
	accepted  int
	closed    bool

	wg sync.WaitGroup
}

// Option configures a Server
type Option func(*Server)

// WithResponder replaces DefaultResponder.
func WithResponder(r Responder) Option {
	return func(s *Server) { s.responder = r }
}

// WithBanner sends lines to every client right after it connects, the way
// gpsd greets clients with a VERSION object.
func WithBanner(lines ...string) Option {
	return func(s *Server) { s.banner = lines }
}

// NewServer starts a fake gpsd and stops it when the test ends.
func NewServer(t testing.TB, opts ...Option) *Server {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &Server{
		t:         t,
		ln:        ln,
		conns:     make(map[net.Conn]struct{}),
		responder: DefaultResponder,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.wg.Add(1)
	go s.acceptLoop()
	t.Cleanup(s.Close)
	return s
}

// Addr returns host:port of the listener.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Send writes line plus a newline to every connected client.
func (s *Server) Send(line string) {
	s.SendRaw(line + "\n")
}

// SendRaw writes data verbatim to every connected client, which allows
// splitting a line across writes.
func (s *Server) SendRaw(data string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for conn := range s.conns {
		if _, err := conn.Write([]byte(data)); err != nil {
			s.t.Logf("gpsdtest: write to %s: %v", conn.RemoteAddr(), err)
		}
	}
}

// SendMessage marshals msg and sends it as one line.
func (s *Server) SendMessage(msg protocol.Message) {
	body, err := protocol.Marshal(msg)
	require.NoError(s.t, err)
	s.Send(string(body))
}

// Received returns the command lines read from clients so far.
func (s *Server) Received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.received...)
}

// Clients returns the number of open client connections.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Accepted returns the number of connections accepted since start.
func (s *Server) Accepted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accepted
}

// WaitForClients blocks until n clients are connected.
func (s *Server) WaitForClients(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if s.Clients() >= n {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

// DropClients closes every client connection, keeping the listener open.
func (s *Server) DropClients() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for conn := range s.conns {
		_ = conn.Close()
		delete(s.conns, conn)
	}
}

// Close stops the listener and drops all clients.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	_ = s.ln.Close()
	s.DropClients()
	s.wg.Wait()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			_ = conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.accepted++
		for _, line := range s.banner {
			_, _ = conn.Write([]byte(line + "\n"))
		}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.serve(conn)
	}
}

func (s *Server) serve(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		s.mu.Lock()
		s.received = append(s.received, line)
		responder := s.responder
		s.mu.Unlock()

		for _, reply := range responder(line) {
			if _, err := conn.Write([]byte(reply + "\n")); err != nil {
				return
			}
		}
	}
}
