package captivedns

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roam-net/roam-go/pkg/log"
)

// Server errors.
var (
	ErrNotIPv4 = errors.New("local address is not IPv4")
)

// DefaultAddr is the well-known DNS endpoint the responder binds.
const DefaultAddr = ":53"

// stopGracePeriod bounds how long Stop waits for the receive loop to
// observe the socket closure.
const stopGracePeriod = 500 * time.Millisecond

// Config configures the responder.
type Config struct {
	// Addr is the UDP listen address (default ":53").
	Addr string

	// Logger is the optional operational logger.
	Logger *slog.Logger

	// EventLogger is the optional event capture sink.
	EventLogger log.Logger
}

// Server is the captive-portal DNS responder. It owns one bound UDP
// socket and one receive goroutine, and answers every query with the
// configured local address.
type Server struct {
	config Config
	logger *slog.Logger
	events log.Logger

	mu      sync.Mutex
	conn    *net.UDPConn
	addr    [4]byte
	running atomic.Bool
	done    chan struct{}
}

// NewServer creates a responder. Start must be called to bind.
func NewServer(config Config) *Server {
	if config.Addr == "" {
		config.Addr = DefaultAddr
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		config: config,
		logger: logger,
		events: log.OrNoop(config.EventLogger),
	}
}

// Start binds the UDP endpoint and spawns the receive loop. Every
// query received from then on is answered with local. A bind failure
// leaves the server stopped; the caller may retry.
func (s *Server) Start(local net.IP) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() {
		return nil
	}

	ip4 := local.To4()
	if ip4 == nil {
		return ErrNotIPv4
	}

	udpAddr, err := net.ResolveUDPAddr("udp4", s.config.Addr)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", s.config.Addr, err)
	}
	conn, err := net.ListenUDP("udp4", udpAddr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", s.config.Addr, err)
	}

	s.conn = conn
	copy(s.addr[:], ip4)
	s.done = make(chan struct{})
	s.running.Store(true)

	s.logger.Info("dns responder started",
		"addr", conn.LocalAddr().String(), "answer", local.String())

	go s.receiveLoop(conn, s.addr, s.done)
	return nil
}

// Stop closes the socket to unblock the pending receive and waits a
// bounded grace period for the loop to exit. Idempotent.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running.Load() {
		return
	}

	s.logger.Info("dns responder stopping")
	s.running.Store(false)
	s.conn.Close()

	select {
	case <-s.done:
	case <-time.After(stopGracePeriod):
		s.logger.Warn("dns responder receive loop did not exit in time")
	}
	s.conn = nil
}

// LocalAddr returns the bound address, or nil when stopped.
func (s *Server) LocalAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// Running reports whether the responder is active.
func (s *Server) Running() bool {
	return s.running.Load()
}

// receiveLoop answers queries until the socket is closed by Stop.
func (s *Server) receiveLoop(conn *net.UDPConn, addr [4]byte, done chan struct{}) {
	defer close(done)

	buf := make([]byte, maxPacketSize)
	for {
		n, remote, err := conn.ReadFromUDP(buf)
		if err != nil {
			if !s.running.Load() {
				// Socket closed during Stop, expected exit path.
				s.logger.Debug("dns responder receive loop exiting")
				return
			}
			s.logger.Error("dns receive failed", "error", err)
			s.events.Log(log.ErrorEvent(log.ComponentDNS, err))
			continue
		}
		if n < headerSize {
			continue
		}

		resp := buildResponse(buf[:n], addr)
		if _, err := conn.WriteToUDP(resp, remote); err != nil {
			if !s.running.Load() {
				return
			}
			s.logger.Warn("dns send failed", "error", err, "remote", remote.String())
			continue
		}

		s.events.Log(log.Event{
			Timestamp: time.Now(),
			Component: log.ComponentDNS,
			Category:  log.CategoryDNSQuery,
			QueryLen:  n,
		})
	}
}
