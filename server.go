// Package goadssim implements an ADS test server: a TCP server speaking the
// AMS/ADS wire protocol with a simulated symbol store behind it. It exists
// so ADS client code can be exercised against a real socket without a PLC.
package goadssim

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mrpasztoradam/goadssim/internal/ads"
	"github.com/mrpasztoradam/goadssim/internal/ams"
)

// DefaultAddress is the listen address used when none is configured. The
// port is the standard AMS/TCP port.
const DefaultAddress = "127.0.0.1:48898"

type serverConfig struct {
	addr    string
	handler Handler
	store   *Store
	logger  Logger
	metrics Metrics
}

// Option configures a Server during construction.
type Option func(*serverConfig) error

// WithAddress sets the TCP listen address ("host:port"). Port 0 picks a
// free port; query it with Addr after Start.
func WithAddress(addr string) Option {
	return func(c *serverConfig) error {
		if addr == "" {
			return NewValidationError("configure", "listen address cannot be empty")
		}
		c.addr = addr
		return nil
	}
}

// WithHandler sets the request handler. Defaults to a BasicHandler.
func WithHandler(h Handler) Option {
	return func(c *serverConfig) error {
		if h == nil {
			return NewValidationError("configure", "handler cannot be nil")
		}
		c.handler = h
		return nil
	}
}

// WithStore sets the symbol store. A handler passed via WithHandler is not
// rebound; pass the same store to both when combining these options.
func WithStore(st *Store) Option {
	return func(c *serverConfig) error {
		if st == nil {
			return NewValidationError("configure", "store cannot be nil")
		}
		c.store = st
		return nil
	}
}

// RequestRecord is one entry of the server's request log.
type RequestRecord struct {
	Time      time.Time `json:"time"`
	Command   string    `json:"command"`
	CommandID uint16    `json:"command_id"`
	InvokeID  uint32    `json:"invoke_id"`
	Source    string    `json:"source"`
	Target    string    `json:"target"`
	DataLen   int       `json:"data_len"`
}

// Server is the ADS test server. Each accepted connection is served by its
// own goroutine; every request frame received on any connection is kept in
// an inspectable history until ClearHistory is called.
type Server struct {
	addr    string
	handler Handler
	store   *Store
	logger  Logger
	metrics Metrics

	ln      net.Listener
	closed  atomic.Bool
	wg      sync.WaitGroup

	mu       sync.Mutex
	sessions map[*session]struct{}

	historyMu sync.Mutex
	history   []*ams.Packet
	records   []RequestRecord
	observers map[chan RequestRecord]struct{}
}

// New creates a server. It does not bind the listen socket; call Start.
func New(opts ...Option) (*Server, error) {
	cfg := serverConfig{
		addr:    DefaultAddress,
		logger:  DefaultLogger,
		metrics: DefaultMetrics,
	}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if cfg.store == nil {
		cfg.store = NewStore()
	}
	cfg.store.SetLogger(cfg.logger)
	cfg.store.SetMetrics(cfg.metrics)
	if cfg.handler == nil {
		cfg.handler = NewBasicHandler(cfg.logger)
	}

	return &Server{
		addr:      cfg.addr,
		handler:   cfg.handler,
		store:     cfg.store,
		logger:    cfg.logger,
		metrics:   cfg.metrics,
		sessions:  make(map[*session]struct{}),
		observers: make(map[chan RequestRecord]struct{}),
	}, nil
}

// Start binds the listen socket and begins accepting connections. It
// returns once the listener is ready.
func (s *Server) Start() error {
	if s.closed.Load() {
		return NewStateError("start", "server is closed")
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return NewNetworkError("start", err)
	}
	s.ln = ln
	s.logger.Info("server listening", "addr", ln.Addr().String())

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Addr returns the bound listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Store returns the server's symbol store.
func (s *Server) Store() *Store {
	return s.store
}

// AddVariable pre-registers a variable in the store, so clients can address
// it before any write creates it implicitly.
func (s *Server) AddVariable(v *Variable) error {
	return s.store.Add(v)
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if s.closed.Load() {
				return
			}
			s.logger.Warn("accept failed", "error", err)
			continue
		}

		sess := newSession(s, conn)
		s.mu.Lock()
		s.sessions[sess] = struct{}{}
		active := len(s.sessions)
		s.mu.Unlock()

		s.metrics.ConnectionOpened()
		s.metrics.ConnectionsActive(active)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			sess.run()
		}()
	}
}

func (s *Server) removeSession(sess *session) {
	s.mu.Lock()
	delete(s.sessions, sess)
	active := len(s.sessions)
	s.mu.Unlock()
	s.metrics.ConnectionsActive(active)
}

// Stop closes the listener and all live connections, then waits for the
// connection goroutines to finish. Safe to call multiple times.
func (s *Server) Stop() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	var err error
	if s.ln != nil {
		err = s.ln.Close()
	}

	s.mu.Lock()
	for sess := range s.sessions {
		sess.close()
	}
	s.mu.Unlock()

	s.wg.Wait()

	s.historyMu.Lock()
	for ch := range s.observers {
		close(ch)
	}
	s.observers = make(map[chan RequestRecord]struct{})
	s.historyMu.Unlock()

	s.logger.Info("server stopped")
	return err
}

// Close is an alias for Stop, satisfying io.Closer.
func (s *Server) Close() error {
	return s.Stop()
}

// recordRequest appends the frame to the history and fans a summary out to
// request-log observers. Slow observers lose records rather than blocking
// the read loop.
func (s *Server) recordRequest(pkt *ams.Packet) {
	rec := RequestRecord{
		Time:      time.Now(),
		Command:   ads.CommandID(pkt.Header.CommandID).String(),
		CommandID: pkt.Header.CommandID,
		InvokeID:  pkt.Header.InvokeID,
		Source:    fmt.Sprintf("%s:%d", pkt.Header.SourceNetID, pkt.Header.SourcePort),
		Target:    fmt.Sprintf("%s:%d", pkt.Header.TargetNetID, pkt.Header.TargetPort),
		DataLen:   len(pkt.Data),
	}

	s.historyMu.Lock()
	s.history = append(s.history, pkt)
	s.records = append(s.records, rec)
	for ch := range s.observers {
		select {
		case ch <- rec:
		default:
		}
	}
	s.historyMu.Unlock()
}

// History returns the request frames received so far, oldest first.
func (s *Server) History() []*ams.Packet {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()
	out := make([]*ams.Packet, len(s.history))
	copy(out, s.history)
	return out
}

// RequestLog returns summaries of the request frames received so far.
func (s *Server) RequestLog() []RequestRecord {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()
	out := make([]RequestRecord, len(s.records))
	copy(out, s.records)
	return out
}

// ClearHistory discards the request history.
func (s *Server) ClearHistory() {
	s.historyMu.Lock()
	s.history = nil
	s.records = nil
	s.historyMu.Unlock()
}

// SubscribeRequests returns a channel receiving a record per incoming
// request, plus a cancel function that must be called when done. Records
// are dropped rather than delivered late when the channel backs up.
func (s *Server) SubscribeRequests() (<-chan RequestRecord, func()) {
	ch := make(chan RequestRecord, 64)

	s.historyMu.Lock()
	s.observers[ch] = struct{}{}
	s.historyMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.historyMu.Lock()
			if _, ok := s.observers[ch]; ok {
				delete(s.observers, ch)
				close(ch)
			}
			s.historyMu.Unlock()
		})
	}
	return ch, cancel
}
