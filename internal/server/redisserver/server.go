package redisserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/kvmesh-go/internal/resp"
	"github.com/yndnr/kvmesh-go/internal/telemetry/logger"
	"github.com/yndnr/kvmesh-go/internal/telemetry/metric"
)

// Config holds the Redis server configuration.
type Config struct {
	// Address is the TCP listen address.
	Address string
	// ReadTimeout bounds each read once a frame has started arriving (default: 30s).
	// Helps prevent slowloris attacks.
	ReadTimeout time.Duration
	// WriteTimeout is the timeout for writing a reply (default: 30s).
	WriteTimeout time.Duration
	// IdleTimeout is how long a connection may wait between frames (default: 5m).
	IdleTimeout time.Duration
	// RateLimit is the maximum number of commands per second per connection.
	// Set to 0 to disable rate limiting.
	RateLimit int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Address:      "127.0.0.1:6379",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  5 * time.Minute,
		RateLimit:    0,
	}
}

// ErrServerStarted is returned by Start on a server that is already running.
var ErrServerStarted = errors.New("redisserver: already started")

// Server represents the Redis protocol server.
type Server struct {
	cfg     *Config
	handler *CommandHandler
	logger  *slog.Logger
	metrics *metric.Registry

	ln      net.Listener
	running atomic.Bool
	wg      sync.WaitGroup

	mu      sync.Mutex
	clients map[*client]struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records connection and command metrics in reg.
func WithMetrics(reg *metric.Registry) Option {
	return func(s *Server) {
		s.metrics = reg
	}
}

// New creates a new Redis protocol server backed by store.
func New(cfg *Config, store Store, logger *slog.Logger, opts ...Option) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = NewCommandHandler(store, logger, s.metrics)
	return s
}

// Start listens on the configured address and serves connections in the
// background until Shutdown is called or ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrServerStarted
	}

	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		s.running.Store(false)
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln in the background. It takes ownership of ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.running.Store(true)
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	s.logger.Info("redis server listening", "address", ln.Addr().String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.acceptLoop(ctx, ln); err != nil && s.running.Load() {
			s.logger.Error("redis server error", "error", err)
		}
	}()
	return nil
}

// Addr returns the listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown stops accepting, closes open connections and waits for their
// goroutines to finish or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	var firstErr error

	s.mu.Lock()
	if s.ln != nil {
		if err := s.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			firstErr = err
		}
	}
	for c := range s.clients {
		c.shutdown.Store(true)
		_ = c.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return firstErr
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	// Unblock Accept when the caller's context ends.
	stop := context.AfterFunc(ctx, func() { _ = s.Shutdown(context.Background()) })
	defer stop()

	for {
		nc, err := ln.Accept()
		if err != nil {
			if !s.running.Load() {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				s.logger.Warn("temporary accept error", "error", err)
				time.Sleep(5 * time.Millisecond)
				continue
			}
			return err
		}

		c := s.newClient(nc)
		if !s.track(c) {
			_ = nc.Close()
			return nil
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(c)
			s.serveConn(ctx, c)
		}()
	}
}

func (s *Server) track(c *client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running.Load() {
		return false
	}
	s.clients[c] = struct{}{}
	return true
}

func (s *Server) untrack(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
}

func (s *Server) serveConn(ctx context.Context, c *client) {
	defer c.Close()

	ctx = logger.WithConnID(ctx, c.id)
	log := s.logger.With("conn_id", c.id, "remote", c.netConn.RemoteAddr().String())

	s.metrics.ConnOpened()
	log.Debug("client connected")

	reason := s.serveFrames(ctx, c, log)
	if c.shutdown.Load() {
		reason = metric.ReasonShutdown
	}
	s.metrics.ConnClosed(reason)
}

// serveFrames runs the read-dispatch-write loop and returns why it ended.
func (s *Server) serveFrames(ctx context.Context, c *client, log *slog.Logger) string {
	for {
		f, err := c.conn.ReadFrame()
		if err != nil {
			return s.handleReadError(c, log, err)
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				log.Debug("rate limiter wait aborted", "error", err)
				return metric.ReasonShutdown
			}
		}

		reply := s.handler.Handle(ctx, f)
		if err := c.conn.WriteFrame(reply); err != nil {
			if errors.Is(err, resp.ErrArrayEncode) {
				log.Error("dispatcher produced an unencodable reply", "error", err)
				return metric.ReasonInternal
			}
			log.Debug("write failed", "error", err)
			return classify(err)
		}
	}
}

func (s *Server) handleReadError(c *client, log *slog.Logger, err error) string {
	var pe *resp.ProtocolError
	switch {
	case errors.Is(err, io.EOF):
		log.Debug("client closed connection")
		return metric.ReasonEOF
	case errors.Is(err, resp.ErrConnReset):
		log.Warn("client disconnected mid-frame", "buffered", c.conn.Buffered())
		return metric.ReasonReset
	case errors.As(err, &pe):
		log.Warn("protocol error", "error", err, "offset", pe.Offset)
		// Best effort: the peer may already be gone.
		_ = c.conn.WriteFrame(resp.ErrorString("ERR Protocol error: " + pe.Reason))
		return metric.ReasonProtocol
	}

	reason := classify(err)
	if reason == metric.ReasonTimeout {
		log.Debug("connection timed out")
	} else if !c.shutdown.Load() {
		log.Debug("connection read error", "error", err)
	}
	return reason
}

func classify(err error) string {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return metric.ReasonTimeout
	}
	return metric.ReasonIO
}

// client is a single accepted connection.
type client struct {
	id      string
	netConn net.Conn
	conn    *resp.Conn
	limiter *rate.Limiter

	closed   atomic.Bool
	shutdown atomic.Bool
}

func (s *Server) newClient(nc net.Conn) *client {
	c := &client{
		id:      ulid.Make().String(),
		netConn: nc,
	}
	c.conn = resp.NewConn(&deadlineConn{
		Conn:         nc,
		idleTimeout:  orDefault(s.cfg.IdleTimeout, 5*time.Minute),
		readTimeout:  orDefault(s.cfg.ReadTimeout, 30*time.Second),
		writeTimeout: orDefault(s.cfg.WriteTimeout, 30*time.Second),
		pending:      func() int { return c.conn.Buffered() },
	})
	if s.cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(s.cfg.RateLimit), s.cfg.RateLimit)
	}
	return c
}

func (c *client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.netConn.Close()
}

// deadlineConn arms a deadline before every read and write. Reads waiting for
// a new frame get the idle timeout, reads inside a partially received frame
// get the shorter read timeout.
type deadlineConn struct {
	net.Conn
	idleTimeout  time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
	pending      func() int
}

func (d *deadlineConn) Read(p []byte) (int, error) {
	timeout := d.idleTimeout
	if d.pending() > 0 {
		timeout = d.readTimeout
	}
	if err := d.Conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return 0, err
	}
	return d.Conn.Read(p)
}

func (d *deadlineConn) Write(p []byte) (int, error) {
	if err := d.Conn.SetWriteDeadline(time.Now().Add(d.writeTimeout)); err != nil {
		return 0, err
	}
	return d.Conn.Write(p)
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
