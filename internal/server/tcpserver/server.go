package tcpserver

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/merkle-kv/merklekv/internal/storage"
	"github.com/merkle-kv/merklekv/internal/telemetry/logger"
	"github.com/merkle-kv/merklekv/internal/telemetry/metric"
)

// maxLineLength bounds a single protocol line. Longer lines close the
// connection to protect the server from unbounded buffering.
const maxLineLength = 1 << 20

// ErrLineTooLong is returned when a command line exceeds maxLineLength.
var ErrLineTooLong = errors.New("tcpserver: command line too long")

// Config holds the protocol server configuration.
type Config struct {
	// Address is the TCP listen address.
	Address string
	// ReadTimeout is the timeout for reading a command (default: 30s).
	// Helps prevent slowloris attacks.
	ReadTimeout time.Duration
	// WriteTimeout is the timeout for writing a response (default: 30s).
	WriteTimeout time.Duration
	// IdleTimeout is the timeout for idle connections (default: 5m).
	IdleTimeout time.Duration
	// RateLimit is the maximum number of commands per second per IP
	// (default: 1000). Set to 0 to disable rate limiting.
	RateLimit int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Address:      "127.0.0.1:7379",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  5 * time.Minute,
		RateLimit:    1000,
	}
}

// Server represents the MerkleKV protocol server.
type Server struct {
	cfg        *Config
	handler    *CommandHandler
	logger     *slog.Logger
	metrics    *metric.Registry
	ln         net.Listener
	running    atomic.Bool
	wg         sync.WaitGroup
	nextConnID atomic.Uint64
}

// Conn represents a single client connection.
type Conn struct {
	netConn net.Conn
	br      *bufio.Reader
	bw      *bufio.Writer

	closed atomic.Bool
}

func newConn(c net.Conn) *Conn {
	return &Conn{
		netConn: c,
		br:      bufio.NewReader(c),
		bw:      bufio.NewWriter(c),
	}
}

func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.netConn.Close()
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.netConn.RemoteAddr()
}

// New creates a new protocol server. metrics may be nil to disable
// instrumentation.
func New(cfg *Config, engine storage.Engine, metrics *metric.Registry, logger *slog.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
	}

	s.handler = NewCommandHandler(engine, cfg.RateLimit, metrics)

	return s
}

// Start binds the listener and starts accepting connections.
// It returns once the listener is bound; accepting happens in the
// background until Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("tcpserver: listen on %s: %w", s.cfg.Address, err)
	}
	s.ln = ln
	s.running.Store(true)

	s.logger.Info("server listening", "address", ln.Addr().String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.acceptLoop(ctx, ln); err != nil && s.running.Load() {
			s.logger.Error("accept loop error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	var firstErr error
	if s.ln != nil {
		if err := s.ln.Close(); err != nil {
			firstErr = err
		}
	}

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
	for {
		c, err := ln.Accept()
		if err != nil {
			if !s.running.Load() {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(ctx, newConn(c))
		}()
	}
}

func (s *Server) serveConn(ctx context.Context, c *Conn) {
	defer c.Close()

	// Every log line and handler on this connection carries its ID.
	connID := fmt.Sprintf("conn-%d", s.nextConnID.Add(1))
	ctx = logger.WithLogger(ctx, s.logger)
	ctx = logger.WithConnID(ctx, connID)
	log := logger.L(ctx)

	if s.metrics != nil {
		s.metrics.ConnectionsTotal.Inc()
		s.metrics.ConnectionsActive.Inc()
		defer s.metrics.ConnectionsActive.Dec()
	}

	readTimeout := s.cfg.ReadTimeout
	if readTimeout == 0 {
		readTimeout = 30 * time.Second
	}
	writeTimeout := s.cfg.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 30 * time.Second
	}
	idleTimeout := s.cfg.IdleTimeout
	if idleTimeout == 0 {
		idleTimeout = 5 * time.Minute
	}

	for {
		// First byte: allow idle timeout (connection can stay idle
		// between commands).
		if err := c.netConn.SetReadDeadline(time.Now().Add(idleTimeout)); err != nil {
			return
		}
		if _, err := c.br.Peek(1); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				log.Debug("connection timed out", "remote", c.RemoteAddr())
				return
			}
			log.Debug("connection read error", "remote", c.RemoteAddr(), "error", err)
			return
		}

		// After first byte: tighten to per-command read timeout.
		if err := c.netConn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return
		}

		line, err := readLine(c.br)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				log.Debug("connection timed out", "remote", c.RemoteAddr())
				return
			}
			if errors.Is(err, ErrLineTooLong) {
				log.Warn("protocol limit exceeded", "remote", c.RemoteAddr())
				_ = c.netConn.SetWriteDeadline(time.Now().Add(writeTimeout))
				_ = writeLine(c.bw, "ERROR command line too long")
				_ = c.bw.Flush()
				return
			}
			log.Debug("connection read error", "remote", c.RemoteAddr(), "error", err)
			return
		}

		closeConn := s.handler.Handle(ctx, c, line)

		if err := c.netConn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			return
		}
		if err := c.bw.Flush(); err != nil {
			return
		}
		if closeConn {
			return
		}
	}
}

// readLine reads one CRLF- or LF-terminated line, rejecting lines
// longer than maxLineLength.
func readLine(br *bufio.Reader) (string, error) {
	var buf []byte
	for {
		chunk, err := br.ReadSlice('\n')
		buf = append(buf, chunk...)
		if len(buf) > maxLineLength {
			return "", ErrLineTooLong
		}
		if err == nil {
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return "", err
	}
	return string(bytes.TrimRight(buf, "\r\n")), nil
}

func writeLine(bw *bufio.Writer, line string) error {
	if _, err := bw.WriteString(line); err != nil {
		return err
	}
	_, err := bw.WriteString("\r\n")
	return err
}
