package server

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"example.com/wwwserve/internal/config"
	"example.com/wwwserve/internal/handlers/staticfile"
	"example.com/wwwserve/internal/logger"
	"example.com/wwwserve/internal/util"
)

// RequestHandler turns one raw request into a rendered response.
type RequestHandler interface {
	Serve(raw []byte) (*staticfile.Response, error)
}

// Server accepts TCP connections and answers exactly one request per
// connection before closing it.
type Server struct {
	cfg     *config.ServerConfig
	log     *logger.Logger
	handler RequestHandler

	readTimeout     time.Duration
	maxRequestBytes int64

	mu       sync.Mutex
	listener net.Listener
	conns    sync.WaitGroup
}

// NewServer creates a new Server instance.
func NewServer(cfg *config.Config, lg *logger.Logger, handler RequestHandler) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if lg == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if handler == nil {
		return nil, fmt.Errorf("handler cannot be nil")
	}
	if cfg.Server == nil {
		return nil, fmt.Errorf("server configuration section (server) is missing")
	}

	maxRequestBytes := int64(8192)
	if cfg.Server.MaxRequestBytes != nil {
		maxRequestBytes = int64(*cfg.Server.MaxRequestBytes)
	}

	return &Server{
		cfg:             cfg.Server,
		log:             lg,
		handler:         handler,
		readTimeout:     cfg.Server.ReadTimeoutDuration(),
		maxRequestBytes: maxRequestBytes,
	}, nil
}

// Start listens on the configured address and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s.cfg.Address == nil || *s.cfg.Address == "" {
		return fmt.Errorf("server listen address (server.address) is not configured")
	}
	maxConns := 0
	if s.cfg.MaxConnections != nil {
		maxConns = *s.cfg.MaxConnections
	}

	ln, err := util.CreateListener("tcp", *s.cfg.Address, maxConns)
	if err != nil {
		if util.IsAddrInUse(err) {
			return fmt.Errorf("address %s is already in use: %w", *s.cfg.Address, err)
		}
		return err
	}
	s.log.Info("Listening", logger.LogFields{"address": ln.Addr().String(), "max_connections": maxConns})
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then closes ln and
// waits for in-flight connections to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		return ln.Close()
	})
	g.Go(func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
					return nil
				}
				return fmt.Errorf("accept failed: %w", err)
			}
			s.conns.Add(1)
			go func() {
				defer s.conns.Done()
				s.handleConnection(conn)
			}()
		}
	})

	err := g.Wait()
	if err != nil && errors.Is(err, net.ErrClosed) {
		err = nil
	}
	s.conns.Wait()
	s.log.Info("Server stopped", nil)
	return err
}

// Addr returns the listener address, or nil before Serve has been called.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	start := time.Now()
	remote := conn.RemoteAddr().String()

	if err := conn.SetReadDeadline(start.Add(s.readTimeout)); err != nil {
		s.log.Warn("Failed to set read deadline", logger.LogFields{"remote_addr": remote, "error": err.Error()})
	}

	raw, err := readRequestHead(conn, s.maxRequestBytes)
	if err != nil {
		s.log.Debug("Dropping connection without a request", logger.LogFields{"remote_addr": remote, "error": err.Error()})
		return
	}

	resp, err := s.handler.Serve(raw)
	if err != nil {
		s.log.Error("Failed to produce response, closing connection", logger.LogFields{"remote_addr": remote, "error": err.Error()})
		return
	}

	n, err := io.WriteString(conn, resp.Payload)
	if err != nil {
		s.log.Warn("Failed to write response", logger.LogFields{"remote_addr": remote, "error": err.Error()})
	}

	s.log.Access(logger.AccessEntry{
		RemoteAddr: remote,
		Method:     resp.Method,
		Target:     resp.Target,
		Status:     resp.StatusCode,
		RespBytes:  int64(n),
		Duration:   time.Since(start),
	})
}

// readRequestHead reads from r until the blank line that ends the request
// head, EOF, or limit bytes. Whatever was read is returned as long as it is
// not empty; the request line is all that is needed downstream.
func readRequestHead(r io.Reader, limit int64) ([]byte, error) {
	br := bufio.NewReader(io.LimitReader(r, limit))
	var buf bytes.Buffer
	for {
		line, err := br.ReadBytes('\n')
		buf.Write(line)
		if err == nil {
			if len(bytes.TrimRight(line, "\r\n")) == 0 {
				break
			}
			continue
		}
		if buf.Len() > 0 {
			break
		}
		if err == io.EOF {
			return nil, fmt.Errorf("connection closed before a request was received")
		}
		return nil, err
	}
	return buf.Bytes(), nil
}
