package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/Brownie44l1/tinyhttpd/internal/router"
)

// ErrServerClosed is returned by Serve after Close or Shutdown
var ErrServerClosed = errors.New("server closed")

// Server accepts connections and hands each one to an Adapter on its own
// goroutine.
type Server struct {
	Logger Logger

	cfg     Config
	router  *router.Router
	metrics *Metrics
	sem     *semaphore.Weighted

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	cancel   context.CancelFunc

	closed atomic.Bool
	wg     sync.WaitGroup
}

// New creates a server for the routes registered on r. Routes must be
// registered before Serve; the router is sealed when serving starts.
func New(cfg Config, r *router.Router) *Server {
	cfg = sanitizeConfig(cfg)

	s := &Server{
		Logger:  &NullLogger{},
		cfg:     cfg,
		router:  r,
		metrics: NewMetrics(),
		conns:   make(map[net.Conn]struct{}),
	}
	if cfg.MaxConnections > 0 {
		s.sem = semaphore.NewWeighted(cfg.MaxConnections)
	}
	return s
}

// ListenAndServe listens on the configured address and serves
func (s *Server) ListenAndServe() error {
	l, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Serve accepts connections on l until the server is closed
func (s *Server) Serve(l net.Listener) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		l.Close()
		return ErrServerClosed
	}
	s.listener = l
	s.cancel = cancel
	s.mu.Unlock()

	routes := s.router.Seal()
	adapter := NewAdapter(s.cfg, s.Logger, s.metrics)

	s.Logger.Info("server listening",
		Field{"addr", l.Addr().String()},
		Field{"base_dir", s.cfg.BaseDir},
		Field{"max_connections", s.cfg.MaxConnections},
	)

	for {
		if s.sem != nil {
			if err := s.sem.Acquire(ctx, 1); err != nil {
				return ErrServerClosed
			}
		}

		conn, err := l.Accept()
		if err != nil {
			s.release()
			if s.closed.Load() {
				return ErrServerClosed
			}
			s.Logger.Error("accept failed", Field{"error", err})
			continue
		}

		s.track(conn, true)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.release()
			defer s.track(conn, false)

			adapter.Handle(conn, conn.RemoteAddr(), routes)
		}()
	}
}

// Addr returns the listener address, nil before Serve
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close stops accepting and closes every open connection without waiting
// for their handlers
func (s *Server) Close() error {
	err := s.stopAccepting()

	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	return err
}

// Shutdown stops accepting and waits for in-flight exchanges to finish.
// When ctx ends first the remaining connections are closed.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.stopAccepting()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return err
	case <-ctx.Done():
		s.Close()
		return ctx.Err()
	}
}

// Stats returns a snapshot of the server metrics
func (s *Server) Stats() MetricsSnapshot {
	return s.metrics.Snapshot()
}

func (s *Server) stopAccepting() error {
	s.closed.Store(true)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	if s.listener == nil {
		return nil
	}
	err := s.listener.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (s *Server) release() {
	if s.sem != nil {
		s.sem.Release(1)
	}
}

func (s *Server) track(conn net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[conn] = struct{}{}
	} else {
		delete(s.conns, conn)
	}
}
