package server

import (
	"errors"
	"fmt"
	"io"
	"net"
	"runtime/debug"
	"strings"
	"time"

	"github.com/Brownie44l1/tinyhttpd/internal/request"
	"github.com/Brownie44l1/tinyhttpd/internal/response"
	"github.com/Brownie44l1/tinyhttpd/internal/router"
)

// ErrHandlerPanic wraps a value recovered from a panicking handler
var ErrHandlerPanic = errors.New("handler panic")

// Adapter runs one exchange per connection: a single bounded read, parse,
// dispatch or static fallback, one response, close.
type Adapter struct {
	baseDir     string
	readTimeout time.Duration
	buffers     *BufferPool
	logger      Logger
	metrics     *Metrics
}

// NewAdapter creates an adapter from cfg. A nil logger discards logs and a
// nil metrics gets a private instance.
func NewAdapter(cfg Config, logger Logger, metrics *Metrics) *Adapter {
	cfg = sanitizeConfig(cfg)
	if logger == nil {
		logger = &NullLogger{}
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Adapter{
		baseDir:     cfg.BaseDir,
		readTimeout: cfg.ReadTimeout,
		buffers:     NewBufferPool(cfg.ReadBufferSize),
		logger:      logger,
		metrics:     metrics,
	}
}

// Handle serves the single request on conn and closes it. addr is the peer
// address used for logging.
func (a *Adapter) Handle(conn net.Conn, addr net.Addr, routes router.Table) {
	defer conn.Close()

	a.metrics.ActiveConnections.Add(1)
	defer a.metrics.ActiveConnections.Add(-1)
	a.metrics.ConnectionsTotal.Add(1)

	start := time.Now()
	remote := addrString(addr)

	raw, ok := a.read(conn, remote)
	if !ok {
		return
	}

	req := request.Parse(raw, routes)
	b := response.NewBuilder(a.baseDir)

	if req.Routed() {
		res, err := a.invoke(req)
		if err != nil {
			a.logger.Error("handler failed",
				Field{"method", req.Method},
				Field{"path", req.Path},
				Field{"remote", remote},
				Field{"error", err},
			)
			b.Fail()
		} else {
			b.SetFromResult(res)
		}
	}

	wire := b.Serialize(req)
	if err := b.Err(); err != nil {
		if errors.Is(err, response.ErrUnsupportedMediaType) {
			a.logger.Warn("unsupported media type",
				Field{"path", req.Path},
				Field{"error", err},
			)
		} else {
			a.logger.Error("serialize failed, sent fallback page",
				Field{"path", req.Path},
				Field{"error", err},
			)
		}
	}
	if !b.HandlerOwned() {
		a.metrics.StaticServed.Add(1)
	}

	if _, err := conn.Write(wire); err != nil {
		a.logger.Warn("write response",
			Field{"remote", remote},
			Field{"error", err},
		)
	}

	duration := time.Since(start)
	a.metrics.RecordRequest(int(b.StatusCode()), duration)
	a.logger.Info("request handled",
		Field{"method", req.Method},
		Field{"path", req.Path},
		Field{"status", int(b.StatusCode())},
		Field{"duration_ms", duration.Milliseconds()},
		Field{"remote", remote},
	)
}

// read performs the one bounded read. It reports false when nothing arrived.
func (a *Adapter) read(conn net.Conn, remote string) (string, bool) {
	if a.readTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(a.readTimeout))
	}

	buf := a.buffers.Get()
	defer a.buffers.Put(buf)

	n, err := conn.Read(*buf)
	if n == 0 {
		if err != nil && !errors.Is(err, io.EOF) {
			a.logger.Debug("read failed",
				Field{"remote", remote},
				Field{"error", err},
			)
		}
		return "", false
	}

	return strings.ToValidUTF8(string((*buf)[:n]), "\uFFFD"), true
}

// invoke calls the handler, turning a panic into an error
func (a *Adapter) invoke(req *request.Request) (res *router.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			a.metrics.HandlerPanics.Add(1)
			a.logger.Debug("panic recovered",
				Field{"path", req.Path},
				Field{"stack", string(debug.Stack())},
			)
			res = nil
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()

	return req.Handler.ServeRequest(req.Headers, req.Body)
}

func addrString(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	return addr.String()
}
