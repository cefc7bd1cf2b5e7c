package server

import (
	"fmt"
	"time"

	"github.com/Brownie44l1/tinyhttpd/internal/headers"
	"github.com/Brownie44l1/tinyhttpd/internal/router"
)

// LoggingMiddleware logs each handler call. Header values are never logged.
func LoggingMiddleware(logger Logger) router.Middleware {
	return func(next router.Handler) router.Handler {
		return router.HandlerFunc(func(h *headers.Headers, body string) (*router.Result, error) {
			start := time.Now()
			res, err := next.ServeRequest(h, body)

			status := 0
			if res != nil {
				status = res.Status
			}
			fields := []Field{
				{"status", status},
				{"body_bytes", len(body)},
				{"duration_ms", time.Since(start).Milliseconds()},
			}
			if err != nil {
				logger.Warn("handler returned error", append(fields, Field{"error", err})...)
			} else {
				logger.Debug("handler done", fields...)
			}
			return res, err
		})
	}
}

// RecoveryMiddleware turns a handler panic into an error so the adapter
// answers with its fixed 500 page.
func RecoveryMiddleware(logger Logger) router.Middleware {
	return func(next router.Handler) router.Handler {
		return router.HandlerFunc(func(h *headers.Headers, body string) (res *router.Result, err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("panic recovered", Field{"error", fmt.Sprint(r)})
					res, err = nil, fmt.Errorf("%w: %v", ErrHandlerPanic, r)
				}
			}()
			return next.ServeRequest(h, body)
		})
	}
}
