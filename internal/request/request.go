package request

import (
	"github.com/Brownie44l1/tinyhttpd/internal/headers"
	"github.com/Brownie44l1/tinyhttpd/internal/router"
)

// Request is a parsed request. Method and Path are either both set from the
// request line or both empty.
type Request struct {
	Method  string
	Path    string
	Version string
	Headers *headers.Headers
	Body    string

	// Handler is the resolved route handler, nil when the request falls back
	// to static serving.
	Handler router.Handler
}

func newRequest() *Request {
	return &Request{
		Headers: headers.NewHeaders(),
	}
}

// HasRequestLine reports whether the first line parsed
func (r *Request) HasRequestLine() bool {
	return r.Method != "" && r.Path != ""
}

// Routed reports whether a handler was resolved
func (r *Request) Routed() bool {
	return r.Handler != nil
}

// Header gets a request header value, empty when missing
func (r *Request) Header(name string) string {
	return r.Headers.Get(name, "")
}

// Cookie returns the value of a named cookie from the Cookie header
func (r *Request) Cookie(name string) (string, bool) {
	return CookieValue(r.Headers, name)
}
