package router

import (
	"sync/atomic"

	"github.com/Brownie44l1/tinyhttpd/internal/headers"
)

// Handler handles a routed request. Returning a nil Result leaves the
// response to static file serving.
type Handler interface {
	ServeRequest(h *headers.Headers, body string) (*Result, error)
}

// HandlerFunc adapts a plain function to Handler
type HandlerFunc func(h *headers.Headers, body string) (*Result, error)

func (f HandlerFunc) ServeRequest(h *headers.Headers, body string) (*Result, error) {
	return f(h, body)
}

// Middleware wraps a handler at registration time
type Middleware func(Handler) Handler

// Table maps path -> method -> handler. Matching is exact.
type Table map[string]map[string]Handler

// Lookup resolves a handler for path and method
func (t Table) Lookup(path, method string) (Handler, bool) {
	methods, ok := t[path]
	if !ok {
		return nil, false
	}
	h, ok := methods[method]
	return h, ok
}

// Router builds a route table before serving starts
type Router struct {
	table       Table
	middlewares []Middleware
	sealed      atomic.Bool
}

// New creates a new router
func New() *Router {
	return &Router{
		table: make(Table),
	}
}

// Use adds middleware applied to handlers registered after this call
func (r *Router) Use(mw Middleware) {
	r.middlewares = append(r.middlewares, mw)
}

// Handle registers a handler for a method and path
func (r *Router) Handle(method, path string, handler Handler) {
	if r.sealed.Load() {
		panic("router: route " + method + " " + path + " registered after serving started")
	}

	for i := len(r.middlewares) - 1; i >= 0; i-- {
		handler = r.middlewares[i](handler)
	}

	if r.table[path] == nil {
		r.table[path] = make(map[string]Handler)
	}
	r.table[path][method] = handler
}

// HandleFunc registers a function for a method and path
func (r *Router) HandleFunc(method, path string, fn HandlerFunc) {
	r.Handle(method, path, fn)
}

// GET is a shortcut for HandleFunc("GET", ...)
func (r *Router) GET(path string, fn HandlerFunc) {
	r.HandleFunc("GET", path, fn)
}

// POST is a shortcut for HandleFunc("POST", ...)
func (r *Router) POST(path string, fn HandlerFunc) {
	r.HandleFunc("POST", path, fn)
}

// PUT is a shortcut for HandleFunc("PUT", ...)
func (r *Router) PUT(path string, fn HandlerFunc) {
	r.HandleFunc("PUT", path, fn)
}

// DELETE is a shortcut for HandleFunc("DELETE", ...)
func (r *Router) DELETE(path string, fn HandlerFunc) {
	r.HandleFunc("DELETE", path, fn)
}

// Seal freezes the router and returns its table. The table is read-only
// from here on, so lookups need no locking.
func (r *Router) Seal() Table {
	r.sealed.Store(true)
	return r.table
}

// Lookup resolves a handler for path and method
func (r *Router) Lookup(path, method string) (Handler, bool) {
	return r.table.Lookup(path, method)
}
