package response

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Brownie44l1/tinyhttpd/internal/headers"
	"github.com/Brownie44l1/tinyhttpd/internal/request"
	"github.com/Brownie44l1/tinyhttpd/internal/router"
)

const (
	ServerName = "tinyhttpd/1.0"

	// RFC 1123 with the zone pinned to GMT
	dateFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

	defaultContentType = "text/html; charset=utf-8"
)

// ErrConsumed is returned when a builder is mutated after Serialize
var ErrConsumed = errors.New("response already serialized")

// echoedHeaders are copied from the request onto every response
var echoedHeaders = []string{"Accept", "Accept-Language", "Authorization"}

// Builder accumulates one response and serializes it exactly once.
type Builder struct {
	status  StatusCode
	reason  string
	headers *headers.Headers
	body    []byte

	// owned is set once a handler supplies a body; static resolution is
	// skipped from then on.
	owned bool

	staticPath  string
	contentRoot string
	baseDir     string

	now      func() time.Time
	consumed bool
	wire     []byte
	err      error
}

// NewBuilder creates a builder serving static files below baseDir
func NewBuilder(baseDir string) *Builder {
	return &Builder{
		status:  StatusOK,
		reason:  StatusText(StatusOK),
		headers: headers.NewHeaders(),
		baseDir: baseDir,
		now:     time.Now,
	}
}

// SetClock replaces the clock used for the Date header
func (b *Builder) SetClock(now func() time.Time) {
	b.now = now
}

// SetStatus sets the status code and its standard reason phrase
func (b *Builder) SetStatus(code StatusCode) error {
	if b.consumed {
		return ErrConsumed
	}
	b.status = code
	b.reason = StatusText(code)
	return nil
}

// SetHeader sets a response header
func (b *Builder) SetHeader(name, value string) error {
	if b.consumed {
		return ErrConsumed
	}
	b.headers.Set(name, value)
	return nil
}

// SetBody sets the body and makes the response handler-owned
func (b *Builder) SetBody(body []byte) error {
	if b.consumed {
		return ErrConsumed
	}
	if body == nil {
		body = []byte{}
	}
	b.body = body
	b.owned = true
	return nil
}

// SetContentRoot overrides the MIME-selected content root for static files
func (b *Builder) SetContentRoot(dir string) error {
	if b.consumed {
		return ErrConsumed
	}
	b.contentRoot = dir
	return nil
}

// SetFromResult merges a handler result. A nil result changes nothing.
func (b *Builder) SetFromResult(res *router.Result) error {
	if b.consumed {
		return ErrConsumed
	}
	if res == nil {
		return nil
	}

	if res.Status != 0 {
		b.SetStatus(StatusCode(res.Status))
	}
	for name, value := range res.Headers {
		b.headers.Set(name, value)
	}
	if res.SetCookie != "" {
		b.headers.Set("Set-Cookie", res.SetCookie)
	}
	if res.Body != nil {
		b.SetBody(res.Body)
	}
	if res.Path != "" {
		b.staticPath = res.Path
	}
	return nil
}

// Fail turns the response into the fixed 500 response
func (b *Builder) Fail() error {
	if b.consumed {
		return ErrConsumed
	}
	b.SetStatus(StatusInternalServerError)
	b.headers = headers.NewHeaders()
	return b.SetBody([]byte(internalErrorBody))
}

// StatusCode returns the current status; after Serialize it is the status
// that was actually sent.
func (b *Builder) StatusCode() StatusCode {
	return b.status
}

// HandlerOwned reports whether a handler supplied the body
func (b *Builder) HandlerOwned() bool {
	return b.owned
}

// Err returns the error recorded during Serialize: an unsupported media
// type, or whatever forced the fail-safe 404.
func (b *Builder) Err() error {
	return b.err
}

// ContentRoot selects the content root for a MIME type and sets the
// Content-Type and type-specific headers on the response.
func (b *Builder) ContentRoot(mimeType string) (string, error) {
	root, extra, err := contentRoot(mimeType, b.baseDir)
	if err != nil {
		return "", err
	}

	b.headers.Set("Content-Type", mimeType)
	for name, value := range extra {
		b.headers.Set(name, value)
	}
	return root, nil
}

// Serialize renders the response for req. It always returns a complete
// response: any failure on the way falls back to the fixed 404 page.
func (b *Builder) Serialize(req *request.Request) (out []byte) {
	if b.consumed {
		return b.wire
	}
	b.consumed = true

	if req == nil {
		req = &request.Request{}
	}

	defer func() {
		if r := recover(); r != nil {
			b.err = fmt.Errorf("serialize panic: %v", r)
			out = b.failSafe(req)
		}
		b.wire = out
	}()

	out, err := b.serialize(req)
	if err != nil {
		b.err = err
		return b.failSafe(req)
	}
	return out
}

func (b *Builder) serialize(req *request.Request) ([]byte, error) {
	switch {
	case b.status == StatusUnauthorized:
		return b.render(req, StatusUnauthorized, StatusText(StatusUnauthorized), unauthorizedHeaders(), []byte(unauthorizedBody))
	case b.status == StatusNotFound:
		return b.notFound(req)
	case b.owned:
		if !b.headers.Has("Content-Type") {
			b.headers.Set("Content-Type", defaultContentType)
		}
		return b.render(req, b.status, b.reason, b.headers, b.body)
	}
	return b.serveStatic(req)
}

func (b *Builder) serveStatic(req *request.Request) ([]byte, error) {
	path := b.staticPath
	if path == "" {
		if !req.HasRequestLine() {
			return b.notFound(req)
		}
		path = req.Path
	}

	mimeType := MimeType(staticRelPath(path))
	root, err := b.ContentRoot(mimeType)
	if err != nil {
		b.err = err
		return b.unsupported(req)
	}
	if b.contentRoot != "" {
		root = b.contentRoot
	}

	content := LoadStatic(path, root)
	if len(content) == 0 {
		return b.notFound(req)
	}

	return b.render(req, b.status, b.reason, b.headers, content)
}

func (b *Builder) notFound(req *request.Request) ([]byte, error) {
	return b.render(req, StatusNotFound, StatusText(StatusNotFound), notFoundHeaders(), []byte(notFoundBody))
}

// unsupported answers a MIME type with no content root. It is kept apart
// from the 404 page so a routing gap never looks like a missing file.
func (b *Builder) unsupported(req *request.Request) ([]byte, error) {
	h := headers.NewHeaders()
	h.Set("Content-Type", "text/html")
	return b.render(req, StatusUnsupportedMediaType, StatusText(StatusUnsupportedMediaType), h, []byte(unsupportedBody))
}

func (b *Builder) failSafe(req *request.Request) (out []byte) {
	defer func() {
		if r := recover(); r != nil {
			b.status = StatusNotFound
			out = notFoundFallback
		}
	}()

	out, err := b.notFound(req)
	if err != nil {
		b.status = StatusNotFound
		return notFoundFallback
	}
	return out
}

// render writes the final wire form. Connection, Date, Server and
// Content-Length always reflect this exchange, whatever the handler set.
func (b *Builder) render(req *request.Request, code StatusCode, reason string, h *headers.Headers, body []byte) ([]byte, error) {
	out := headers.NewHeaders()
	for _, name := range echoedHeaders {
		if v, ok := req.Headers.Lookup(name); ok {
			out.Set(name, v)
		}
	}
	out.Set("Cache-Control", "no-cache")
	for name, value := range h.All() {
		out.Set(name, value)
	}
	out.Set("Content-Length", strconv.Itoa(len(body)))
	out.Set("Date", b.now().UTC().Format(dateFormat))
	out.Set("Connection", "close")
	out.Set("Server", ServerName)

	var buf bytes.Buffer
	if err := NewWriter(&buf).WriteResponse(code, reason, out, body); err != nil {
		return nil, err
	}

	b.status = code
	return buf.Bytes(), nil
}
