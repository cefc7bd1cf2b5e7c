package request

import (
	"strings"

	"github.com/Brownie44l1/tinyhttpd/internal/router"
)

const (
	crlf = "\r\n"
	lf   = "\n"
)

// Parse turns the raw text of a single read into a Request and resolves its
// handler from routes. It never fails: malformed input yields a partial
// request, and an unparseable first line leaves Method and Path empty.
func Parse(raw string, routes router.Table) *Request {
	req := newRequest()

	sep := lineSeparator(raw)
	lines := strings.Split(raw, sep)
	if len(lines) == 0 {
		return req
	}

	if method, path, version, ok := parseRequestLine(lines[0]); ok {
		req.Method = method
		req.Path = path
		req.Version = version
	}

	bodyStart := -1
	for i := 1; i < len(lines); i++ {
		if lines[i] == "" {
			bodyStart = i + 1
			break
		}
		// Colon-less lines are skipped
		req.Headers.ParseLine(lines[i])
	}

	if bodyStart > 0 && bodyStart < len(lines) {
		req.Body = strings.Join(lines[bodyStart:], sep)
	}

	if req.HasRequestLine() {
		if h, ok := routes.Lookup(req.Path, req.Method); ok {
			req.Handler = h
		}
	}

	return req
}

// lineSeparator picks CRLF when present, bare LF otherwise
func lineSeparator(raw string) string {
	if strings.Contains(raw, crlf) {
		return crlf
	}
	return lf
}
