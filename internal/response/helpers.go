package response

import (
	"github.com/Brownie44l1/tinyhttpd/internal/headers"
)

const (
	notFoundBody      = "404 Not Found"
	internalErrorBody = "Internal Server Error"
	unsupportedBody   = "415 Unsupported Media Type"
	unauthorizedBody  = `<!DOCTYPE html>
<html>
<head><title>401 Unauthorized</title></head>
<body>
<h1>401 Unauthorized</h1>
<p>Access denied. Please login first.</p>
</body>
</html>`
)

// notFoundFallback is sent when even the 404 page fails to render
var notFoundFallback = []byte("HTTP/1.1 404 Not Found\r\n" +
	"Content-Type: text/html\r\n" +
	"Content-Length: 13\r\n" +
	"Connection: close\r\n" +
	"\r\n" +
	notFoundBody)

// WriteResponse writes a complete response in one call
func (w *Writer) WriteResponse(code StatusCode, reason string, h *headers.Headers, body []byte) error {
	if err := w.WriteStatus(code, reason); err != nil {
		return err
	}
	if err := w.WriteHeaders(h); err != nil {
		return err
	}
	return w.WriteBody(body)
}

func notFoundHeaders() *headers.Headers {
	h := headers.NewHeaders()
	h.Set("Accept-Ranges", "bytes")
	h.Set("Content-Type", "text/html")
	h.Set("Cache-Control", "max-age=86000")
	return h
}

func unauthorizedHeaders() *headers.Headers {
	h := headers.NewHeaders()
	h.Set("Content-Type", "text/html")
	return h
}
