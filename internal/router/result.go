package router

import (
	"encoding/json"
	"fmt"
)

// Result describes what a handler wants sent back. Zero fields are unset:
// Status 0 keeps the default, a nil Body leaves the response to static
// serving. Path is advisory and only redirects static resolution.
type Result struct {
	Status    int
	Headers   map[string]string
	SetCookie string
	Body      []byte
	Path      string
}

// Text builds a result with a string body
func Text(status int, body string) *Result {
	return &Result{
		Status: status,
		Body:   []byte(body),
	}
}

// JSON builds a result with v encoded as the body
func JSON(status int, v any) (*Result, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json result: %w", err)
	}

	return &Result{
		Status:  status,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    data,
	}, nil
}

// Redirect builds a 302 result pointing at location
func Redirect(location string) *Result {
	return &Result{
		Status:  302,
		Headers: map[string]string{"Location": location},
		Body:    []byte("Redirecting..."),
		Path:    location,
	}
}

// HasBody reports whether the handler supplied a body
func (r *Result) HasBody() bool {
	return r != nil && r.Body != nil
}
