package request

import (
	"strings"

	"github.com/Brownie44l1/tinyhttpd/internal/headers"
)

// CookieValue returns the value of a named cookie from the Cookie header in h
func CookieValue(h *headers.Headers, name string) (string, bool) {
	raw, ok := h.Lookup("Cookie")
	if !ok {
		return "", false
	}

	for _, pair := range strings.Split(raw, ";") {
		key, value, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found {
			continue
		}
		if strings.TrimSpace(key) == name {
			return strings.TrimSpace(value), true
		}
	}
	return "", false
}
