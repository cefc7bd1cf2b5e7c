package headers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderParseLine(t *testing.T) {
	// Test: Valid single header
	h := NewHeaders()
	ok := h.ParseLine("Host: localhost:42069")
	require.True(t, ok)
	val, found := h.Lookup("host")
	assert.True(t, found)
	assert.Equal(t, "localhost:42069", val)

	// Test: Extra whitespace is trimmed
	h = NewHeaders()
	ok = h.ParseLine("Host:   localhost:42069   ")
	require.True(t, ok)
	assert.Equal(t, "localhost:42069", h.Get("host", ""))

	// Test: Whitespace before colon is trimmed from the name
	h = NewHeaders()
	ok = h.ParseLine("Host : localhost")
	require.True(t, ok)
	assert.Equal(t, "localhost", h.Get("HOST", ""))

	// Test: Split only on the first colon
	h = NewHeaders()
	ok = h.ParseLine("Referer: http://example.com:8080/path")
	require.True(t, ok)
	assert.Equal(t, "http://example.com:8080/path", h.Get("referer", ""))

	// Test: No colon in header is skipped
	h = NewHeaders()
	ok = h.ParseLine("InvalidHeader")
	assert.False(t, ok)
	assert.Equal(t, 0, h.Len())

	// Test: Empty header value (allowed)
	h = NewHeaders()
	ok = h.ParseLine("X-Empty:")
	require.True(t, ok)
	val, found = h.Lookup("x-empty")
	assert.True(t, found)
	assert.Equal(t, "", val)
}

func TestHeaderCaseInsensitive(t *testing.T) {
	// Test: Set with one casing, read with another
	h := NewHeaders()
	h.Set("Content-Type", "application/json")
	assert.Equal(t, "application/json", h.Get("content-type", ""))
	assert.Equal(t, "application/json", h.Get("CONTENT-TYPE", ""))
	assert.True(t, h.Has("cOnTeNt-TyPe"))

	// Test: Later sets overwrite, first casing is kept
	h.Set("content-type", "text/plain")
	assert.Equal(t, "text/plain", h.Get("Content-Type", ""))
	assert.Equal(t, 1, h.Len())

	var names []string
	for name := range h.All() {
		names = append(names, name)
	}
	assert.Equal(t, []string{"Content-Type"}, names)
}

func TestHeaderDefaultsAndDelete(t *testing.T) {
	// Test: Missing key yields the default
	h := NewHeaders()
	assert.Equal(t, "fallback", h.Get("non-existent", "fallback"))
	val, ok := h.Lookup("non-existent")
	assert.False(t, ok)
	assert.Equal(t, "", val)

	// Test: Del removes the entry from lookup and iteration
	h.Set("A", "1")
	h.Set("B", "2")
	h.Set("C", "3")
	h.Del("b")
	assert.False(t, h.Has("B"))

	got := map[string]string{}
	var order []string
	for name, value := range h.All() {
		got[name] = value
		order = append(order, name)
	}
	assert.Equal(t, map[string]string{"A": "1", "C": "3"}, got)
	assert.Equal(t, []string{"A", "C"}, order)

	// Test: Deleting a missing key is a no-op
	h.Del("missing")
	assert.Equal(t, 2, h.Len())
}

func TestNilHeadersAreEmpty(t *testing.T) {
	var h *Headers
	assert.Equal(t, "d", h.Get("x", "d"))
	assert.False(t, h.Has("x"))
	assert.Equal(t, 0, h.Len())
	for range h.All() {
		t.Fatal("nil headers should not yield")
	}
}
