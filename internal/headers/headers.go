package headers

import (
	"iter"
	"strings"
)

type entry struct {
	name  string
	value string
}

// Headers is a case-insensitive header map. Names keep the casing they were
// first set with; later sets overwrite the value only.
type Headers struct {
	entries map[string]*entry
	order   []string
}

func NewHeaders() *Headers {
	return &Headers{
		entries: make(map[string]*entry),
	}
}

// Get returns the value for a header, or def when it is missing
func (h *Headers) Get(name, def string) string {
	if v, ok := h.Lookup(name); ok {
		return v
	}
	return def
}

// Lookup returns the value for a header and whether it was present
func (h *Headers) Lookup(name string) (string, bool) {
	if h == nil {
		return "", false
	}
	e, ok := h.entries[strings.ToLower(name)]
	if !ok {
		return "", false
	}
	return e.value, true
}

// Has reports whether a header is present
func (h *Headers) Has(name string) bool {
	_, ok := h.Lookup(name)
	return ok
}

// Set stores a header, overwriting any previous value
func (h *Headers) Set(name, value string) {
	key := strings.ToLower(name)
	if e, ok := h.entries[key]; ok {
		e.value = value
		return
	}
	h.entries[key] = &entry{name: name, value: value}
	h.order = append(h.order, key)
}

// Del removes a header
func (h *Headers) Del(name string) {
	key := strings.ToLower(name)
	if _, ok := h.entries[key]; !ok {
		return
	}
	delete(h.entries, key)
	for i, k := range h.order {
		if k == key {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

func (h *Headers) Len() int {
	if h == nil {
		return 0
	}
	return len(h.entries)
}

// All iterates over (name, value) pairs in the order they were first set
func (h *Headers) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		if h == nil {
			return
		}
		for _, key := range h.order {
			e := h.entries[key]
			if !yield(e.name, e.value) {
				return
			}
		}
	}
}

// ParseLine stores a single "Name: value" line. Lines without a colon are
// skipped and reported as false.
func (h *Headers) ParseLine(line string) bool {
	name, value, ok := parseHeader(line)
	if !ok {
		return false
	}
	h.Set(name, value)
	return true
}

func parseHeader(line string) (string, string, bool) {
	name, value, found := strings.Cut(line, ":")
	if !found {
		return "", "", false
	}
	return strings.TrimSpace(name), strings.TrimSpace(value), true
}
