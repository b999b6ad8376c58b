package tophat

import (
	"fmt"
	"io"
	"net/textproto"
)

// Header is an ordered multi-map of HTTP header fields. Unlike net/http.Header,
// it remembers the order in which distinct keys were first inserted, so that
// encoding preserves user insertion order (see the encoder's framing-header
// invariant).
type Header struct {
	keys   []string
	values map[string][]string
}

// Trailers is a header multi-map delivered after a chunked body. The core
// performs no semantic processing on it.
type Trailers = Header

// NewHeader returns an empty Header ready for use.
func NewHeader() Header {
	return Header{values: make(map[string][]string)}
}

func canonicalHeaderKey(key string) string {
	return textproto.CanonicalMIMEHeaderKey(key)
}

// Add appends a value under key, canonicalizing key first and recording
// insertion order the first time key is seen.
func (h *Header) Add(key, value string) {
	if h.values == nil {
		h.values = make(map[string][]string)
	}
	k := canonicalHeaderKey(key)
	if _, ok := h.values[k]; !ok {
		h.keys = append(h.keys, k)
	}
	h.values[k] = append(h.values[k], value)
}

// Set replaces any existing values for key with a single value, preserving
// key's original position in insertion order if it already existed.
func (h *Header) Set(key, value string) {
	if h.values == nil {
		h.values = make(map[string][]string)
	}
	k := canonicalHeaderKey(key)
	if _, ok := h.values[k]; !ok {
		h.keys = append(h.keys, k)
	}
	h.values[k] = []string{value}
}

// Get returns the first value associated with key, or "" if none.
func (h Header) Get(key string) string {
	if h.values == nil {
		return ""
	}
	if v := h.values[canonicalHeaderKey(key)]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// Values returns all values associated with key, in insertion order.
func (h Header) Values(key string) []string {
	if h.values == nil {
		return nil
	}
	return h.values[canonicalHeaderKey(key)]
}

// Has reports whether key has at least one value.
func (h Header) Has(key string) bool {
	if h.values == nil {
		return false
	}
	_, ok := h.values[canonicalHeaderKey(key)]
	return ok
}

// Del removes key entirely, including its position in insertion order.
func (h *Header) Del(key string) {
	if h.values == nil {
		return
	}
	k := canonicalHeaderKey(key)
	if _, ok := h.values[k]; !ok {
		return
	}
	delete(h.values, k)
	for i, kk := range h.keys {
		if kk == k {
			h.keys = append(h.keys[:i], h.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the header's distinct keys in insertion order.
func (h Header) Keys() []string {
	out := make([]string, len(h.keys))
	copy(out, h.keys)
	return out
}

// Len reports the number of distinct keys.
func (h Header) Len() int { return len(h.keys) }

// Clone returns a deep copy, preserving insertion order.
func (h Header) Clone() Header {
	c := Header{
		keys:   make([]string, len(h.keys)),
		values: make(map[string][]string, len(h.values)),
	}
	copy(c.keys, h.keys)
	for k, v := range h.values {
		vv := make([]string, len(v))
		copy(vv, v)
		c.values[k] = vv
	}
	return c
}

// Range calls fn for each key in insertion order, stopping early if fn
// returns false.
func (h Header) Range(fn func(key string, values []string) bool) {
	for _, k := range h.keys {
		if !fn(k, h.values[k]) {
			return
		}
	}
}

// Write serializes the header in insertion order as "Key: Value\r\n" pairs.
// It does not write the terminating blank line; callers that need one (wire
// encoding of a full head) add it themselves.
func (h Header) Write(w io.Writer) error {
	for _, k := range h.keys {
		for _, v := range h.values[k] {
			if _, err := fmt.Fprintf(w, "%s: %s\r\n", k, v); err != nil {
				return err
			}
		}
	}
	return nil
}
