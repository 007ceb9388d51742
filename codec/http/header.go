package http

import (
	"bytes"
	"io"
	"strconv"
	"strings"
)

const headerDelim = ": "

var _ Header = &sliceHeader{}

func NewHeader() Header {
	return &sliceHeader{}
}

// NewHeaderFrom builds a Header holding the given fields in order.
func NewHeaderFrom(fields ...Field) Header {
	h := &sliceHeader{fields: make([]Field, 0, len(fields))}
	for _, f := range fields {
		h.Add(f.Key, f.Value)
	}
	return h
}

type sliceHeader struct {
	fields []Field
}

func (h *sliceHeader) index(key string) int {
	for i, f := range h.fields {
		if strings.EqualFold(f.Key, key) {
			return i
		}
	}
	return -1
}

func (h *sliceHeader) Add(key, value string) {
	h.fields = append(h.fields, Field{Key: key, Value: value})
}

// Set replaces the value of the first field named key, dropping any later
// duplicates. The field is appended if absent.
func (h *sliceHeader) Set(key, value string) {
	i := h.index(key)
	if i < 0 {
		h.Add(key, value)
		return
	}
	h.fields[i].Value = value

	kept := h.fields[:i+1]
	for _, f := range h.fields[i+1:] {
		if !strings.EqualFold(f.Key, key) {
			kept = append(kept, f)
		}
	}
	h.fields = kept
}

func (h *sliceHeader) Get(key string) string {
	if i := h.index(key); i >= 0 {
		return h.fields[i].Value
	}
	return ""
}

func (h *sliceHeader) Del(key string) {
	kept := h.fields[:0]
	for _, f := range h.fields {
		if !strings.EqualFold(f.Key, key) {
			kept = append(kept, f)
		}
	}
	h.fields = kept
}

func (h *sliceHeader) Has(key string) bool {
	return h.index(key) >= 0
}

func (h *sliceHeader) Len() int {
	return len(h.fields)
}

func (h *sliceHeader) Reset() {
	h.fields = h.fields[:0]
}

func (h *sliceHeader) Fields() []Field {
	fields := make([]Field, len(h.fields))
	copy(fields, h.fields)
	return fields
}

// WriteTo writes every field followed by the CRLF closing the header block.
func (h *sliceHeader) WriteTo(w io.Writer) (int64, error) {
	var total int64
	write := func(s string) error {
		n, err := io.WriteString(w, s)
		total += int64(n)
		return err
	}

	for _, f := range h.fields {
		for _, s := range [...]string{f.Key, headerDelim, f.Value, CLRF} {
			if err := write(s); err != nil {
				return total, err
			}
		}
	}
	err := write(CLRF)
	return total, err
}

func DecodeHeaderLine(line []byte) (key, value []byte, err error) {
	if i := bytes.IndexByte(line, ':'); i > 0 {
		key = bytes.TrimSpace(line[:i])
		value = bytes.TrimSpace(line[i+1:])
	} else {
		err = ErrInvalidHeader
	}
	return
}

// ExpectBody reports whether the header announces a message body.
func ExpectBody(header Header) bool {
	return header.Has("Content-Length") || header.Has("Transfer-Encoding")
}

// IsChunked reports whether the last transfer coding is chunked.
func IsChunked(header Header) bool {
	te := strings.TrimSpace(header.Get("Transfer-Encoding"))
	if te == "" {
		return false
	}
	codings := strings.Split(te, ",")
	return strings.EqualFold(strings.TrimSpace(codings[len(codings)-1]), "chunked")
}

// ContentLength returns the parsed Content-Length, or -1 when absent.
func ContentLength(header Header) (int64, error) {
	v := header.Get("Content-Length")
	if v == "" {
		return -1, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || n < 0 {
		return -1, ErrInvalidContentLength
	}
	return n, nil
}
