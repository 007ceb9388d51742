package http

import (
	"bytes"
	"testing"
)

func TestHeader_Order(t *testing.T) {
	h := NewHeaderFrom(
		Field{Key: "Accept", Value: "application/json"},
		Field{Key: "Content-Type", Value: "application/json"},
	)

	var b bytes.Buffer
	if _, err := h.WriteTo(&b); err != nil {
		t.Fatal(err)
	}

	expected := "Accept: application/json\r\nContent-Type: application/json\r\n\r\n"
	if b.String() != expected {
		t.Fatalf("wrong header block %q", b.String())
	}
}

func TestHeader_SetDelHas(t *testing.T) {
	h := NewHeader()
	h.Add("X-A", "1")
	h.Add("X-B", "2")
	h.Add("x-a", "3")

	h.Set("X-A", "4")
	if h.Len() != 2 || h.Get("x-a") != "4" {
		t.Fatalf("set should replace and collapse duplicates: %v", h.Fields())
	}

	h.Set("X-C", "5")
	if !h.Has("x-c") || h.Fields()[2].Key != "X-C" {
		t.Fatal("set should append missing fields")
	}

	h.Del("X-B")
	if h.Has("X-B") || h.Len() != 2 {
		t.Fatal("del should remove the field")
	}

	h.Reset()
	if h.Len() != 0 {
		t.Fatal("reset should clear the header")
	}
}

func TestHeader_FieldsCopy(t *testing.T) {
	h := NewHeader()
	h.Add("Accept", "application/json")

	fields := h.Fields()
	fields[0].Value = "text/plain"

	if h.Get("Accept") != "application/json" {
		t.Fatal("fields must be a copy")
	}
}

func TestDecodeHeaderLine(t *testing.T) {
	k, v, err := DecodeHeaderLine([]byte("Content-Type:  application/json "))
	if err != nil {
		t.Fatal(err)
	}
	if string(k) != "Content-Type" || string(v) != "application/json" {
		t.Fatal("invalid header line")
	}

	if _, _, err := DecodeHeaderLine([]byte("no delimiter")); err != ErrInvalidHeader {
		t.Fatal("expected ErrInvalidHeader")
	}
	if _, _, err := DecodeHeaderLine([]byte(": empty key")); err != ErrInvalidHeader {
		t.Fatal("expected ErrInvalidHeader")
	}
}

func TestIsChunkedAndContentLength(t *testing.T) {
	h := NewHeader()
	h.Add("Transfer-Encoding", "gzip, chunked")
	if !IsChunked(h) {
		t.Fatal("expected chunked")
	}

	h = NewHeader()
	if n, err := ContentLength(h); err != nil || n != -1 {
		t.Fatal("missing content length should be -1")
	}
	h.Add("Content-Length", "-4")
	if _, err := ContentLength(h); err != ErrInvalidContentLength {
		t.Fatal("expected ErrInvalidContentLength")
	}
}
