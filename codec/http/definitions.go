package http

import (
	"bytes"
	"fmt"
	"io"
)

type Proto string

const (
	ProtoHttp10 Proto = "HTTP/1.0"
	ProtoHttp11 Proto = "HTTP/1.1"
)

func ParseProtoFromBytes(b []byte) (Proto, error) {
	switch {
	case bytes.Equal([]byte(ProtoHttp11), b):
		return ProtoHttp11, nil
	case bytes.Equal([]byte(ProtoHttp10), b):
		return ProtoHttp10, nil
	}
	return "", fmt.Errorf("invalid or unsupported proto %s", string(b))
}

func (p Proto) String() string {
	return string(p)
}

type Method string

const (
	Get    Method = "GET"
	Post   Method = "POST"
	Head   Method = "HEAD"
	Put    Method = "PUT"
	Patch  Method = "PATCH"
	Delete Method = "DELETE"
)

var methods = []Method{Get, Post, Head, Put, Patch, Delete}

func ParseMethodFromBytes(b []byte) (Method, error) {
	for _, m := range methods {
		if bytes.Equal([]byte(m), b) {
			return m, nil
		}
	}
	return "", fmt.Errorf("invalid or unsupported method %s", string(b))
}

// ParseMethod is ParseMethodFromBytes for strings.
func ParseMethod(s string) (Method, error) {
	return ParseMethodFromBytes([]byte(s))
}

const CLRF = "\r\n"

func (m Method) String() string {
	return string(m)
}

// Header is a set of header fields. Implementations keep the order in which
// fields were added and match keys case-insensitively.
type Header interface {
	io.WriterTo

	Add(key, value string)
	Set(key, value string)
	Get(key string) string
	Del(key string)
	Has(key string) bool
	Len() int
	Reset()

	// Fields returns a copy of the fields in insertion order.
	Fields() []Field
}

type Field struct {
	Key   string
	Value string
}

type decodeState uint8

const (
	stateFirstLine decodeState = iota
	stateHeader
	stateBody
	stateChunkSize
	stateChunkData
	stateChunkEnd
	stateTrailer
	stateBodyUntilEOF
	stateDone
)

func (s decodeState) String() string {
	switch s {
	case stateFirstLine:
		return "first_line"
	case stateHeader:
		return "header"
	case stateBody:
		return "body"
	case stateChunkSize:
		return "chunk_size"
	case stateChunkData:
		return "chunk_data"
	case stateChunkEnd:
		return "chunk_end"
	case stateTrailer:
		return "trailer"
	case stateBodyUntilEOF:
		return "body_until_eof"
	case stateDone:
		return "done"
	default:
		return "unknown"
	}
}
