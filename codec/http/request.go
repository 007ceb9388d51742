package http

import (
	"bytes"
	"fmt"
	"net/url"
	"strconv"

	"github.com/talostrading/xhr/codec"
)

type Request struct {
	Method Method
	URL    *url.URL
	Proto  Proto
	Header Header
	Body   []byte
}

func NewRequest() *Request {
	return &Request{
		Proto:  ProtoHttp11,
		Header: NewHeader(),
	}
}

func (r *Request) Reset() {
	r.Method = ""
	r.URL = nil
	r.Proto = ""
	r.Header.Reset()
	r.Body = nil
}

// RequestURI returns the request-target written on the request line.
func (r *Request) RequestURI() string {
	if r.URL == nil {
		return ""
	}
	uri := r.URL.RequestURI()
	if uri == "" {
		uri = "/"
	}
	return uri
}

func DecodeRequestLine(line []byte, into *Request) (err error) {
	tokens := bytes.Fields(bytes.TrimSpace(line))
	if len(tokens) != 3 {
		return &RequestError{reason: "invalid request line", raw: clone(line)}
	}

	into.Method, err = ParseMethodFromBytes(tokens[0])
	if err != nil {
		return &RequestError{reason: fmt.Sprintf("invalid method err=%v", err), raw: clone(line)}
	}

	into.URL, err = url.ParseRequestURI(string(tokens[1]))
	if err != nil {
		return &RequestError{reason: fmt.Sprintf("invalid URI err=%v", err), raw: clone(line)}
	}

	into.Proto, err = ParseProtoFromBytes(tokens[2])
	if err != nil {
		return &RequestError{reason: fmt.Sprintf("invalid proto err=%v", err), raw: clone(line)}
	}

	return nil
}

func EncodeRequestLine(req *Request, dst *codec.Buffer) error {
	dst.WriteString(req.Method.String())
	dst.WriteString(" ")
	dst.WriteString(req.RequestURI())
	dst.WriteString(" ")
	dst.WriteString(req.Proto.String())
	dst.WriteString(CLRF)
	return nil
}

func ValidateRequest(req *Request) error {
	if req.Method == "" {
		return ErrMissingMethod
	}
	if req.URL == nil {
		return ErrMissingURL
	}
	if req.Proto == "" {
		return ErrMissingProto
	}
	if n, err := ContentLength(req.Header); err != nil {
		return err
	} else if n >= 0 && n != int64(len(req.Body)) {
		return fmt.Errorf("content length %d does not match body of %d bytes: %w",
			n, len(req.Body), ErrInvalidContentLength)
	}
	return nil
}

// fillHeader adds the fields required on the wire which the caller did not
// set: Host, and Content-Length when a body is present.
func fillHeader(req *Request) {
	if !req.Header.Has("Host") && req.URL != nil {
		req.Header.Add("Host", req.URL.Host)
	}
	if len(req.Body) > 0 && !ExpectBody(req.Header) {
		req.Header.Add("Content-Length", strconv.Itoa(len(req.Body)))
	}
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
