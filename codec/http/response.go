package http

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/talostrading/xhr/codec"
)

type Response struct {
	Proto      Proto
	StatusCode int
	Status     string
	Header     Header
	Body       []byte
}

func NewResponse() *Response {
	return &Response{
		Header: NewHeader(),
	}
}

func (r *Response) Reset() {
	r.StatusCode = 0
	r.Status = ""
	r.Proto = ""
	r.Header.Reset()
	r.Body = nil
}

func DecodeResponseLine(line []byte, into *Response) (err error) {
	var statusCode int64

	line = bytes.TrimSpace(line)
	tokens := bytes.Fields(line)
	if len(tokens) < 2 {
		return &ResponseError{reason: "invalid response line", raw: clone(line)}
	}

	into.Proto, err = ParseProtoFromBytes(tokens[0])
	if err != nil {
		return &ResponseError{reason: fmt.Sprintf("invalid proto err=%v", err), raw: clone(line)}
	}

	statusCode, err = strconv.ParseInt(string(tokens[1]), 10, 64)
	if err != nil || statusCode < 100 || statusCode > 999 {
		return &ResponseError{reason: fmt.Sprintf("invalid status code err=%v", err), raw: clone(line)}
	}
	into.StatusCode = int(statusCode)

	// The reason phrase may contain spaces.
	into.Status = string(bytes.Join(tokens[2:], []byte(" ")))

	return nil
}

func EncodeResponseLine(res *Response, dst *codec.Buffer) error {
	dst.WriteString(res.Proto.String())
	dst.WriteString(" ")
	dst.WriteString(strconv.FormatInt(int64(res.StatusCode), 10))
	dst.WriteString(" ")
	dst.WriteString(res.Status)
	dst.WriteString(CLRF)
	return nil
}

func ValidateResponse(res *Response) error {
	if res.Proto == "" {
		return ErrMissingProto
	}
	if res.Status == "" || res.StatusCode == 0 {
		return ErrMissingStatus
	}
	if ExpectBody(res.Header) && res.Body == nil {
		return ErrMissingBody
	}
	return nil
}

// bodyless reports whether a response with this status never carries a body.
func bodyless(statusCode int) bool {
	return (statusCode >= 100 && statusCode < 200) ||
		statusCode == int(StatusNoContent) ||
		statusCode == int(StatusNotModified)
}
