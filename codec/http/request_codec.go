package http

import (
	"fmt"

	"github.com/talostrading/xhr/codec"
)

var _ codec.Codec[*Request, *Request] = &RequestCodec{}

type RequestCodec struct {
	decodeState decodeState
	decodeReq   *Request // request we decode into
	remaining   int64    // body bytes left to decode
}

func NewRequestCodec() *RequestCodec {
	return &RequestCodec{
		decodeState: stateFirstLine,
		decodeReq:   NewRequest(),
	}
}

// Encode writes req to dst and commits it. Host and Content-Length are added
// to req.Header when missing.
func (c *RequestCodec) Encode(req *Request, dst *codec.Buffer) error {
	fillHeader(req)

	if err := ValidateRequest(req); err != nil {
		return err
	}

	start := dst.Len()

	// request-line
	if err := EncodeRequestLine(req, dst); err != nil {
		return err
	}

	// header
	if _, err := req.Header.WriteTo(dst); err != nil {
		return err
	}

	// body
	if len(req.Body) > 0 {
		if n, err := dst.Write(req.Body); err != nil || n != len(req.Body) {
			return fmt.Errorf("could not write body: %v", err)
		}
	}

	dst.Commit(dst.Len() - start)

	return nil
}

func (c *RequestCodec) resetDecode() {
	if c.decodeState == stateDone {
		c.decodeState = stateFirstLine
		c.decodeReq.Reset()
		c.remaining = 0
	}
}

// Decode decodes one request from src. Only requests without a body or with
// a Content-Length are supported.
func (c *RequestCodec) Decode(src *codec.Buffer) (*Request, error) {
	c.resetDecode()

	var (
		line []byte
		err  error

		headerKey, headerValue []byte
	)

prepareDecode:
	if err != nil {
		goto done
	}

	switch s := c.decodeState; s {
	case stateFirstLine:
		goto decodeFirstLine
	case stateHeader:
		goto decodeHeader
	case stateBody:
		goto decodeBody
	case stateDone:
		goto done
	default:
		panic(fmt.Errorf("unhandled state %s", s))
	}

decodeFirstLine:
	line, err = src.NextLine()
	if err == nil {
		err = DecodeRequestLine(line, c.decodeReq)
		if err == nil {
			c.decodeState = stateHeader
		} else {
			c.decodeState = stateDone
		}
	}
	goto prepareDecode

decodeHeader:
	line, err = src.NextLine()
	if err == nil {
		if len(line) == 0 {
			// CLRF - end of header
			if IsChunked(c.decodeReq.Header) {
				err = &RequestError{reason: "chunked request bodies are not supported"}
				c.decodeState = stateDone
				goto prepareDecode
			}
			c.remaining, err = ContentLength(c.decodeReq.Header)
			if err == nil && c.remaining > 0 {
				c.decodeReq.Body = make([]byte, 0, min(c.remaining, maxBodyPrealloc))
				c.decodeState = stateBody
			} else {
				c.decodeState = stateDone
			}
		} else {
			headerKey, headerValue, err = DecodeHeaderLine(line)
			if err == nil {
				c.decodeReq.Header.Add(string(headerKey), string(headerValue))
			}
		}
	}
	goto prepareDecode

decodeBody:
	c.decodeReq.Body, c.remaining, err = decodeFixed(src, c.decodeReq.Body, c.remaining)
	if err == nil {
		c.decodeState = stateDone
	}
	goto prepareDecode

done:
	if c.decodeState != stateDone && err == nil {
		err = codec.ErrNeedMore
	}
	return c.decodeReq, err
}

// decodeFixed appends up to remaining bytes from src to body. It returns
// ErrNeedMore while bytes are still missing.
// maxBodyPrealloc bounds the capacity reserved up front for a body of
// announced length; larger bodies grow as they arrive.
const maxBodyPrealloc = 64 << 10

func decodeFixed(src *codec.Buffer, body []byte, remaining int64) ([]byte, int64, error) {
	src.Consume(src.ReadLen())

	n := int64(src.WriteLen())
	if n > remaining {
		n = remaining
	}
	if n > 0 {
		_ = src.PrepareRead(int(n))
		body = append(body, src.Data()...)
		src.Consume(int(n))
		remaining -= n
	}

	if remaining > 0 {
		return body, remaining, codec.ErrNeedMore
	}
	return body, 0, nil
}
