package http

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/talostrading/xhr/codec"
)

var _ codec.Codec[*Response, *Response] = &ResponseCodec{}

// ResponseCodec decodes responses incrementally: the status line and header
// are available as soon as they are buffered, and the body grows as bytes
// arrive. Bodies are delimited by Content-Length, the chunked transfer coding,
// or the end of the stream, in which case Finish completes the response.
type ResponseCodec struct {
	decodeState decodeState
	decodeRes   *Response
	remaining   int64 // bytes left in the body or in the current chunk

	head bool // the response answers a HEAD request
}

func NewResponseCodec() *ResponseCodec {
	return &ResponseCodec{
		decodeState: stateFirstLine,
		decodeRes:   NewResponse(),
	}
}

// ForMethod tells the codec which request method the next response answers.
// Responses to HEAD never carry a body.
func (c *ResponseCodec) ForMethod(m Method) {
	c.head = m == Head
}

// HeaderDone reports whether the status line and header of the response being
// decoded are complete.
func (c *ResponseCodec) HeaderDone() bool {
	return c.decodeState != stateFirstLine && c.decodeState != stateHeader
}

// Done reports whether the response being decoded is complete.
func (c *ResponseCodec) Done() bool {
	return c.decodeState == stateDone
}

func (c *ResponseCodec) Encode(res *Response, dst *codec.Buffer) error {
	if len(res.Body) > 0 && !ExpectBody(res.Header) {
		res.Header.Add("Content-Length", strconv.Itoa(len(res.Body)))
	}

	if err := ValidateResponse(res); err != nil {
		return err
	}

	start := dst.Len()

	// status-line
	if err := EncodeResponseLine(res, dst); err != nil {
		return err
	}

	// header
	if _, err := res.Header.WriteTo(dst); err != nil {
		return err
	}

	// body
	if len(res.Body) > 0 {
		if n, err := dst.Write(res.Body); err != nil || n != len(res.Body) {
			return fmt.Errorf("could not write body: %v", err)
		}
	}

	dst.Commit(dst.Len() - start)

	return nil
}

func (c *ResponseCodec) resetDecode() {
	if c.decodeState == stateDone {
		c.decodeRes.Reset()
		c.decodeState = stateFirstLine
		c.remaining = 0
	}
}

// Decode resumes decoding the current response. It returns ErrNeedMore until
// the response is complete; the partially decoded response is returned
// alongside so callers can observe progress.
func (c *ResponseCodec) Decode(src *codec.Buffer) (*Response, error) {
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
	case stateChunkSize:
		goto decodeChunkSize
	case stateChunkData:
		goto decodeChunkData
	case stateChunkEnd:
		goto decodeChunkEnd
	case stateTrailer:
		goto decodeTrailer
	case stateBodyUntilEOF:
		goto decodeBodyUntilEOF
	case stateDone:
		goto done
	default:
		panic(fmt.Errorf("unhandled state %s", s))
	}

decodeFirstLine:
	line, err = src.NextLine()
	if err == nil {
		err = DecodeResponseLine(line, c.decodeRes)
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
			err = c.selectBody()
		} else {
			headerKey, headerValue, err = DecodeHeaderLine(line)
			if err == nil {
				c.decodeRes.Header.Add(string(headerKey), string(headerValue))
			} else {
				c.decodeState = stateDone
			}
		}
	}
	goto prepareDecode

decodeBody:
	c.decodeRes.Body, c.remaining, err = decodeFixed(src, c.decodeRes.Body, c.remaining)
	if err == nil {
		c.decodeState = stateDone
	}
	goto prepareDecode

decodeChunkSize:
	line, err = src.NextLine()
	if err == nil {
		if i := bytes.IndexByte(line, ';'); i >= 0 {
			line = line[:i] // chunk extensions are ignored
		}
		c.remaining, err = strconv.ParseInt(string(bytes.TrimSpace(line)), 16, 64)
		switch {
		case err != nil || c.remaining < 0:
			err = fmt.Errorf("%w: size line %q", ErrInvalidChunk, line)
			c.decodeState = stateDone
		case c.remaining == 0:
			c.decodeState = stateTrailer
		default:
			c.decodeState = stateChunkData
		}
	}
	goto prepareDecode

decodeChunkData:
	c.decodeRes.Body, c.remaining, err = decodeFixed(src, c.decodeRes.Body, c.remaining)
	if err == nil {
		c.decodeState = stateChunkEnd
	}
	goto prepareDecode

decodeChunkEnd:
	line, err = src.NextLine()
	if err == nil {
		if len(line) == 0 {
			c.decodeState = stateChunkSize
		} else {
			err = fmt.Errorf("%w: missing CRLF after chunk data", ErrInvalidChunk)
			c.decodeState = stateDone
		}
	}
	goto prepareDecode

decodeTrailer:
	line, err = src.NextLine()
	if err == nil {
		if len(line) == 0 {
			c.decodeState = stateDone
		} else {
			// trailer fields are merged into the header
			headerKey, headerValue, err = DecodeHeaderLine(line)
			if err == nil {
				c.decodeRes.Header.Add(string(headerKey), string(headerValue))
			} else {
				c.decodeState = stateDone
			}
		}
	}
	goto prepareDecode

decodeBodyUntilEOF:
	src.Consume(src.ReadLen())
	if n := src.WriteLen(); n > 0 {
		src.Commit(n)
		c.decodeRes.Body = append(c.decodeRes.Body, src.Data()...)
		src.Consume(n)
	}
	err = codec.ErrNeedMore
	goto prepareDecode

done:
	return c.decodeRes, err
}

// selectBody picks how the body is delimited once the header is complete.
func (c *ResponseCodec) selectBody() error {
	if c.head || bodyless(c.decodeRes.StatusCode) {
		c.decodeState = stateDone
		return nil
	}

	if IsChunked(c.decodeRes.Header) {
		c.decodeRes.Body = []byte{}
		c.decodeState = stateChunkSize
		return nil
	}

	n, err := ContentLength(c.decodeRes.Header)
	switch {
	case err != nil:
		c.decodeState = stateDone
		return err
	case n > 0:
		c.decodeRes.Body = make([]byte, 0, min(n, maxBodyPrealloc))
		c.remaining = n
		c.decodeState = stateBody
	case n == 0:
		c.decodeRes.Body = []byte{}
		c.decodeState = stateDone
	default:
		c.decodeRes.Body = []byte{}
		c.decodeState = stateBodyUntilEOF
	}
	return nil
}

// Finish is called once the peer closed the stream. A response delimited by
// the end of the stream is complete at that point; any other unfinished
// response yields io.ErrUnexpectedEOF.
func (c *ResponseCodec) Finish() (*Response, error) {
	switch c.decodeState {
	case stateBodyUntilEOF:
		c.decodeState = stateDone
		return c.decodeRes, nil
	case stateDone:
		return c.decodeRes, nil
	default:
		return c.decodeRes, io.ErrUnexpectedEOF
	}
}
