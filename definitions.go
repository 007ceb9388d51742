package xhr

import (
	"context"
	"io"

	xhttp "github.com/talostrading/xhr/codec/http"
)

// ReadyState is the lifecycle state of a Request. States only move forward:
// Unsent -> Opened -> HeadersReceived -> Loading -> Done.
type ReadyState uint8

const (
	Unsent ReadyState = iota
	Opened
	HeadersReceived
	Loading
	Done
)

func (s ReadyState) String() string {
	switch s {
	case Unsent:
		return "unsent"
	case Opened:
		return "opened"
	case HeadersReceived:
		return "headers_received"
	case Loading:
		return "loading"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

type StateChangeCallback func(ReadyState)

// ResponseCallback is invoked once a request completes. The response is nil
// if and only if the transport failed.
type ResponseCallback func(error, *Response)

// Transport carries an Envelope to its destination.
type Transport interface {
	// RoundTrip starts sending env and returns immediately, without waiting for
	// any network I/O.
	//
	// Progress is reported on ev, possibly from another goroutine: Headers
	// once, then Data zero or more times, then exactly one of Done or Fail.
	// A transport which loses the connection without noticing may never
	// report anything after Headers.
	//
	// The deadline of ctx, if any, bounds the whole exchange.
	RoundTrip(ctx context.Context, env *Envelope, ev Events)

	io.Closer
}

// Events receives the progress of a round trip.
type Events interface {
	Headers(statusCode int, status string, header xhttp.Header)

	// Data delivers the next piece of the response body. Implementations must
	// not retain p.
	Data(p []byte)

	Done()
	Fail(err error)
}

// Response is the final state of a completed request.
type Response struct {
	StatusCode int
	Status     string
	Header     xhttp.Header
	Body       []byte
}

// Text returns the body as text, without any decoding.
func (r *Response) Text() string {
	return string(r.Body)
}
