package xhr

import (
	"context"
	"fmt"
	"time"

	xhttp "github.com/talostrading/xhr/codec/http"
)

// Request is a single asynchronous HTTP request driven by a Loop.
//
// A Request goes through Open, SetRequestHeader and Send on the caller's
// goroutine. After Send, the transport's progress is posted to the loop and
// every handler runs there; accessors must then only be used from handlers.
type Request struct {
	loop      *Loop
	transport Transport

	state   ReadyState
	env     *Envelope
	timeout time.Duration
	sent    bool
	cancel  context.CancelFunc

	statusCode int
	status     string
	header     xhttp.Header
	body       []byte
	err        error

	onStateChange StateChangeCallback
	onComplete    ResponseCallback
}

func NewRequest(loop *Loop, transport Transport) *Request {
	return &Request{
		loop:      loop,
		transport: transport,
		state:     Unsent,
	}
}

// OnReadyStateChange registers the handler invoked on every state change,
// including each piece of body received while Loading.
func (r *Request) OnReadyStateChange(cb StateChangeCallback) {
	r.onStateChange = cb
}

// OnComplete registers the handler invoked exactly once when the request
// reaches Done.
func (r *Request) OnComplete(cb ResponseCallback) {
	r.onComplete = cb
}

// SetTimeout bounds the whole exchange once sent. Zero means no bound other
// than the transport's own.
func (r *Request) SetTimeout(d time.Duration) error {
	if r.sent {
		return fmt.Errorf("%w: timeout set after send", ErrInvalidState)
	}
	r.timeout = d
	return nil
}

// Open prepares the request. The state change to Opened is reported
// synchronously, on the calling goroutine.
func (r *Request) Open(method xhttp.Method, url string) error {
	if r.state != Unsent {
		return fmt.Errorf("%w: open in state %s", ErrInvalidState, r.state)
	}

	r.env = &Envelope{
		Method: method,
		URL:    url,
		Header: xhttp.NewHeader(),
	}
	if err := r.env.Validate(); err != nil {
		r.env = nil
		return err
	}

	r.setState(Opened)
	return nil
}

// SetRequestHeader appends a header field. Fields are sent in the order they
// were set.
func (r *Request) SetRequestHeader(key, value string) error {
	if r.state != Opened || r.sent {
		return fmt.Errorf("%w: set header in state %s", ErrInvalidState, r.state)
	}
	r.env.Header.Add(key, value)
	return nil
}

// Send hands the request to the transport and returns without waiting for
// any network I/O.
func (r *Request) Send(body []byte) error {
	if r.state != Opened || r.sent {
		return fmt.Errorf("%w: send in state %s", ErrInvalidState, r.state)
	}
	r.sent = true
	r.env.Body = body

	ctx, cancel := context.Background(), context.CancelFunc(func() {})
	if r.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
	}
	r.cancel = cancel

	// r must not be touched past this point: the transport may already be
	// posting events which the loop runs concurrently.
	r.transport.RoundTrip(ctx, r.env, &requestEvents{r: r})
	return nil
}

func (r *Request) ReadyState() ReadyState {
	return r.state
}

// Status returns the HTTP status code, 0 before HeadersReceived or after a
// transport failure.
func (r *Request) Status() int {
	return r.statusCode
}

func (r *Request) StatusText() string {
	return r.status
}

// ResponseText returns the body received so far.
func (r *Request) ResponseText() string {
	return string(r.body)
}

func (r *Request) ResponseHeader(key string) string {
	if r.header == nil {
		return ""
	}
	return r.header.Get(key)
}

// Err returns the transport error which completed the request, if any.
func (r *Request) Err() error {
	return r.err
}

func (r *Request) setState(s ReadyState) {
	r.state = s
	if r.onStateChange != nil {
		r.onStateChange(s)
	}
}

func (r *Request) onHeaders(statusCode int, status string, header xhttp.Header) {
	if r.state != Opened {
		return
	}
	r.statusCode = statusCode
	r.status = status
	r.header = header
	r.setState(HeadersReceived)
}

func (r *Request) onData(p []byte) {
	if r.state != HeadersReceived && r.state != Loading {
		return
	}
	r.body = append(r.body, p...)
	r.setState(Loading)
}

func (r *Request) onDone() {
	switch r.state {
	case Done:
		return
	case Unsent, Opened:
		r.onFail(ErrNoResponse)
		return
	}

	r.setState(Done)
	r.complete(nil, &Response{
		StatusCode: r.statusCode,
		Status:     r.status,
		Header:     r.header,
		Body:       r.body,
	})
}

func (r *Request) onFail(err error) {
	if r.state == Done {
		return
	}

	r.err = err
	r.statusCode = 0
	r.status = ""
	r.body = nil
	r.setState(Done)
	r.complete(err, nil)
}

func (r *Request) complete(err error, res *Response) {
	r.cancel()
	if r.onComplete != nil {
		r.onComplete(err, res)
	}
}

// requestEvents moves transport events onto the request's loop.
type requestEvents struct {
	r *Request
}

var _ Events = &requestEvents{}

func (e *requestEvents) Headers(statusCode int, status string, header xhttp.Header) {
	if header == nil {
		header = xhttp.NewHeader()
	}
	_ = e.r.loop.Post(func() {
		e.r.onHeaders(statusCode, status, header)
	})
}

func (e *requestEvents) Data(p []byte) {
	if len(p) == 0 {
		return
	}
	b := append([]byte(nil), p...)
	_ = e.r.loop.Post(func() {
		e.r.onData(b)
	})
}

func (e *requestEvents) Done() {
	_ = e.r.loop.Post(e.r.onDone)
}

func (e *requestEvents) Fail(err error) {
	_ = e.r.loop.Post(func() {
		e.r.onFail(err)
	})
}
