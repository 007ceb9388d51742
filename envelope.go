package xhr

import (
	"fmt"
	"net/url"

	"github.com/goccy/go-json"

	xhttp "github.com/talostrading/xhr/codec/http"
)

const (
	DefaultMethod = xhttp.Post
	DefaultURL    = "http://localhost/post/json"
)

// Envelope describes a single outbound request.
type Envelope struct {
	Method xhttp.Method
	URL    string
	Header xhttp.Header
	Body   []byte
}

// DefaultHeader returns the header sent with every JSON request, in order:
// Accept then Content-Type.
func DefaultHeader() xhttp.Header {
	return xhttp.NewHeaderFrom(
		xhttp.Field{Key: "Accept", Value: "application/json"},
		xhttp.Field{Key: "Content-Type", Value: "application/json"},
	)
}

// DefaultPayload returns the object serialized into the default body.
func DefaultPayload() map[string]any {
	return map[string]any{"value": "value"}
}

// DefaultEnvelope returns a POST of {"value":"value"} to DefaultURL.
func DefaultEnvelope() *Envelope {
	env, err := NewEnvelope(DefaultMethod, DefaultURL, DefaultHeader(), DefaultPayload())
	if err != nil {
		panic(err)
	}
	return env
}

// NewEnvelope serializes payload as JSON into the body of a new Envelope. A nil
// header is replaced by DefaultHeader.
func NewEnvelope(method xhttp.Method, url string, header xhttp.Header, payload any) (*Envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("could not serialize payload: %w", err)
	}
	if header == nil {
		header = DefaultHeader()
	}
	env := &Envelope{
		Method: method,
		URL:    url,
		Header: header,
		Body:   body,
	}
	return env, env.Validate()
}

// Validate checks that the envelope can be put on the wire.
func (e *Envelope) Validate() error {
	if e.Method == "" {
		return fmt.Errorf("%w: missing method", ErrInvalidEnvelope)
	}
	if _, err := xhttp.ParseMethod(string(e.Method)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}

	u, err := url.Parse(e.URL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidEnvelope, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host in %q", ErrInvalidEnvelope, e.URL)
	}
	return nil
}

// Clone returns a deep copy of the envelope.
func (e *Envelope) Clone() *Envelope {
	c := &Envelope{
		Method: e.Method,
		URL:    e.URL,
		Body:   append([]byte(nil), e.Body...),
	}
	if e.Header != nil {
		c.Header = xhttp.NewHeaderFrom(e.Header.Fields()...)
	} else {
		c.Header = xhttp.NewHeader()
	}
	return c
}
