// Package wire implements an xhr.Transport speaking HTTP/1.1 directly over a
// TCP, optionally TLS, connection, one connection per round trip.
package wire

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"time"

	"github.com/talostrading/xhr"
	"github.com/talostrading/xhr/codec"
	xhttp "github.com/talostrading/xhr/codec/http"
)

const (
	DefaultDialTimeout = 30 * time.Second
	DefaultKeepAlive   = 30 * time.Second
)

// Transport dials a new connection for every round trip and closes it once
// the response is complete. Requests carry Connection: close.
type Transport struct {
	dialer *net.Dialer
	tls    *tls.Config
}

var _ xhr.Transport = &Transport{}

// NewTransport returns a transport using tlsConfig for https URLs. A nil
// tlsConfig uses the system defaults.
func NewTransport(tlsConfig *tls.Config) *Transport {
	return &Transport{
		dialer: &net.Dialer{
			Timeout:   DefaultDialTimeout,
			KeepAlive: DefaultKeepAlive,
			Control:   control,
		},
		tls: tlsConfig,
	}
}

func (t *Transport) RoundTrip(ctx context.Context, env *xhr.Envelope, ev xhr.Events) {
	go t.roundTrip(ctx, env, ev)
}

func (t *Transport) roundTrip(ctx context.Context, env *xhr.Envelope, ev xhr.Events) {
	u, err := url.Parse(env.URL)
	if err != nil {
		ev.Fail(err)
		return
	}

	conn, err := t.dial(ctx, u)
	if err != nil {
		ev.Fail(xhr.WrapTimeout(ctx, err))
		return
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() {
		// unblocks any pending read or write
		_ = conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if err := t.write(conn, env, u); err != nil {
		ev.Fail(xhr.WrapTimeout(ctx, err))
		return
	}

	if err := t.read(conn, env.Method, ev); err != nil {
		ev.Fail(xhr.WrapTimeout(ctx, err))
	}
}

func (t *Transport) dial(ctx context.Context, u *url.URL) (net.Conn, error) {
	addr := u.Host
	if u.Port() == "" {
		switch u.Scheme {
		case "https":
			addr = net.JoinHostPort(u.Hostname(), "443")
		default:
			addr = net.JoinHostPort(u.Hostname(), "80")
		}
	}

	conn, err := t.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	if u.Scheme != "https" {
		return conn, nil
	}

	cfg := &tls.Config{}
	if t.tls != nil {
		cfg = t.tls.Clone()
	}
	if cfg.ServerName == "" {
		cfg.ServerName = u.Hostname()
	}
	tconn := tls.Client(conn, cfg)
	if err := tconn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}
	return tconn, nil
}

func (t *Transport) write(conn net.Conn, env *xhr.Envelope, u *url.URL) error {
	req := xhttp.NewRequest()
	req.Method = env.Method
	req.URL = u
	for _, f := range env.Header.Fields() {
		req.Header.Add(f.Key, f.Value)
	}
	if !req.Header.Has("Connection") {
		req.Header.Add("Connection", "close")
	}
	req.Body = env.Body

	dst := codec.NewBuffer()
	defer dst.Release()

	if err := xhttp.NewRequestCodec().Encode(req, dst); err != nil {
		return err
	}
	_, err := dst.WriteTo(conn)
	return err
}

// read decodes the response as it arrives, reporting the header as soon as it
// is complete and every new piece of body after that.
func (t *Transport) read(conn net.Conn, method xhttp.Method, ev xhr.Events) error {
	src := codec.NewBuffer()
	defer src.Release()

	dec := xhttp.NewResponseCodec()
	dec.ForMethod(method)

	var (
		headerSent bool
		emitted    int
		eof        bool
	)

	report := func(res *xhttp.Response) {
		if !headerSent && dec.HeaderDone() {
			ev.Headers(res.StatusCode, res.Status, xhttp.NewHeaderFrom(res.Header.Fields()...))
			headerSent = true
		}
		if headerSent && len(res.Body) > emitted {
			ev.Data(res.Body[emitted:])
			emitted = len(res.Body)
		}
	}

	for {
		res, err := dec.Decode(src)
		if err != nil && !errors.Is(err, codec.ErrNeedMore) {
			return err
		}

		report(res)
		if err == nil {
			ev.Done()
			return nil
		}

		if eof {
			res, err = dec.Finish()
			if err != nil {
				return err
			}
			report(res)
			ev.Done()
			return nil
		}

		if _, err := src.ReadFrom(conn); err != nil {
			if !errors.Is(err, io.EOF) {
				return err
			}
			eof = true
		}
	}
}

func (t *Transport) Close() error {
	return nil
}
