package xhr

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	xhttp "github.com/talostrading/xhr/codec/http"
)

const readChunkSize = 16 * 1024

// HTTPTransport is a Transport backed by a net/http client. Each round trip
// runs on its own goroutine.
type HTTPTransport struct {
	client *http.Client
}

var _ Transport = &HTTPTransport{}

// NewHTTPTransport returns a transport using client, or a dedicated client
// with no overall timeout if client is nil.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		}
	}
	return &HTTPTransport{client: client}
}

func (t *HTTPTransport) RoundTrip(ctx context.Context, env *Envelope, ev Events) {
	go t.roundTrip(ctx, env, ev)
}

func (t *HTTPTransport) roundTrip(ctx context.Context, env *Envelope, ev Events) {
	req, err := http.NewRequestWithContext(ctx, env.Method.String(), env.URL, bytes.NewReader(env.Body))
	if err != nil {
		ev.Fail(err)
		return
	}
	for _, f := range env.Header.Fields() {
		req.Header.Add(f.Key, f.Value)
	}

	res, err := t.client.Do(req)
	if err != nil {
		ev.Fail(WrapTimeout(ctx, err))
		return
	}
	defer res.Body.Close()

	ev.Headers(res.StatusCode, reasonPhrase(res), toHeader(res.Header))

	b := make([]byte, readChunkSize)
	for {
		n, err := res.Body.Read(b)
		if n > 0 {
			ev.Data(b[:n])
		}
		if errors.Is(err, io.EOF) {
			ev.Done()
			return
		}
		if err != nil {
			ev.Fail(WrapTimeout(ctx, err))
			return
		}
	}
}

func (t *HTTPTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

// reasonPhrase strips the status code from res.Status.
func reasonPhrase(res *http.Response) string {
	return strings.TrimPrefix(res.Status, strconv.Itoa(res.StatusCode)+" ")
}

// toHeader converts h, with keys in lexical order since net/http does not keep
// the order of the wire.
func toHeader(h http.Header) xhttp.Header {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	header := xhttp.NewHeader()
	for _, k := range keys {
		for _, v := range h[k] {
			header.Add(k, v)
		}
	}
	return header
}
