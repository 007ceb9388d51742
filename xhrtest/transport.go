// Package xhrtest provides a scripted Transport and a loopback server for
// testing code built on xhr.
package xhrtest

import (
	"context"
	"sync"

	"github.com/talostrading/xhr"
	xhttp "github.com/talostrading/xhr/codec/http"
)

// Script drives the events of one round trip.
type Script func(ctx context.Context, ev xhr.Events)

// Complete emits headers, the body in one piece when not empty, then Done.
func Complete(statusCode int, body string, fields ...xhttp.Field) Script {
	return func(_ context.Context, ev xhr.Events) {
		ev.Headers(statusCode, xhttp.StatusText(xhttp.Status(statusCode)), xhttp.NewHeaderFrom(fields...))
		if body != "" {
			ev.Data([]byte(body))
		}
		ev.Done()
	}
}

// Chunked is Complete with the body delivered in several pieces.
func Chunked(statusCode int, chunks ...string) Script {
	return func(_ context.Context, ev xhr.Events) {
		ev.Headers(statusCode, xhttp.StatusText(xhttp.Status(statusCode)), nil)
		for _, chunk := range chunks {
			ev.Data([]byte(chunk))
		}
		ev.Done()
	}
}

// Stall emits headers and the given body pieces, then nothing else: the
// connection dropped without the transport ever noticing.
func Stall(statusCode int, chunks ...string) Script {
	return func(_ context.Context, ev xhr.Events) {
		if statusCode == 0 {
			return
		}
		ev.Headers(statusCode, xhttp.StatusText(xhttp.Status(statusCode)), nil)
		for _, chunk := range chunks {
			ev.Data([]byte(chunk))
		}
	}
}

// Fail reports err without a response.
func Fail(err error) Script {
	return func(_ context.Context, ev xhr.Events) {
		ev.Fail(err)
	}
}

// WaitDeadline reports ctx's error once it is done, as a transport honoring
// the deadline would.
func WaitDeadline() Script {
	return func(ctx context.Context, ev xhr.Events) {
		<-ctx.Done()
		ev.Fail(xhr.WrapTimeout(ctx, ctx.Err()))
	}
}

// Transport replays a Script for every round trip and records what it was
// asked to send. With Async set, scripts run on their own goroutine, otherwise
// they run inside RoundTrip; in both cases events only reach the request
// through its loop.
type Transport struct {
	Script Script
	Async  bool

	mu        sync.Mutex
	envelopes []*xhr.Envelope
	closed    bool
}

var _ xhr.Transport = &Transport{}

func NewTransport(script Script) *Transport {
	return &Transport{Script: script}
}

func (t *Transport) RoundTrip(ctx context.Context, env *xhr.Envelope, ev xhr.Events) {
	t.mu.Lock()
	t.envelopes = append(t.envelopes, env.Clone())
	t.mu.Unlock()

	if t.Async {
		go t.Script(ctx, ev)
	} else {
		t.Script(ctx, ev)
	}
}

// Envelopes returns copies of every envelope sent so far.
func (t *Transport) Envelopes() []*xhr.Envelope {
	t.mu.Lock()
	defer t.mu.Unlock()

	envs := make([]*xhr.Envelope, len(t.envelopes))
	copy(envs, t.envelopes)
	return envs
}

func (t *Transport) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	return nil
}

func (t *Transport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
