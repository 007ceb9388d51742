package xhr

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	xhttp "github.com/talostrading/xhr/codec/http"
)

// Dispatcher submits requests built from an Envelope template and writes the
// text of every completed response to its output.
type Dispatcher struct {
	env       *Envelope
	transport Transport
	loop      *Loop
	logger    *zap.Logger
	output    io.Writer
	timeout   time.Duration
	metrics   *Metrics

	ownLoop bool
	loopErr chan error

	outputMu  sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func NewDispatcher(opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{
		env:    DefaultEnvelope(),
		logger: zap.NewNop(),
		output: os.Stdout,
	}

	for _, opt := range opts {
		switch opt.Ident() {
		case identOptionEnvelope{}:
			d.env = opt.Value().(*Envelope)
		case identOptionTransport{}:
			d.transport = opt.Value().(Transport)
		case identOptionLoop{}:
			d.loop = opt.Value().(*Loop)
		case identOptionLogger{}:
			d.logger = opt.Value().(*zap.Logger)
		case identOptionOutput{}:
			d.output = opt.Value().(io.Writer)
		case identOptionTimeout{}:
			d.timeout = opt.Value().(time.Duration)
		case identOptionMetrics{}:
			d.metrics = opt.Value().(*Metrics)
		}
	}

	if d.env == nil {
		return nil, fmt.Errorf("%w: nil envelope", ErrInvalidEnvelope)
	}
	if err := d.env.Validate(); err != nil {
		return nil, err
	}
	if d.timeout < 0 {
		return nil, fmt.Errorf("negative timeout %s", d.timeout)
	}
	if d.transport == nil {
		d.transport = NewHTTPTransport(nil)
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	if d.output == nil {
		d.output = io.Discard
	}

	if d.loop == nil {
		d.loop = NewLoop()
		d.ownLoop = true
		d.loopErr = make(chan error, 1)
		go func() {
			d.loopErr <- d.loop.Run()
		}()
	}

	return d, nil
}

// Loop returns the loop on which completions are delivered.
func (d *Dispatcher) Loop() *Loop {
	return d.loop
}

// AsyncDispatch submits one request and returns immediately. cb runs on the
// loop once the request is done:
//   - on a transport failure, with the error and a nil response. Nothing is
//     written to the output.
//   - otherwise, after the response text was written to the output, with the
//     response and, for a status outside of 2xx, a *StatusError.
//
// If the request cannot be submitted at all, cb is posted to the loop with the
// error. It only runs on the caller's goroutine if the loop is closed.
func (d *Dispatcher) AsyncDispatch(cb ResponseCallback) {
	if cb == nil {
		cb = func(error, *Response) {}
	}

	var (
		env = d.env.Clone()
		log = d.logger.With(
			zap.String("request_id", uuid.NewString()),
			zap.String("method", env.Method.String()),
			zap.String("url", env.URL),
		)
		start = time.Now()
	)

	req := NewRequest(d.loop, d.transport)
	req.OnReadyStateChange(func(s ReadyState) {
		log.Debug("ready state changed", zap.Stringer("state", s))
	})
	req.OnComplete(func(err error, res *Response) {
		d.complete(log, start, err, res, cb)
	})

	err := req.Open(env.Method, env.URL)
	for _, f := range env.Header.Fields() {
		if err != nil {
			break
		}
		err = req.SetRequestHeader(f.Key, f.Value)
	}
	if err == nil {
		err = req.SetTimeout(d.timeout)
	}
	if err == nil {
		log.Debug("sending request", zap.String("size", humanize.Bytes(uint64(len(env.Body)))))
		err = req.Send(env.Body)
	}

	if err != nil {
		log.Error("could not submit request", zap.Error(err))
		d.metrics.Observe(OutcomeError, time.Since(start))
		if perr := d.loop.Post(func() { cb(err, nil) }); perr != nil {
			cb(err, nil)
		}
	}
}

// Dispatch is AsyncDispatch with the outcome delivered through a Future.
func (d *Dispatcher) Dispatch() *Future {
	f := newFuture()
	d.AsyncDispatch(f.resolve)
	return f
}

func (d *Dispatcher) complete(log *zap.Logger, start time.Time, err error, res *Response, cb ResponseCallback) {
	elapsed := time.Since(start)

	if err != nil {
		log.Error("request failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		d.metrics.Observe(OutcomeError, elapsed)
		cb(err, nil)
		return
	}

	text := res.Text()
	d.write(text)
	log.Info("response",
		zap.String("response", text),
		zap.Int("status_code", res.StatusCode),
		zap.String("size", humanize.Bytes(uint64(len(res.Body)))),
		zap.Duration("elapsed", elapsed),
	)

	outcome := OutcomeSuccess
	if !xhttp.Successful(res.StatusCode) {
		outcome = OutcomeStatus
		err = &StatusError{
			StatusCode: res.StatusCode,
			Status:     res.Status,
			Body:       res.Body,
		}
	}
	d.metrics.Observe(outcome, elapsed)

	cb(err, res)
}

func (d *Dispatcher) write(text string) {
	d.outputMu.Lock()
	defer d.outputMu.Unlock()

	if _, err := fmt.Fprintln(d.output, text); err != nil {
		d.logger.Warn("could not write response", zap.Error(err))
	}
}

// Close closes the transport and, if the dispatcher owns it, stops its loop.
// Requests in flight are abandoned without completing.
func (d *Dispatcher) Close() error {
	d.closeOnce.Do(func() {
		d.closeErr = d.transport.Close()
		if d.ownLoop {
			d.closeErr = multierr.Append(d.closeErr, d.loop.Close())
			d.closeErr = multierr.Append(d.closeErr, <-d.loopErr)
		}
	})
	return d.closeErr
}
