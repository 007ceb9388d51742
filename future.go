package xhr

import (
	"context"
	"sync"
)

// Future holds the outcome of a dispatch, resolved exactly once.
type Future struct {
	once sync.Once
	done chan struct{}

	res *Response
	err error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) resolve(err error, res *Response) {
	f.once.Do(func() {
		f.res = res
		f.err = err
		close(f.done)
	})
}

// Done is closed once the outcome is known.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Result returns the outcome, or ErrWouldBlock if it is not known yet.
func (f *Future) Result() (*Response, error) {
	select {
	case <-f.done:
		return f.res, f.err
	default:
		return nil, ErrWouldBlock
	}
}

// Wait blocks until the outcome is known or ctx is done.
//
// note: if the dispatcher's loop is driven by the caller, waiting on the same
// goroutine never returns.
func (f *Future) Wait(ctx context.Context) (*Response, error) {
	select {
	case <-f.done:
		return f.res, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
