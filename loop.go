package xhr

import (
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// Loop is a cooperative, single-threaded handler queue. Handlers posted from
// any goroutine run one at a time on whichever goroutine drives the loop
// through Run, RunOne, RunOneFor, RunPending, Poll or PollOne.
type Loop struct {
	mu      sync.Mutex
	pending []func()

	wake   chan struct{}
	closed chan struct{}
	state  uint32
}

func NewLoop() *Loop {
	return &Loop{
		wake:   make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

// Post schedules the provided handler to be run by the loop. It never blocks
// and is safe to call concurrently.
func (l *Loop) Post(handler func()) error {
	l.mu.Lock()
	if l.Closed() {
		l.mu.Unlock()
		return ErrLoopClosed
	}
	l.pending = append(l.pending, handler)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// Pending returns the number of handlers waiting to run.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

func (l *Loop) pop() func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.pending) == 0 {
		return nil
	}
	handler := l.pending[0]
	l.pending[0] = nil
	l.pending = l.pending[1:]
	return handler
}

// Run runs the loop until it is closed.
func (l *Loop) Run() error {
	for {
		if err := l.RunOne(); err != nil {
			if err == ErrLoopClosed {
				return nil
			}
			return err
		}
	}
}

// RunOne runs at most one handler.
// note: this blocks the calling goroutine until a handler is ready or the
// loop is closed.
func (l *Loop) RunOne() error {
	return l.runOne(nil)
}

// RunOneFor runs at most one handler, waiting at most d for one to be
// posted. ErrTimeout is returned if none was.
func (l *Loop) RunOneFor(d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	return l.runOne(timer.C)
}

func (l *Loop) runOne(timeout <-chan time.Time) error {
	for {
		if l.Closed() {
			return ErrLoopClosed
		}

		if handler := l.pop(); handler != nil {
			handler()
			return nil
		}

		select {
		case <-l.wake:
		case <-l.closed:
			return ErrLoopClosed
		case <-timeout:
			return ErrTimeout
		}
	}
}

// RunPending runs the handlers pending at the time of the call.
//
// note: handlers posted by the pending ones are not executed.
func (l *Loop) RunPending() error {
	for n := l.Pending(); n > 0; n-- {
		if err := l.PollOne(); err != nil {
			if err == ErrWouldBlock {
				return nil
			}
			return err
		}
	}
	return nil
}

// Poll runs handlers until none is ready.
// note: this returns immediately in case there is no handler to run.
func (l *Loop) Poll() error {
	for {
		if err := l.PollOne(); err != nil {
			if err == ErrWouldBlock {
				return nil
			}
			return err
		}
	}
}

// PollOne runs one ready handler, or returns ErrWouldBlock if there is none.
func (l *Loop) PollOne() error {
	if l.Closed() {
		return ErrLoopClosed
	}
	handler := l.pop()
	if handler == nil {
		return ErrWouldBlock
	}
	handler()
	return nil
}

// Close stops the loop. Handlers that did not run yet are dropped. Closing an
// already closed loop returns io.EOF.
func (l *Loop) Close() error {
	if !atomic.CompareAndSwapUint32(&l.state, 0, 1) {
		return io.EOF
	}

	l.mu.Lock()
	l.pending = nil
	l.mu.Unlock()

	close(l.closed)
	return nil
}

func (l *Loop) Closed() bool {
	return atomic.LoadUint32(&l.state) == 1
}
