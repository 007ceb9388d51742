package xhr

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	ErrLoopClosed      = errors.New("loop closed")
	ErrTimeout         = errors.New("operation timed out")
	ErrWouldBlock      = errors.New("operation would block")
	ErrInvalidState    = errors.New("invalid ready state")
	ErrInvalidEnvelope = errors.New("invalid envelope")
	ErrNoResponse      = errors.New("transport completed without a response")
)

// StatusError is handed to completion callbacks when the server answered
// with a status outside of the 2xx class. The response is still delivered.
type StatusError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code=%d status=%s", e.StatusCode, e.Status)
}

// WrapTimeout wraps err with ErrTimeout if it was caused by the deadline of
// ctx or by a network timeout. Other errors are returned as they are.
func WrapTimeout(ctx context.Context, err error) error {
	if err == nil || errors.Is(err, ErrTimeout) {
		return err
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	return err
}
