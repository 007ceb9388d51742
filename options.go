package xhr

import (
	"io"
	"time"

	"github.com/lestrrat-go/option"
	"go.uber.org/zap"
)

type (
	Option interface {
		option.Interface
		dispatcher()
	}
	dispatcherOption struct{ option.Interface }

	identOptionEnvelope  struct{}
	identOptionTransport struct{}
	identOptionLoop      struct{}
	identOptionLogger    struct{}
	identOptionOutput    struct{}
	identOptionTimeout   struct{}
	identOptionMetrics   struct{}
)

func (dispatcherOption) dispatcher() {}

// WithEnvelope sets the template cloned for every dispatch. Defaults to
// DefaultEnvelope.
func WithEnvelope(env *Envelope) Option {
	return dispatcherOption{
		Interface: option.New(identOptionEnvelope{}, env),
	}
}

// WithTransport sets the transport. The dispatcher closes it on Close.
func WithTransport(t Transport) Option {
	return dispatcherOption{
		Interface: option.New(identOptionTransport{}, t),
	}
}

// WithLoop makes the dispatcher deliver completions on a loop driven by the
// caller. Without it, the dispatcher runs its own loop on a separate
// goroutine.
func WithLoop(l *Loop) Option {
	return dispatcherOption{
		Interface: option.New(identOptionLoop{}, l),
	}
}

func WithLogger(logger *zap.Logger) Option {
	return dispatcherOption{
		Interface: option.New(identOptionLogger{}, logger),
	}
}

// WithOutput sets where response texts are written. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return dispatcherOption{
		Interface: option.New(identOptionOutput{}, w),
	}
}

func WithTimeout(d time.Duration) Option {
	return dispatcherOption{
		Interface: option.New(identOptionTimeout{}, d),
	}
}

func WithMetrics(m *Metrics) Option {
	return dispatcherOption{
		Interface: option.New(identOptionMetrics{}, m),
	}
}
