package xhr

import (
	"fmt"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess = "success"
	OutcomeStatus  = "status"
	OutcomeError   = "error"
)

// Metrics records the outcome and latency of dispatched requests.
type Metrics struct {
	requests *prometheus.CounterVec
	duration prometheus.Histogram

	mu   sync.Mutex
	hist *hdrhistogram.Histogram // microseconds
}

// LatencySnapshot summarizes the latencies recorded so far.
type LatencySnapshot struct {
	Count int64
	Min   time.Duration
	Mean  time.Duration
	Max   time.Duration
	P50   time.Duration
	P99   time.Duration
}

// NewMetrics registers the collectors on reg, reusing collectors registered
// by a previous call. A nil reg only keeps the in-process histogram.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		hist: hdrhistogram.New(1, int64(time.Minute/time.Microsecond), 3),
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "xhr_requests_total",
		Help: "Number of completed requests by outcome",
	}, []string{"outcome"})

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "xhr_request_duration_seconds",
		Help:    "Time from submission to completion of a request",
		Buckets: prometheus.DefBuckets,
	})

	if reg == nil {
		m.requests = requests
		m.duration = duration
		return m, nil
	}

	if err := reg.Register(requests); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			m.requests = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, fmt.Errorf("failed to register requests metric: %v", err)
		}
	} else {
		m.requests = requests
	}

	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			m.duration = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, fmt.Errorf("failed to register duration metric: %v", err)
		}
	} else {
		m.duration = duration
	}

	return m, nil
}

// Observe records one completed request. It is a no-op on a nil Metrics.
func (m *Metrics) Observe(outcome string, d time.Duration) {
	if m == nil {
		return
	}

	m.requests.WithLabelValues(outcome).Inc()
	m.duration.Observe(d.Seconds())

	m.mu.Lock()
	// values beyond the histogram's range are dropped
	_ = m.hist.RecordValue(d.Microseconds())
	m.mu.Unlock()
}

// Snapshot returns a zero LatencySnapshot on a nil Metrics.
func (m *Metrics) Snapshot() LatencySnapshot {
	if m == nil {
		return LatencySnapshot{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	us := func(v int64) time.Duration {
		return time.Duration(v) * time.Microsecond
	}
	return LatencySnapshot{
		Count: m.hist.TotalCount(),
		Min:   us(m.hist.Min()),
		Mean:  us(int64(m.hist.Mean())),
		Max:   us(m.hist.Max()),
		P50:   us(m.hist.ValueAtPercentile(50.0)),
		P99:   us(m.hist.ValueAtPercentile(99.0)),
	}
}
