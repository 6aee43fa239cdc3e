// Package poller drives the tally fetch on a self-rescheduling loop and
// publishes every outcome to the viewers.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/catsvsdogs/results/internal/metrics"
	"github.com/catsvsdogs/results/internal/tally"
	"github.com/jonboulle/clockwork"
)

const (
	DefaultShortDelay = 1 * time.Second
	DefaultLongDelay  = 5 * time.Second
)

// Fetcher performs one tally fetch.
type Fetcher interface {
	Fetch(ctx context.Context) tally.Outcome
	Endpoint() string
}

// Publisher receives the loop's results. *ws.Broadcaster implements it.
type Publisher interface {
	PublishScores(t tally.Tally)
	PublishClearError()
	PublishError(message, detail string)
}

// Status is a point-in-time summary of the loop for diagnostics.
type Status struct {
	Endpoint            string     `json:"endpoint"`
	Fetches             uint64     `json:"fetches"`
	LastOutcome         string     `json:"lastOutcome,omitempty"`
	ConsecutiveFailures int        `json:"consecutiveFailures"`
	LastSuccess         *time.Time `json:"lastSuccess,omitempty"`
	LastError           string     `json:"lastError,omitempty"`
}

type Poller struct {
	fetcher        Fetcher
	publisher      Publisher
	clock          clockwork.Clock
	shortDelay     time.Duration
	longDelay      time.Duration
	requestTimeout time.Duration

	mu     sync.Mutex
	status Status
}

type Option func(*Poller)

// WithClock replaces the wall clock, for tests.
func WithClock(c clockwork.Clock) Option {
	return func(p *Poller) { p.clock = c }
}

// WithDelays sets the pause after a completed fetch (short) and after a
// connection failure (long).
func WithDelays(short, long time.Duration) Option {
	return func(p *Poller) {
		p.shortDelay = short
		p.longDelay = long
	}
}

// WithRequestTimeout bounds each fetch. Zero leaves fetches unbounded.
func WithRequestTimeout(d time.Duration) Option {
	return func(p *Poller) { p.requestTimeout = d }
}

func New(fetcher Fetcher, publisher Publisher, opts ...Option) *Poller {
	p := &Poller{
		fetcher:    fetcher,
		publisher:  publisher,
		clock:      clockwork.NewRealClock(),
		shortDelay: DefaultShortDelay,
		longDelay:  DefaultLongDelay,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.status.Endpoint = fetcher.Endpoint()
	return p
}

// Run fetches immediately, then keeps fetching until ctx is done. The next
// fetch is scheduled only after the previous one has completed and its
// delay has elapsed, so fetches never overlap.
func (p *Poller) Run(ctx context.Context) {
	slog.Info("Poller started", "endpoint", p.fetcher.Endpoint())
	defer slog.Info("Poller stopped")

	for {
		out := p.fetch(ctx)
		if ctx.Err() != nil {
			return
		}
		delay := p.handle(out)

		select {
		case <-ctx.Done():
			return
		case <-p.clock.After(delay):
		}
	}
}

func (p *Poller) fetch(ctx context.Context) tally.Outcome {
	if p.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.requestTimeout)
		defer cancel()
	}
	return p.fetcher.Fetch(ctx)
}

// handle publishes out and returns how long to wait before the next fetch.
func (p *Poller) handle(out tally.Outcome) time.Duration {
	p.record(out)

	if out.OK() {
		slog.Debug("Fetched tally", "a", out.Tally.A, "b", out.Tally.B)
		p.publisher.PublishScores(out.Tally)
		p.publisher.PublishClearError()
		return p.shortDelay
	}

	message, detail := out.ErrorReport()
	slog.Warn("Tally fetch failed",
		"outcome", out.Kind.String(),
		"message", message,
		"consecutive_failures", p.Status().ConsecutiveFailures,
	)
	p.publisher.PublishError(message, detail)
	return p.Delay(out.Kind)
}

// Delay returns the pause that follows an outcome of kind k.
func (p *Poller) Delay(k tally.Kind) time.Duration {
	if k == tally.KindConnectionError {
		return p.longDelay
	}
	return p.shortDelay
}

func (p *Poller) record(out tally.Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.Fetches++
	p.status.LastOutcome = out.Kind.String()
	if out.OK() {
		now := p.clock.Now()
		p.status.LastSuccess = &now
		p.status.ConsecutiveFailures = 0
		p.status.LastError = ""
	} else {
		p.status.ConsecutiveFailures++
		p.status.LastError, _ = out.ErrorReport()
	}
	metrics.ConsecutiveFetchFailures.Set(float64(p.status.ConsecutiveFailures))
}

// Status returns a copy of the loop's diagnostics.
func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.status
	if s.LastSuccess != nil {
		t := *s.LastSuccess
		s.LastSuccess = &t
	}
	return s
}
