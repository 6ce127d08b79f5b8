// Package resilience guards calls to external backends with a circuit
// breaker.
//
// A [Breaker] counts consecutive failures of the calls it wraps. Once the
// count reaches its threshold the breaker opens and rejects calls with
// [ErrOpen] until a cool-down passes, then lets exactly one probe through:
// a successful probe closes it, a failed one re-opens it.
//
// Not every error is a backend failure. [Config.IsFailure] decides which
// errors count, so "not found" answers from a healthy database do not trip
// the breaker.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrOpen is returned by [Breaker.Do] while the breaker rejects calls.
var ErrOpen = errors.New("resilience: circuit open")

// State is the operating mode of a [Breaker].
type State int

const (
	// Closed forwards every call.
	Closed State = iota
	// Open rejects calls until the cool-down ends.
	Open
	// Probing lets a single trial call through.
	Probing
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case Probing:
		return "probing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config tunes a [Breaker]. Zero fields take defaults.
type Config struct {
	// Name labels log records.
	Name string

	// Threshold is the number of consecutive failures that opens the
	// breaker. Default: 5.
	Threshold int

	// Cooldown is how long the breaker stays open before probing.
	// Default: 30s.
	Cooldown time.Duration

	// IsFailure reports whether err counts against the backend. Default:
	// every non-nil error except context cancellation by the caller.
	IsFailure func(err error) bool

	// OnStateChange, if set, is called after every transition.
	OnStateChange func(from, to State)

	// Now replaces time.Now in tests.
	Now func() time.Time
}

// Breaker is a consecutive-failure circuit breaker. It is safe for
// concurrent use.
type Breaker struct {
	name      string
	threshold int
	cooldown  time.Duration
	isFailure func(error) bool
	onChange  func(from, to State)
	now       func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probing  bool
}

// New creates a [Breaker] from cfg.
func New(cfg Config) *Breaker {
	b := &Breaker{
		name:      cfg.Name,
		threshold: cfg.Threshold,
		cooldown:  cfg.Cooldown,
		isFailure: cfg.IsFailure,
		onChange:  cfg.OnStateChange,
		now:       cfg.Now,
	}
	if b.threshold <= 0 {
		b.threshold = 5
	}
	if b.cooldown <= 0 {
		b.cooldown = 30 * time.Second
	}
	if b.isFailure == nil {
		b.isFailure = defaultIsFailure
	}
	if b.now == nil {
		b.now = time.Now
	}
	return b
}

func defaultIsFailure(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}

// Do runs fn unless the breaker is open. While probing, concurrent callers
// other than the probe get [ErrOpen].
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	probe, cooled, err := b.admit()
	if err != nil {
		return err
	}
	if cooled {
		b.transition(Open, Probing)
	}

	err = fn(ctx)

	b.mu.Lock()
	from := b.state
	failed := b.isFailure(err)
	switch {
	case probe && failed:
		b.state, b.openedAt = Open, b.now()
	case probe:
		b.state, b.failures = Closed, 0
	case failed:
		b.failures++
		if b.failures >= b.threshold && b.state == Closed {
			b.state, b.openedAt = Open, b.now()
		}
	default:
		b.failures = 0
	}
	if probe {
		b.probing = false
	}
	to, failures := b.state, b.failures
	b.mu.Unlock()

	if from != to {
		b.transition(from, to, "failures", failures)
	}
	return err
}

// admit decides whether a call may proceed and whether it is the probe.
// cooled is set when this call ended the cool-down.
func (b *Breaker) admit() (probe, cooled bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return false, false, nil
	case Open:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return false, false, fmt.Errorf("%w: %s", ErrOpen, b.name)
		}
		b.state, b.probing = Probing, true
		return true, true, nil
	default:
		if b.probing {
			return false, false, fmt.Errorf("%w: %s", ErrOpen, b.name)
		}
		b.probing = true
		return true, false, nil
	}
}

func (b *Breaker) transition(from, to State, attrs ...any) {
	args := append([]any{"name", b.name, "from", from.String(), "to", to.String()}, attrs...)
	if to == Open {
		slog.Warn("circuit breaker opened", args...)
	} else {
		slog.Info("circuit breaker state changed", args...)
	}
	if b.onChange != nil {
		b.onChange(from, to)
	}
}

// State returns the current state. An open breaker whose cool-down has
// ended reports [Probing].
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Open && b.now().Sub(b.openedAt) >= b.cooldown {
		return Probing
	}
	return b.state
}

// Check returns [ErrOpen] while the breaker rejects calls. It has the shape
// of a readiness check.
func (b *Breaker) Check(context.Context) error {
	if b.State() == Open {
		return fmt.Errorf("%w: %s", ErrOpen, b.name)
	}
	return nil
}

// Reset forces the breaker closed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	from := b.state
	b.state, b.failures, b.probing = Closed, 0, false
	b.mu.Unlock()
	if from != Closed {
		b.transition(from, Closed)
	}
}
