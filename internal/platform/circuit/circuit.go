// Package circuit implements a per-venue-host circuit breaker, adapted
// from cryptorun's internal/net/circuit package: three states
// (closed/open/half-open), consecutive failure/success thresholds, and a
// request timeout wrapped around the guarded call.
package circuit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned when the breaker is open and rejecting calls.
var ErrOpen = errors.New("circuit: breaker open")

// ErrTimeout is returned when a guarded call exceeds its request timeout.
var ErrTimeout = errors.New("circuit: request timeout")

// State is one of the three breaker states.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config parameterises a Breaker.
type Config struct {
	FailureThreshold int           // consecutive failures to open
	SuccessThreshold int           // consecutive half-open successes to close
	OpenTimeout      time.Duration // time before an open breaker tries half-open
	RequestTimeout   time.Duration // per-call timeout
}

// Breaker guards calls to a single venue host.
type Breaker struct {
	mu        sync.Mutex
	cfg       Config
	state     State
	failures  int
	successes int
	openedAt  time.Time
}

// New creates a Breaker in the closed state.
func New(cfg Config) *Breaker {
	return &Breaker{cfg: cfg, state: StateClosed}
}

// Call executes fn if the breaker allows it, tracking the outcome.
func (b *Breaker) Call(ctx context.Context, fn func(ctx context.Context) error) error {
	if !b.allow() {
		return ErrOpen
	}

	cctx, cancel := context.WithTimeout(ctx, b.cfg.RequestTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn(cctx) }()

	select {
	case err := <-done:
		if err != nil {
			b.onFailure()
			return err
		}
		b.onSuccess()
		return nil
	case <-cctx.Done():
		b.onFailure()
		return ErrTimeout
	}
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(b.openedAt) > b.cfg.OpenTimeout {
			b.state = StateHalfOpen
			b.successes = 0
			return true
		}
		return false
	case StateHalfOpen:
		return true
	default:
		return false
	}
}

func (b *Breaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.failures = 0
	case StateHalfOpen:
		b.successes++
		if b.successes >= b.cfg.SuccessThreshold {
			b.state = StateClosed
			b.failures = 0
			b.successes = 0
		}
	}
}

func (b *Breaker) onFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.state = StateOpen
			b.openedAt = time.Now()
		}
	case StateHalfOpen:
		b.state = StateOpen
		b.openedAt = time.Now()
		b.successes = 0
	}
}

// State reports the breaker's current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Manager owns one Breaker per venue slug.
type Manager struct {
	mu       sync.Mutex
	breakers map[string]*Breaker
	cfg      Config
}

// NewManager creates a Manager that lazily builds breakers for unseen
// venues using the given default configuration.
func NewManager(cfg Config) *Manager {
	return &Manager{breakers: make(map[string]*Breaker), cfg: cfg}
}

// For returns the breaker for venue, creating one on first use.
func (m *Manager) For(venue string) *Breaker {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b, ok := m.breakers[venue]; ok {
		return b
	}
	b := New(m.cfg)
	m.breakers[venue] = b
	return b
}

// Call runs fn through the breaker for venue.
func (m *Manager) Call(ctx context.Context, venue string, fn func(ctx context.Context) error) error {
	return m.For(venue).Call(ctx, fn)
}
