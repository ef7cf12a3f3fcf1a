package circuit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func cfg() Config {
	return Config{
		FailureThreshold: 2,
		SuccessThreshold: 2,
		OpenTimeout:      20 * time.Millisecond,
		RequestTimeout:   50 * time.Millisecond,
	}
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := New(cfg())
	failing := func(ctx context.Context) error { return errors.New("boom") }

	_ = b.Call(context.Background(), failing)
	if b.State() != StateClosed {
		t.Fatalf("expected closed after 1 failure, got %s", b.State())
	}
	_ = b.Call(context.Background(), failing)
	if b.State() != StateOpen {
		t.Fatalf("expected open after threshold failures, got %s", b.State())
	}

	err := b.Call(context.Background(), func(ctx context.Context) error { return nil })
	if !errors.Is(err, ErrOpen) {
		t.Fatalf("expected ErrOpen while open, got %v", err)
	}
}

func TestBreakerHalfOpenRecovers(t *testing.T) {
	b := New(cfg())
	failing := func(ctx context.Context) error { return errors.New("boom") }
	_ = b.Call(context.Background(), failing)
	_ = b.Call(context.Background(), failing)

	time.Sleep(30 * time.Millisecond)

	ok := func(ctx context.Context) error { return nil }
	if err := b.Call(context.Background(), ok); err != nil {
		t.Fatalf("expected half-open call to succeed: %v", err)
	}
	if err := b.Call(context.Background(), ok); err != nil {
		t.Fatalf("expected second half-open call to succeed: %v", err)
	}
	if b.State() != StateClosed {
		t.Fatalf("expected closed after success threshold, got %s", b.State())
	}
}

func TestManagerPerVenueIsolation(t *testing.T) {
	m := NewManager(cfg())
	failing := func(ctx context.Context) error { return errors.New("boom") }
	_ = m.Call(context.Background(), "kalshi", failing)
	_ = m.Call(context.Background(), "kalshi", failing)

	if m.For("kalshi").State() != StateOpen {
		t.Fatalf("expected kalshi breaker open")
	}
	if m.For("polymarket").State() != StateClosed {
		t.Fatalf("expected polymarket breaker unaffected, got %s", m.For("polymarket").State())
	}
}
