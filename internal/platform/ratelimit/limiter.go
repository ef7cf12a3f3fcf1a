// Package ratelimit provides per-venue token-bucket rate limiting,
// adapted from cryptorun's internal/net/ratelimit package: one
// golang.org/x/time/rate limiter per key, lazily created.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Manager owns one rate.Limiter per venue slug.
type Manager struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{limiters: make(map[string]*rate.Limiter)}
}

// Configure installs (or replaces) the limiter for venue with the given
// requests-per-second and burst capacity.
func (m *Manager) Configure(venue string, rps float64, burst int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limiters[venue] = rate.NewLimiter(rate.Limit(rps), burst)
}

func (m *Manager) get(venue string) *rate.Limiter {
	m.mu.RLock()
	l, ok := m.limiters[venue]
	m.mu.RUnlock()
	if ok {
		return l
	}
	// Unconfigured venues get a generous default so a missing entry
	// never silently blocks forever.
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.limiters[venue]; ok {
		return l
	}
	l = rate.NewLimiter(rate.Limit(1), 1)
	m.limiters[venue] = l
	return l
}

// Wait blocks until a request for venue is permitted or ctx is done.
func (m *Manager) Wait(ctx context.Context, venue string) error {
	return m.get(venue).Wait(ctx)
}

// Allow reports whether a request for venue is immediately permitted,
// consuming a token if so.
func (m *Manager) Allow(venue string) bool {
	return m.get(venue).Allow()
}
