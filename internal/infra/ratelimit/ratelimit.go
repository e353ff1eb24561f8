// Package ratelimit implements a keyed fixed-window request counter.
//
// It serves two callers: the HTTP layer throttling abusive clients, and the
// earning engine enforcing per-task cooldowns. It is an in-process,
// best-effort mechanism — never the source of truth for a hard invariant.
// Overdraft protection always falls back to the wallet store's transactional
// check. The counter map sits behind the Store interface so a multi-process
// deployment can swap in a shared store without touching callers.
package ratelimit

import (
	"sync"
	"time"

	"github.com/sureshield/coinledger/internal/domain"
)

// Window is one key's counter and its fixed reset boundary.
type Window struct {
	Count   int
	ResetAt time.Time
}

// Store holds the per-key windows.
type Store interface {
	Get(key string) (Window, bool)
	Set(key string, w Window)
	// Sweep drops windows that expired before now.
	Sweep(now time.Time)
}

// ─── In-Memory Store ────────────────────────────────────────────────────────

// MemoryStore is the process-local Store. Lifecycle = process start to
// process stop; counters reset on restart.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]Window
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[string]Window)}
}

func (s *MemoryStore) Get(key string) (Window, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.windows[key]
	return w, ok
}

func (s *MemoryStore) Set(key string, w Window) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows[key] = w
}

// Sweep is a linear scan — acceptable at the key volumes this subsystem
// targets.
func (s *MemoryStore) Sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, w := range s.windows {
		if !now.Before(w.ResetAt) {
			delete(s.windows, key)
		}
	}
}

// Len returns the number of live windows.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// ─── Limiter ────────────────────────────────────────────────────────────────

// Limiter counts requests per key in fixed windows.
type Limiter struct {
	mu    sync.Mutex
	store Store
	now   func() time.Time
}

// New creates a limiter over the given store.
func New(store Store) *Limiter {
	return &Limiter{store: store, now: time.Now}
}

// SetClock overrides the time source for tests.
func (l *Limiter) SetClock(now func() time.Time) { l.now = now }

// Check counts one request against key's current window and reports whether
// it fits under maxRequests. Expired keys are purged opportunistically on
// each call.
func (l *Limiter) Check(key string, window time.Duration, maxRequests int) domain.RateDecision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.store.Sweep(now)

	w, ok := l.store.Get(key)
	if !ok || !now.Before(w.ResetAt) {
		w = Window{Count: 1, ResetAt: now.Add(window)}
	} else {
		w.Count++
	}
	l.store.Set(key, w)

	remaining := maxRequests - w.Count
	if remaining < 0 {
		remaining = 0
	}
	return domain.RateDecision{
		Allowed:   w.Count <= maxRequests,
		Limit:     maxRequests,
		Remaining: remaining,
		ResetAt:   w.ResetAt,
	}
}

// ─── Key Prefixes ───────────────────────────────────────────────────────────
// Distinct prefixes per concern so windows never interfere across concerns.

// APIKey throttles general API traffic per user.
func APIKey(userID string) string { return "api:" + userID }

// EarnKey is the per-task earning cooldown key.
func EarnKey(userID string, task domain.Reason) string {
	return "earn:" + userID + ":" + string(task)
}

// RedeemKey throttles redemption attempts per user.
func RedeemKey(userID string) string { return "redeem:" + userID }

// SpendKey throttles spend attempts per user.
func SpendKey(userID string) string { return "spend:" + userID }
