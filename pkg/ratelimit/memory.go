package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// FixedWindow mantém os contadores em memória, protegidos por mutex.
// Janelas expiradas só são removidas por Sweep.
type FixedWindow struct {
	mu       sync.Mutex
	max      int
	duration time.Duration
	entries  map[string]*window
	now      func() time.Time
}

type Option func(*FixedWindow)

// WithClock troca a fonte de tempo (usado em testes)
func WithClock(now func() time.Time) Option {
	return func(l *FixedWindow) {
		l.now = now
	}
}

func NewFixedWindow(max int, duration time.Duration, opts ...Option) *FixedWindow {
	l := &FixedWindow{
		max:      max,
		duration: duration,
		entries:  make(map[string]*window),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

func (l *FixedWindow) Check(_ context.Context, key string) (Decision, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[key]
	if !ok || now.After(entry.resetAt) {
		entry = &window{count: 1, resetAt: now.Add(l.duration)}
		l.entries[key] = entry
		return Decision{Allowed: true, Remaining: l.max - 1, ResetAt: entry.resetAt}, nil
	}

	// No limite: nega sem incrementar
	if entry.count >= l.max {
		return Decision{Allowed: false, Remaining: 0, ResetAt: entry.resetAt}, nil
	}

	entry.count++
	return Decision{Allowed: true, Remaining: l.max - entry.count, ResetAt: entry.resetAt}, nil
}

// Sweep remove as janelas já encerradas e devolve quantas foram descartadas
func (l *FixedWindow) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, entry := range l.entries {
		if now.After(entry.resetAt) {
			delete(l.entries, key)
			removed++
		}
	}

	return removed
}

func (l *FixedWindow) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
