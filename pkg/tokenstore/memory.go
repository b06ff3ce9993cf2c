package tokenstore

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Store. Expired keys are dropped lazily and by
// a janitor goroutine that runs until Close.
type Memory struct {
	mu     sync.Mutex
	items  map[string]time.Time
	now    func() time.Time
	done   chan struct{}
	closed bool
}

// NewMemory creates a store and starts its janitor when cleanup > 0.
func NewMemory(cleanup time.Duration) *Memory {
	m := &Memory{
		items: make(map[string]time.Time),
		now:   time.Now,
		done:  make(chan struct{}),
	}
	if cleanup > 0 {
		go m.janitor(cleanup)
	}
	return m
}

func (m *Memory) Put(_ context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	m.mu.Lock()
	m.items[key] = m.now().Add(ttl)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live(key), nil
}

func (m *Memory) Consume(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ok := m.live(key)
	delete(m.items, key)
	return ok, nil
}

// Close stops the janitor. It is safe to call more than once.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

// live must be called with mu held.
func (m *Memory) live(key string) bool {
	exp, ok := m.items[key]
	if !ok {
		return false
	}
	if !m.now().Before(exp) {
		delete(m.items, key)
		return false
	}
	return true
}

func (m *Memory) janitor(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-t.C:
			m.mu.Lock()
			now := m.now()
			for k, exp := range m.items {
				if !now.Before(exp) {
					delete(m.items, k)
				}
			}
			m.mu.Unlock()
		}
	}
}

var _ Store = (*Memory)(nil)
