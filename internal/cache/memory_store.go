package cache

import (
	"context"
	"sync"
	"time"
)

// Clock abstracts time so TTL behaviour can be tested.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is an in-process Store. Reads go through sync.Map and take no
// lock. Expired entries are dropped when read or swept.
type MemoryStore struct {
	entries sync.Map // string -> *memoryEntry
	clock   Clock
}

func NewMemoryStore(clock Clock) *MemoryStore {
	if clock == nil {
		clock = SystemClock
	}
	return &MemoryStore{clock: clock}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	raw, ok := m.entries.Load(key)
	if !ok {
		return nil, ErrCacheNotFound
	}
	entry := raw.(*memoryEntry)
	if m.expired(entry) {
		// Only remove the entry we saw; a concurrent writer may have replaced it
		m.entries.CompareAndDelete(key, raw)
		return nil, ErrCacheNotFound
	}
	return entry.value, nil
}

// Set stores a private copy of value. A non-positive ttl means no expiry.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := &memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = m.clock.Now().Add(ttl)
	}
	m.entries.Store(key, entry)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		m.entries.Delete(key)
	}
	return nil
}

func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *MemoryStore) Len() int {
	n := 0
	m.entries.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

// Sweep removes every expired entry and returns how many were dropped.
func (m *MemoryStore) Sweep() int {
	removed := 0
	m.entries.Range(func(key, raw interface{}) bool {
		if m.expired(raw.(*memoryEntry)) && m.entries.CompareAndDelete(key, raw) {
			removed++
		}
		return true
	})
	return removed
}

// StartJanitor sweeps on every interval until ctx is done.
func (m *MemoryStore) StartJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Sweep()
			}
		}
	}()
}

func (m *MemoryStore) expired(entry *memoryEntry) bool {
	return !entry.expiresAt.IsZero() && !m.clock.Now().Before(entry.expiresAt)
}
