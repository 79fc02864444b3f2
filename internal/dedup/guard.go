// Package dedup suppresses rapid re-delivery of inbound events. Messaging
// transports redeliver on slow acks, and a redelivered "report" must not
// create a second problem. The guarantee is best-effort and scoped to the
// window: an event repeated after expiry is processed again.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Store is a put-if-absent map with per-entry TTL. The in-memory store serves
// a single process; a multi-instance deployment swaps in the Redis store
// without touching any caller.
type Store interface {
	// PutIfAbsent records key and returns true when it was not already
	// present (and unexpired).
	PutIfAbsent(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Guard decides whether an inbound event should be processed.
type Guard struct {
	store  Store
	window time.Duration
}

func NewGuard(store Store, window time.Duration) *Guard {
	return &Guard{store: store, window: window}
}

// ShouldProcess hashes submitter + normalized content and consults the store.
// A store failure fails open: losing dedup for one event is better than
// dropping the event.
func (g *Guard) ShouldProcess(ctx context.Context, submitter, content string) bool {
	ok, err := g.store.PutIfAbsent(ctx, Fingerprint(submitter, content), g.window)
	if err != nil {
		return true
	}
	return ok
}

// Fingerprint produces the dedup key for a submitter + content pair. Content
// is NFKC-normalized, lowercased, and whitespace-collapsed first, so trivially
// re-encoded duplicates ("Broken  pipe" vs "broken pipe") hash identically.
func Fingerprint(submitter, content string) string {
	normalized := strings.ToLower(norm.NFKC.String(content))
	normalized = strings.Join(strings.Fields(normalized), " ")

	h := sha256.New()
	h.Write([]byte(submitter))
	h.Write([]byte{0})
	h.Write([]byte(normalized))
	return hex.EncodeToString(h.Sum(nil))
}

type memoryEntry struct {
	expiresAt time.Time
}

// MemoryStore is a process-local Store with a background sweep.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	done    chan struct{}
	once    sync.Once
}

func NewMemoryStore(sweepEvery time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		done:    make(chan struct{}),
	}
	go s.sweep(sweepEvery)
	return s
}

func (s *MemoryStore) PutIfAbsent(_ context.Context, key string, ttl time.Duration) (bool, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok && now.Before(e.expiresAt) {
		return false, nil
	}
	s.entries[key] = memoryEntry{expiresAt: now.Add(ttl)}
	return true, nil
}

func (s *MemoryStore) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for key, e := range s.entries {
				if now.After(e.expiresAt) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		}
	}
}

// Close stops the sweep goroutine.
func (s *MemoryStore) Close() {
	s.once.Do(func() { close(s.done) })
}
