// Package revocation keeps a fast lookup of revoked access tokens in front of
// the access_tokens table.
package revocation

import (
	"context"
	"sync"
	"time"
)

// List is a token revocation list keyed by token hash
type List interface {
	Revoke(ctx context.Context, tokenHash string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenHash string) (bool, error)
}

// MemoryList is an in-process List for single-replica and development setups
type MemoryList struct {
	mu      sync.RWMutex
	entries map[string]time.Time // zero time means no expiry
	now     func() time.Time
}

func NewMemoryList() *MemoryList {
	return &MemoryList{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Revoke records tokenHash. A ttl <= 0 keeps the entry forever.
func (l *MemoryList) Revoke(_ context.Context, tokenHash string, ttl time.Duration) error {
	if tokenHash == "" {
		return nil
	}

	var expires time.Time
	if ttl > 0 {
		expires = l.now().Add(ttl)
	}

	l.mu.Lock()
	l.entries[tokenHash] = expires
	l.mu.Unlock()
	return nil
}

func (l *MemoryList) IsRevoked(_ context.Context, tokenHash string) (bool, error) {
	l.mu.RLock()
	expires, ok := l.entries[tokenHash]
	l.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if !expires.IsZero() && l.now().After(expires) {
		l.evict(tokenHash)
		return false, nil
	}
	return true, nil
}

// evict drops tokenHash only if it is still expired; a concurrent Revoke may
// have replaced the entry since it was read.
func (l *MemoryList) evict(tokenHash string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	expires, ok := l.entries[tokenHash]
	if ok && !expires.IsZero() && l.now().After(expires) {
		delete(l.entries, tokenHash)
	}
}
