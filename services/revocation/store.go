package revocation

import (
	"sync"
	"time"
)

// Store holds blacklisted token ids until their natural expiry. The
// blacklist only needs to outlive the short access/temp TTLs, so the memory
// store accepts losing state on restart; the redis store survives it.
type Store interface {
	Add(jti string, expiresAt time.Time) error
	Contains(jti string) (bool, error)
	CleanupExpired() error
}

type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tokens: make(map[string]time.Time),
	}
}

func (m *MemoryStore) Add(jti string, expiresAt time.Time) error {
	if !time.Now().Before(expiresAt) {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.tokens[jti] = expiresAt
	return nil
}

func (m *MemoryStore) Contains(jti string) (bool, error) {
	m.mu.RLock()
	expiresAt, exists := m.tokens[jti]
	m.mu.RUnlock()

	if !exists {
		return false, nil
	}

	if !time.Now().Before(expiresAt) {
		m.mu.Lock()
		delete(m.tokens, jti)
		m.mu.Unlock()
		return false, nil
	}

	return true, nil
}

func (m *MemoryStore) CleanupExpired() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for jti, expiresAt := range m.tokens {
		if !now.Before(expiresAt) {
			delete(m.tokens, jti)
		}
	}
	return nil
}

func (m *MemoryStore) len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tokens)
}
