package session

import (
	"bytes"
	"context"
	"encoding/json"
	"maps"
	"sync"
	"time"
)

// Store persists sessions by token.
type Store interface {
	// Get returns ErrNotFound for unknown tokens and ErrExpired for stale ones.
	Get(ctx context.Context, token string) (*Session, error)
	// Save creates or replaces the session stored under s.Token.
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, token string) error
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (m *MemoryStore) Get(_ context.Context, token string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[token]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if s.IsExpired() {
		m.mu.Lock()
		delete(m.sessions, token)
		m.mu.Unlock()
		return nil, ErrExpired
	}
	return clone(s), nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	m.sessions[s.Token] = clone(s)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func clone(s *Session) *Session {
	c := *s
	c.Values = maps.Clone(s.Values)
	if c.Values == nil {
		c.Values = make(map[string]any)
	}
	c.dirty, c.isNew = false, false
	c.regenerate, c.destroyed = false, false
	return &c
}

// encode serialises a session for byte-oriented stores.
func encode(s *Session) ([]byte, error) {
	return json.Marshal(s)
}

// decode restores a session, turning JSON numbers back into int64 or float64.
func decode(data []byte) (*Session, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var s Session
	if err := dec.Decode(&s); err != nil {
		return nil, err
	}
	for k, v := range s.Values {
		s.Values[k] = fromJSON(v)
	}
	if s.Values == nil {
		s.Values = make(map[string]any)
	}
	return &s, nil
}

func fromJSON(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		f, _ := val.Float64()
		return f
	case map[string]any:
		for k, inner := range val {
			val[k] = fromJSON(inner)
		}
		return val
	case []any:
		for i, inner := range val {
			val[i] = fromJSON(inner)
		}
		return val
	default:
		return val
	}
}

// ttl returns how long a store should keep s.
func ttl(s *Session) time.Duration {
	return time.Until(s.ExpiresAt)
}
