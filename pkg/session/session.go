// Package session keeps per-visitor state between requests.
//
// A Session is a bag of values addressed by an opaque cookie token. Stores
// persist sessions; MemoryStore serves development and tests, RedisStore
// serves production.
package session

import (
	"errors"
	"maps"
	"time"
)

var (
	ErrNotFound     = errors.New("session: not found")
	ErrExpired      = errors.New("session: expired")
	ErrTypeMismatch = errors.New("session: type mismatch")
)

// flashKey holds one-shot messages shown on the next rendered page.
const flashKey = "_flash"

// Session is one visitor's state.
type Session struct {
	CreatedAt    time.Time      `json:"created_at"`
	LastActiveAt time.Time      `json:"last_active_at"`
	ExpiresAt    time.Time      `json:"expires_at"`
	Values       map[string]any `json:"values"`
	ID           string         `json:"id"`
	// Token is the cookie value. It changes on Regenerate while ID stays.
	Token string `json:"token"`

	dirty      bool
	isNew      bool
	regenerate bool
	destroyed  bool
}

// New creates an unsaved session.
func New(id, token string, expiresAt time.Time) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		Token:        token,
		Values:       make(map[string]any),
		CreatedAt:    now,
		LastActiveAt: now,
		ExpiresAt:    expiresAt,
		isNew:        true,
		dirty:        true,
	}
}

// Set stores a value and marks the session dirty.
func (s *Session) Set(key string, val any) {
	if s.Values == nil {
		s.Values = make(map[string]any)
	}
	s.Values[key] = val
	s.dirty = true
}

// Get returns a stored value.
func (s *Session) Get(key string) (any, bool) {
	val, ok := s.Values[key]
	return val, ok
}

// Delete removes a value. The session becomes dirty only if the key existed.
func (s *Session) Delete(key string) {
	if _, ok := s.Values[key]; ok {
		delete(s.Values, key)
		s.dirty = true
	}
}

// Clear drops every value, keeping identity and expiry.
func (s *Session) Clear() {
	if len(s.Values) == 0 {
		return
	}
	s.Values = make(map[string]any)
	s.dirty = true
}

// Data returns a copy of the values without pending flash messages.
func (s *Session) Data() map[string]any {
	out := maps.Clone(s.Values)
	if out == nil {
		out = make(map[string]any)
	}
	delete(out, flashKey)
	return out
}

// Flash queues a message under key for the next page render.
func (s *Session) Flash(key string, val any) {
	flashes, _ := s.Values[flashKey].(map[string]any)
	if flashes == nil {
		flashes = make(map[string]any)
	}
	flashes[key] = val
	s.Set(flashKey, flashes)
}

// Flashes returns and clears every queued flash message.
func (s *Session) Flashes() map[string]any {
	flashes, _ := s.Values[flashKey].(map[string]any)
	s.Delete(flashKey)
	if flashes == nil {
		return map[string]any{}
	}
	return flashes
}

func (s *Session) IsDirty() bool { return s.dirty }
func (s *Session) MarkDirty()    { s.dirty = true }
func (s *Session) ClearDirty()   { s.dirty = false }
func (s *Session) IsNew() bool   { return s.isNew }
func (s *Session) ClearNew()     { s.isNew = false }

// Regenerate asks the session manager to issue a new token before the
// response is written. Call it whenever the privilege level changes.
func (s *Session) Regenerate() {
	s.regenerate = true
	s.dirty = true
}

// NeedsRegenerate reports whether Regenerate was called since the last save.
func (s *Session) NeedsRegenerate() bool { return s.regenerate }

// Regenerated records that the token was replaced.
func (s *Session) Regenerated() { s.regenerate = false }

// Destroy drops every value and asks the session manager to delete the
// session and expire its cookie.
func (s *Session) Destroy() {
	s.Values = make(map[string]any)
	s.destroyed = true
	s.dirty = true
}

// IsDestroyed reports whether Destroy was called.
func (s *Session) IsDestroyed() bool { return s.destroyed }

// IsExpired reports whether the session is past its expiry.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Value returns the typed value stored under key.
func Value[T any](s *Session, key string) (T, error) {
	var zero T
	if s == nil {
		return zero, ErrNotFound
	}
	val, ok := s.Get(key)
	if !ok {
		return zero, ErrNotFound
	}
	typed, ok := val.(T)
	if !ok {
		return zero, errors.Join(ErrTypeMismatch, errors.New(key))
	}
	return typed, nil
}

// ValueOr is Value with a fallback for missing or mistyped keys.
func ValueOr[T any](s *Session, key string, fallback T) T {
	val, err := Value[T](s, key)
	if err != nil {
		return fallback
	}
	return val
}
