package internal

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/candlewaxgames/candlewax/pkg/logger"
	"github.com/candlewaxgames/candlewax/pkg/session"
)

const (
	defaultSessionCookieName = "__sid"
	defaultSessionMaxAge     = 30 * 24 * 60 * 60
)

// SessionManager moves sessions between a session.Store and the visitor's
// cookie.
type SessionManager struct {
	store  session.Store
	logger *slog.Logger
	cookie http.Cookie
}

// SessionOption configures a SessionManager.
type SessionOption func(*SessionManager)

func NewSessionManager(store session.Store, opts ...SessionOption) *SessionManager {
	sm := &SessionManager{
		store:  store,
		logger: logger.NewNope(),
		cookie: http.Cookie{
			Name:     defaultSessionCookieName,
			Path:     "/",
			MaxAge:   defaultSessionMaxAge,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
	}
	for _, opt := range opts {
		opt(sm)
	}
	return sm
}

// WithSessionCookieName renames the cookie. Empty names are ignored.
func WithSessionCookieName(name string) SessionOption {
	return func(sm *SessionManager) {
		if name != "" {
			sm.cookie.Name = name
		}
	}
}

// WithSessionMaxAge sets both the cookie lifetime and the session expiry,
// in seconds. Non-positive values are ignored.
func WithSessionMaxAge(seconds int) SessionOption {
	return func(sm *SessionManager) {
		if seconds > 0 {
			sm.cookie.MaxAge = seconds
		}
	}
}

func WithSessionDomain(domain string) SessionOption {
	return func(sm *SessionManager) { sm.cookie.Domain = domain }
}

func WithSessionSecure(secure bool) SessionOption {
	return func(sm *SessionManager) { sm.cookie.Secure = secure }
}

func WithSessionSameSite(sameSite http.SameSite) SessionOption {
	return func(sm *SessionManager) { sm.cookie.SameSite = sameSite }
}

// SetLogger is called by New with the app logger.
func (sm *SessionManager) SetLogger(l *slog.Logger) {
	if l != nil {
		sm.logger = l
	}
}

// Load returns the session named by the request cookie. A missing, unknown
// or expired cookie yields a fresh unsaved session, so callers always get
// one. Store failures other than not-found and expired are returned.
func (sm *SessionManager) Load(ctx context.Context, r *http.Request) (*session.Session, error) {
	if c, err := r.Cookie(sm.cookie.Name); err == nil && c.Value != "" {
		sess, err := sm.store.Get(ctx, c.Value)
		switch {
		case err == nil:
			sess.LastActiveAt = time.Now()
			return sess, nil
		case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrExpired):
			sm.logger.DebugContext(ctx, "session cookie discarded", slog.String("reason", err.Error()))
		default:
			return nil, fmt.Errorf("load session: %w", err)
		}
	}
	return sm.newSession()
}

func (sm *SessionManager) newSession() (*session.Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}
	expiresAt := time.Now().Add(time.Duration(sm.cookie.MaxAge) * time.Second)
	return session.New(uuid.NewString(), token, expiresAt), nil
}

// Flush persists sess and sets or clears the cookie on w. It must run
// before the response header is written. An untouched new session is not
// stored and sets no cookie.
func (sm *SessionManager) Flush(ctx context.Context, w http.ResponseWriter, sess *session.Session) error {
	if sess == nil || !sess.IsDirty() {
		return nil
	}

	if sess.IsDestroyed() {
		sm.expireCookie(w)
		if sess.IsNew() {
			return nil
		}
		return sm.store.Delete(ctx, sess.Token)
	}

	if sess.IsNew() && len(sess.Values) == 0 {
		return nil
	}

	setCookie := sess.IsNew()
	if sess.NeedsRegenerate() {
		if err := sm.rotate(ctx, sess); err != nil {
			return err
		}
		setCookie = true
	}

	if err := sm.store.Save(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if setCookie {
		sm.writeCookie(w, sess)
	}
	sess.ClearNew()
	sess.ClearDirty()
	return nil
}

// rotate replaces the session token and drops the old one from the store.
func (sm *SessionManager) rotate(ctx context.Context, sess *session.Session) error {
	token, err := generateToken()
	if err != nil {
		return fmt.Errorf("generate session token: %w", err)
	}
	if !sess.IsNew() {
		if err := sm.store.Delete(ctx, sess.Token); err != nil {
			return fmt.Errorf("delete old session token: %w", err)
		}
	}
	sess.Token = token
	sess.Regenerated()
	return nil
}

func (sm *SessionManager) writeCookie(w http.ResponseWriter, sess *session.Session) {
	c := sm.cookie
	c.Value = sess.Token
	http.SetCookie(w, &c)
}

func (sm *SessionManager) expireCookie(w http.ResponseWriter) {
	c := sm.cookie
	c.MaxAge = -1
	http.SetCookie(w, &c)
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
