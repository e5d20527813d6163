package session

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// CookieName is the name of the session cookie.
const CookieName = "pantau_session"

type contextKey struct{}

// Session is the request-scoped view of a stored session.
type Session struct {
	Token string
	Data  Data
}

// Manager binds the Store to HTTP requests through a cookie.
type Manager struct {
	store  *Store
	secure bool
	logger *zap.Logger
}

// NewManager creates a Manager. secure marks the cookie Secure.
func NewManager(store *Store, secure bool, logger *zap.Logger) *Manager {
	return &Manager{store: store, secure: secure, logger: logger}
}

// Middleware loads the session named by the cookie into the request
// context. Requests without a live session pass through untouched.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(CookieName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		data, err := m.store.Get(c.Value)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				m.logger.Error("failed to load session", zap.Error(err))
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), contextKey{}, &Session{Token: c.Value, Data: *data})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext returns the session of the request, or nil when logged out.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}

// Login starts a session for the user and sets the cookie.
func (m *Manager) Login(w http.ResponseWriter, userID int64, username string) error {
	token, err := m.store.Create(Data{UserID: userID, Username: username})
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.store.MaxAge().Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Logout destroys the session of r, if any, and clears the cookie.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(CookieName); err == nil {
		if err := m.store.Delete(c.Value); err != nil {
			m.logger.Error("failed to delete session", zap.Error(err))
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetFlash stores a message to show on the next page. It is a no-op for
// requests without a session.
func (m *Manager) SetFlash(r *http.Request, kind, message string) {
	s := FromContext(r.Context())
	if s == nil {
		return
	}
	s.Data.Flash = &Flash{Type: kind, Message: message}
	if err := m.store.Save(s.Token, s.Data); err != nil && !errors.Is(err, ErrNotFound) {
		m.logger.Error("failed to save flash", zap.Error(err))
	}
}

// PopFlash returns and clears the pending flash message.
func (m *Manager) PopFlash(r *http.Request) *Flash {
	s := FromContext(r.Context())
	if s == nil || s.Data.Flash == nil {
		return nil
	}
	f := s.Data.Flash
	s.Data.Flash = nil
	if err := m.store.Save(s.Token, s.Data); err != nil && !errors.Is(err, ErrNotFound) {
		m.logger.Error("failed to clear flash", zap.Error(err))
	}
	return f
}
