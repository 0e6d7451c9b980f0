// Package auth turns the session cookie issued by the identity provider into
// a SessionUser on the request context. Sign-in itself happens elsewhere; this
// package only reads what the provider stored.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/dalemusser/memoria/internal/app/system/apperr"
	"github.com/dalemusser/memoria/internal/app/system/respond"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

// DefaultSessionName is used when no session_name is configured.
const DefaultSessionName = "memoria-session"

const (
	isAuthKey = "is_authenticated"
	userIDKey = "user_id"
	userName  = "user_name"
	userEmail = "user_email"
	userRole  = "user_role"
)

// Store is initialised once via InitSessionStore.
var Store *sessions.CookieStore

// SessionName is the cookie name read by LoadSessionUser.
var SessionName = DefaultSessionName

// SuperAdminID, when set, is given the superadmin role whatever the session
// says.
var SuperAdminID string

// SessionUser is the identity attached to a request.
type SessionUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the signed-in user, if any.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// LoadSessionUser injects the user into context if the session says they are
// signed in. It is a no-op before InitSessionStore runs.
func LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if Store == nil {
			next.ServeHTTP(w, r)
			return
		}

		sess, _ := Store.Get(r, SessionName)
		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			u := &SessionUser{
				ID:    getString(sess, userIDKey),
				Name:  getString(sess, userName),
				Email: getString(sess, userEmail),
				Role:  getString(sess, userRole),
			}
			if u.ID != "" {
				if SuperAdminID != "" && u.ID == SuperAdminID {
					u.Role = "superadmin"
				}
				r = withUser(r, u)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// SaveSessionUser writes u into the session. Used by the identity provider
// integration and by tests that need a real cookie.
func SaveSessionUser(w http.ResponseWriter, r *http.Request, u SessionUser) error {
	if Store == nil {
		return fmt.Errorf("session store not initialized")
	}
	sess, _ := Store.Get(r, SessionName)
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = u.ID
	sess.Values[userName] = u.Name
	sess.Values[userEmail] = u.Email
	sess.Values[userRole] = u.Role
	return sess.Save(r, w)
}

// RequireSignedIn answers 401 when there is no user in context.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			respond.Error(w, nil, apperr.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole answers 401 without a user and 403 when the user's role is not
// one of allowed.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				respond.Error(w, nil, apperr.ErrUnauthorized)
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				respond.Error(w, nil, apperr.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// InitSessionStore initializes the global cookie store. An empty key is
// allowed outside production and gets a random one, which means sessions do
// not survive a restart.
func InitSessionStore(sessionKey, name, domain string, secure bool, logger *zap.Logger) error {
	if sessionKey == "" {
		if secure {
			return fmt.Errorf("session key is empty; provide at least 32 random chars")
		}
		sessionKey = string(securecookie.GenerateRandomKey(32))
		logger.Warn("no session key configured; using a random key for this process")
	} else if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name != "" {
		SessionName = name
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	Store = store

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("name", SessionName),
		zap.String("domain", domain))
	return nil
}

// WithTestUser injects u into the request context, bypassing the session.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}
