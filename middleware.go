package authkit

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

type sessionRequestKey struct{}

// SessionFromRequest returns the session the middleware decoded for this
// request, or nil for an anonymous request.
func SessionFromRequest(r *http.Request) *UserSession {
	session, _ := r.Context().Value(sessionRequestKey{}).(*UserSession)
	return session
}

// Middleware decodes the user session for incoming requests and makes it
// available to downstream handlers. The token is looked up in the storage
// collaborator first, then in a Bearer Authorization header, so the same
// middleware serves both browser and API traffic.
type Middleware struct {
	Auth *Auth

	// RedirectURL is the login page EnsureSession sends unauthenticated
	// browsers to. Empty means answer 401 instead.
	RedirectURL string

	// CallbackURLParam is the query parameter carrying the original URL on
	// the login redirect. Defaults to "callbackURL".
	CallbackURLParam string
}

// ExtractSession loads the session when one exists and passes the request
// on either way. It never rejects; an undecodable token just yields an
// anonymous request.
func (m *Middleware) ExtractSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if session := m.sessionFor(w, r); session != nil {
			r = r.WithContext(context.WithValue(r.Context(), sessionRequestKey{}, session))
		}
		next.ServeHTTP(w, r)
	})
}

// EnsureSession is ExtractSession plus enforcement: anonymous requests are
// redirected to RedirectURL with the original path attached, or get a 401
// when no redirect is configured.
func (m *Middleware) EnsureSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := m.sessionFor(w, r)
		if session == nil {
			if m.RedirectURL != "" {
				param := m.CallbackURLParam
				if param == "" {
					param = "callbackURL"
				}
				original := strings.Replace(url.QueryEscape(r.URL.Path), "+", "%20", -1)
				http.Redirect(w, r, m.RedirectURL+"?"+param+"="+original, http.StatusFound)
			} else {
				http.Error(w, "authentication required", http.StatusUnauthorized)
			}
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionRequestKey{}, session)))
	})
}

func (m *Middleware) sessionFor(w http.ResponseWriter, r *http.Request) *UserSession {
	ctx := WithCookies(r.Context(), w, r)
	session, err := m.Auth.UserSession(ctx)
	if err == nil && session != nil {
		return session
	}
	if err != nil {
		if e, ok := AsError(err); ok {
			slog.Warn("session decode failed", "code", e.Code())
		}
	}

	// API callers may send the token in an Authorization header instead.
	authorization := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(authorization, "Bearer "); ok && token != "" {
		session, err := m.Auth.DecodeSessionToken(token)
		if err == nil {
			return session
		}
	}
	return nil
}
