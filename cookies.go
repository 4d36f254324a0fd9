package authkit

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ErrNoCookieCarrier is returned by CookieStorage when the context does not
// carry a request/response pair. It usually means a handler forgot to call
// WithCookies before invoking an Auth operation.
var ErrNoCookieCarrier = errors.New("authkit: context carries no cookie access")

type cookieCarrierKey struct{}

type cookieCarrier struct {
	w http.ResponseWriter
	r *http.Request
}

// WithCookies attaches the request/response pair to the context so
// CookieStorage can read and write cookies for the in-flight request. The
// Handler does this automatically; call it yourself when invoking Auth
// operations from your own handlers.
func WithCookies(ctx context.Context, w http.ResponseWriter, r *http.Request) context.Context {
	return context.WithValue(ctx, cookieCarrierKey{}, &cookieCarrier{w: w, r: r})
}

func cookiesFrom(ctx context.Context) (*cookieCarrier, error) {
	carrier, ok := ctx.Value(cookieCarrierKey{}).(*cookieCarrier)
	if !ok {
		return nil, ErrNoCookieCarrier
	}
	return carrier, nil
}

// CookieStorage keeps the session slots in HTTP cookies on the user agent.
// The tokens are encrypted and carry their own expiry, so the cookie jar
// only needs to round-trip them. Implements Storage.
type CookieStorage struct {
	// Path defaults to "/".
	Path string

	// Secure marks cookies as HTTPS-only. Leave false only in local
	// development.
	Secure bool

	// SameSite defaults to http.SameSiteLaxMode, which still permits the
	// OAuth provider's top-level redirect back to the callback.
	SameSite http.SameSite
}

var _ Storage = (*CookieStorage)(nil)

func (c *CookieStorage) Get(ctx context.Context, name string) (string, error) {
	carrier, err := cookiesFrom(ctx)
	if err != nil {
		return "", err
	}
	cookie, err := carrier.r.Cookie(name)
	if errors.Is(err, http.ErrNoCookie) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}

func (c *CookieStorage) Set(ctx context.Context, name, value string, maxAge time.Duration) error {
	carrier, err := cookiesFrom(ctx)
	if err != nil {
		return err
	}
	http.SetCookie(carrier.w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     c.path(),
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.sameSite(),
	})
	return nil
}

func (c *CookieStorage) Delete(ctx context.Context, name string) error {
	carrier, err := cookiesFrom(ctx)
	if err != nil {
		return err
	}
	http.SetCookie(carrier.w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     c.path(),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.sameSite(),
	})
	return nil
}

func (c *CookieStorage) path() string {
	if c.Path == "" {
		return "/"
	}
	return c.Path
}

func (c *CookieStorage) sameSite() http.SameSite {
	if c.SameSite == 0 {
		return http.SameSiteLaxMode
	}
	return c.SameSite
}
