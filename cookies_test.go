package authkit_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/trailside/authkit"
)

func TestCookieStorageRequiresCarrier(t *testing.T) {
	storage := &authkit.CookieStorage{}
	ctx := context.Background()

	if _, err := storage.Get(ctx, "x"); !errors.Is(err, authkit.ErrNoCookieCarrier) {
		t.Errorf("Get: expected ErrNoCookieCarrier, got %v", err)
	}
	if err := storage.Set(ctx, "x", "v", time.Hour); !errors.Is(err, authkit.ErrNoCookieCarrier) {
		t.Errorf("Set: expected ErrNoCookieCarrier, got %v", err)
	}
	if err := storage.Delete(ctx, "x"); !errors.Is(err, authkit.ErrNoCookieCarrier) {
		t.Errorf("Delete: expected ErrNoCookieCarrier, got %v", err)
	}
}

func TestCookieStorageRoundTrip(t *testing.T) {
	storage := &authkit.CookieStorage{}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := authkit.WithCookies(context.Background(), w, r)

	if err := storage.Set(ctx, "slot", "value", time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != "slot" || c.Value != "value" {
		t.Errorf("cookie = %+v", c)
	}
	if !c.HttpOnly {
		t.Error("cookie must be HttpOnly")
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", c.SameSite)
	}
	if c.MaxAge != int(time.Hour.Seconds()) {
		t.Errorf("MaxAge = %d", c.MaxAge)
	}

	// A request carrying the cookie reads it back; one without sees the
	// absent-slot contract.
	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	r2.AddCookie(&http.Cookie{Name: "slot", Value: "value"})
	ctx2 := authkit.WithCookies(context.Background(), httptest.NewRecorder(), r2)
	if got, err := storage.Get(ctx2, "slot"); err != nil || got != "value" {
		t.Errorf("Get = %q, %v", got, err)
	}
	if got, err := storage.Get(ctx2, "other"); err != nil || got != "" {
		t.Errorf("absent slot: Get = %q, %v", got, err)
	}
}

func TestCookieStorageDelete(t *testing.T) {
	storage := &authkit.CookieStorage{}
	w := httptest.NewRecorder()
	ctx := authkit.WithCookies(context.Background(), w, httptest.NewRequest(http.MethodGet, "/", nil))

	if err := storage.Delete(ctx, "slot"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	if cookies[0].MaxAge != -1 {
		t.Errorf("MaxAge = %d, want -1", cookies[0].MaxAge)
	}
}
