// Package authkit provides pluggable sign-in flows with encrypted stateless
// session tokens for Go applications.
//
// Two families of providers plug into a single orchestrator: OAuth providers
// (authorization-code flow with PKCE) and a credential provider
// (email/password with emailed verification and password-reset links). All
// per-user state lives inside encrypted tokens held by a storage
// collaborator, so no server-side session table is required.
//
// # Architecture
//
// Auth: the orchestrator. Owns the provider registry, the token codec secret
// and the storage collaborator. Immutable after construction and safe for
// concurrent use; the host application creates one and threads it through
// its handlers.
//
// Provider: a sign-in mechanism registered under an id. OAuth providers
// (e.g. providers/google) produce an authorization URL and complete the
// callback handshake; the credential provider (providers/credential)
// verifies passwords and drives the email verification and password reset
// flows.
//
// Storage: two named slots, one for the user session token and one for the
// transient OAuth state token. CookieStorage keeps them in HTTP cookies;
// SCSStorage keeps them in a server-side scs session. Any implementation of
// the three-method interface works.
//
// # Basic Usage
//
// Configure providers and build the orchestrator:
//
//	import (
//	    "github.com/trailside/authkit"
//	    "github.com/trailside/authkit/providers/credential"
//	    "github.com/trailside/authkit/providers/google"
//	)
//
//	auth, err := authkit.New(authkit.Config{
//	    BaseURL: "https://yourapp.com",
//	    Session: authkit.SessionConfig{
//	        Secret: os.Getenv("AUTH_SECRET"), // base64, 32 bytes decoded
//	        MaxAge: 30 * 24 * time.Hour,
//	    },
//	    Providers: []authkit.Provider{
//	        google.New(google.Config{
//	            ClientID:      os.Getenv("GOOGLE_CLIENT_ID"),
//	            ClientSecret:  os.Getenv("GOOGLE_CLIENT_SECRET"),
//	            Users:         store,
//	            ErrorRedirect: "/login",
//	        }),
//	        credential.New(credential.Config{
//	            Store:  store,
//	            Mailer: mailer,
//	            Redirects: credential.Redirects{ /* ... */ },
//	        }),
//	    },
//	}, &authkit.CookieStorage{Secure: true})
//
// Mount the HTTP adapter:
//
//	mux := http.NewServeMux()
//	mux.Handle("/api/auth/", authkit.NewHandler(auth))
//
// Or call the operations directly from your own handlers; wrap the context
// with WithCookies first when using CookieStorage:
//
//	ctx := authkit.WithCookies(r.Context(), w, r)
//	session, err := auth.UserSession(ctx)
//
// # Tokens
//
// Session, OAuth-state, email-verification and password-reset tokens are all
// produced by the same codec (package crypt): AES-256-GCM over a JSON
// envelope carrying issued-at and expiry claims. Tokens are opaque to the
// user agent and tamper-evident; flipping any byte fails decryption. The
// four token classes are not interchangeable even under the same secret.
//
// # Security
//
// Passwords are hashed with bcrypt at default cost. OAuth sign-ins bind the
// callback to the initiating browser with an encrypted state token and to
// the authorization code with a PKCE S256 challenge. Forgot-password
// responds identically whether or not an account exists. Account rows are
// created only after the email address is verified.
//
// # Testing
//
// Handlers and flows can be exercised without a running server using
// httptest.NewRequest and httptest.ResponseRecorder; the token exchange in
// providers/google accepts an endpoint override so tests can stand in for
// the provider with httptest.NewServer.
package authkit
