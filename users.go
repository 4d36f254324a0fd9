package authkit

import "time"

// User carries the identity fields supplied by the host application's
// resolver callbacks. The library never validates or mutates these beyond
// carrying them into the session token.
type User struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Image string `json:"image,omitempty"`
	Role  string `json:"role,omitempty"`
}

// CredentialUser is the record an IdentityStore returns for a sign-in
// lookup. The hashed password never leaves the credential provider; it is
// stripped before the user reaches the session layer.
type CredentialUser struct {
	User
	HashedPassword string `json:"hashedPassword"`
}

// UserSessionPayload is the plaintext content encrypted into a user session
// token. It must never contain secrets.
type UserSessionPayload struct {
	User     User   `json:"user"`
	Provider string `json:"provider"`
}

// UserSession is the read side of a session token: the payload plus the
// expiry derived from the token's claims at decrypt time.
type UserSession struct {
	User      User      `json:"user"`
	Provider  string    `json:"provider"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// OAuthState is the transient payload correlating a sign-in initiation with
// the provider callback. It is encrypted into a short-lived token, stored in
// the OAuth-state slot, and consumed exactly once when the callback
// completes.
type OAuthState struct {
	State        string `json:"state"`
	CodeVerifier string `json:"codeVerifier"`
	RedirectTo   string `json:"redirectTo,omitempty"`
	Provider     string `json:"provider"`
}

// SignUpData is the input to credential sign-up. Extra fields are carried
// through the email verification token and handed back to the identity
// store when the account is finally created.
type SignUpData struct {
	Email    string
	Password string
	Extra    map[string]any
}

// Redirect is the result shape for operations whose only outcome is a
// browser navigation target.
type Redirect struct {
	RedirectTo string
}
