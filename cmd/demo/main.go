// Command demo runs a small host application showing authkit wired end to
// end: credential sign-up/sign-in with console-logged emails, Google OAuth
// when client credentials are supplied, scs-backed server-side sessions and
// a protected page behind the middleware.
package main

import (
	"context"
	"flag"
	"fmt"
	"html"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/trailside/authkit"
	"github.com/trailside/authkit/crypt"
	"github.com/trailside/authkit/providers/credential"
	"github.com/trailside/authkit/providers/google"
)

var (
	addr         = flag.String("addr", ":8080", "listen address")
	baseURL      = flag.String("base-url", "http://localhost:8080", "externally visible base URL")
	secret       = flag.String("secret", "", "base64 session secret; generated when empty")
	clientID     = flag.String("google-client-id", "", "Google OAuth client id")
	clientSecret = flag.String("google-client-secret", "", "Google OAuth client secret")
)

// memoryStore keeps demo accounts in memory; restart and they are gone.
type memoryStore struct {
	mu    sync.Mutex
	users map[string]*authkit.CredentialUser
}

func (s *memoryStore) UserExists(ctx context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[email]
	return ok, nil
}

func (s *memoryStore) GetUserByEmail(ctx context.Context, email string) (*authkit.CredentialUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[email], nil
}

func (s *memoryStore) CreateUser(ctx context.Context, user credential.NewUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.Email] = &authkit.CredentialUser{
		User:           authkit.User{ID: user.Email, Email: user.Email},
		HashedPassword: user.HashedPassword,
	}
	return nil
}

func (s *memoryStore) UpdatePassword(ctx context.Context, email, hashedPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return fmt.Errorf("no user with email %q", email)
	}
	u.HashedPassword = hashedPassword
	return nil
}

func (s *memoryStore) ResolveUser(ctx context.Context, claims authkit.Claims) (authkit.User, error) {
	email, _ := claims["email"].(string)
	if email == "" {
		return authkit.User{}, fmt.Errorf("claims carry no email")
	}
	name, _ := claims["name"].(string)
	return authkit.User{ID: email, Email: email, Name: name}, nil
}

func main() {
	flag.Parse()

	sessionSecret := *secret
	if sessionSecret == "" {
		generated, err := crypt.GenerateSecret()
		if err != nil {
			log.Fatal("generating session secret: ", err)
		}
		sessionSecret = generated
		log.Println("generated ephemeral session secret; pass -secret to keep sessions across restarts")
	}

	store := &memoryStore{users: make(map[string]*authkit.CredentialUser)}

	providers := []authkit.Provider{
		credential.New(credential.Config{
			Store:  store,
			Mailer: &credential.LogMailer{},
			Redirects: credential.Redirects{
				SignUpSuccess:            "/?notice=check-email",
				EmailVerificationSuccess: "/?notice=verified",
				EmailVerificationError:   "/",
				ForgotPasswordSuccess:    "/?notice=reset-sent",
				ResetTokenSuccess:        "/reset",
				ResetTokenError:          "/",
				ResetPasswordSuccess:     "/?notice=password-changed",
			},
		}),
	}
	if *clientID != "" {
		providers = append(providers, google.New(google.Config{
			ClientID:      *clientID,
			ClientSecret:  *clientSecret,
			Users:         store,
			ErrorRedirect: "/",
		}))
	}

	sessions := scs.New()
	sessions.Lifetime = 24 * time.Hour

	auth, err := authkit.New(authkit.Config{
		BaseURL:   *baseURL,
		Session:   authkit.SessionConfig{Secret: sessionSecret, MaxAge: 24 * time.Hour},
		Providers: providers,
	}, &authkit.SCSStorage{Sessions: sessions})
	if err != nil {
		log.Fatal("configuring auth: ", err)
	}

	middleware := &authkit.Middleware{Auth: auth, RedirectURL: "/"}

	mux := http.NewServeMux()
	mux.Handle(authkit.RoutePrefix+"/", authkit.NewHandler(auth))
	mux.Handle("/me", middleware.EnsureSession(http.HandlerFunc(profilePage)))
	mux.HandleFunc("/reset", resetPage)
	mux.Handle("/", middleware.ExtractSession(http.HandlerFunc(homePage)))

	log.Println("demo listening on ", *addr)
	log.Fatal(http.ListenAndServe(*addr, sessions.LoadAndSave(mux)))
}

func homePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	session := authkit.SessionFromRequest(r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if session != nil {
		fmt.Fprintf(w, `<p>Signed in as %s via %s. <a href="/me">Profile</a></p>
			<form method="post" action="/api/auth/signout"><button>Sign out</button></form>`,
			session.User.Email, session.Provider)
		return
	}
	fmt.Fprint(w, `
		<h3>Sign in</h3>
		<form method="post" action="/api/auth/signin/credential">
			<input name="email" placeholder="email">
			<input name="password" type="password" placeholder="password">
			<input name="redirectTo" type="hidden" value="/me">
			<button>Sign in</button>
		</form>
		<h3>Sign up</h3>
		<form method="post" action="/api/auth/signup">
			<input name="email" placeholder="email">
			<input name="password" type="password" placeholder="password">
			<button>Sign up</button>
		</form>
		<h3>Forgot password</h3>
		<form method="post" action="/api/auth/forgot-password">
			<input name="email" placeholder="email">
			<button>Send reset link</button>
		</form>
		<form method="post" action="/api/auth/signin/google"><button>Sign in with Google</button></form>`)
}

func resetPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `
		<h3>Choose a new password</h3>
		<form method="post" action="/api/auth/reset-password">
			<input name="token" type="hidden" value="%s">
			<input name="password" type="password" placeholder="new password">
			<button>Reset password</button>
		</form>`, html.EscapeString(r.URL.Query().Get("token")))
}

func profilePage(w http.ResponseWriter, r *http.Request) {
	session := authkit.SessionFromRequest(r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<p>%s (provider %s, session expires %s)</p><p><a href=%q>Home</a></p>",
		session.User.Email, session.Provider, session.ExpiresAt.Format(time.RFC3339), "/")
}
