package authkit

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

// Handler exposes the auth operations over HTTP under RoutePrefix. Browser
// flows (sign-in redirects, OAuth callbacks, emailed links) answer with 302s;
// the session endpoint answers JSON.
//
// Every request's context is augmented with the request/response pair so a
// CookieStorage collaborator can reach the cookie jar. Other Storage
// implementations ignore it.
type Handler struct {
	auth   *Auth
	router *mux.Router
}

// NewHandler builds the HTTP adapter for an orchestrator. Mount it at the
// host mux root; it only claims paths under RoutePrefix.
func NewHandler(auth *Auth) *Handler {
	h := &Handler{auth: auth, router: mux.NewRouter()}

	r := h.router.PathPrefix(RoutePrefix).Subrouter()
	r.HandleFunc("/signin/{provider}", h.signIn).Methods(http.MethodPost)
	r.HandleFunc("/signup", h.signUp).Methods(http.MethodPost)
	r.HandleFunc("/signout", h.signOut).Methods(http.MethodPost)
	r.HandleFunc("/session", h.session).Methods(http.MethodGet)
	r.HandleFunc("/callback/{provider}", h.callback).Methods(http.MethodGet)
	r.HandleFunc("/verify-email", h.verifyEmail).Methods(http.MethodGet)
	r.HandleFunc("/verify-password-reset-token", h.verifyPasswordResetToken).Methods(http.MethodGet)
	r.HandleFunc("/forgot-password", h.forgotPassword).Methods(http.MethodPost)
	r.HandleFunc("/reset-password", h.resetPassword).Methods(http.MethodPost)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r = r.WithContext(WithCookies(r.Context(), w, r))
	h.router.ServeHTTP(w, r)
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	providerID := mux.Vars(r)["provider"]

	result, err := h.auth.SignIn(r.Context(), providerID, SignInOptions{
		Email:      r.PostFormValue("email"),
		Password:   r.PostFormValue("password"),
		RedirectTo: r.PostFormValue("redirectTo"),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	if result.AuthorizationURL != "" {
		http.Redirect(w, r, result.AuthorizationURL, http.StatusFound)
		return
	}
	redirectTo := result.RedirectTo
	if redirectTo == "" {
		redirectTo = "/"
	}
	http.Redirect(w, r, redirectTo, http.StatusFound)
}

func (h *Handler) signUp(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	// Any other submitted fields ride along to the identity store.
	var extra map[string]any
	for name, values := range r.PostForm {
		if name == "email" || name == "password" || len(values) == 0 {
			continue
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[name] = values[0]
	}

	redirect, err := h.auth.SignUp(r.Context(), SignUpData{
		Email:    email,
		Password: password,
		Extra:    extra,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	http.Redirect(w, r, redirect.RedirectTo, http.StatusFound)
}

func (h *Handler) signOut(w http.ResponseWriter, r *http.Request) {
	redirectTo := r.PostFormValue("redirectTo")
	if redirectTo == "" {
		redirectTo = "/"
	}
	redirect, err := h.auth.SignOut(r.Context(), redirectTo)
	if err != nil {
		h.writeError(w, err)
		return
	}
	http.Redirect(w, r, redirect.RedirectTo, http.StatusFound)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	session, err := h.auth.UserSession(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	// A nil session encodes as null: not signed in is a 200, not an error.
	if err := json.NewEncoder(w).Encode(session); err != nil {
		log.Println("writing session response: ", err)
	}
}

func (h *Handler) callback(w http.ResponseWriter, r *http.Request) {
	providerID := mux.Vars(r)["provider"]

	redirect, err := h.auth.HandleOAuthCallback(r.Context(), r, providerID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	http.Redirect(w, r, redirect.RedirectTo, http.StatusFound)
}

func (h *Handler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	redirect, err := h.auth.VerifyEmail(r.Context(), r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	http.Redirect(w, r, redirect.RedirectTo, http.StatusFound)
}

func (h *Handler) verifyPasswordResetToken(w http.ResponseWriter, r *http.Request) {
	redirect, err := h.auth.VerifyPasswordResetToken(r.Context(), r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	http.Redirect(w, r, redirect.RedirectTo, http.StatusFound)
}

func (h *Handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	redirect, err := h.auth.ForgotPassword(r.Context(), r.PostFormValue("email"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	http.Redirect(w, r, redirect.RedirectTo, http.StatusFound)
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	redirect, err := h.auth.ResetPassword(r.Context(), r.PostFormValue("token"), r.PostFormValue("password"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	http.Redirect(w, r, redirect.RedirectTo, http.StatusFound)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	e, ok := AsError(err)
	if !ok {
		log.Println("auth handler error: ", err)
		http.Error(w, `{"error":"internal_error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus(e))
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   e.Code(),
		"message": e.Message,
	})
}

func httpStatus(e *Error) int {
	switch e.Name {
	case "AccountNotFoundError", "InvalidCredentialsError",
		"ExpiredUserSessionError", "InvalidUserSessionError":
		return http.StatusUnauthorized
	case "ProviderNotFoundError":
		return http.StatusNotFound
	case "AccountAlreadyExistsError":
		return http.StatusConflict
	}
	switch e.Kind {
	case KindConfig, KindCallback, KindUnknown:
		return http.StatusInternalServerError
	case KindNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}
