package http

import (
	"net/http"
	"time"

	"organizapay/internal/auth"
	"organizapay/internal/log"
)

type signUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) newSessionCookie(r *http.Request, sess auth.Session) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	sess, err := s.auth.SignUp(r.Context(), req.Email, req.Password, sanitizeInput(req.DisplayName))
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "User signed up", log.FieldUserID, sess.User.ID)
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Cache-Control", "no-store").
		Cookie(s.newSessionCookie(r, sess)).
		Body(sess).
		Write(w)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	sess, err := s.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	NewJSONResponse().
		Header("Cache-Control", "no-store").
		Cookie(s.newSessionCookie(r, sess)).
		Body(sess).
		Write(w)
}

// handleSignOut revokes the token and drops the user's cached records.
// Signing out twice, or without a session, still clears the cookie.
func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	expired := &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	}

	token := SessionToken(r)
	if token != "" {
		if user, err := s.auth.Authenticate(r.Context(), token); err == nil {
			if err := s.auth.SignOut(r.Context(), token); err != nil {
				writeError(w, r, err)
				return
			}
			s.registry.Release(user.ID)
			log.FromContext(r.Context()).InfoContext(r.Context(), "User signed out", log.FieldUserID, user.ID)
		}
	}

	NoContent().Cookie(expired).Write(w)
}
