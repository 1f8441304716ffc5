package http

import (
	"context"
	"html/template"
	"net/http"

	"organizapay/internal/core"
	"organizapay/internal/finance"
	"organizapay/internal/log"
	"organizapay/internal/middleware/security"
)

// sessionHandler is a handler that runs for a signed-in user.
type sessionHandler func(w http.ResponseWriter, r *http.Request, user core.User, ctrl *finance.Controller)

// authenticate resolves the request's session token to a user and that
// user's controller.
func (s *Server) authenticate(r *http.Request) (core.User, *finance.Controller, error) {
	token := SessionToken(r)
	if token == "" {
		return core.User{}, nil, &finance.Error{Op: "authenticate", Kind: finance.KindUnauthorized, Err: finance.ErrNotAuthenticated}
	}
	user, err := s.auth.Authenticate(r.Context(), token)
	if err != nil {
		return core.User{}, nil, err
	}
	ctrl, err := s.registry.Get(r.Context(), user)
	if err != nil {
		return core.User{}, nil, err
	}
	return user, ctrl, nil
}

// withSession rejects requests without a valid session with 401.
func (s *Server) withSession(h sessionHandler) http.Handler {
	return security.NoStore(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ctrl, err := s.authenticate(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		logger := log.FromContext(r.Context()).With(log.FieldUserID, user.ID)
		r = r.WithContext(log.NewContext(r.Context(), logger))
		h(w, r, user, ctrl)
	}))
}

// detached keeps request values but not the request's cancellation, so a
// write the client gave up on still refreshes the cache.
func detached(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

var templateFuncs = template.FuncMap{
	"brl": func(m core.Money) string { return m.String() },
	"categoryColor": func(name string) string {
		if c, ok := core.CategoryColor(name); ok {
			return c
		}
		return "#9ca3af"
	},
	"expenseKind": func(k core.ExpenseKind) string {
		if k == core.ExpenseDebt {
			return "Dívida"
		}
		return "Gasto"
	},
}
