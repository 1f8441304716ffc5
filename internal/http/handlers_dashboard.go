package http

import (
	"bytes"
	"net/http"

	"organizapay/internal/core"
	"organizapay/internal/finance"
	"organizapay/internal/log"
)

// dashboardPage is the data the dashboard template renders.
type dashboardPage struct {
	SignedIn bool
	Snapshot finance.Snapshot
	Monthly  []core.MonthTotals
	Recent   []core.Transaction
	Owner    string
	Premium  bool
}

// handleDashboardPage renders the server-side dashboard. Without a session
// it renders the sign-in prompt with 401.
func (s *Server) handleDashboardPage(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		http.Error(w, "templates not available", http.StatusInternalServerError)
		return
	}

	page := dashboardPage{}
	status := http.StatusOK

	user, ctrl, err := s.authenticate(r)
	switch {
	case err == nil:
		snap := ctrl.Snapshot()
		page = dashboardPage{
			SignedIn: true,
			Snapshot: snap,
			Monthly:  core.MonthlySeries(snap.Incomes, snap.Expenses, s.now(), defaultReportMonths),
			Recent:   core.RecentTransactions(snap.Incomes, snap.Expenses, defaultRecentLimit),
			Owner:    snap.Profile.DisplayName,
			Premium:  snap.Permissions.Plan == core.PlanPremium,
		}
		if page.Owner == "" {
			page.Owner = user.DisplayName
		}
	case finance.KindOf(err) == finance.KindTransport:
		writeError(w, r, err)
		return
	default:
		status = http.StatusUnauthorized
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "dashboard.html", page); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template render failed", log.FieldError, err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
