package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"organizapay/internal/core"
	"organizapay/internal/finance"
	"organizapay/internal/log"
	"organizapay/internal/report"
)

type dailyReportResponse struct {
	core.DailySummary
	Text string `json:"text"`
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request, _ core.User, ctrl *finance.Controller) {
	n := ParseIntParam(r.URL.Query(), "months", defaultReportMonths, maxReportMonths)
	snap := ctrl.Snapshot()
	writeJSON(w, http.StatusOK, core.MonthlySeries(snap.Incomes, snap.Expenses, s.now(), n))
}

func (s *Server) handleDailyReport(w http.ResponseWriter, r *http.Request, _ core.User, ctrl *finance.Controller) {
	day, err := ParseDayParam(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	snap := ctrl.Snapshot()
	summary := core.NewDailySummary(day, snap.Incomes, snap.Expenses, snap.GoalEntries())
	writeJSON(w, http.StatusOK, dailyReportResponse{DailySummary: summary, Text: summary.Text()})
}

func (s *Server) handleRecentReport(w http.ResponseWriter, r *http.Request, _ core.User, ctrl *finance.Controller) {
	limit := ParseIntParam(r.URL.Query(), "limit", defaultRecentLimit, maxRecentLimit)
	snap := ctrl.Snapshot()
	writeJSON(w, http.StatusOK, core.RecentTransactions(snap.Incomes, snap.Expenses, limit))
}

// handleExport streams the user's records as an Excel workbook. Premium only.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, user core.User, ctrl *finance.Controller) {
	snap := ctrl.Snapshot()
	if snap.Subscription.Plan != core.PlanPremium {
		writeError(w, r, &finance.Error{Op: "export", Kind: finance.KindPlanLimit, Err: finance.ErrPremiumRequired})
		return
	}

	owner := snap.Profile.DisplayName
	if owner == "" {
		owner = user.ID
	}
	now := s.now()
	data := report.Data{
		Owner:       owner,
		Plan:        snap.Subscription.Plan,
		GeneratedAt: now,
		Incomes:     snap.Incomes,
		Expenses:    snap.Expenses,
		Goals:       snap.GoalEntries(),
	}

	// Buffer so a failed render can still answer with a JSON error.
	var buf bytes.Buffer
	if err := report.WriteWorkbook(&buf, data); err != nil {
		writeError(w, r, fmt.Errorf("write workbook: %w", err))
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Export generated",
		"bytes", buf.Len(),
		"incomes", len(data.Incomes),
		"expenses", len(data.Expenses))

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="organizapay-%s.xlsx"`, now.Format("2006-01-02")))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
