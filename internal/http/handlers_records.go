package http

import (
	"net/http"

	"organizapay/internal/core"
	"organizapay/internal/finance"
)

type incomeRequest struct {
	Description string     `json:"description"`
	Amount      core.Money `json:"amount"`
	Date        core.Date  `json:"date"`
	Category    string     `json:"category"`
}

type expenseRequest struct {
	Description string           `json:"description"`
	Amount      core.Money       `json:"amount"`
	Date        core.Date        `json:"date"`
	Category    string           `json:"category"`
	Kind        core.ExpenseKind `json:"type"`
	Details     string           `json:"details"`
}

type goalRequest struct {
	Title         string     `json:"title"`
	CurrentAmount core.Money `json:"current_amount"`
	TargetAmount  core.Money `json:"target_amount"`
	Deadline      string     `json:"deadline"`
	Description   string     `json:"description"`
}

func (s *Server) handleDashboardJSON(w http.ResponseWriter, r *http.Request, _ core.User, ctrl *finance.Controller) {
	if r.URL.Query().Get("refresh") == "1" {
		if err := ctrl.LoadAll(r.Context()); err != nil {
			writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, ctrl.Snapshot())
}

// Incomes

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request, _ core.User, ctrl *finance.Controller) {
	var req incomeRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := ctrl.AddIncome(detached(r.Context()), core.IncomeEntry{
		Description: sanitizeInput(req.Description),
		Amount:      req.Amount,
		Date:        req.Date,
		Category:    sanitizeInput(req.Category),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request, _ core.User, ctrl *finance.Controller) {
	var p core.IncomePatch
	if err := DecodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	sanitizePtr(p.Description)
	sanitizePtr(p.Category)
	if err := ctrl.UpdateIncome(detached(r.Context()), r.PathValue("id"), p); err != nil {
		writeError(w, r, err)
		return
	}
	NoContent().Write(w)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request, _ core.User, ctrl *finance.Controller) {
	if err := ctrl.DeleteIncome(detached(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	NoContent().Write(w)
}

// Expenses

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request, _ core.User, ctrl *finance.Controller) {
	var req expenseRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := ctrl.AddExpense(detached(r.Context()), core.ExpenseEntry{
		Description: sanitizeInput(req.Description),
		Amount:      req.Amount,
		Date:        req.Date,
		Category:    sanitizeInput(req.Category),
		Kind:        req.Kind,
		Details:     sanitizeInput(req.Details),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request, _ core.User, ctrl *finance.Controller) {
	var p core.ExpensePatch
	if err := DecodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	sanitizePtr(p.Description)
	sanitizePtr(p.Category)
	sanitizePtr(p.Details)
	if err := ctrl.UpdateExpense(detached(r.Context()), r.PathValue("id"), p); err != nil {
		writeError(w, r, err)
		return
	}
	NoContent().Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request, _ core.User, ctrl *finance.Controller) {
	if err := ctrl.DeleteExpense(detached(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	NoContent().Write(w)
}

// Goals

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request, _ core.User, ctrl *finance.Controller) {
	var req goalRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	goal, err := ctrl.AddGoal(detached(r.Context()), core.Goal{
		Title:         sanitizeInput(req.Title),
		CurrentAmount: req.CurrentAmount,
		TargetAmount:  req.TargetAmount,
		Deadline:      sanitizeInput(req.Deadline),
		Description:   sanitizeInput(req.Description),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, goal)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request, _ core.User, ctrl *finance.Controller) {
	var p core.GoalPatch
	if err := DecodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	sanitizePtr(p.Title)
	sanitizePtr(p.Deadline)
	sanitizePtr(p.Description)
	if err := ctrl.UpdateGoal(detached(r.Context()), r.PathValue("id"), p); err != nil {
		writeError(w, r, err)
		return
	}
	NoContent().Write(w)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request, _ core.User, ctrl *finance.Controller) {
	if err := ctrl.DeleteGoal(detached(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	NoContent().Write(w)
}

// Profile and plan

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request, _ core.User, ctrl *finance.Controller) {
	var p core.ProfilePatch
	if err := DecodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	sanitizePtr(p.DisplayName)
	profile, err := ctrl.UpdateProfile(detached(r.Context()), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
