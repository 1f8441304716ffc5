package storage

import (
	"context"
	"fmt"
	"log/slog"

	"organizapay/internal/core"
)

const expenseColumns = "id, user_id, description, amount_cents, date, category, type, details, created_at"

func scanExpense(s scanner) (core.ExpenseEntry, error) {
	var (
		e             core.ExpenseEntry
		kind          string
		date, created any
	)
	if err := s.Scan(&e.ID, &e.UserID, &e.Description, &e.Amount.Cents, &date, &e.Category, &kind, &e.Details, &created); err != nil {
		return e, err
	}
	e.Kind = core.ExpenseKind(kind)
	var err error
	if e.Date, err = scanDate(date); err != nil {
		return e, err
	}
	e.CreatedAt, err = scanTime(created)
	return e, err
}

// ListExpenses implements records.ExpenseStore
func (r *Repository) ListExpenses(ctx context.Context, userID string) ([]core.ExpenseEntry, error) {
	rows, err := r.query(ctx,
		"SELECT "+expenseColumns+" FROM despesas WHERE user_id = ? ORDER BY date DESC, created_at DESC",
		userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	out := make([]core.ExpenseEntry, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

// InsertExpense implements records.ExpenseStore
func (r *Repository) InsertExpense(ctx context.Context, e core.ExpenseEntry) error {
	_, err := r.exec(ctx,
		"INSERT INTO despesas ("+expenseColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		e.ID, e.UserID, e.Description, e.Amount.Cents, e.Date.String(), e.Category, string(e.Kind), e.Details, r.timeArg(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert expense: %w", wrapConflict(err))
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", e.ID,
		"user_id", e.UserID,
		"amount_cents", e.Amount.Cents,
		"type", e.Kind,
		"backend", r.dialect.String())
	return nil
}

// UpdateExpense implements records.ExpenseStore
func (r *Repository) UpdateExpense(ctx context.Context, id, userID string, p core.ExpensePatch) error {
	var u updateSet
	if p.Description != nil {
		u.add("description", *p.Description)
	}
	if p.Amount != nil {
		u.add("amount_cents", p.Amount.Cents)
	}
	if p.Date != nil {
		u.add("date", p.Date.String())
	}
	if p.Category != nil {
		u.add("category", *p.Category)
	}
	if p.Kind != nil {
		u.add("type", string(*p.Kind))
	}
	if p.Details != nil {
		u.add("details", *p.Details)
	}
	q, args := u.statement("despesas", id, userID)
	res, err := r.exec(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return expectOne(res)
}

// DeleteExpense implements records.ExpenseStore
func (r *Repository) DeleteExpense(ctx context.Context, id, userID string) error {
	res, err := r.exec(ctx, "DELETE FROM despesas WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return expectOne(res)
}
