package storage

import (
	"context"
	"fmt"
	"log/slog"

	"organizapay/internal/core"
)

const incomeColumns = "id, user_id, description, amount_cents, date, category, created_at"

func scanIncome(s scanner) (core.IncomeEntry, error) {
	var (
		e             core.IncomeEntry
		date, created any
	)
	if err := s.Scan(&e.ID, &e.UserID, &e.Description, &e.Amount.Cents, &date, &e.Category, &created); err != nil {
		return e, err
	}
	var err error
	if e.Date, err = scanDate(date); err != nil {
		return e, err
	}
	e.CreatedAt, err = scanTime(created)
	return e, err
}

// ListIncomes implements records.IncomeStore
func (r *Repository) ListIncomes(ctx context.Context, userID string) ([]core.IncomeEntry, error) {
	rows, err := r.query(ctx,
		"SELECT "+incomeColumns+" FROM receitas WHERE user_id = ? ORDER BY date DESC, created_at DESC",
		userID)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	defer rows.Close()

	out := make([]core.IncomeEntry, 0)
	for rows.Next() {
		e, err := scanIncome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incomes: %w", err)
	}
	return out, nil
}

// InsertIncome implements records.IncomeStore
func (r *Repository) InsertIncome(ctx context.Context, e core.IncomeEntry) error {
	_, err := r.exec(ctx,
		"INSERT INTO receitas ("+incomeColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		e.ID, e.UserID, e.Description, e.Amount.Cents, e.Date.String(), e.Category, r.timeArg(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert income: %w", wrapConflict(err))
	}

	slog.InfoContext(ctx, "Income saved",
		"id", e.ID,
		"user_id", e.UserID,
		"amount_cents", e.Amount.Cents,
		"backend", r.dialect.String())
	return nil
}

// UpdateIncome implements records.IncomeStore
func (r *Repository) UpdateIncome(ctx context.Context, id, userID string, p core.IncomePatch) error {
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
	q, args := u.statement("receitas", id, userID)
	res, err := r.exec(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update income: %w", err)
	}
	return expectOne(res)
}

// DeleteIncome implements records.IncomeStore
func (r *Repository) DeleteIncome(ctx context.Context, id, userID string) error {
	res, err := r.exec(ctx, "DELETE FROM receitas WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	return expectOne(res)
}
