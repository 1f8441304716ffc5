package storage

import (
	"context"
	"fmt"
	"log/slog"

	"organizapay/internal/core"
)

const goalColumns = "id, user_id, title, current_amount_cents, target_amount_cents, deadline, description, created_at"

func scanGoal(s scanner) (core.Goal, error) {
	var (
		g       core.Goal
		created any
	)
	if err := s.Scan(&g.ID, &g.UserID, &g.Title, &g.CurrentAmount.Cents, &g.TargetAmount.Cents, &g.Deadline, &g.Description, &created); err != nil {
		return g, err
	}
	var err error
	g.CreatedAt, err = scanTime(created)
	return g, err
}

// ListGoals implements records.GoalStore
func (r *Repository) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	rows, err := r.query(ctx,
		"SELECT "+goalColumns+" FROM metas WHERE user_id = ? ORDER BY created_at DESC, id DESC",
		userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	out := make([]core.Goal, 0)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return out, nil
}

// InsertGoal implements records.GoalStore
func (r *Repository) InsertGoal(ctx context.Context, g core.Goal) error {
	_, err := r.exec(ctx,
		"INSERT INTO metas ("+goalColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		g.ID, g.UserID, g.Title, g.CurrentAmount.Cents, g.TargetAmount.Cents, g.Deadline, g.Description, r.timeArg(g.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert goal: %w", wrapConflict(err))
	}

	slog.InfoContext(ctx, "Goal saved",
		"id", g.ID,
		"user_id", g.UserID,
		"target_cents", g.TargetAmount.Cents,
		"backend", r.dialect.String())
	return nil
}

// UpdateGoal implements records.GoalStore. The current amount is replaced,
// not incremented.
func (r *Repository) UpdateGoal(ctx context.Context, id, userID string, p core.GoalPatch) error {
	var u updateSet
	if p.Title != nil {
		u.add("title", *p.Title)
	}
	if p.CurrentAmount != nil {
		u.add("current_amount_cents", p.CurrentAmount.Cents)
	}
	if p.TargetAmount != nil {
		u.add("target_amount_cents", p.TargetAmount.Cents)
	}
	if p.Deadline != nil {
		u.add("deadline", *p.Deadline)
	}
	if p.Description != nil {
		u.add("description", *p.Description)
	}
	q, args := u.statement("metas", id, userID)
	res, err := r.exec(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return expectOne(res)
}

// DeleteGoal implements records.GoalStore
func (r *Repository) DeleteGoal(ctx context.Context, id, userID string) error {
	res, err := r.exec(ctx, "DELETE FROM metas WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return expectOne(res)
}
