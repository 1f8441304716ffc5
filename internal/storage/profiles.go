package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"organizapay/internal/core"
	"organizapay/internal/records"
)

// GetProfile implements records.ProfileStore
func (r *Repository) GetProfile(ctx context.Context, userID string) (core.Profile, error) {
	p := core.Profile{UserID: userID}
	var kind string
	err := r.queryRow(ctx,
		"SELECT display_name, profile_type FROM profiles WHERE user_id = ?", userID).
		Scan(&p.DisplayName, &kind)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Profile{}, records.ErrNotFound
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	p.ProfileType = core.ProfileType(kind)
	return p, nil
}

// UpsertProfile implements records.ProfileStore
func (r *Repository) UpsertProfile(ctx context.Context, p core.Profile) error {
	_, err := r.exec(ctx, `INSERT INTO profiles (user_id, display_name, profile_type, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET
    display_name = excluded.display_name,
    profile_type = excluded.profile_type,
    updated_at = excluded.updated_at`,
		p.UserID, p.DisplayName, string(p.ProfileType), r.timeArg(time.Now()))
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// GetSubscription implements records.ProfileStore
func (r *Repository) GetSubscription(ctx context.Context, userID string) (core.Subscription, error) {
	var plan string
	err := r.queryRow(ctx, "SELECT plan FROM subscriptions WHERE user_id = ?", userID).Scan(&plan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Subscription{}, records.ErrNotFound
	}
	if err != nil {
		return core.Subscription{}, fmt.Errorf("get subscription: %w", err)
	}
	return core.Subscription{UserID: userID, Plan: core.Plan(plan)}, nil
}

// UpsertSubscription implements records.ProfileStore
func (r *Repository) UpsertSubscription(ctx context.Context, s core.Subscription) error {
	_, err := r.exec(ctx, `INSERT INTO subscriptions (user_id, plan, updated_at)
VALUES (?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET
    plan = excluded.plan,
    updated_at = excluded.updated_at`,
		s.UserID, string(s.Plan), r.timeArg(time.Now()))
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

// ListUserIDs implements records.Store
func (r *Repository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.query(ctx, "SELECT user_id FROM profiles ORDER BY user_id")
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
