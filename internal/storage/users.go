package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"organizapay/internal/records"
)

// CreateUser implements records.UserStore. Emails are stored lower-cased.
func (r *Repository) CreateUser(ctx context.Context, u records.UserRecord) error {
	_, err := r.exec(ctx,
		"INSERT INTO users (id, email, display_name, password_hash, created_at) VALUES (?, ?, ?, ?, ?)",
		u.ID, strings.ToLower(u.Email), u.DisplayName, u.PasswordHash, r.timeArg(u.CreatedAt))
	if err != nil {
		return fmt.Errorf("create user: %w", wrapConflict(err))
	}
	return nil
}

// FindUserByEmail implements records.UserStore
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (records.UserRecord, error) {
	var (
		u       records.UserRecord
		created any
	)
	err := r.queryRow(ctx,
		"SELECT id, email, display_name, password_hash, created_at FROM users WHERE email = ?",
		strings.ToLower(email)).
		Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return records.UserRecord{}, records.ErrNotFound
	}
	if err != nil {
		return records.UserRecord{}, fmt.Errorf("find user: %w", err)
	}
	if u.CreatedAt, err = scanTime(created); err != nil {
		return records.UserRecord{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}
