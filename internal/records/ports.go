// Package records defines the per-user record store the finance controller
// reads from and writes to. Every operation is scoped by the owner id.
package records

import (
	"context"
	"errors"
	"time"

	"organizapay/internal/core"
)

var (
	// ErrNotFound is returned when no row matches both the id and the owner.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique key is already taken.
	ErrConflict = errors.New("record already exists")
)

// Ports for outbound adapters.
type (
	IncomeStore interface {
		// ListIncomes returns the user's income, newest date first.
		ListIncomes(ctx context.Context, userID string) ([]core.IncomeEntry, error)
		InsertIncome(ctx context.Context, e core.IncomeEntry) error
		UpdateIncome(ctx context.Context, id, userID string, p core.IncomePatch) error
		DeleteIncome(ctx context.Context, id, userID string) error
	}

	ExpenseStore interface {
		// ListExpenses returns the user's expenses, newest date first.
		ListExpenses(ctx context.Context, userID string) ([]core.ExpenseEntry, error)
		InsertExpense(ctx context.Context, e core.ExpenseEntry) error
		UpdateExpense(ctx context.Context, id, userID string, p core.ExpensePatch) error
		DeleteExpense(ctx context.Context, id, userID string) error
	}

	GoalStore interface {
		// ListGoals returns the user's goals, most recently created first.
		ListGoals(ctx context.Context, userID string) ([]core.Goal, error)
		InsertGoal(ctx context.Context, g core.Goal) error
		UpdateGoal(ctx context.Context, id, userID string, p core.GoalPatch) error
		DeleteGoal(ctx context.Context, id, userID string) error
	}

	// ProfileStore holds the two singleton records of a user. Get returns
	// ErrNotFound when the row was never written.
	ProfileStore interface {
		GetProfile(ctx context.Context, userID string) (core.Profile, error)
		UpsertProfile(ctx context.Context, p core.Profile) error
		GetSubscription(ctx context.Context, userID string) (core.Subscription, error)
		UpsertSubscription(ctx context.Context, s core.Subscription) error
	}

	Store interface {
		IncomeStore
		ExpenseStore
		GoalStore
		ProfileStore
		// ListUserIDs returns every user that owns a profile.
		ListUserIDs(ctx context.Context) ([]string, error)
	}

	// UserRecord is the credential row behind a core.User.
	UserRecord struct {
		core.User
		PasswordHash []byte
		CreatedAt    time.Time
	}

	UserStore interface {
		// CreateUser returns ErrConflict when the email is taken.
		CreateUser(ctx context.Context, u UserRecord) error
		// FindUserByEmail returns ErrNotFound for unknown emails.
		FindUserByEmail(ctx context.Context, email string) (UserRecord, error)
	}
)
