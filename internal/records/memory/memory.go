// Package memory is an in-process record store used by the memory backend
// and by tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"organizapay/internal/core"
	"organizapay/internal/records"
)

type Store struct {
	mu       sync.Mutex
	incomes  map[string]core.IncomeEntry
	expenses map[string]core.ExpenseEntry
	goals    map[string]core.Goal
	profiles map[string]core.Profile
	subs     map[string]core.Subscription
	users    map[string]records.UserRecord // keyed by lower-cased email
}

var (
	_ records.Store     = (*Store)(nil)
	_ records.UserStore = (*Store)(nil)
)

func New() *Store {
	return &Store{
		incomes:  make(map[string]core.IncomeEntry),
		expenses: make(map[string]core.ExpenseEntry),
		goals:    make(map[string]core.Goal),
		profiles: make(map[string]core.Profile),
		subs:     make(map[string]core.Subscription),
		users:    make(map[string]records.UserRecord),
	}
}

func (s *Store) ListIncomes(_ context.Context, userID string) ([]core.IncomeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.IncomeEntry, 0)
	for _, e := range s.incomes {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newerDated(out[i].Date, out[j].Date, out[i].CreatedAt.UnixNano(), out[j].CreatedAt.UnixNano())
	})
	return out, nil
}

func (s *Store) InsertIncome(_ context.Context, e core.IncomeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.incomes[e.ID]; ok {
		return records.ErrConflict
	}
	s.incomes[e.ID] = e
	return nil
}

func (s *Store) UpdateIncome(_ context.Context, id, userID string, p core.IncomePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.incomes[id]
	if !ok || e.UserID != userID {
		return records.ErrNotFound
	}
	s.incomes[id] = p.Apply(e)
	return nil
}

func (s *Store) DeleteIncome(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.incomes[id]
	if !ok || e.UserID != userID {
		return records.ErrNotFound
	}
	delete(s.incomes, id)
	return nil
}

func (s *Store) ListExpenses(_ context.Context, userID string) ([]core.ExpenseEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.ExpenseEntry, 0)
	for _, e := range s.expenses {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newerDated(out[i].Date, out[j].Date, out[i].CreatedAt.UnixNano(), out[j].CreatedAt.UnixNano())
	})
	return out, nil
}

func (s *Store) InsertExpense(_ context.Context, e core.ExpenseEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[e.ID]; ok {
		return records.ErrConflict
	}
	s.expenses[e.ID] = e
	return nil
}

func (s *Store) UpdateExpense(_ context.Context, id, userID string, p core.ExpensePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok || e.UserID != userID {
		return records.ErrNotFound
	}
	s.expenses[id] = p.Apply(e)
	return nil
}

func (s *Store) DeleteExpense(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok || e.UserID != userID {
		return records.ErrNotFound
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) ListGoals(_ context.Context, userID string) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Goal, 0)
	for _, g := range s.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) InsertGoal(_ context.Context, g core.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.goals[g.ID]; ok {
		return records.ErrConflict
	}
	s.goals[g.ID] = g
	return nil
}

func (s *Store) UpdateGoal(_ context.Context, id, userID string, p core.GoalPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok || g.UserID != userID {
		return records.ErrNotFound
	}
	s.goals[id] = p.Apply(g)
	return nil
}

func (s *Store) DeleteGoal(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok || g.UserID != userID {
		return records.ErrNotFound
	}
	delete(s.goals, id)
	return nil
}

func (s *Store) GetProfile(_ context.Context, userID string) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return core.Profile{}, records.ErrNotFound
	}
	return p, nil
}

func (s *Store) UpsertProfile(_ context.Context, p core.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.UserID] = p
	return nil
}

func (s *Store) GetSubscription(_ context.Context, userID string) (core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[userID]
	if !ok {
		return core.Subscription{}, records.ErrNotFound
	}
	return sub, nil
}

func (s *Store) UpsertSubscription(_ context.Context, sub core.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.UserID] = sub
	return nil
}

func (s *Store) ListUserIDs(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.profiles))
	for id := range s.profiles {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) CreateUser(_ context.Context, u records.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, ok := s.users[key]; ok {
		return records.ErrConflict
	}
	s.users[key] = u
	return nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (records.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.ToLower(email)]
	if !ok {
		return records.UserRecord{}, records.ErrNotFound
	}
	return u, nil
}

// newerDated orders by date descending, then by creation time descending.
func newerDated(a, b core.Date, aCreated, bCreated int64) bool {
	if !a.Equal(b.Time) {
		return a.After(b.Time)
	}
	return aCreated > bCreated
}
