// Package memory is an in-process sheets.Mirror for development and tests.
package memory

import (
	"context"
	"slices"
	"sync"

	"organizapay/internal/report"
)

type Store struct {
	mu   sync.Mutex
	tabs map[string][][]any
}

func New() *Store {
	return &Store{tabs: make(map[string][][]any)}
}

// MirrorUser stores the rows the spreadsheet mirror would write.
func (s *Store) MirrorUser(_ context.Context, userID string, d report.Data) error {
	rows := report.SheetRows(d)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tabs[userID] = rows
	return nil
}

// Rows returns the last rows mirrored for the user.
func (s *Store) Rows(userID string) ([][]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tabs[userID]
	return rows, ok
}

// Users lists the mirrored users in sorted order.
func (s *Store) Users() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.tabs))
	for id := range s.tabs {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
