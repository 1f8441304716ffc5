package memory

import (
	"context"
	"testing"

	"organizapay/internal/core"
	"organizapay/internal/report"
	"organizapay/internal/sheets"
)

var _ sheets.Mirror = (*Store)(nil)

func TestMirrorUserReplacesRows(t *testing.T) {
	s := New()
	ctx := context.Background()

	first := report.Data{Owner: "Ana", Incomes: []core.IncomeEntry{
		{Description: "Salário", Amount: core.Money{Cents: 100}, Date: core.NewDate(2025, 1, 1)},
	}}
	if err := s.MirrorUser(ctx, "u1", first); err != nil {
		t.Fatalf("MirrorUser: %v", err)
	}
	if err := s.MirrorUser(ctx, "u1", report.Data{Owner: "Ana"}); err != nil {
		t.Fatalf("MirrorUser: %v", err)
	}

	rows, ok := s.Rows("u1")
	if !ok {
		t.Fatal("no rows for u1")
	}
	if len(rows) != len(report.SheetRows(report.Data{Owner: "Ana"})) {
		t.Errorf("rows = %d, want the second snapshot only", len(rows))
	}
	if _, ok := s.Rows("u2"); ok {
		t.Error("unexpected rows for u2")
	}
}

func TestUsersSorted(t *testing.T) {
	s := New()
	for _, id := range []string{"c", "a", "b"} {
		_ = s.MirrorUser(context.Background(), id, report.Data{})
	}
	got := s.Users()
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Errorf("Users() = %v", got)
	}
}
