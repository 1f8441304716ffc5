package core

import (
	"errors"
	"testing"
)

func TestEvaluatePlan(t *testing.T) {
	cases := []struct {
		name   string
		plan   Plan
		counts Counts
		want   Permissions
	}{
		{
			name: "free under caps",
			plan: PlanFree,
			want: Permissions{Plan: PlanFree, CanAddIncome: true, CanAddExpense: true, CanAddGoal: true},
		},
		{
			name:   "free at caps",
			plan:   PlanFree,
			counts: Counts{Incomes: 10, Expenses: 15, Goals: 3},
			want:   Permissions{Plan: PlanFree},
		},
		{
			name:   "free one below caps",
			plan:   PlanFree,
			counts: Counts{Incomes: 9, Expenses: 14, Goals: 2},
			want:   Permissions{Plan: PlanFree, CanAddIncome: true, CanAddExpense: true, CanAddGoal: true},
		},
		{
			name:   "premium ignores caps",
			plan:   PlanPremium,
			counts: Counts{Incomes: 500, Expenses: 500, Goals: 500},
			want:   Permissions{Plan: PlanPremium, CanAddIncome: true, CanAddExpense: true, CanAddGoal: true, CanUseSharedAccount: true},
		},
		{
			name: "unknown plan treated as free",
			plan: "gold",
			want: Permissions{Plan: PlanFree, CanAddIncome: true, CanAddExpense: true, CanAddGoal: true},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EvaluatePlan(tc.plan, tc.counts); got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestPermissionsCheck(t *testing.T) {
	p := EvaluatePlan(PlanFree, Counts{Incomes: 10})
	err := p.Check(ResourceIncome)
	if !errors.Is(err, ErrPlanLimit) {
		t.Fatalf("expected ErrPlanLimit, got %v", err)
	}
	var limit *PlanLimitError
	if !errors.As(err, &limit) || limit.Limit != FreeIncomeLimit {
		t.Fatalf("expected PlanLimitError with limit %d, got %v", FreeIncomeLimit, err)
	}
	if limit.Message() == "" {
		t.Fatalf("expected user-facing message")
	}
	if err := p.Check(ResourceExpense); err != nil {
		t.Fatalf("expense should be allowed, got %v", err)
	}
	if err := p.Check(ResourceSharedAccount); !errors.Is(err, ErrPlanLimit) {
		t.Fatalf("shared account should need premium, got %v", err)
	}
	if err := p.Check("nope"); err == nil || errors.Is(err, ErrPlanLimit) {
		t.Fatalf("expected plain error for unknown resource, got %v", err)
	}
}

func TestEffectivePlan(t *testing.T) {
	if (Subscription{}).EffectivePlan() != PlanFree {
		t.Fatalf("missing subscription should be free")
	}
	if (Subscription{Plan: PlanPremium}).EffectivePlan() != PlanPremium {
		t.Fatalf("premium should stay premium")
	}
}
