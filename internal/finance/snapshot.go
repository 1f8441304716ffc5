package finance

import (
	"time"

	"organizapay/internal/core"
)

// GoalView is a goal with its derived progress.
type GoalView struct {
	core.Goal
	Progress  int  `json:"progress"`
	Completed bool `json:"completed"`
}

// Snapshot is an immutable copy of a controller's cache together with every
// value derived from it. Views render from a Snapshot and never from the
// controller directly.
type Snapshot struct {
	User     *core.User `json:"user"`
	Loading  bool       `json:"loading"`
	LoadedAt time.Time  `json:"loaded_at"`

	Incomes      []core.IncomeEntry  `json:"incomes"`
	Expenses     []core.ExpenseEntry `json:"expenses"`
	Goals        []GoalView          `json:"goals"`
	Profile      core.Profile        `json:"profile"`
	Subscription core.Subscription   `json:"subscription"`

	Totals           core.Totals          `json:"totals"`
	OrdinaryExpenses []core.ExpenseEntry  `json:"ordinary_expenses"`
	DebtExpenses     []core.ExpenseEntry  `json:"debt_expenses"`
	Categories       []core.CategorySlice `json:"categories"`
	Permissions      core.Permissions     `json:"permissions"`
	Empty            bool                 `json:"empty"`
}

func (st *state) snapshot() Snapshot {
	s := Snapshot{
		Loading:  st.loading,
		LoadedAt: st.loadedAt,
		Incomes:  append(make([]core.IncomeEntry, 0, len(st.incomes)), st.incomes...),
		Expenses: append(make([]core.ExpenseEntry, 0, len(st.expenses)), st.expenses...),
	}
	if st.user != nil {
		u := *st.user
		s.User = &u
		s.Profile = core.DefaultProfile(u)
		s.Subscription = core.Subscription{UserID: u.ID, Plan: core.PlanFree}
	}
	if st.profile != nil {
		s.Profile = *st.profile
	}
	if st.subscription != nil {
		s.Subscription = *st.subscription
	}
	s.Subscription.Plan = s.Subscription.EffectivePlan()

	s.Goals = make([]GoalView, len(st.goals))
	for i, g := range st.goals {
		s.Goals[i] = GoalView{Goal: g, Progress: g.ProgressPercent(), Completed: g.Completed()}
	}

	s.Totals = core.ComputeTotals(s.Incomes, s.Expenses)
	s.OrdinaryExpenses = core.ExpensesOfKind(s.Expenses, core.ExpenseOrdinary)
	s.DebtExpenses = core.ExpensesOfKind(s.Expenses, core.ExpenseDebt)
	s.Categories = core.CategoryBreakdown(s.OrdinaryExpenses)
	s.Permissions = st.permissions()
	s.Empty = len(s.Incomes) == 0 && len(s.Expenses) == 0 && len(s.Goals) == 0
	return s
}

// GoalEntries returns the goals without their derived fields.
func (s Snapshot) GoalEntries() []core.Goal {
	out := make([]core.Goal, len(s.Goals))
	for i, g := range s.Goals {
		out[i] = g.Goal
	}
	return out
}
