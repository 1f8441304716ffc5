package core

import (
	"errors"
	"fmt"
)

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
)

// Free tier caps.
const (
	FreeIncomeLimit  = 10
	FreeExpenseLimit = 15
	FreeGoalLimit    = 3
)

const (
	ResourceIncome        Resource = "income"
	ResourceExpense       Resource = "expense"
	ResourceGoal          Resource = "goal"
	ResourceSharedAccount Resource = "shared_account"
)

type (
	Plan     string
	Resource string

	// Counts are the current collection sizes the policy is evaluated against.
	Counts struct {
		Incomes  int
		Expenses int
		Goals    int
	}

	Permissions struct {
		Plan                Plan `json:"plan"`
		CanAddIncome        bool `json:"can_add_income"`
		CanAddExpense       bool `json:"can_add_expense"`
		CanAddGoal          bool `json:"can_add_goal"`
		CanUseSharedAccount bool `json:"can_use_shared_account"`
	}

	// PlanLimitError reports an action the current plan does not allow.
	PlanLimitError struct {
		Resource Resource
		Limit    int
	}
)

// ErrPlanLimit matches every *PlanLimitError through errors.Is.
var ErrPlanLimit = errors.New("plan limit exceeded")

func (p Plan) Valid() bool {
	return p == PlanFree || p == PlanPremium
}

// EffectivePlan maps an unknown or empty plan to free.
func (s Subscription) EffectivePlan() Plan {
	if s.Plan == PlanPremium {
		return PlanPremium
	}
	return PlanFree
}

// EvaluatePlan maps a plan tier and the current collection sizes to the
// actions the user may take next.
func EvaluatePlan(plan Plan, counts Counts) Permissions {
	premium := plan == PlanPremium
	if !premium {
		plan = PlanFree
	}
	return Permissions{
		Plan:                plan,
		CanAddIncome:        premium || counts.Incomes < FreeIncomeLimit,
		CanAddExpense:       premium || counts.Expenses < FreeExpenseLimit,
		CanAddGoal:          premium || counts.Goals < FreeGoalLimit,
		CanUseSharedAccount: premium,
	}
}

// Check returns a *PlanLimitError when the resource is not allowed.
func (p Permissions) Check(r Resource) error {
	switch r {
	case ResourceIncome:
		if !p.CanAddIncome {
			return &PlanLimitError{Resource: r, Limit: FreeIncomeLimit}
		}
	case ResourceExpense:
		if !p.CanAddExpense {
			return &PlanLimitError{Resource: r, Limit: FreeExpenseLimit}
		}
	case ResourceGoal:
		if !p.CanAddGoal {
			return &PlanLimitError{Resource: r, Limit: FreeGoalLimit}
		}
	case ResourceSharedAccount:
		if !p.CanUseSharedAccount {
			return &PlanLimitError{Resource: r}
		}
	default:
		return fmt.Errorf("unknown resource %q", r)
	}
	return nil
}

func (e *PlanLimitError) Error() string {
	if e.Resource == ResourceSharedAccount {
		return "shared account requires the premium plan"
	}
	return fmt.Sprintf("free plan limit reached: %d %s records", e.Limit, e.Resource)
}

func (e *PlanLimitError) Is(target error) bool {
	return target == ErrPlanLimit
}

// Message is the user-facing text shown when the limit blocks an add.
func (e *PlanLimitError) Message() string {
	switch e.Resource {
	case ResourceIncome:
		return fmt.Sprintf("Limite de %d receitas do plano gratuito atingido. Faça upgrade para o Premium.", e.Limit)
	case ResourceExpense:
		return fmt.Sprintf("Limite de %d despesas do plano gratuito atingido. Faça upgrade para o Premium.", e.Limit)
	case ResourceGoal:
		return fmt.Sprintf("Limite de %d metas do plano gratuito atingido. Faça upgrade para o Premium.", e.Limit)
	default:
		return "Conta compartilhada (casal) disponível apenas no plano Premium."
	}
}
