package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// OtherCategory is the bucket for labels outside the palette.
const OtherCategory = "Outros"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string `json:"name"`
	Amount Money  `json:"amount"`
}

// CategorySlice is a palette-mapped bucket ready for the pie chart.
type CategorySlice struct {
	Name   string `json:"name"`
	Color  string `json:"color"`
	Amount Money  `json:"amount"`
}

// Totals are the headline figures of the dashboard cards.
type Totals struct {
	Income   Money `json:"total_income"`
	Expense  Money `json:"total_expense"`
	Balance  Money `json:"balance"`
	Ordinary Money `json:"total_ordinary"`
	Debt     Money `json:"total_debt"`
}

var categoryPalette = map[string]string{
	"Moradia":     "hsl(280 60% 55%)",
	"Alimentação": "hsl(35 95% 55%)",
	"Transporte":  "hsl(210 70% 55%)",
	"Saúde":       "hsl(160 45% 50%)",
	"Lazer":       "hsl(330 70% 55%)",
	OtherCategory: "hsl(200 10% 65%)",
}

// Suggested labels offered by the entry forms.
var (
	IncomeCategories  = []string{"Salário", "Freelance", "Vendas", "Serviços", "Investimentos", OtherCategory}
	ExpenseCategories = []string{"Moradia", "Alimentação", "Transporte", "Saúde", "Lazer", "Educação", OtherCategory}
)

// CategoryColor returns the palette color for a label and whether the label
// is part of the palette. Unknown labels get the OtherCategory color.
func CategoryColor(name string) (string, bool) {
	if c, ok := categoryPalette[name]; ok {
		return c, true
	}
	return categoryPalette[OtherCategory], false
}

func SumIncomes(items []IncomeEntry) Money {
	var total Money
	for _, it := range items {
		total = total.Add(it.Amount)
	}
	return total
}

func SumExpenses(items []ExpenseEntry) Money {
	var total Money
	for _, it := range items {
		total = total.Add(it.Amount)
	}
	return total
}

// ExpensesOfKind returns the subset of expenses with the given kind,
// preserving order.
func ExpensesOfKind(items []ExpenseEntry, kind ExpenseKind) []ExpenseEntry {
	out := make([]ExpenseEntry, 0, len(items))
	for _, it := range items {
		if it.Kind == kind {
			out = append(out, it)
		}
	}
	return out
}

// ComputeTotals derives the dashboard totals. Expenses of both kinds are
// outflows.
func ComputeTotals(incomes []IncomeEntry, expenses []ExpenseEntry) Totals {
	t := Totals{
		Income:   SumIncomes(incomes),
		Expense:  SumExpenses(expenses),
		Ordinary: SumExpenses(ExpensesOfKind(expenses, ExpenseOrdinary)),
		Debt:     SumExpenses(ExpensesOfKind(expenses, ExpenseDebt)),
	}
	t.Balance = t.Income.Sub(t.Expense)
	return t
}

// AggregateByCategory sums expenses per category label, in first-seen order.
// Blank labels are counted under OtherCategory.
func AggregateByCategory(items []ExpenseEntry) []CategoryAmount {
	index := make(map[string]int)
	var out []CategoryAmount
	for _, it := range items {
		name := strings.TrimSpace(it.Category)
		if name == "" {
			name = OtherCategory
		}
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, CategoryAmount{Name: name})
		}
		out[i].Amount = out[i].Amount.Add(it.Amount)
	}
	return out
}

// CategoryBreakdown maps the aggregation through the fixed palette, folding
// every label outside it into the OtherCategory bucket.
func CategoryBreakdown(items []ExpenseEntry) []CategorySlice {
	index := make(map[string]int)
	var out []CategorySlice
	for _, ca := range AggregateByCategory(items) {
		color, known := CategoryColor(ca.Name)
		name := ca.Name
		if !known {
			name = OtherCategory
		}
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, CategorySlice{Name: name, Color: color})
		}
		out[i].Amount = out[i].Amount.Add(ca.Amount)
	}
	return out
}

// ProgressPercent is round(100 * current / target). Goals with a
// non-positive target report 0.
func (g Goal) ProgressPercent() int {
	if g.TargetAmount.Cents <= 0 {
		return 0
	}
	pct := decimal.NewFromInt(g.CurrentAmount.Cents).
		Mul(hundred).
		Div(decimal.NewFromInt(g.TargetAmount.Cents)).
		Round(0)
	return int(pct.IntPart())
}

// Completed reports whether the goal reached its target.
func (g Goal) Completed() bool {
	return g.TargetAmount.Cents > 0 && g.CurrentAmount.Cents >= g.TargetAmount.Cents
}
