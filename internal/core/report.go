package core

import (
	"sort"
	"time"
)

var monthLabels = [...]string{"Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez"}

// MonthTotals is one bar pair of the income vs. expense chart.
type MonthTotals struct {
	Year    int    `json:"year"`
	Month   int    `json:"month"`
	Label   string `json:"label"`
	Income  Money  `json:"income"`
	Expense Money  `json:"expense"`
}

// Transaction is a row of the merged recent-activity feed.
type Transaction struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Date        Date   `json:"date"`
	Amount      Money  `json:"amount"`
	Income      bool   `json:"income"`
}

// DailySummary is the end-of-day recap shown to the user.
type DailySummary struct {
	Date        Date  `json:"date"`
	Balance     Money `json:"balance"`
	Income      Money `json:"total_income"`
	Expense     Money `json:"total_expense"`
	ActiveGoals int   `json:"active_goals"`
}

// MonthLabel returns the short pt-BR month name.
func MonthLabel(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthLabels[m-1]
}

// MonthlySeries buckets income and expenses into the last n calendar months
// ending at now's month, oldest first. Entries outside the window are ignored.
func MonthlySeries(incomes []IncomeEntry, expenses []ExpenseEntry, now time.Time, n int) []MonthTotals {
	if n <= 0 {
		return nil
	}
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(n - 1), 0)
	series := make([]MonthTotals, n)
	for i := range series {
		m := first.AddDate(0, i, 0)
		series[i] = MonthTotals{Year: m.Year(), Month: int(m.Month()), Label: MonthLabel(m.Month())}
	}
	slot := func(d Date) int {
		if d.IsZero() {
			return -1
		}
		i := (d.Year()-first.Year())*12 + int(d.Month()) - int(first.Month())
		if i < 0 || i >= n {
			return -1
		}
		return i
	}
	for _, in := range incomes {
		if i := slot(in.Date); i >= 0 {
			series[i].Income = series[i].Income.Add(in.Amount)
		}
	}
	for _, ex := range expenses {
		if i := slot(ex.Date); i >= 0 {
			series[i].Expense = series[i].Expense.Add(ex.Amount)
		}
	}
	return series
}

// RecentTransactions merges income and expenses newest first, keeping at
// most limit rows (all when limit <= 0).
func RecentTransactions(incomes []IncomeEntry, expenses []ExpenseEntry, limit int) []Transaction {
	out := make([]Transaction, 0, len(incomes)+len(expenses))
	for _, in := range incomes {
		out = append(out, Transaction{ID: in.ID, Description: in.Description, Category: in.Category, Date: in.Date, Amount: in.Amount, Income: true})
	}
	for _, ex := range expenses {
		out = append(out, Transaction{ID: ex.ID, Description: ex.Description, Category: ex.Category, Date: ex.Date, Amount: ex.Amount})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// SignedCents applies the display sign: income positive, outflow negative.
func (t Transaction) SignedCents() int64 {
	if t.Income {
		return t.Amount.Cents
	}
	return -t.Amount.Cents
}

// NewDailySummary builds the recap for day from the user's collections.
func NewDailySummary(day Date, incomes []IncomeEntry, expenses []ExpenseEntry, goals []Goal) DailySummary {
	totals := ComputeTotals(incomes, expenses)
	active := 0
	for _, g := range goals {
		if !g.Completed() {
			active++
		}
	}
	return DailySummary{
		Date:        day,
		Balance:     totals.Balance,
		Income:      totals.Income,
		Expense:     totals.Expense,
		ActiveGoals: active,
	}
}

// Text is the one-line body used by notifications.
func (s DailySummary) Text() string {
	return "Saldo: " + s.Balance.String() + " | Receitas: " + s.Income.String() + " | Despesas: " + s.Expense.String()
}
