// Package report renders a user's records as tables, for the Excel export
// and the spreadsheet mirror.
package report

import (
	"time"

	"organizapay/internal/core"
)

const (
	SheetSummary  = "Resumo"
	SheetIncomes  = "Receitas"
	SheetExpenses = "Despesas"
	SheetGoals    = "Metas"
)

// Data is everything a report is built from.
type Data struct {
	Owner       string
	Plan        core.Plan
	GeneratedAt time.Time
	Incomes     []core.IncomeEntry
	Expenses    []core.ExpenseEntry
	Goals       []core.Goal
}

// Table is one sheet worth of rows. Amount columns hold float64 reais.
type Table struct {
	Name    string
	Header  []string
	Rows    [][]any
	Amounts []int // zero-based indexes of amount columns
}

func reais(m core.Money) float64 {
	return m.Decimal().InexactFloat64()
}

func expenseKindLabel(k core.ExpenseKind) string {
	if k == core.ExpenseDebt {
		return "Dívida"
	}
	return "Gasto"
}

// Tables returns the summary, income, expense and goal tables in sheet order.
func Tables(d Data) []Table {
	totals := core.ComputeTotals(d.Incomes, d.Expenses)

	summary := Table{
		Name:    SheetSummary,
		Header:  []string{"Item", "Valor"},
		Amounts: []int{1},
		Rows: [][]any{
			{"Receitas", reais(totals.Income)},
			{"Despesas", reais(totals.Expense)},
			{"Gastos", reais(totals.Ordinary)},
			{"Dívidas", reais(totals.Debt)},
			{"Saldo", reais(totals.Balance)},
		},
	}
	for _, c := range core.CategoryBreakdown(core.ExpensesOfKind(d.Expenses, core.ExpenseOrdinary)) {
		summary.Rows = append(summary.Rows, []any{"Categoria: " + c.Name, reais(c.Amount)})
	}

	incomes := Table{
		Name:    SheetIncomes,
		Header:  []string{"Data", "Descrição", "Categoria", "Valor"},
		Amounts: []int{3},
	}
	for _, e := range d.Incomes {
		incomes.Rows = append(incomes.Rows, []any{e.Date.String(), e.Description, e.Category, reais(e.Amount)})
	}

	expenses := Table{
		Name:    SheetExpenses,
		Header:  []string{"Data", "Descrição", "Categoria", "Tipo", "Detalhes", "Valor"},
		Amounts: []int{5},
	}
	for _, e := range d.Expenses {
		expenses.Rows = append(expenses.Rows, []any{e.Date.String(), e.Description, e.Category, expenseKindLabel(e.Kind), e.Details, reais(e.Amount)})
	}

	goals := Table{
		Name:    SheetGoals,
		Header:  []string{"Meta", "Atual", "Alvo", "Progresso (%)", "Prazo", "Descrição"},
		Amounts: []int{1, 2},
	}
	for _, g := range d.Goals {
		goals.Rows = append(goals.Rows, []any{g.Title, reais(g.CurrentAmount), reais(g.TargetAmount), g.ProgressPercent(), g.Deadline, g.Description})
	}

	return []Table{summary, incomes, expenses, goals}
}

// SheetRows lays the tables out one under another on a single sheet, each
// preceded by its name and followed by a blank row. The first row names the
// owner, plan and generation time.
func SheetRows(d Data) [][]any {
	rows := [][]any{
		{"OrganizaPay", d.Owner, string(d.Plan), d.GeneratedAt.UTC().Format("2006-01-02 15:04:05")},
		{},
	}
	for _, t := range Tables(d) {
		rows = append(rows, []any{t.Name})
		header := make([]any, len(t.Header))
		for i, h := range t.Header {
			header[i] = h
		}
		rows = append(rows, header)
		rows = append(rows, t.Rows...)
		rows = append(rows, []any{})
	}
	return rows
}
