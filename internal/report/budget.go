// Package report derives read-only views from banks, categories,
// transactions and holdings. Nothing here writes to a store.
package report

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finboard/internal/model"
)

// Uncategorized is the pseudo-category for transactions without categories.
const Uncategorized = "uncategorized"

// BudgetStatus classifies a category's spend against its budget.
type BudgetStatus string

const (
	Unbudgeted BudgetStatus = "unbudgeted"
	Within     BudgetStatus = "within"
	Over       BudgetStatus = "over"
)

// BudgetLine is one category's accumulation for a month.
type BudgetLine struct {
	CategoryID string
	Name       string
	Hideable   bool
	Total      decimal.Decimal // signed sum of the category's shares
	Spent      decimal.Decimal // |Total| when Total is negative, else 0
	Budget     decimal.Decimal
	Remaining  decimal.Decimal
	Status     BudgetStatus
}

// CategoryBudgets splits every transaction dated in month evenly across its
// categories and compares each category's total with its monthly budget.
// Every category gets a line; the uncategorized line is appended last when
// any transaction has no category.
func CategoryBudgets(txns []model.Transaction, categories []model.Category, month time.Time) []BudgetLine {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	end := start.AddDate(0, 1, 0)

	totals := make(map[string]decimal.Decimal)
	for _, t := range txns {
		if t.Date.Before(start) || !t.Date.Before(end) {
			continue
		}
		if len(t.Categories) == 0 {
			totals[Uncategorized] = totals[Uncategorized].Add(t.Amount)
			continue
		}
		share := t.Amount.Div(decimal.NewFromInt(int64(len(t.Categories))))
		for _, c := range t.Categories {
			totals[c] = totals[c].Add(share)
		}
	}

	lines := make([]BudgetLine, 0, len(categories)+1)
	known := make(map[string]bool, len(categories))
	for _, c := range categories {
		known[c.ID] = true
		lines = append(lines, budgetLine(c, totals[c.ID]))
	}
	// Categories referenced by transactions but no longer defined.
	var orphans []string
	for id := range totals {
		if !known[id] && id != Uncategorized {
			orphans = append(orphans, id)
		}
	}
	slices.Sort(orphans)
	for _, id := range orphans {
		lines = append(lines, budgetLine(model.Category{ID: id, Name: id}, totals[id]))
	}

	slices.SortStableFunc(lines, func(a, b BudgetLine) int { return cmp.Compare(a.Name, b.Name) })
	if total, ok := totals[Uncategorized]; ok {
		lines = append(lines, budgetLine(model.Category{ID: Uncategorized, Name: "Uncategorized"}, total))
	}
	return lines
}

func budgetLine(c model.Category, total decimal.Decimal) BudgetLine {
	line := BudgetLine{
		CategoryID: c.ID,
		Name:       c.Name,
		Hideable:   c.Hideable,
		Total:      total,
		Spent:      decimal.Zero,
		Budget:     c.MonthlyBudget,
		Status:     Unbudgeted,
	}
	if total.IsNegative() {
		line.Spent = total.Abs()
	}
	if c.HasBudget() {
		line.Remaining = line.Budget.Sub(line.Spent)
		line.Status = Within
		if line.Spent.GreaterThan(line.Budget) {
			line.Status = Over
		}
	}
	return line
}
