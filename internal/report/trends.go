package report

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finboard/internal/model"
)

// MonthTotal sums one calendar month. Income and Expenses are magnitudes;
// Transfers is the signed net of deposit and withdrawal legs, which is zero
// when both legs of every transfer are tracked.
type MonthTotal struct {
	Month     time.Time
	Income    decimal.Decimal
	Expenses  decimal.Decimal
	Transfers decimal.Decimal
	Net       decimal.Decimal // Income - Expenses
	Sensitive bool          // includes a transaction tagged with a hidden category
}

// MonthlyTrends returns n consecutive months starting at the month of from.
// hidden may be nil.
func MonthlyTrends(txns []model.Transaction, from time.Time, n int, hidden HiddenSet) []MonthTotal {
	if n <= 0 {
		return nil
	}
	start := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, from.Location())
	out := make([]MonthTotal, n)
	for i := range out {
		out[i] = MonthTotal{Month: start.AddDate(0, i, 0)}
	}

	for _, t := range txns {
		d := t.Date.In(start.Location())
		i := (d.Year()-start.Year())*12 + int(d.Month()-start.Month())
		if i < 0 || i >= n {
			continue
		}
		m := &out[i]
		switch t.Type {
		case model.TypeIncome:
			m.Income = m.Income.Add(t.Amount)
		case model.TypeExpense:
			m.Expenses = m.Expenses.Sub(t.Amount)
		default:
			m.Transfers = m.Transfers.Add(t.Amount)
		}
		if hidden.Covers(t) {
			m.Sensitive = true
		}
	}
	for i := range out {
		out[i].Net = out[i].Income.Sub(out[i].Expenses)
	}
	return out
}
