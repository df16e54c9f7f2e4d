package report

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finboard/internal/model"
)

// Balances returns banks sorted by name and the sum of their balances.
func Balances(banks []model.Bank) ([]model.Bank, decimal.Decimal) {
	rows := slices.Clone(banks)
	slices.SortFunc(rows, func(a, b model.Bank) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	total := decimal.Zero
	for _, b := range rows {
		total = total.Add(b.Balance)
	}
	return rows, total
}
