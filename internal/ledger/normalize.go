package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finboard/internal/model"
)

// Normalize turns a user-entered magnitude into a signed ledger amount:
// positive for income and deposits, negative for expenses and withdrawals.
func Normalize(magnitude decimal.Decimal, t model.TransactionType) decimal.Decimal {
	m := magnitude.Abs()
	if t.IsCredit() {
		return m
	}
	return m.Neg()
}

// Magnitude splits a signed statement amount into the type and unsigned
// magnitude a form would submit. Credits become income, debits expenses.
func Magnitude(signed decimal.Decimal) (model.TransactionType, decimal.Decimal) {
	if signed.IsNegative() {
		return model.TypeExpense, signed.Abs()
	}
	return model.TypeIncome, signed
}
