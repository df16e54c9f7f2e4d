package model

import "github.com/shopspring/decimal"

// Bank is an account holding money. Balance caches the sum of the signed
// amounts of every transaction that references the bank.
type Bank struct {
	ID             string          `json:"id"`
	User           string          `json:"-"`
	Name           string          `json:"name"`
	Balance        decimal.Decimal `json:"balance"`
	PrimaryColor   string          `json:"primaryColor"`
	SecondaryColor string          `json:"secondaryColor"`
}

// Category tags transactions. A zero MonthlyBudget means no budget.
type Category struct {
	ID            string          `json:"id"`
	User          string          `json:"-"`
	Name          string          `json:"name"`
	Hideable      bool            `json:"hideable"`
	MonthlyBudget decimal.Decimal `json:"monthlyBudget"`
}

// HasBudget reports whether a monthly spending ceiling is set.
func (c Category) HasBudget() bool {
	return c.MonthlyBudget.IsPositive()
}
