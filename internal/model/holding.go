package model

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Token is a crypto holding. CoinID keys the market data API.
type Token struct {
	ID     string          `json:"id"`
	User   string          `json:"-"`
	CoinID string          `json:"coinId"`
	Symbol string          `json:"symbol"`
	Amount decimal.Decimal `json:"amount"`
}

// Recurrence controls how a planned transaction repeats once applied.
type Recurrence string

const (
	RecurNone    Recurrence = "none"
	RecurWeekly  Recurrence = "weekly"
	RecurMonthly Recurrence = "monthly"
	RecurYearly  Recurrence = "yearly"
)

// Valid reports whether r is a known recurrence.
func (r Recurrence) Valid() bool {
	switch r {
	case RecurNone, RecurWeekly, RecurMonthly, RecurYearly:
		return true
	}
	return false
}

// Next returns the due date following d, and false for one-off items.
// Monthly and yearly items land on day of the target month, or on its last
// day when the month is shorter; day <= 0 means d.Day().
func (r Recurrence) Next(d time.Time, day int) (time.Time, bool) {
	if day <= 0 {
		day = d.Day()
	}
	switch r {
	case RecurWeekly:
		return d.AddDate(0, 0, 7), true
	case RecurMonthly:
		return addMonths(d, 1, day), true
	case RecurYearly:
		return addMonths(d, 12, day), true
	default:
		return time.Time{}, false
	}
}

func addMonths(d time.Time, months, day int) time.Time {
	first := time.Date(d.Year(), d.Month()+time.Month(months), 1, d.Hour(), d.Minute(), d.Second(), d.Nanosecond(), d.Location())
	last := first.AddDate(0, 1, -1).Day()
	return first.AddDate(0, 0, min(day, last)-1)
}

// PlannedTransaction is a scheduled transaction that becomes real on apply.
type PlannedTransaction struct {
	ID          string          `json:"id"`
	User        string          `json:"-"`
	Description string          `json:"description"`
	Type        TransactionType `json:"type"`
	Magnitude   decimal.Decimal `json:"magnitude"`
	Bank        string          `json:"bank"`
	Categories  []string        `json:"categories"`
	DueDate     time.Time       `json:"dueDate"`
	Recurrence  Recurrence      `json:"recurrence"`
	// AnchorDay is the day of month the schedule started on.
	AnchorDay int `json:"anchorDay,omitempty"`
}

// Input converts the planned item into a transaction input dated on its due date.
func (p PlannedTransaction) Input() TransactionInput {
	return TransactionInput{
		Description: p.Description,
		Type:        p.Type,
		Magnitude:   p.Magnitude,
		Bank:        p.Bank,
		Categories:  slices.Clone(p.Categories),
		Date:        p.DueDate,
	}
}

