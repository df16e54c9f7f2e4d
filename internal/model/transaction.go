package model

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the user-facing kind of a transaction.
type TransactionType string

const (
	TypeIncome     TransactionType = "income"
	TypeExpense    TransactionType = "expense"
	TypeDeposit    TransactionType = "deposit"
	TypeWithdrawal TransactionType = "withdrawal"
)

// TransactionTypes lists every valid type in display order.
var TransactionTypes = []TransactionType{TypeIncome, TypeExpense, TypeDeposit, TypeWithdrawal}

// Valid reports whether t is one of the four known types.
func (t TransactionType) Valid() bool {
	return slices.Contains(TransactionTypes, t)
}

// IsCredit reports whether amounts of this type increase a bank balance.
func (t TransactionType) IsCredit() bool {
	return t == TypeIncome || t == TypeDeposit
}

// IsTransferLeg reports whether the type is one of the two transfer legs.
func (t TransactionType) IsTransferLeg() bool {
	return t == TypeDeposit || t == TypeWithdrawal
}

// Transaction is a stored ledger row. Amount is signed: positive credits the
// bank, negative debits it.
type Transaction struct {
	ID          string          `json:"id"`
	User        string          `json:"-"`
	Description string          `json:"description"`
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Bank        string          `json:"bank"`
	Categories  []string        `json:"categories"`
	Date        time.Time       `json:"date"`
	TransferID  string          `json:"transferId,omitempty"` // shared by both legs of a transfer
}

// HasCategory reports whether the transaction is tagged with categoryID.
func (t Transaction) HasCategory(categoryID string) bool {
	return slices.Contains(t.Categories, categoryID)
}

// TransactionInput is what a form submits: an unsigned magnitude plus a type.
type TransactionInput struct {
	Description string
	Type        TransactionType
	Magnitude   decimal.Decimal
	Bank        string
	Categories  []string
	Date        time.Time
}

// Transfer moves money between two banks. It is never stored; it expands
// into a withdrawal on the origin and a deposit on the destination.
type Transfer struct {
	Description       string
	Date              time.Time
	OriginBank        string
	DestinationBank   string
	OriginAmount      decimal.Decimal
	DestinationAmount *decimal.Decimal // nil means same as OriginAmount
	Categories        []string
}
