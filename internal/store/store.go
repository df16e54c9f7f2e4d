// Package store defines the persistence contract for finboard records.
//
// Every method is scoped to a user; implementations never return records
// belonging to another user.
package store

import (
	"context"
	"errors"

	"github.com/cleared-dev/finboard/internal/model"
)

// ErrNotFound is returned when a record does not exist for the user.
var ErrNotFound = errors.New("record not found")

// Banks persists banks.
type Banks interface {
	GetBank(ctx context.Context, user, id string) (model.Bank, error)
	ListBanks(ctx context.Context, user string) ([]model.Bank, error)
	SaveBank(ctx context.Context, b model.Bank) error
	DeleteBank(ctx context.Context, user, id string) error
}

// Categories persists categories.
type Categories interface {
	GetCategory(ctx context.Context, user, id string) (model.Category, error)
	ListCategories(ctx context.Context, user string) ([]model.Category, error)
	SaveCategory(ctx context.Context, c model.Category) error
	DeleteCategory(ctx context.Context, user, id string) error
}

// Transactions persists transactions.
type Transactions interface {
	GetTransaction(ctx context.Context, user, id string) (model.Transaction, error)
	QueryTransactions(ctx context.Context, q Query) ([]model.Transaction, error)
	CountTransactions(ctx context.Context, q Query) (int, error)
	SaveTransaction(ctx context.Context, t model.Transaction) error
	DeleteTransaction(ctx context.Context, user, id string) error
}

// Tokens persists crypto holdings.
type Tokens interface {
	ListTokens(ctx context.Context, user string) ([]model.Token, error)
	SaveToken(ctx context.Context, t model.Token) error
	DeleteToken(ctx context.Context, user, id string) error
}

// Planned persists planned transactions.
type Planned interface {
	GetPlanned(ctx context.Context, user, id string) (model.PlannedTransaction, error)
	ListPlanned(ctx context.Context, user string) ([]model.PlannedTransaction, error)
	SavePlanned(ctx context.Context, p model.PlannedTransaction) error
	DeletePlanned(ctx context.Context, user, id string) error
}

// Store is the full persistence surface.
type Store interface {
	Banks
	Categories
	Transactions
	Tokens
	Planned
	Close() error
}
