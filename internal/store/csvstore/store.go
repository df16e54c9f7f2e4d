// Package csvstore keeps each user's records as CSV files under
// <root>/users/<user>/.
package csvstore

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/cleared-dev/finboard/internal/model"
	"github.com/cleared-dev/finboard/internal/store"
)

// Store is a file-backed store.Store. A single mutex serializes every read
// and write, which is enough for one process.
type Store struct {
	root string
	mu   sync.Mutex
}

var _ store.Store = (*Store)(nil)

// Open returns a Store rooted at dir. Files are created lazily.
func Open(dir string) *Store {
	return &Store{root: dir}
}

// Close is a no-op; files are closed after every operation.
func (s *Store) Close() error { return nil }

func (s *Store) userDir(user string) (string, error) {
	if user == "" || user == "." || user == ".." || strings.ContainsAny(user, `/\`) {
		return "", fmt.Errorf("invalid user %q", user)
	}
	return filepath.Join(s.root, "users", user), nil
}

func get[T any](s *Store, tb table[T], user, id string, idOf func(T) string) (T, error) {
	var zero T
	dir, err := s.userDir(user)
	if err != nil {
		return zero, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := tb.load(dir, user)
	if err != nil {
		return zero, err
	}
	i := slices.IndexFunc(rows, func(r T) bool { return idOf(r) == id })
	if i < 0 {
		return zero, fmt.Errorf("%s %q: %w", strings.TrimSuffix(tb.file, ".csv"), id, store.ErrNotFound)
	}
	return rows[i], nil
}

func list[T any](s *Store, tb table[T], user string) ([]T, error) {
	dir, err := s.userDir(user)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return tb.load(dir, user)
}

func put[T any](s *Store, tb table[T], user string, row T, idOf func(T) string) error {
	dir, err := s.userDir(user)
	if err != nil {
		return err
	}
	if idOf(row) == "" {
		return fmt.Errorf("saving %s: empty id", tb.file)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := tb.load(dir, user)
	if err != nil {
		return err
	}
	if i := slices.IndexFunc(rows, func(r T) bool { return idOf(r) == idOf(row) }); i >= 0 {
		rows[i] = row
	} else {
		rows = append(rows, row)
	}
	return tb.save(dir, rows)
}

func del[T any](s *Store, tb table[T], user, id string, idOf func(T) string) error {
	dir, err := s.userDir(user)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := tb.load(dir, user)
	if err != nil {
		return err
	}
	i := slices.IndexFunc(rows, func(r T) bool { return idOf(r) == id })
	if i < 0 {
		return fmt.Errorf("%s %q: %w", strings.TrimSuffix(tb.file, ".csv"), id, store.ErrNotFound)
	}
	return tb.save(dir, slices.Delete(rows, i, i+1))
}

func bankID(b model.Bank) string                  { return b.ID }
func categoryID(c model.Category) string          { return c.ID }
func transactionID(t model.Transaction) string    { return t.ID }
func tokenID(t model.Token) string                { return t.ID }
func plannedID(p model.PlannedTransaction) string { return p.ID }

// GetBank implements store.Banks.
func (s *Store) GetBank(_ context.Context, user, id string) (model.Bank, error) {
	return get(s, banksTable, user, id, bankID)
}

// ListBanks implements store.Banks.
func (s *Store) ListBanks(_ context.Context, user string) ([]model.Bank, error) {
	return list(s, banksTable, user)
}

// SaveBank implements store.Banks.
func (s *Store) SaveBank(_ context.Context, b model.Bank) error {
	return put(s, banksTable, b.User, b, bankID)
}

// DeleteBank implements store.Banks.
func (s *Store) DeleteBank(_ context.Context, user, id string) error {
	return del(s, banksTable, user, id, bankID)
}

// GetCategory implements store.Categories.
func (s *Store) GetCategory(_ context.Context, user, id string) (model.Category, error) {
	return get(s, categoriesTable, user, id, categoryID)
}

// ListCategories implements store.Categories.
func (s *Store) ListCategories(_ context.Context, user string) ([]model.Category, error) {
	return list(s, categoriesTable, user)
}

// SaveCategory implements store.Categories.
func (s *Store) SaveCategory(_ context.Context, c model.Category) error {
	return put(s, categoriesTable, c.User, c, categoryID)
}

// DeleteCategory implements store.Categories.
func (s *Store) DeleteCategory(_ context.Context, user, id string) error {
	return del(s, categoriesTable, user, id, categoryID)
}

// GetTransaction implements store.Transactions.
func (s *Store) GetTransaction(_ context.Context, user, id string) (model.Transaction, error) {
	return get(s, transactionsTable, user, id, transactionID)
}

// QueryTransactions implements store.Transactions.
func (s *Store) QueryTransactions(_ context.Context, q store.Query) ([]model.Transaction, error) {
	all, err := list(s, transactionsTable, q.User)
	if err != nil {
		return nil, err
	}
	return q.Apply(all), nil
}

// CountTransactions implements store.Transactions.
func (s *Store) CountTransactions(ctx context.Context, q store.Query) (int, error) {
	txns, err := s.QueryTransactions(ctx, q.Unpaged())
	if err != nil {
		return 0, err
	}
	return len(txns), nil
}

// SaveTransaction implements store.Transactions.
func (s *Store) SaveTransaction(_ context.Context, t model.Transaction) error {
	return put(s, transactionsTable, t.User, t, transactionID)
}

// DeleteTransaction implements store.Transactions.
func (s *Store) DeleteTransaction(_ context.Context, user, id string) error {
	return del(s, transactionsTable, user, id, transactionID)
}

// ListTokens implements store.Tokens.
func (s *Store) ListTokens(_ context.Context, user string) ([]model.Token, error) {
	return list(s, tokensTable, user)
}

// SaveToken implements store.Tokens.
func (s *Store) SaveToken(_ context.Context, t model.Token) error {
	return put(s, tokensTable, t.User, t, tokenID)
}

// DeleteToken implements store.Tokens.
func (s *Store) DeleteToken(_ context.Context, user, id string) error {
	return del(s, tokensTable, user, id, tokenID)
}

// GetPlanned implements store.Planned.
func (s *Store) GetPlanned(_ context.Context, user, id string) (model.PlannedTransaction, error) {
	return get(s, plannedTable, user, id, plannedID)
}

// ListPlanned implements store.Planned.
func (s *Store) ListPlanned(_ context.Context, user string) ([]model.PlannedTransaction, error) {
	return list(s, plannedTable, user)
}

// SavePlanned implements store.Planned.
func (s *Store) SavePlanned(_ context.Context, p model.PlannedTransaction) error {
	return put(s, plannedTable, p.User, p, plannedID)
}

// DeletePlanned implements store.Planned.
func (s *Store) DeletePlanned(_ context.Context, user, id string) error {
	return del(s, plannedTable, user, id, plannedID)
}
