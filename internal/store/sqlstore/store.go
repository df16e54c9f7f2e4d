// Package sqlstore keeps finboard records in PostgreSQL through gorm.
package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cleared-dev/finboard/internal/model"
	"github.com/cleared-dev/finboard/internal/store"
)

// Store is a gorm-backed store.Store.
type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// Open connects to the database at dsn and migrates the schema.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return New(db)
}

// New wraps an existing connection and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	err := db.AutoMigrate(&bankRow{}, &categoryRow{}, &transactionRow{}, &categoryLink{}, &tokenRow{}, &plannedRow{})
	if err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) scoped(ctx context.Context, user string) *gorm.DB {
	return s.db.WithContext(ctx).Where("user_id = ?", user)
}

func first[R any](ctx context.Context, s *Store, kind, user, id string) (R, error) {
	var row R
	err := s.scoped(ctx, user).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return row, fmt.Errorf("%s %q: %w", kind, id, store.ErrNotFound)
	}
	if err != nil {
		return row, fmt.Errorf("loading %s %q: %w", kind, id, err)
	}
	return row, nil
}

func all[R any](ctx context.Context, s *Store, kind, user string) ([]R, error) {
	var rows []R
	if err := s.scoped(ctx, user).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing %s: %w", kind, err)
	}
	return rows, nil
}

func upsert[R any](tx *gorm.DB, row *R) error {
	return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(row).Error
}

func remove[R any](ctx context.Context, s *Store, kind, user, id string) error {
	var row R
	res := s.scoped(ctx, user).Where("id = ?", id).Delete(&row)
	if res.Error != nil {
		return fmt.Errorf("deleting %s %q: %w", kind, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s %q: %w", kind, id, store.ErrNotFound)
	}
	return nil
}

func mapRows[R, M any](rows []R, conv func(R) M) []M {
	out := make([]M, 0, len(rows))
	for _, r := range rows {
		out = append(out, conv(r))
	}
	return out
}

// GetBank implements store.Banks.
func (s *Store) GetBank(ctx context.Context, user, id string) (model.Bank, error) {
	row, err := first[bankRow](ctx, s, "bank", user, id)
	return row.model(), err
}

// ListBanks implements store.Banks.
func (s *Store) ListBanks(ctx context.Context, user string) ([]model.Bank, error) {
	rows, err := all[bankRow](ctx, s, "banks", user)
	return mapRows(rows, bankRow.model), err
}

// SaveBank implements store.Banks.
func (s *Store) SaveBank(ctx context.Context, b model.Bank) error {
	row := fromBank(b)
	return upsert(s.db.WithContext(ctx), &row)
}

// DeleteBank implements store.Banks.
func (s *Store) DeleteBank(ctx context.Context, user, id string) error {
	return remove[bankRow](ctx, s, "bank", user, id)
}

// GetCategory implements store.Categories.
func (s *Store) GetCategory(ctx context.Context, user, id string) (model.Category, error) {
	row, err := first[categoryRow](ctx, s, "category", user, id)
	return row.model(), err
}

// ListCategories implements store.Categories.
func (s *Store) ListCategories(ctx context.Context, user string) ([]model.Category, error) {
	rows, err := all[categoryRow](ctx, s, "categories", user)
	return mapRows(rows, categoryRow.model), err
}

// SaveCategory implements store.Categories.
func (s *Store) SaveCategory(ctx context.Context, c model.Category) error {
	row := fromCategory(c)
	return upsert(s.db.WithContext(ctx), &row)
}

// DeleteCategory implements store.Categories.
func (s *Store) DeleteCategory(ctx context.Context, user, id string) error {
	return remove[categoryRow](ctx, s, "category", user, id)
}

// GetTransaction implements store.Transactions.
func (s *Store) GetTransaction(ctx context.Context, user, id string) (model.Transaction, error) {
	row, err := first[transactionRow](ctx, s, "transaction", user, id)
	if err != nil {
		return model.Transaction{}, err
	}
	txns, err := s.withCategories(ctx, user, []transactionRow{row})
	if err != nil {
		return model.Transaction{}, err
	}
	return txns[0], nil
}

// filter translates q into where clauses. Paging and order are left to the
// caller so the same filter serves counting.
func (s *Store) filter(ctx context.Context, q store.Query) *gorm.DB {
	db := s.scoped(ctx, q.User).Model(&transactionRow{})
	if q.Bank != "" {
		db = db.Where("bank_id = ?", q.Bank)
	}
	if !q.From.IsZero() {
		db = db.Where("date >= ?", q.From)
	}
	if !q.To.IsZero() {
		db = db.Where("date < ?", q.To)
	}
	if len(q.AnyCategories) > 0 {
		tagged := s.db.Model(&categoryLink{}).
			Select("transaction_id").
			Where("user_id = ? AND category_id IN ?", q.User, q.AnyCategories)
		db = db.Where("id IN (?)", tagged)
	}
	return db
}

// QueryTransactions implements store.Transactions.
func (s *Store) QueryTransactions(ctx context.Context, q store.Query) ([]model.Transaction, error) {
	dir := "DESC"
	if q.Order == store.OldestFirst {
		dir = "ASC"
	}
	db := s.filter(ctx, q).Order("date " + dir).Order("id " + dir)
	if q.Offset > 0 {
		db = db.Offset(q.Offset)
	}
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	var rows []transactionRow
	if err := db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	return s.withCategories(ctx, q.User, rows)
}

// CountTransactions implements store.Transactions.
func (s *Store) CountTransactions(ctx context.Context, q store.Query) (int, error) {
	var n int64
	if err := s.filter(ctx, q).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting transactions: %w", err)
	}
	return int(n), nil
}

func (s *Store) withCategories(ctx context.Context, user string, rows []transactionRow) ([]model.Transaction, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	var links []categoryLink
	err := s.scoped(ctx, user).
		Where("transaction_id IN ?", ids).
		Order("transaction_id").Order("position").
		Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("loading transaction categories: %w", err)
	}
	byTxn := make(map[string][]string, len(rows))
	for _, l := range links {
		byTxn[l.TransactionID] = append(byTxn[l.TransactionID], l.CategoryID)
	}
	out := make([]model.Transaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model(byTxn[r.ID]))
	}
	return out, nil
}

// SaveTransaction implements store.Transactions. The row and its category
// links are written in one database transaction.
func (s *Store) SaveTransaction(ctx context.Context, t model.Transaction) error {
	row, links := fromTransaction(t)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsert(tx, &row); err != nil {
			return fmt.Errorf("saving transaction %q: %w", t.ID, err)
		}
		err := tx.Where("user_id = ? AND transaction_id = ?", t.User, t.ID).Delete(&categoryLink{}).Error
		if err != nil {
			return fmt.Errorf("clearing categories of %q: %w", t.ID, err)
		}
		if len(links) == 0 {
			return nil
		}
		return tx.Create(&links).Error
	})
}

// DeleteTransaction implements store.Transactions.
func (s *Store) DeleteTransaction(ctx context.Context, user, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND id = ?", user, id).Delete(&transactionRow{})
		if res.Error != nil {
			return fmt.Errorf("deleting transaction %q: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("transaction %q: %w", id, store.ErrNotFound)
		}
		return tx.Where("user_id = ? AND transaction_id = ?", user, id).Delete(&categoryLink{}).Error
	})
}

// ListTokens implements store.Tokens.
func (s *Store) ListTokens(ctx context.Context, user string) ([]model.Token, error) {
	rows, err := all[tokenRow](ctx, s, "tokens", user)
	return mapRows(rows, tokenRow.model), err
}

// SaveToken implements store.Tokens.
func (s *Store) SaveToken(ctx context.Context, t model.Token) error {
	row := fromToken(t)
	return upsert(s.db.WithContext(ctx), &row)
}

// DeleteToken implements store.Tokens.
func (s *Store) DeleteToken(ctx context.Context, user, id string) error {
	return remove[tokenRow](ctx, s, "token", user, id)
}

// GetPlanned implements store.Planned.
func (s *Store) GetPlanned(ctx context.Context, user, id string) (model.PlannedTransaction, error) {
	row, err := first[plannedRow](ctx, s, "planned transaction", user, id)
	return row.model(), err
}

// ListPlanned implements store.Planned.
func (s *Store) ListPlanned(ctx context.Context, user string) ([]model.PlannedTransaction, error) {
	rows, err := all[plannedRow](ctx, s, "planned transactions", user)
	return mapRows(rows, plannedRow.model), err
}

// SavePlanned implements store.Planned.
func (s *Store) SavePlanned(ctx context.Context, p model.PlannedTransaction) error {
	row := fromPlanned(p)
	return upsert(s.db.WithContext(ctx), &row)
}

// DeletePlanned implements store.Planned.
func (s *Store) DeletePlanned(ctx context.Context, user, id string) error {
	return remove[plannedRow](ctx, s, "planned transaction", user, id)
}
