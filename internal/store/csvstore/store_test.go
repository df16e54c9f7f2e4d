package csvstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/finboard/internal/model"
	"github.com/cleared-dev/finboard/internal/store"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestBankCRUD(t *testing.T) {
	ctx := context.Background()
	s := Open(t.TempDir())

	bank := model.Bank{ID: "bpi", User: "ana", Name: "BPI", Balance: dec("5000.00"), PrimaryColor: "#ff6600"}
	require.NoError(t, s.SaveBank(ctx, bank))

	got, err := s.GetBank(ctx, "ana", "bpi")
	require.NoError(t, err)
	assert.Equal(t, "BPI", got.Name)
	assert.True(t, got.Balance.Equal(dec("5000")))
	assert.Equal(t, "ana", got.User)

	bank.Balance = dec("4800.00")
	require.NoError(t, s.SaveBank(ctx, bank))
	banks, err := s.ListBanks(ctx, "ana")
	require.NoError(t, err)
	require.Len(t, banks, 1, "save must upsert")
	assert.True(t, banks[0].Balance.Equal(dec("4800")))

	require.NoError(t, s.DeleteBank(ctx, "ana", "bpi"))
	_, err = s.GetBank(ctx, "ana", "bpi")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteMissing(t *testing.T) {
	s := Open(t.TempDir())
	err := s.DeleteCategory(context.Background(), "ana", "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUserIsolation(t *testing.T) {
	ctx := context.Background()
	s := Open(t.TempDir())

	require.NoError(t, s.SaveCategory(ctx, model.Category{ID: "food", User: "ana", Name: "Food"}))

	_, err := s.GetCategory(ctx, "rui", "food")
	assert.ErrorIs(t, err, store.ErrNotFound)

	cats, err := s.ListCategories(ctx, "rui")
	require.NoError(t, err)
	assert.Empty(t, cats)
}

func TestInvalidUser(t *testing.T) {
	s := Open(t.TempDir())
	for _, user := range []string{"", "..", "a/b", `a\b`} {
		_, err := s.ListBanks(context.Background(), user)
		assert.Error(t, err, "user %q", user)
	}
}

func TestTransactionRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := Open(t.TempDir())

	txn := model.Transaction{
		ID:          "t1",
		User:        "ana",
		Description: "Groceries, weekly",
		Type:        model.TypeExpense,
		Amount:      dec("-42.50"),
		Bank:        "bpi",
		Categories:  []string{"food", "home"},
		Date:        date(2025, 3, 14),
		TransferID:  "",
	}
	require.NoError(t, s.SaveTransaction(ctx, txn))

	got, err := s.GetTransaction(ctx, "ana", "t1")
	require.NoError(t, err)
	assert.Equal(t, txn.Description, got.Description)
	assert.Equal(t, txn.Type, got.Type)
	assert.True(t, txn.Amount.Equal(got.Amount))
	assert.Equal(t, txn.Categories, got.Categories)
	assert.True(t, txn.Date.Equal(got.Date))
}

func TestQueryAndCount(t *testing.T) {
	ctx := context.Background()
	s := Open(t.TempDir())

	for i, bank := range []string{"bpi", "bpi", "cgd"} {
		require.NoError(t, s.SaveTransaction(ctx, model.Transaction{
			ID:     string(rune('a' + i)),
			User:   "ana",
			Type:   model.TypeExpense,
			Amount: dec("-1"),
			Bank:   bank,
			Date:   date(2025, 1, i+1),
		}))
	}

	q := store.TransactionsOf("ana").InBank("bpi")
	txns, err := s.QueryTransactions(ctx, q)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, "b", txns[0].ID, "newest first")

	n, err := s.CountTransactions(ctx, q.Page(1, 0))
	require.NoError(t, err)
	assert.Equal(t, 2, n, "count ignores paging")
}

func TestFileLayout(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := Open(dir)

	require.NoError(t, s.SaveToken(ctx, model.Token{ID: "x", User: "ana", CoinID: "bitcoin", Symbol: "BTC", Amount: dec("0.00012345")}))

	data, err := os.ReadFile(filepath.Join(dir, "users", "ana", "tokens.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "id,coin_id,symbol,amount", lines[0])
	assert.Equal(t, "x,bitcoin,BTC,0.00012345", lines[1])

	entries, err := os.ReadDir(filepath.Join(dir, "users", "ana"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestPlannedRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := Open(t.TempDir())

	p := model.PlannedTransaction{
		ID:          "rent",
		User:        "ana",
		Description: "Rent",
		Type:        model.TypeExpense,
		Magnitude:   dec("750"),
		Bank:        "bpi",
		DueDate:     date(2025, 2, 1),
		Recurrence:  model.RecurMonthly,
		AnchorDay:   31,
	}
	require.NoError(t, s.SavePlanned(ctx, p))

	got, err := s.GetPlanned(ctx, "ana", "rent")
	require.NoError(t, err)
	assert.Equal(t, model.RecurMonthly, got.Recurrence)
	assert.Equal(t, 31, got.AnchorDay)
	assert.True(t, got.Magnitude.Equal(dec("750")))
	assert.Nil(t, got.Categories)
}
