package sqlstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/finboard/internal/model"
	"github.com/cleared-dev/finboard/internal/store"
)

// openTest connects to FINBOARD_TEST_PG_DSN and returns a fresh user name so
// runs never see each other's rows.
func openTest(t *testing.T) (*Store, string) {
	t.Helper()
	dsn := os.Getenv("FINBOARD_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("FINBOARD_TEST_PG_DSN not set")
	}
	s, err := Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, "test-" + uuid.NewString()[:8]
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestBankUpsertAndDelete(t *testing.T) {
	s, user := openTest(t)
	ctx := context.Background()

	bank := model.Bank{ID: "bpi", User: user, Name: "BPI", Balance: dec("5000.00")}
	require.NoError(t, s.SaveBank(ctx, bank))
	bank.Balance = dec("4800.50")
	require.NoError(t, s.SaveBank(ctx, bank))

	banks, err := s.ListBanks(ctx, user)
	require.NoError(t, err)
	require.Len(t, banks, 1)
	assert.True(t, banks[0].Balance.Equal(dec("4800.50")))

	require.NoError(t, s.DeleteBank(ctx, user, "bpi"))
	_, err = s.GetBank(ctx, user, "bpi")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteBank(ctx, user, "bpi"), store.ErrNotFound)
}

func TestUsersAreIsolated(t *testing.T) {
	s, user := openTest(t)
	ctx := context.Background()
	other := user + "-other"

	require.NoError(t, s.SaveCategory(ctx, model.Category{ID: "food", User: user, Name: "Food"}))
	require.NoError(t, s.SaveCategory(ctx, model.Category{ID: "food", User: other, Name: "Groceries"}))

	got, err := s.GetCategory(ctx, other, "food")
	require.NoError(t, err)
	assert.Equal(t, "Groceries", got.Name)

	cats, err := s.ListCategories(ctx, user)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Food", cats[0].Name)
}

func TestTransactionCategoriesKeepOrder(t *testing.T) {
	s, user := openTest(t)
	ctx := context.Background()

	txn := model.Transaction{
		ID: "t1", User: user, Description: "Lunch", Type: model.TypeExpense,
		Amount: dec("-12.30"), Bank: "bpi", Categories: []string{"work", "food"},
		Date: date(2025, 3, 4),
	}
	require.NoError(t, s.SaveTransaction(ctx, txn))

	got, err := s.GetTransaction(ctx, user, "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"work", "food"}, got.Categories)
	assert.Equal(t, txn.Date, got.Date)

	txn.Categories = []string{"food"}
	require.NoError(t, s.SaveTransaction(ctx, txn))
	got, err = s.GetTransaction(ctx, user, "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"food"}, got.Categories)

	require.NoError(t, s.DeleteTransaction(ctx, user, "t1"))
	assert.ErrorIs(t, s.DeleteTransaction(ctx, user, "t1"), store.ErrNotFound)
}

func TestQueryMatchesInMemorySemantics(t *testing.T) {
	s, user := openTest(t)
	ctx := context.Background()

	txns := []model.Transaction{
		{ID: "a", User: user, Type: model.TypeIncome, Amount: dec("100"), Bank: "bpi", Date: date(2025, 1, 5), Categories: []string{"salary"}},
		{ID: "b", User: user, Type: model.TypeExpense, Amount: dec("-20"), Bank: "bpi", Date: date(2025, 2, 1), Categories: []string{"food"}},
		{ID: "c", User: user, Type: model.TypeExpense, Amount: dec("-5"), Bank: "cgd", Date: date(2025, 2, 14), Categories: []string{"food", "fun"}},
		{ID: "d", User: user, Type: model.TypeExpense, Amount: dec("-7"), Bank: "bpi", Date: date(2025, 3, 1)},
	}
	for _, txn := range txns {
		require.NoError(t, s.SaveTransaction(ctx, txn))
	}

	queries := []store.Query{
		store.TransactionsOf(user),
		store.TransactionsOf(user).InBank("bpi"),
		store.TransactionsOf(user).InMonth(date(2025, 2, 10)),
		store.TransactionsOf(user).WithAnyCategory("food"),
		store.TransactionsOf(user).OldestFirst().Page(2, 1),
	}
	for _, q := range queries {
		got, err := s.QueryTransactions(ctx, q)
		require.NoError(t, err)
		want := q.Apply(txns)
		require.Len(t, got, len(want))
		for i := range want {
			assert.Equal(t, want[i].ID, got[i].ID)
		}

		n, err := s.CountTransactions(ctx, q.Unpaged())
		require.NoError(t, err)
		assert.Equal(t, len(q.Unpaged().Apply(txns)), n)
	}
}

func TestPlannedAndTokens(t *testing.T) {
	s, user := openTest(t)
	ctx := context.Background()

	p := model.PlannedTransaction{
		ID: "rent", User: user, Description: "Rent", Type: model.TypeExpense,
		Magnitude: dec("750"), Bank: "bpi", Categories: []string{"home", "fixed"},
		DueDate: date(2025, 4, 1), Recurrence: model.RecurMonthly,
	}
	require.NoError(t, s.SavePlanned(ctx, p))
	got, err := s.GetPlanned(ctx, user, "rent")
	require.NoError(t, err)
	assert.Equal(t, p.Categories, got.Categories)
	assert.Equal(t, model.RecurMonthly, got.Recurrence)

	require.NoError(t, s.SaveToken(ctx, model.Token{ID: "btc", User: user, CoinID: "bitcoin", Symbol: "BTC", Amount: dec("0.00012345")}))
	tokens, err := s.ListTokens(ctx, user)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.True(t, tokens[0].Amount.Equal(dec("0.00012345")))
	require.NoError(t, s.DeleteToken(ctx, user, "btc"))
}
