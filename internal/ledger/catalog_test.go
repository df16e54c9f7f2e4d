package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/finboard/internal/events"
	"github.com/cleared-dev/finboard/internal/model"
	"github.com/cleared-dev/finboard/internal/store"
)

func TestCreateBankWithOpeningBalance(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newTestService(t)

	bank, err := svc.CreateBank(ctx, user, BankInput{
		Name:           " BPI ",
		PrimaryColor:   "#ff6600",
		OpeningBalance: dec("5000"),
		OpenedOn:       date(2025, 1, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, "BPI", bank.Name)
	assert.True(t, bank.Balance.Equal(dec("5000")))

	txns, err := st.QueryTransactions(ctx, store.TransactionsOf(user).InBank(bank.ID))
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, OpeningBalanceDescription, txns[0].Description)
	assert.Equal(t, model.TypeIncome, txns[0].Type)

	drifts, err := svc.Check(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, drifts)
}

func TestCreateBankOverdrawn(t *testing.T) {
	svc, _, _ := newTestService(t)
	bank, err := svc.CreateBank(context.Background(), user, BankInput{Name: "Card", OpeningBalance: dec("-120.50")})
	require.NoError(t, err)
	assert.True(t, bank.Balance.Equal(dec("-120.50")))
}

func TestCreateBankRequiresName(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.CreateBank(context.Background(), user, BankInput{Name: "  "})
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, []string{"name"}, verrs.Fields())
}

func TestRenameBankKeepsBalanceAndTransactions(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newTestService(t)
	seedBank(t, st, "bpi", "0")
	_, err := svc.Create(ctx, user, expense("bpi", "12"))
	require.NoError(t, err)

	bank, err := svc.RenameBank(ctx, user, "bpi", BankInput{Name: "BPI Main"})
	require.NoError(t, err)
	assert.Equal(t, "BPI Main", bank.Name)
	assert.True(t, bank.Balance.Equal(dec("-12")))

	n, err := st.CountTransactions(ctx, store.TransactionsOf(user).InBank("bpi"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDeleteBankCascades(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newTestService(t)
	seedBank(t, st, "bpi", "0")
	seedBank(t, st, "cgd", "0")
	for _, b := range []string{"bpi", "bpi", "cgd"} {
		_, err := svc.Create(ctx, user, expense(b, "1"))
		require.NoError(t, err)
	}

	n, err := svc.DeleteBank(ctx, user, "bpi")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = st.GetBank(ctx, user, "bpi")
	assert.ErrorIs(t, err, store.ErrNotFound)
	left, err := st.CountTransactions(ctx, store.TransactionsOf(user))
	require.NoError(t, err)
	assert.Equal(t, 1, left)
}

func TestCategoryLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newTestService(t)
	seedBank(t, st, "bpi", "0")

	food, err := svc.CreateCategory(ctx, user, CategoryInput{Name: "Food", MonthlyBudget: dec("300")})
	require.NoError(t, err)
	assert.True(t, food.HasBudget())
	seedCategory(t, st, "home")

	in := expense("bpi", "60")
	in.Categories = []string{food.ID, "home"}
	txn, err := svc.Create(ctx, user, in)
	require.NoError(t, err)

	food, err = svc.UpdateCategory(ctx, user, food.ID, CategoryInput{Name: "Food & drink", Hideable: true})
	require.NoError(t, err)
	assert.False(t, food.HasBudget())
	assert.True(t, food.Hideable)

	n, err := svc.DeleteCategory(ctx, user, food.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := st.GetTransaction(ctx, user, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"home"}, got.Categories)
	assert.True(t, balanceOf(t, st, "bpi").Equal(dec("-60")))
}

func TestCategoryValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.CreateCategory(context.Background(), user, CategoryInput{Name: "", MonthlyBudget: dec("-1")})
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, []string{"name", "monthly_budget"}, verrs.Fields())
}

func TestTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _, rec := newTestService(t)

	tok, err := svc.AddToken(ctx, user, TokenInput{CoinID: " Bitcoin ", Amount: dec("0.015")})
	require.NoError(t, err)
	assert.Equal(t, "bitcoin", tok.CoinID)
	assert.Equal(t, "BITCOIN", tok.Symbol)

	_, err = svc.AddToken(ctx, user, TokenInput{CoinID: "ethereum", Symbol: "eth", Amount: dec("2")})
	require.NoError(t, err)

	tokens, err := svc.Tokens(ctx, user)
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, "BITCOIN", tokens[0].Symbol)
	assert.Equal(t, "ETH", tokens[1].Symbol)

	require.NoError(t, svc.DeleteToken(ctx, user, tok.ID))
	assert.ErrorIs(t, svc.DeleteToken(ctx, user, tok.ID), store.ErrNotFound)

	last := rec.got[len(rec.got)-1]
	assert.Equal(t, events.Tokens, last.Collection)
	assert.Equal(t, events.Delete, last.Action)
}

func TestTokenValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.AddToken(context.Background(), user, TokenInput{Amount: dec("-1")})
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, []string{"coin_id", "amount"}, verrs.Fields())
}
