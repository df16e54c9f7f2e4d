package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/cleared-dev/finboard/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func txn(id string, typ model.TransactionType, amount string, d time.Time, cats ...string) model.Transaction {
	return model.Transaction{ID: id, Type: typ, Amount: dec(amount), Bank: "bpi", Date: d, Categories: cats}
}

var categories = []model.Category{
	{ID: "food", Name: "Food", MonthlyBudget: dec("150")},
	{ID: "home", Name: "Home", MonthlyBudget: dec("500"), Hideable: true},
	{ID: "fun", Name: "Fun"},
}

func lineFor(t *testing.T, lines []BudgetLine, id string) BudgetLine {
	t.Helper()
	for _, l := range lines {
		if l.CategoryID == id {
			return l
		}
	}
	t.Fatalf("no budget line for %q", id)
	return BudgetLine{}
}

func TestCategoryBudgetsSplitsEvenly(t *testing.T) {
	txns := []model.Transaction{
		txn("1", model.TypeExpense, "-300", date(2025, 3, 5), "food", "home", "fun"),
	}
	lines := CategoryBudgets(txns, categories, date(2025, 3, 1))
	for _, id := range []string{"food", "home", "fun"} {
		assert.True(t, lineFor(t, lines, id).Total.Equal(dec("-100")), id)
	}
}

func TestCategoryBudgetsStatus(t *testing.T) {
	txns := []model.Transaction{
		txn("1", model.TypeExpense, "-120", date(2025, 3, 2), "food"),
		txn("2", model.TypeExpense, "-60", date(2025, 3, 20), "food"),
		txn("3", model.TypeIncome, "20", date(2025, 3, 21), "food"),
		txn("4", model.TypeExpense, "-499.99", date(2025, 3, 3), "home"),
		txn("5", model.TypeExpense, "-25", date(2025, 3, 9)),
		txn("6", model.TypeExpense, "-1000", date(2025, 4, 1), "food"),
		txn("7", model.TypeExpense, "-5", date(2025, 3, 9), "gone"),
	}
	lines := CategoryBudgets(txns, categories, date(2025, 3, 15))

	food := lineFor(t, lines, "food")
	assert.True(t, food.Total.Equal(dec("-160")))
	assert.True(t, food.Spent.Equal(dec("160")))
	assert.True(t, food.Remaining.Equal(dec("-10")))
	assert.Equal(t, Over, food.Status)

	home := lineFor(t, lines, "home")
	assert.Equal(t, Within, home.Status)
	assert.True(t, home.Remaining.Equal(dec("0.01")))

	fun := lineFor(t, lines, "fun")
	assert.Equal(t, Unbudgeted, fun.Status)
	assert.True(t, fun.Spent.IsZero())

	assert.Equal(t, "gone", lineFor(t, lines, "gone").Name)

	last := lines[len(lines)-1]
	assert.Equal(t, Uncategorized, last.CategoryID)
	assert.True(t, last.Total.Equal(dec("-25")))
}

func TestCategoryBudgetsWithoutUncategorized(t *testing.T) {
	lines := CategoryBudgets(nil, categories, date(2025, 3, 1))
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"Food", "Fun", "Home"}, []string{lines[0].Name, lines[1].Name, lines[2].Name})
}

func TestMonthlyTrends(t *testing.T) {
	txns := []model.Transaction{
		txn("1", model.TypeIncome, "2000", date(2025, 1, 31)),
		txn("2", model.TypeExpense, "-750.50", date(2025, 1, 3), "home"),
		txn("3", model.TypeWithdrawal, "-100", date(2025, 2, 10)),
		txn("4", model.TypeDeposit, "95", date(2025, 2, 10)),
		txn("5", model.TypeExpense, "-10", date(2024, 12, 31)),
		txn("6", model.TypeIncome, "1", date(2025, 4, 1)),
	}
	totals := MonthlyTrends(txns, date(2025, 1, 15), 3, Hidden(categories))
	require.Len(t, totals, 3)

	assert.Equal(t, date(2025, 1, 1), totals[0].Month)
	assert.True(t, totals[0].Income.Equal(dec("2000")))
	assert.True(t, totals[0].Expenses.Equal(dec("750.50")))
	assert.True(t, totals[0].Net.Equal(dec("1249.50")))
	assert.True(t, totals[0].Sensitive)

	assert.True(t, totals[1].Transfers.Equal(dec("-5")))
	assert.True(t, totals[1].Net.IsZero())
	assert.False(t, totals[1].Sensitive)

	assert.Equal(t, date(2025, 3, 1), totals[2].Month)
	assert.True(t, totals[2].Income.IsZero())

	assert.Nil(t, MonthlyTrends(txns, date(2025, 1, 1), 0, nil))
}

func TestBalances(t *testing.T) {
	rows, total := Balances([]model.Bank{
		{ID: "2", Name: "Revolut", Balance: dec("10.10")},
		{ID: "1", Name: "BPI", Balance: dec("-0.10")},
	})
	assert.Equal(t, "BPI", rows[0].Name)
	assert.True(t, total.Equal(dec("10")))
}

func TestPortfolio(t *testing.T) {
	tokens := []model.Token{
		{ID: "a", CoinID: "bitcoin", Symbol: "btc", Amount: dec("0.5")},
		{ID: "b", CoinID: "mystery", Symbol: "mys", Amount: dec("10")},
		{ID: "c", CoinID: "ethereum", Symbol: "eth", Amount: dec("2")},
	}
	prices := map[string]decimal.Decimal{"bitcoin": dec("60000"), "ethereum": dec("3000")}

	view := Portfolio(tokens, prices, nil)
	require.Len(t, view.Holdings, 3)
	assert.Equal(t, "btc", view.Holdings[0].Token.Symbol)
	assert.True(t, view.Holdings[0].Value.Equal(dec("30000")))
	assert.Equal(t, "eth", view.Holdings[1].Token.Symbol)
	assert.False(t, view.Holdings[2].Priced)
	assert.True(t, view.Total.Equal(dec("36000")))
}

func TestRendererMoney(t *testing.T) {
	r := Renderer{Currency: "USD"}
	assert.Equal(t, "$1,234.50", r.Money(dec("1234.5")))
	assert.Equal(t, "-$12.30", r.Money(dec("-12.3")))
}

func TestRendererPrivacyMasksHiddenCategories(t *testing.T) {
	txns := []model.Transaction{
		txn("1", model.TypeExpense, "-42", date(2025, 3, 5), "home"),
		txn("2", model.TypeExpense, "-7", date(2025, 3, 6), "food"),
	}
	lines := CategoryBudgets(txns, categories, date(2025, 3, 1))

	var open, private bytes.Buffer
	Renderer{Currency: "USD"}.Budgets(&open, date(2025, 3, 1), lines)
	r := Renderer{Currency: "USD", Privacy: true, Hidden: Hidden(categories)}
	r.Budgets(&private, date(2025, 3, 1), lines)

	assert.Contains(t, open.String(), "$42.00")
	assert.NotContains(t, private.String(), "$42.00")
	assert.Contains(t, private.String(), Mask)
	assert.Contains(t, private.String(), "$7.00")
	assert.Contains(t, private.String(), "# Budgets for March 2025")

	var list bytes.Buffer
	r.Transactions(&list, txns, []model.Bank{{ID: "bpi", Name: "BPI"}}, categories)
	out := list.String()
	assert.Contains(t, out, "| BPI |")
	assert.Contains(t, out, "-$7.00")
	assert.Equal(t, 1, strings.Count(out, Mask))
}

func TestRendererPortfolioShowsError(t *testing.T) {
	var buf bytes.Buffer
	Renderer{Currency: "EUR"}.Portfolio(&buf, Portfolio(
		[]model.Token{{CoinID: "bitcoin", Symbol: "btc", Amount: dec("1")}},
		nil, errors.New("rate limited")))
	assert.Contains(t, buf.String(), "Prices unavailable: rate limited")
	assert.Contains(t, buf.String(), "| BTC | 1 | n/a | n/a |")
}

func TestExportXLSX(t *testing.T) {
	banks := []model.Bank{{ID: "bpi", Name: "BPI", Balance: dec("4800")}}
	txns := []model.Transaction{
		txn("t1", model.TypeExpense, "-200", date(2025, 3, 5), "food", "fun"),
	}
	txns[0].Description = "Dinner"

	var buf bytes.Buffer
	require.NoError(t, ExportXLSX(&buf, banks, categories, txns))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{TransactionsSheet, BanksSheet}, f.GetSheetList())

	rows, err := f.GetRows(TransactionsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Description", rows[0][1])
	assert.Equal(t, []string{"2025-03-05", "Dinner", "expense", "-200", "BPI", "Food, Fun", "t1"}, rows[1])

	rows, err = f.GetRows(BanksSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "BPI", rows[1][0])
}
