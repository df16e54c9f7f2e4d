package report

import (
	"cmp"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finboard/internal/model"
)

// Mask replaces amounts hidden by privacy mode.
const Mask = "•••••"

// Renderer writes reports as markdown.
type Renderer struct {
	Currency string // ISO 4217 code
	Privacy  bool
	Hidden   HiddenSet
}

// Money formats d in the renderer's currency, rounded to the currency's
// minor unit.
func (r Renderer) Money(d decimal.Decimal) string {
	// money.New never returns a nil currency, unlike GetCurrency.
	cur := *money.New(0, r.Currency).Currency()
	minor := d.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

func (r Renderer) maybe(d decimal.Decimal, sensitive bool) string {
	if r.Privacy && sensitive {
		return Mask
	}
	return r.Money(d)
}

func cell(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "|", `\|`)
}

// Budgets renders the output of CategoryBudgets.
func (r Renderer) Budgets(w io.Writer, month time.Time, lines []BudgetLine) {
	fmt.Fprintf(w, "# Budgets for %s\n\n", month.Format("January 2006"))
	if len(lines) == 0 {
		fmt.Fprintln(w, "No categories yet.")
		return
	}
	fmt.Fprintln(w, "| Category | Spent | Budget | Remaining | Status |")
	fmt.Fprintln(w, "|---|---:|---:|---:|---|")
	for _, l := range lines {
		budget, remaining := "-", "-"
		if l.Status != Unbudgeted {
			budget = r.maybe(l.Budget, l.Hideable)
			remaining = r.maybe(l.Remaining, l.Hideable)
		}
		status := string(l.Status)
		if l.Status == Over {
			status = "**over**"
		}
		fmt.Fprintf(w, "| %s | %s | %s | %s | %s |\n",
			cell(l.Name), r.maybe(l.Spent, l.Hideable), budget, remaining, status)
	}
}

// Trends renders the output of MonthlyTrends.
func (r Renderer) Trends(w io.Writer, totals []MonthTotal) {
	fmt.Fprintln(w, "# Monthly trends")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Month | Income | Expenses | Net | Transfers |")
	fmt.Fprintln(w, "|---|---:|---:|---:|---:|")
	for _, m := range totals {
		fmt.Fprintf(w, "| %s | %s | %s | %s | %s |\n",
			m.Month.Format("2006-01"),
			r.maybe(m.Income, m.Sensitive),
			r.maybe(m.Expenses, m.Sensitive),
			r.maybe(m.Net, m.Sensitive),
			r.maybe(m.Transfers, m.Sensitive))
	}
}

// Balances renders the output of Balances.
func (r Renderer) Balances(w io.Writer, banks []model.Bank, total decimal.Decimal) {
	fmt.Fprintln(w, "# Balances")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Bank | Balance |")
	fmt.Fprintln(w, "|---|---:|")
	for _, b := range banks {
		fmt.Fprintf(w, "| %s | %s |\n", cell(b.Name), r.Money(b.Balance))
	}
	fmt.Fprintf(w, "| **Total** | **%s** |\n", r.Money(total))
}

// Portfolio renders a PortfolioView. A market data error is shown inline.
func (r Renderer) Portfolio(w io.Writer, view PortfolioView) {
	fmt.Fprintln(w, "# Portfolio")
	fmt.Fprintln(w)
	if view.Err != nil {
		fmt.Fprintf(w, "> Prices unavailable: %s\n\n", view.Err)
	}
	if len(view.Holdings) == 0 {
		fmt.Fprintln(w, "No tokens yet.")
		return
	}
	fmt.Fprintln(w, "| Token | Amount | Price | Value |")
	fmt.Fprintln(w, "|---|---:|---:|---:|")
	for _, h := range view.Holdings {
		price, value := "n/a", "n/a"
		if h.Priced {
			price, value = r.Money(h.Price), r.Money(h.Value)
		}
		fmt.Fprintf(w, "| %s | %s | %s | %s |\n",
			cell(strings.ToUpper(h.Token.Symbol)), h.Token.Amount.String(), price, value)
	}
	fmt.Fprintf(w, "| **Total** | | | **%s** |\n", r.Money(view.Total))
}

// Transactions renders a transaction list with bank and category names.
func (r Renderer) Transactions(w io.Writer, txns []model.Transaction, banks []model.Bank, categories []model.Category) {
	bankNames := make(map[string]string, len(banks))
	for _, b := range banks {
		bankNames[b.ID] = b.Name
	}
	catNames := make(map[string]string, len(categories))
	for _, c := range categories {
		catNames[c.ID] = c.Name
	}

	fmt.Fprintln(w, "| Date | Description | Categories | Bank | Amount | ID |")
	fmt.Fprintln(w, "|---|---|---|---|---:|---|")
	for _, t := range txns {
		names := make([]string, len(t.Categories))
		for i, c := range t.Categories {
			names[i] = cmp.Or(catNames[c], c)
		}
		fmt.Fprintf(w, "| %s | %s | %s | %s | %s | `%s` |\n",
			t.Date.Format("2006-01-02"), cell(t.Description), cell(strings.Join(names, ", ")),
			cell(cmp.Or(bankNames[t.Bank], t.Bank)), r.maybe(t.Amount, r.Hidden.Covers(t)), t.ID)
	}
}
