package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finboard/internal/ledger"
	"github.com/cleared-dev/finboard/internal/model"
	"github.com/cleared-dev/finboard/internal/report"
	"github.com/cleared-dev/finboard/internal/store"
)

const (
	defaultTrendMonths = 6
	maxTrendMonths     = 36
)

// masked hides d when privacy is on for a sensitive figure; JSON clients get
// null plus a masked flag instead of the amount.
func masked(d decimal.Decimal, hide bool) *decimal.Decimal {
	if hide {
		return nil
	}
	return &d
}

func (s *Server) budgetsReport(c *gin.Context) {
	// Stored dates are UTC midnights.
	month := s.now().UTC()
	if m := c.Query("month"); m != "" {
		parsed, err := time.Parse("2006-01", m)
		if err != nil {
			s.fail(c, ledger.ValidationErrors{{Field: "month", Description: "must be YYYY-MM"}})
			return
		}
		month = parsed
	}
	ctx, user := c.Request.Context(), userOf(c)
	cats, err := s.store.ListCategories(ctx, user)
	if err != nil {
		s.fail(c, err)
		return
	}
	txns, err := s.store.QueryTransactions(ctx, store.TransactionsOf(user).InMonth(month))
	if err != nil {
		s.fail(c, err)
		return
	}

	privacy := sessionOf(c).Privacy()
	type lineJSON struct {
		Category  string              `json:"category"`
		Name      string              `json:"name"`
		Spent     *decimal.Decimal    `json:"spent"`
		Budget    *decimal.Decimal    `json:"budget,omitempty"`
		Remaining *decimal.Decimal    `json:"remaining,omitempty"`
		Status    report.BudgetStatus `json:"status"`
		Masked    bool                `json:"masked,omitempty"`
	}
	lines := report.CategoryBudgets(txns, cats, month)
	out := make([]lineJSON, 0, len(lines))
	for _, l := range lines {
		hide := privacy && l.Hideable
		j := lineJSON{Category: l.CategoryID, Name: l.Name, Spent: masked(l.Spent, hide), Status: l.Status, Masked: hide}
		if l.Status != report.Unbudgeted {
			j.Budget, j.Remaining = masked(l.Budget, hide), masked(l.Remaining, hide)
		}
		out = append(out, j)
	}
	c.JSON(http.StatusOK, gin.H{"month": month.Format("2006-01"), "lines": out})
}

func (s *Server) trendsReport(c *gin.Context) {
	n := defaultTrendMonths
	if v := c.Query("months"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 || parsed > maxTrendMonths {
			s.fail(c, ledger.ValidationErrors{{Field: "months", Description: "must be between 1 and " + strconv.Itoa(maxTrendMonths)}})
			return
		}
		n = parsed
	}
	now := s.now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(n - 1), 0)

	ctx, user := c.Request.Context(), userOf(c)
	cats, err := s.store.ListCategories(ctx, user)
	if err != nil {
		s.fail(c, err)
		return
	}
	txns, err := s.store.QueryTransactions(ctx, store.TransactionsOf(user).Between(from, from.AddDate(0, n, 0)))
	if err != nil {
		s.fail(c, err)
		return
	}

	privacy := sessionOf(c).Privacy()
	type monthJSON struct {
		Month     string           `json:"month"`
		Income    *decimal.Decimal `json:"income"`
		Expenses  *decimal.Decimal `json:"expenses"`
		Net       *decimal.Decimal `json:"net"`
		Transfers *decimal.Decimal `json:"transfers"`
		Masked    bool             `json:"masked,omitempty"`
	}
	totals := report.MonthlyTrends(txns, from, n, report.Hidden(cats))
	out := make([]monthJSON, 0, len(totals))
	for _, m := range totals {
		hide := privacy && m.Sensitive
		out = append(out, monthJSON{
			Month:     m.Month.Format("2006-01"),
			Income:    masked(m.Income, hide),
			Expenses:  masked(m.Expenses, hide),
			Net:       masked(m.Net, hide),
			Transfers: masked(m.Transfers, hide),
			Masked:    hide,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) balancesReport(c *gin.Context) {
	banks, err := s.store.ListBanks(c.Request.Context(), userOf(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	sorted, total := report.Balances(banks)
	if sorted == nil {
		sorted = []model.Bank{}
	}
	c.JSON(http.StatusOK, gin.H{"banks": sorted, "total": total, "currency": s.currency})
}

func (s *Server) portfolioReport(c *gin.Context) {
	ctx := c.Request.Context()
	tokens, err := s.ledger.Tokens(ctx, userOf(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	var prices map[string]decimal.Decimal
	var priceErr error
	if s.prices != nil && len(tokens) > 0 {
		ids := make([]string, 0, len(tokens))
		for _, t := range tokens {
			ids = append(ids, t.CoinID)
		}
		prices, priceErr = s.prices.Prices(ctx, ids)
		if priceErr != nil {
			s.logger.Warn("market data unavailable", "error", priceErr)
		}
	}
	view := report.Portfolio(tokens, prices, priceErr)

	type holdingJSON struct {
		Token model.Token      `json:"token"`
		Price *decimal.Decimal `json:"price"`
		Value *decimal.Decimal `json:"value"`
	}
	holdings := make([]holdingJSON, 0, len(view.Holdings))
	for _, h := range view.Holdings {
		holdings = append(holdings, holdingJSON{Token: h.Token, Price: masked(h.Price, !h.Priced), Value: masked(h.Value, !h.Priced)})
	}
	resp := gin.H{"holdings": holdings, "total": view.Total, "currency": s.currency}
	if view.Err != nil {
		resp["error"] = view.Err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) exportXLSX(c *gin.Context) {
	ctx, user := c.Request.Context(), userOf(c)
	banks, err := s.store.ListBanks(ctx, user)
	if err != nil {
		s.fail(c, err)
		return
	}
	cats, err := s.store.ListCategories(ctx, user)
	if err != nil {
		s.fail(c, err)
		return
	}
	txns, err := s.store.QueryTransactions(ctx, store.TransactionsOf(user).OldestFirst())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="finboard.xlsx"`)
	if err := report.ExportXLSX(c.Writer, banks, cats, txns); err != nil {
		s.logger.Error("export failed", "error", err)
	}
}
