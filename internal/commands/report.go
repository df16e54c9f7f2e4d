package commands

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/finboard/internal/report"
	"github.com/cleared-dev/finboard/internal/store"
)

// reportFlags are shared by the rendered reports.
type reportFlags struct {
	plain   bool
	privacy bool
}

func (f *reportFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.plain, "plain", false, "print markdown without terminal styling")
	cmd.Flags().BoolVar(&f.privacy, "privacy", false, "mask amounts of hideable categories")
}

func (f *reportFlags) renderer(a *app) report.Renderer {
	r := a.renderer()
	r.Privacy = r.Privacy || f.privacy
	return r
}

func newReportCommand(g *globals) *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Budgets, trends, balances and exports",
	}
	reportCmd.AddCommand(
		newReportBudgetsCommand(g),
		newReportTrendsCommand(g),
		newReportBalancesCommand(g),
		newReportPortfolioCommand(g),
		newReportExportCommand(g),
	)
	return reportCmd
}

func newReportBudgetsCommand(g *globals) *cobra.Command {
	var f reportFlags
	var month string

	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "Spending against each category's monthly budget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			m := time.Now().UTC()
			if month != "" {
				if m, err = time.Parse("2006-01", month); err != nil {
					return fmt.Errorf("invalid month %q (want YYYY-MM)", month)
				}
			}
			ctx := cmd.Context()
			cats, err := a.store.ListCategories(ctx, a.user())
			if err != nil {
				return err
			}
			txns, err := a.store.QueryTransactions(ctx, store.TransactionsOf(a.user()).InMonth(m))
			if err != nil {
				return err
			}

			var b strings.Builder
			f.renderer(a).Budgets(&b, m, report.CategoryBudgets(txns, cats, m))
			return a.print(cmd.OutOrStdout(), b.String(), f.plain)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&month, "month", "", "month to report, YYYY-MM (default current)")

	return cmd
}

func newReportTrendsCommand(g *globals) *cobra.Command {
	var f reportFlags
	var months int

	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Income, expenses and transfers per month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if months <= 0 {
				return fmt.Errorf("--months must be positive")
			}
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			now := time.Now().UTC()
			from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)
			ctx := cmd.Context()
			cats, err := a.store.ListCategories(ctx, a.user())
			if err != nil {
				return err
			}
			txns, err := a.store.QueryTransactions(ctx, store.TransactionsOf(a.user()).Between(from, from.AddDate(0, months, 0)))
			if err != nil {
				return err
			}

			var b strings.Builder
			f.renderer(a).Trends(&b, report.MonthlyTrends(txns, from, months, report.Hidden(cats)))
			return a.print(cmd.OutOrStdout(), b.String(), f.plain)
		},
	}
	f.register(cmd)
	cmd.Flags().IntVar(&months, "months", 6, "number of months, ending with the current one")

	return cmd
}

func newReportBalancesCommand(g *globals) *cobra.Command {
	var f reportFlags

	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Every bank balance and the total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			banks, err := a.store.ListBanks(cmd.Context(), a.user())
			if err != nil {
				return err
			}
			sorted, total := report.Balances(banks)
			var b strings.Builder
			f.renderer(a).Balances(&b, sorted, total)
			return a.print(cmd.OutOrStdout(), b.String(), f.plain)
		},
	}
	f.register(cmd)

	return cmd
}

func newReportPortfolioCommand(g *globals) *cobra.Command {
	var f reportFlags

	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Token holdings valued at current market prices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			tokens, err := a.ledger.Tokens(ctx, a.user())
			if err != nil {
				return err
			}
			var prices map[string]decimal.Decimal
			var priceErr error
			if len(tokens) > 0 {
				ids := make([]string, 0, len(tokens))
				for _, t := range tokens {
					ids = append(ids, t.CoinID)
				}
				prices, priceErr = a.marketClient(ctx).Prices(ctx, ids)
				if priceErr != nil {
					a.logger.Warn("market data unavailable", "error", priceErr)
				}
			}

			var b strings.Builder
			f.renderer(a).Portfolio(&b, report.Portfolio(tokens, prices, priceErr))
			return a.print(cmd.OutOrStdout(), b.String(), f.plain)
		},
	}
	f.register(cmd)

	return cmd
}

func newReportExportCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.xlsx>",
		Short: "Write banks, categories and transactions to a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, user := cmd.Context(), a.user()
			banks, err := a.store.ListBanks(ctx, user)
			if err != nil {
				return err
			}
			cats, err := a.store.ListCategories(ctx, user)
			if err != nil {
				return err
			}
			txns, err := a.store.QueryTransactions(ctx, store.TransactionsOf(user).OldestFirst())
			if err != nil {
				return err
			}

			out, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("creating %s: %w", args[0], err)
			}
			if err := report.ExportXLSX(out, banks, cats, txns); err != nil {
				out.Close()
				return fmt.Errorf("exporting: %w", err)
			}
			if err := out.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d transactions to %s\n", len(txns), args[0])
			return nil
		},
	}
}
