package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/k0kubun/pp/v3"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/finboard/internal/model"
	"github.com/cleared-dev/finboard/internal/report"
	"github.com/cleared-dev/finboard/internal/store"
)

// txFlags are shared by tx add and tx edit.
type txFlags struct {
	bank       string
	kind       string
	date       string
	categories []string
}

func (f *txFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.bank, "bank", "", "bank ID (required)")
	cmd.Flags().StringVar(&f.kind, "type", string(model.TypeExpense), "income, expense, deposit or withdrawal")
	cmd.Flags().StringVar(&f.date, "date", "", "transaction date, YYYY-MM-DD (default today)")
	cmd.Flags().StringSliceVar(&f.categories, "category", nil, "category ID (repeatable)")
	_ = cmd.MarkFlagRequired("bank")
}

func (f *txFlags) input(description, amount string) (model.TransactionInput, error) {
	magnitude, err := parseAmount(amount)
	if err != nil {
		return model.TransactionInput{}, err
	}
	date, err := parseDay(f.date)
	if err != nil {
		return model.TransactionInput{}, err
	}
	return model.TransactionInput{
		Description: description,
		Type:        model.TransactionType(strings.ToLower(f.kind)),
		Magnitude:   magnitude,
		Bank:        f.bank,
		Categories:  f.categories,
		Date:        date,
	}, nil
}

func newTxCommand(g *globals) *cobra.Command {
	txCmd := &cobra.Command{
		Use:   "tx",
		Short: "Record and inspect transactions",
	}
	txCmd.AddCommand(
		newTxAddCommand(g),
		newTxEditCommand(g),
		newTxDeleteCommand(g),
		newTxListCommand(g),
		newTxShowCommand(g),
	)
	return txCmd
}

func newTxAddCommand(g *globals) *cobra.Command {
	var f txFlags

	cmd := &cobra.Command{
		Use:   "add <description> <amount>",
		Short: "Record a transaction and update the bank balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			in, err := f.input(args[0], args[1])
			if err != nil {
				return err
			}
			txn, err := a.ledger.Create(cmd.Context(), a.user(), in)
			if err != nil {
				return err
			}
			a.commit("tx: add %s", txn.Description)
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s %s on %s (%s)\n",
				txn.Type, a.renderer().Money(txn.Amount), txn.Date.Format(dayLayout), txn.ID)
			return nil
		},
	}
	f.register(cmd)

	return cmd
}

func newTxEditCommand(g *globals) *cobra.Command {
	var f txFlags

	cmd := &cobra.Command{
		Use:   "edit <id> <description> <amount>",
		Short: "Replace a transaction, moving its amount between banks if needed",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			in, err := f.input(args[1], args[2])
			if err != nil {
				return err
			}
			txn, err := a.ledger.Update(cmd.Context(), a.user(), args[0], in)
			if err != nil {
				return err
			}
			a.commit("tx: edit %s", txn.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: %s %s\n", txn.ID, txn.Type, a.renderer().Money(txn.Amount))
			return nil
		},
	}
	f.register(cmd)

	return cmd
}

func newTxDeleteCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction and reverse its effect on the balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.ledger.Delete(cmd.Context(), a.user(), args[0]); err != nil {
				return err
			}
			a.commit("tx: delete %s", args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted transaction %s\n", args[0])
			return nil
		},
	}
}

func newTxListCommand(g *globals) *cobra.Command {
	var bank, from, to string
	var categories []string
	var limit, offset int
	var plain, privacy bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			q := store.TransactionsOf(a.user()).InBank(bank).WithAnyCategory(categories...).Page(limit, offset)
			fromDay, err := parseBound(from)
			if err != nil {
				return err
			}
			toDay, err := parseBound(to)
			if err != nil {
				return err
			}
			q = q.Between(fromDay, toDay)

			ctx := cmd.Context()
			txns, err := a.store.QueryTransactions(ctx, q)
			if err != nil {
				return err
			}
			total, err := a.store.CountTransactions(ctx, q.Unpaged())
			if err != nil {
				return err
			}
			banks, err := a.store.ListBanks(ctx, a.user())
			if err != nil {
				return err
			}
			cats, err := a.store.ListCategories(ctx, a.user())
			if err != nil {
				return err
			}

			r := a.renderer()
			r.Privacy = r.Privacy || privacy
			r.Hidden = report.Hidden(cats)
			var b strings.Builder
			fmt.Fprintf(&b, "# Transactions\n\nShowing %d of %d.\n\n", len(txns), total)
			r.Transactions(&b, txns, banks, cats)
			return a.print(cmd.OutOrStdout(), b.String(), plain)
		},
	}

	cmd.Flags().StringVar(&bank, "bank", "", "only this bank")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "only transactions tagged with any of these categories")
	cmd.Flags().StringVar(&from, "from", "", "first day, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day, exclusive (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows (0 for all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "rows to skip")
	cmd.Flags().BoolVar(&plain, "plain", false, "print markdown without terminal styling")
	cmd.Flags().BoolVar(&privacy, "privacy", false, "mask amounts of hideable categories")

	return cmd
}

// parseBound parses an optional date filter; empty stays open.
func parseBound(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return parseDay(s)
}

func newTxShowCommand(g *globals) *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			txn, err := a.store.GetTransaction(cmd.Context(), a.user(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if debug {
				p := pp.New()
				p.SetOutput(out)
				p.SetColoringEnabled(false)
				_, err := p.Println(txn)
				return err
			}

			fmt.Fprintf(out, "ID:          %s\n", txn.ID)
			fmt.Fprintf(out, "Date:        %s\n", txn.Date.Format(dayLayout))
			fmt.Fprintf(out, "Description: %s\n", txn.Description)
			fmt.Fprintf(out, "Type:        %s\n", txn.Type)
			fmt.Fprintf(out, "Amount:      %s\n", a.renderer().Money(txn.Amount.Abs()))
			fmt.Fprintf(out, "Bank:        %s\n", txn.Bank)
			if len(txn.Categories) > 0 {
				fmt.Fprintf(out, "Categories:  %s\n", strings.Join(txn.Categories, ", "))
			}
			if txn.TransferID != "" {
				fmt.Fprintf(out, "Transfer:    %s\n", txn.TransferID)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "dump the stored record")

	return cmd
}

func newTransferCommand(g *globals) *cobra.Command {
	var from, to, amount, toAmount, date, desc string
	var categories []string

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Move money between two banks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			origin, err := parseAmount(amount)
			if err != nil {
				return err
			}
			day, err := parseDay(date)
			if err != nil {
				return err
			}
			t := model.Transfer{
				Description:     desc,
				Date:            day,
				OriginBank:      from,
				DestinationBank: to,
				OriginAmount:    origin,
				Categories:      categories,
			}
			if toAmount != "" {
				var dest decimal.Decimal
				if dest, err = parseAmount(toAmount); err != nil {
					return err
				}
				t.DestinationAmount = &dest
			}

			legs, err := a.ledger.Transfer(cmd.Context(), a.user(), t)
			if err != nil {
				return err
			}
			a.commit("transfer: %s to %s", from, to)
			r := a.renderer()
			fmt.Fprintf(cmd.OutOrStdout(), "Transferred %s from %s to %s (%s received)\n",
				r.Money(legs[0].Amount.Abs()), from, to, r.Money(legs[1].Amount))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "origin bank ID (required)")
	cmd.Flags().StringVar(&to, "to", "", "destination bank ID (required)")
	cmd.Flags().StringVar(&amount, "amount", "", "amount leaving the origin bank (required)")
	cmd.Flags().StringVar(&toAmount, "to-amount", "", "amount arriving at the destination, if different")
	cmd.Flags().StringVar(&date, "date", "", "transfer date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&desc, "desc", "Transfer", "description for both legs")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "category ID (repeatable)")
	for _, name := range []string{"from", "to", "amount"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}
