package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finboard/internal/ledger"
	"github.com/cleared-dev/finboard/internal/model"
	"github.com/cleared-dev/finboard/internal/notify"
)

func newTokenCommand(g *globals) *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Track crypto token holdings",
	}
	tokenCmd.AddCommand(
		newTokenAddCommand(g),
		newTokenListCommand(g),
		newTokenDeleteCommand(g),
		newTokenHistoryCommand(g),
	)
	return tokenCmd
}

func newTokenAddCommand(g *globals) *cobra.Command {
	var symbol string

	cmd := &cobra.Command{
		Use:   "add <coin-id> <amount>",
		Short: "Add a holding by its market coin ID (e.g. bitcoin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			tok, err := a.ledger.AddToken(cmd.Context(), a.user(), ledger.TokenInput{
				CoinID: args[0],
				Symbol: symbol,
				Amount: amount,
			})
			if err != nil {
				return err
			}
			a.commit("token: add %s", tok.Symbol)
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s (%s)\n", tok.Amount, tok.Symbol, tok.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "display symbol (default the coin ID)")

	return cmd
}

func newTokenListCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List token holdings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			tokens, err := a.ledger.Tokens(cmd.Context(), a.user())
			if err != nil {
				return err
			}
			for _, t := range tokens {
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %-8s %-16s %s\n", t.ID, t.Symbol, t.CoinID, t.Amount)
			}
			return nil
		},
	}
}

func newTokenDeleteCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a holding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.ledger.DeleteToken(cmd.Context(), a.user(), args[0]); err != nil {
				return err
			}
			a.commit("token: delete %s", args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted token %s\n", args[0])
			return nil
		},
	}
}

func newTokenHistoryCommand(g *globals) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "history <coin-id>",
		Short: "Show a coin's market price over the last days",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			points, err := a.marketClient(ctx).History(ctx, strings.ToLower(args[0]), days)
			if err != nil {
				return err
			}
			r := a.renderer()
			for _, p := range points {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %14s\n", p.Time.UTC().Format("2006-01-02 15:04"), r.Money(p.Price))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "number of days")

	return cmd
}

func newPlannedCommand(g *globals) *cobra.Command {
	plannedCmd := &cobra.Command{
		Use:   "planned",
		Short: "Schedule future and recurring transactions",
	}
	plannedCmd.AddCommand(
		newPlannedAddCommand(g),
		newPlannedListCommand(g),
		newPlannedDueCommand(g),
		newPlannedApplyCommand(g),
		newPlannedDeleteCommand(g),
		newPlannedRemindCommand(g),
	)
	return plannedCmd
}

func newPlannedAddCommand(g *globals) *cobra.Command {
	var f txFlags
	var recur string

	cmd := &cobra.Command{
		Use:   "add <description> <amount>",
		Short: "Plan a transaction for a future date",
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
			p, err := a.planned.Add(cmd.Context(), a.user(), model.PlannedTransaction{
				Description: in.Description,
				Type:        in.Type,
				Magnitude:   in.Magnitude,
				Bank:        in.Bank,
				Categories:  in.Categories,
				DueDate:     in.Date,
				Recurrence:  model.Recurrence(strings.ToLower(recur)),
			})
			if err != nil {
				return err
			}
			a.commit("planned: add %s", p.Description)
			fmt.Fprintf(cmd.OutOrStdout(), "Planned %s for %s (%s, %s)\n", p.Description, p.DueDate.Format(dayLayout), p.Recurrence, p.ID)
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().Lookup("date").Usage = "due date, YYYY-MM-DD (default today)"
	cmd.Flags().StringVar(&recur, "recur", string(model.RecurNone), "none, weekly, monthly or yearly")

	return cmd
}

func printPlanned(cmd *cobra.Command, items []model.PlannedTransaction) {
	for _, p := range items {
		fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s %-8s %-10s %10s  %s\n",
			p.ID, p.DueDate.Format(dayLayout), p.Recurrence, p.Type, p.Magnitude.StringFixed(2), p.Description)
	}
}

func newPlannedListCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List planned transactions by due date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			items, err := a.planned.List(cmd.Context(), a.user())
			if err != nil {
				return err
			}
			printPlanned(cmd, items)
			return nil
		},
	}
}

func newPlannedDueCommand(g *globals) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "due",
		Short: "List planned transactions due soon, including overdue ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			items, err := a.planned.Due(cmd.Context(), a.user(), time.Now().UTC(), days)
			if err != nil {
				return err
			}
			printPlanned(cmd, items)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "horizon in days")

	return cmd
}

func newPlannedApplyCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <id>",
		Short: "Record a planned transaction now and advance its schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			txn, err := a.planned.Apply(cmd.Context(), a.user(), args[0])
			if txn.ID != "" {
				a.commit("planned: apply %s", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s as %s\n", args[0], txn.ID)
			return nil
		},
	}
}

func newPlannedDeleteCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Drop a planned transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.planned.Delete(cmd.Context(), a.user(), args[0]); err != nil {
				return err
			}
			a.commit("planned: delete %s", args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted planned transaction %s\n", args[0])
			return nil
		},
	}
}

func newPlannedRemindCommand(g *globals) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Send a reminder for every planned transaction due soon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			if !cmd.Flags().Changed("days") && a.cfg.Notify.RemindDays > 0 {
				days = a.cfg.Notify.RemindDays
			}
			var n notify.Notifier = notify.Log{Logger: a.logger}
			if tok := a.cfg.Notify.TelegramToken; tok != "" {
				tg, err := notify.DialTelegram(tok, a.cfg.Notify.TelegramChatID)
				if err != nil {
					return err
				}
				n = tg
			}

			sent, err := a.planned.Remind(cmd.Context(), a.user(), time.Now().UTC(), days, n)
			fmt.Fprintf(cmd.OutOrStdout(), "Sent %d reminder(s)\n", sent)
			return err
		},
	}

	cmd.Flags().IntVar(&days, "days", 3, "horizon in days")

	return cmd
}
