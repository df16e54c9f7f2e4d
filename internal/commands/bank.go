package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finboard/internal/ledger"
	"github.com/cleared-dev/finboard/internal/report"
)

func newBankCommand(g *globals) *cobra.Command {
	bankCmd := &cobra.Command{
		Use:   "bank",
		Short: "Manage banks",
	}
	bankCmd.AddCommand(
		newBankAddCommand(g),
		newBankListCommand(g),
		newBankRenameCommand(g),
		newBankDeleteCommand(g),
		newBankRecomputeCommand(g),
		newBankCheckCommand(g),
		newBankReassignCommand(g),
	)
	return bankCmd
}

func newBankAddCommand(g *globals) *cobra.Command {
	var opening, openedOn, primary, secondary string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a bank, optionally with an opening balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			amount, err := parseAmount(opening)
			if err != nil {
				return err
			}
			in := ledger.BankInput{Name: args[0], PrimaryColor: primary, SecondaryColor: secondary, OpeningBalance: amount}
			if !amount.IsZero() {
				if in.OpenedOn, err = parseDay(openedOn); err != nil {
					return err
				}
			}
			bank, err := a.ledger.CreateBank(cmd.Context(), a.user(), in)
			if err != nil {
				return err
			}
			a.commit("bank: add %s", bank.Name)
			fmt.Fprintf(cmd.OutOrStdout(), "Added bank %s (%s), balance %s\n", bank.Name, bank.ID, a.renderer().Money(bank.Balance))
			return nil
		},
	}

	cmd.Flags().StringVar(&opening, "opening", "", "opening balance (negative for overdrawn)")
	cmd.Flags().StringVar(&openedOn, "opened-on", "", "date of the opening balance (default today)")
	cmd.Flags().StringVar(&primary, "color", "", "primary colour")
	cmd.Flags().StringVar(&secondary, "secondary-color", "", "secondary colour")

	return cmd
}

func newBankListCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List banks with their balances",
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
			r := a.renderer()
			out := cmd.OutOrStdout()
			for _, b := range sorted {
				fmt.Fprintf(out, "%-16s %-24s %14s\n", b.ID, b.Name, r.Money(b.Balance))
			}
			fmt.Fprintf(out, "%-16s %-24s %14s\n", "", "Total", r.Money(total))
			return nil
		},
	}
}

func newBankRenameCommand(g *globals) *cobra.Command {
	var primary, secondary string

	cmd := &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a bank",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			bank, err := a.ledger.RenameBank(cmd.Context(), a.user(), args[0], ledger.BankInput{
				Name:           args[1],
				PrimaryColor:   primary,
				SecondaryColor: secondary,
			})
			if err != nil {
				return err
			}
			a.commit("bank: rename %s to %s", bank.ID, bank.Name)
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", bank.ID, bank.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&primary, "color", "", "primary colour")
	cmd.Flags().StringVar(&secondary, "secondary-color", "", "secondary colour")

	return cmd
}

func newBankDeleteCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a bank and all of its transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.ledger.DeleteBank(cmd.Context(), a.user(), args[0])
			if err != nil {
				return err
			}
			a.commit("bank: delete %s", args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted bank %s and %d transactions\n", args[0], n)
			return nil
		},
	}
}

func newBankRecomputeCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "recompute <id>",
		Short: "Reset a bank balance to the sum of its transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			bank, err := a.ledger.Recompute(cmd.Context(), a.user(), args[0])
			if err != nil {
				return err
			}
			a.commit("bank: recompute %s", bank.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "%s balance is %s\n", bank.Name, a.renderer().Money(bank.Balance))
			return nil
		},
	}
}

func newBankCheckCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report banks whose balance differs from their transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			drifts, err := a.ledger.Check(cmd.Context(), a.user())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(drifts) == 0 {
				fmt.Fprintln(out, "All balances reconcile.")
				return nil
			}
			r := a.renderer()
			ids := make([]string, 0, len(drifts))
			for _, d := range drifts {
				fmt.Fprintf(out, "%s (%s): stored %s, transactions sum to %s\n",
					d.Bank.Name, d.Bank.ID, r.Money(d.Bank.Balance), r.Money(d.Computed))
				ids = append(ids, d.Bank.ID)
			}
			return fmt.Errorf("%d bank(s) drifted; run finboard bank recompute %s", len(drifts), strings.Join(ids, " "))
		},
	}
}

func newBankReassignCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "reassign <from> <to>",
		Short: "Move every transaction of one bank to another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.ledger.Reassign(cmd.Context(), a.user(), args[0], args[1])
			if err != nil {
				return err
			}
			a.commit("bank: reassign %s to %s", args[0], args[1])
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %d transactions from %s to %s\n", n, args[0], args[1])
			return nil
		},
	}
}

func newCategoryCommand(g *globals) *cobra.Command {
	categoryCmd := &cobra.Command{
		Use:   "category",
		Short: "Manage categories",
	}
	categoryCmd.AddCommand(
		newCategoryAddCommand(g),
		newCategoryListCommand(g),
		newCategoryBudgetCommand(g),
		newCategoryDeleteCommand(g),
	)
	return categoryCmd
}

func newCategoryAddCommand(g *globals) *cobra.Command {
	var hideable bool
	var budget string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			amount, err := parseAmount(budget)
			if err != nil {
				return err
			}
			cat, err := a.ledger.CreateCategory(cmd.Context(), a.user(), ledger.CategoryInput{
				Name:          args[0],
				Hideable:      hideable,
				MonthlyBudget: amount,
			})
			if err != nil {
				return err
			}
			a.commit("category: add %s", cat.Name)
			fmt.Fprintf(cmd.OutOrStdout(), "Added category %s (%s)\n", cat.Name, cat.ID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&hideable, "hideable", false, "mask amounts in privacy mode")
	cmd.Flags().StringVar(&budget, "budget", "", "monthly budget")

	return cmd
}

func newCategoryListCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			cats, err := a.store.ListCategories(cmd.Context(), a.user())
			if err != nil {
				return err
			}
			r := a.renderer()
			for _, c := range cats {
				budget := "-"
				if c.HasBudget() {
					budget = r.Money(c.MonthlyBudget)
				}
				flag := ""
				if c.Hideable {
					flag = " (hideable)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %-24s %14s%s\n", c.ID, c.Name, budget, flag)
			}
			return nil
		},
	}
}

func newCategoryBudgetCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "budget <id> <amount>",
		Short: "Set a category's monthly budget (0 removes it)",
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
			cat, err := a.store.GetCategory(cmd.Context(), a.user(), args[0])
			if err != nil {
				return err
			}
			cat, err = a.ledger.UpdateCategory(cmd.Context(), a.user(), cat.ID, ledger.CategoryInput{
				Name:          cat.Name,
				Hideable:      cat.Hideable,
				MonthlyBudget: amount,
			})
			if err != nil {
				return err
			}
			a.commit("category: budget %s", cat.Name)
			fmt.Fprintf(cmd.OutOrStdout(), "%s budget set to %s\n", cat.Name, a.renderer().Money(cat.MonthlyBudget))
			return nil
		},
	}
}

func newCategoryDeleteCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category and untag its transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.ledger.DeleteCategory(cmd.Context(), a.user(), args[0])
			if err != nil {
				return err
			}
			a.commit("category: delete %s", args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted category %s, untagged %d transactions\n", args[0], n)
			return nil
		},
	}
}
