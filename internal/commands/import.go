package commands

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/finboard/internal/importer"
)

func newImportCommand(g *globals) *cobra.Command {
	var bank, format string

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a bank statement, or every statement in import/",
		Long: `Import turns statement lines into transactions on one bank.

With a file argument, only that file is imported. Without one, every
statement in the data directory's import/ folder is imported and moved
to import/processed/ once done.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			svc := importer.NewService(a.ledger, a.logger)
			var results []importer.Result
			if len(args) == 1 {
				if _, err := os.Stat(args[0]); err != nil {
					return err
				}
				res, ierr := svc.ImportFile(cmd.Context(), a.user(), bank, args[0], format)
				results, err = []importer.Result{res}, ierr
			} else {
				results, err = svc.ImportDir(cmd.Context(), a.user(), bank, a.dir, format)
			}

			created := 0
			out := cmd.OutOrStdout()
			for _, r := range results {
				created += len(r.Created)
				fmt.Fprintf(out, "%s: %d created, %d skipped, %d rejected\n", r.File, len(r.Created), r.Skipped, len(r.Rejected))
				for _, rej := range r.Rejected {
					fmt.Fprintf(out, "  %s\n", rej)
				}
			}
			if created > 0 {
				a.commit("import: %d transactions into %s", created, bank)
			}
			if err != nil {
				return err
			}
			return reportClosing(cmd, a, bank, results)
		},
	}

	cmd.Flags().StringVar(&bank, "bank", "", "bank ID to import into (required)")
	cmd.Flags().StringVar(&format, "format", "", "statement format (guessed from the file extension when empty)")
	_ = cmd.MarkFlagRequired("bank")

	return cmd
}

// reportClosing compares the closing balance printed on the last statement
// with the bank's stored balance. A mismatch usually means lines before the
// statement period were never recorded.
func reportClosing(cmd *cobra.Command, a *app, bank string, results []importer.Result) error {
	var closing decimal.NullDecimal
	for _, r := range results {
		if r.Closing.Valid {
			closing = r.Closing
		}
	}
	if !closing.Valid {
		return nil
	}
	b, err := a.store.GetBank(cmd.Context(), a.user(), bank)
	if err != nil {
		return err
	}
	r := a.renderer()
	out := cmd.OutOrStdout()
	if b.Balance.Equal(closing.Decimal) {
		fmt.Fprintf(out, "%s matches the statement closing balance (%s)\n", b.Name, r.Money(closing.Decimal))
		return nil
	}
	fmt.Fprintf(out, "%s balance %s differs from the statement closing balance %s by %s\n",
		b.Name, r.Money(b.Balance), r.Money(closing.Decimal), r.Money(closing.Decimal.Sub(b.Balance)))
	return nil
}
