package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finboard/internal/buildinfo"
)

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	dataDir  string
	logLevel string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	g := &globals{}
	rootCmd := &cobra.Command{
		Use:     "finboard",
		Short:   "Personal finance tracker with reconciled bank balances",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&g.dataDir, "data", ".", "data directory")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level (overrides config)")

	rootCmd.AddCommand(
		newInitCommand(),
		newBankCommand(g),
		newCategoryCommand(g),
		newTxCommand(g),
		newTransferCommand(g),
		newReportCommand(g),
		newTokenCommand(g),
		newPlannedCommand(g),
		newImportCommand(g),
		newServeCommand(g),
		newAuditCommand(g),
	)

	return rootCmd
}
