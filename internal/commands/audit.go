package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finboard/internal/auditlog"
)

func newAuditCommand(g *globals) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the most recent changes to your data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := auditlog.Read(a.dir, a.user())
			if err != nil {
				return err
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[len(entries)-limit:]
			}
			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %-12s %-6s %-16s %s\n",
					e.Timestamp.Format("2006-01-02 15:04:05"), e.Collection, e.Action, e.RecordID, e.Details)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of entries (0 for all)")

	return cmd
}
