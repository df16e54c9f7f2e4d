package commands

import (
	"cmp"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finboard/internal/server"
)

func newServeCommand(g *globals) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API and live change feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			secret := a.cfg.Server.JWTSecret
			if secret == "" {
				return errors.New("server.jwt_secret (or FINBOARD_JWT_SECRET) must be set")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(server.Options{
				Store:    a.store,
				Ledger:   a.ledger,
				Planned:  a.planned,
				Bus:      a.bus,
				Prices:   a.marketClient(ctx),
				Secret:   []byte(secret),
				Currency: a.cfg.Currency,
				Logger:   a.logger,
			})
			return srv.ListenAndServe(ctx, cmp.Or(addr, a.cfg.Server.Addr, ":8080"))
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")

	return cmd
}
