package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finboard/internal/auditlog"
	"github.com/cleared-dev/finboard/internal/config"
	"github.com/cleared-dev/finboard/internal/events"
	"github.com/cleared-dev/finboard/internal/gitops"
	"github.com/cleared-dev/finboard/internal/ledger"
	"github.com/cleared-dev/finboard/internal/logging"
	"github.com/cleared-dev/finboard/internal/market"
	"github.com/cleared-dev/finboard/internal/planned"
	"github.com/cleared-dev/finboard/internal/report"
	"github.com/cleared-dev/finboard/internal/session"
	"github.com/cleared-dev/finboard/internal/store"
	"github.com/cleared-dev/finboard/internal/store/csvstore"
	"github.com/cleared-dev/finboard/internal/store/sqlstore"
)

// app is everything a command needs, opened from the data directory.
type app struct {
	dir       string
	cfg       *config.Config
	logger    *log.Logger
	store     store.Store
	bus       *events.Bus
	ledger    *ledger.Service
	planned   *planned.Service
	session   *session.Session
	committer gitops.Committer
	closers   []func() error
}

func openApp(g *globals) (*app, error) {
	dir, err := filepath.Abs(g.dataDir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s is not a finboard data directory (run finboard init)", dir)
	}
	if err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(cfg, filepath.Join(dir, ".env")); err != nil {
		return nil, err
	}
	if cfg.User == "" {
		return nil, errors.New("no user configured")
	}
	level := cfg.LogLevel
	if g.logLevel != "" {
		level = g.logLevel
	}
	logger := logging.New(level, "finboard")

	a := &app{dir: dir, cfg: cfg, logger: logger, bus: events.NewBus()}
	switch cfg.Storage.Driver {
	case "", "csv":
		a.store = csvstore.Open(dir)
	case "postgres":
		st, err := sqlstore.Open(cfg.Storage.DSN)
		if err != nil {
			return nil, err
		}
		a.store = st
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	a.closers = append(a.closers, a.store.Close)

	recorder := auditlog.NewRecorder(dir, logger)
	unsubscribe := recorder.Attach(a.bus)
	a.closers = append(a.closers, func() error { unsubscribe(); return nil })

	a.ledger = ledger.NewService(a.store, a.bus, logger)
	a.planned = planned.NewService(a.store, a.ledger, a.bus, logger)

	scheme := session.Scheme(cfg.ColorScheme)
	if !scheme.Valid() {
		scheme = session.SchemeAuto
	}
	a.session = session.New(cfg.User, cfg.Privacy, scheme)
	a.committer = gitops.Committer{
		Dir:         dir,
		Enabled:     cfg.Git.AutoCommit,
		AuthorName:  cfg.Git.AuthorName,
		AuthorEmail: cfg.Git.AuthorEmail,
		Logger:      logger,
	}
	return a, nil
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

func (a *app) user() string { return a.session.User() }

// commit snapshots the data directory after a mutation. Failures are
// logged; the mutation itself already succeeded.
func (a *app) commit(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if _, err := a.committer.Snapshot(msg); err != nil {
		a.logger.Warn("git snapshot failed", "message", msg, "error", err)
	}
}

func (a *app) renderer() report.Renderer {
	return report.Renderer{Currency: a.cfg.Currency, Privacy: a.session.Privacy()}
}

// marketClient builds a price client from config, backed by Redis when an
// address is configured.
func (a *app) marketClient(ctx context.Context) *market.Client {
	c := market.NewClient(a.cfg.Market.BaseURL, a.cfg.Market.VsCurrency, a.logger)
	if a.cfg.Market.Retries > 0 {
		c.Retries = a.cfg.Market.Retries
	}
	if a.cfg.Market.Timeout > 0 {
		c.HTTP.Timeout = a.cfg.Market.Timeout
	}
	if a.cfg.Market.CacheTTL > 0 {
		c.CacheTTL = a.cfg.Market.CacheTTL
	}
	if addr := a.cfg.Market.RedisAddr; addr != "" {
		rc, err := market.NewRedisCache(ctx, addr)
		if err != nil {
			a.logger.Warn("redis unavailable, using in-memory price cache", "addr", addr, "error", err)
		} else {
			c.Cache = rc
			a.closers = append(a.closers, rc.Close)
		}
	}
	return c
}

// print renders markdown through glamour unless plain output was asked for.
func (a *app) print(w io.Writer, md string, plain bool) error {
	if plain {
		_, err := io.WriteString(w, md)
		return err
	}
	return report.Print(w, md, string(a.session.Scheme()))
}

const dayLayout = "2006-01-02"

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC().Truncate(24 * time.Hour), nil
	}
	d, err := time.Parse(dayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return d, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}
