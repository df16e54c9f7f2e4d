// Package server exposes the ledger over a JSON API with a WebSocket feed of
// record changes.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finboard/internal/events"
	"github.com/cleared-dev/finboard/internal/ledger"
	"github.com/cleared-dev/finboard/internal/planned"
	"github.com/cleared-dev/finboard/internal/store"
)

// PriceSource returns current prices keyed by coin ID.
type PriceSource interface {
	Prices(ctx context.Context, coinIDs []string) (map[string]decimal.Decimal, error)
}

// Options wires a Server. Prices may be nil, in which case the portfolio
// report shows every holding unpriced.
type Options struct {
	Store    store.Store
	Ledger   *ledger.Service
	Planned  *planned.Service
	Bus      *events.Bus
	Prices   PriceSource
	Secret   []byte
	Currency string
	Logger   *log.Logger
}

// Server handles API requests for every user whose token it can verify.
type Server struct {
	store    store.Store
	ledger   *ledger.Service
	planned  *planned.Service
	prices   PriceSource
	secret   []byte
	currency string
	logger   *log.Logger
	hub      *Hub
	now      func() time.Time
}

// New builds a Server from o. Without a Bus the WebSocket feed stays silent.
func New(o Options) *Server {
	if o.Bus == nil {
		o.Bus = events.NewBus()
	}
	return &Server{
		store:    o.Store,
		ledger:   o.Ledger,
		planned:  o.Planned,
		prices:   o.Prices,
		secret:   o.Secret,
		currency: o.Currency,
		logger:   o.Logger,
		hub:      NewHub(o.Bus, o.Logger),
		now:      time.Now,
	}
}

// Router returns the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := r.Group("/api", s.authMiddleware())
	{
		banks := api.Group("/banks")
		banks.GET("", s.listBanks)
		banks.POST("", s.createBank)
		banks.GET("/check", s.checkBanks)
		banks.PATCH("/:id", s.renameBank)
		banks.DELETE("/:id", s.deleteBank)
		banks.POST("/:id/recompute", s.recomputeBank)
		banks.POST("/:id/reassign", s.reassignBank)

		categories := api.Group("/categories")
		categories.GET("", s.listCategories)
		categories.POST("", s.createCategory)
		categories.PATCH("/:id", s.updateCategory)
		categories.DELETE("/:id", s.deleteCategory)

		txns := api.Group("/transactions")
		txns.GET("", s.listTransactions)
		txns.POST("", s.createTransaction)
		txns.PUT("/:id", s.updateTransaction)
		txns.DELETE("/:id", s.deleteTransaction)
		api.POST("/transfers", s.createTransfer)

		reports := api.Group("/reports")
		reports.GET("/budgets", s.budgetsReport)
		reports.GET("/trends", s.trendsReport)
		reports.GET("/balances", s.balancesReport)
		reports.GET("/portfolio", s.portfolioReport)
		api.GET("/export.xlsx", s.exportXLSX)

		tokens := api.Group("/tokens")
		tokens.GET("", s.listTokens)
		tokens.POST("", s.addToken)
		tokens.DELETE("/:id", s.deleteToken)

		plannedGroup := api.Group("/planned")
		plannedGroup.GET("", s.listPlanned)
		plannedGroup.GET("/due", s.duePlanned)
		plannedGroup.POST("", s.addPlanned)
		plannedGroup.POST("/:id/apply", s.applyPlanned)
		plannedGroup.DELETE("/:id", s.deletePlanned)

		api.GET("/ws", s.hub.Serve)
	}
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then drains open
// requests and disconnects WebSocket clients.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serving on %s: %w", addr, err)
	case <-ctx.Done():
	}
	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
