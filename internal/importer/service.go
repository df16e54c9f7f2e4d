package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finboard/internal/ledger"
	"github.com/cleared-dev/finboard/internal/model"
)

// Creator records a transaction and reconciles its bank.
type Creator interface {
	Create(ctx context.Context, user string, in model.TransactionInput) (model.Transaction, error)
}

// Result summarizes one imported file.
type Result struct {
	File     string
	Created  []model.Transaction
	Skipped  int // zero-amount lines
	Rejected []error

	// Closing is the statement's balance after its latest line, when the
	// format reports running balances.
	Closing decimal.NullDecimal
}

// closing returns the running balance of the latest-dated line that has
// one. Lines sharing a date keep file order.
func closing(lines []StatementLine) decimal.NullDecimal {
	var (
		out  decimal.NullDecimal
		last time.Time
	)
	for _, l := range lines {
		if l.Balance.Valid && !l.Date.Before(last) {
			out, last = l.Balance, l.Date
		}
	}
	return out
}

// Service imports statements into a bank through the ledger.
type Service struct {
	ledger   Creator
	registry *Registry
	logger   *log.Logger
}

// NewService creates an importer Service with the default parsers.
func NewService(ledger Creator, logger *log.Logger) *Service {
	return &Service{ledger: ledger, registry: DefaultRegistry(), logger: logger}
}

// Input converts a statement line into a transaction input for bank.
func (l StatementLine) Input(bank string, categories []string) model.TransactionInput {
	typ, magnitude := ledger.Magnitude(l.Amount)
	return model.TransactionInput{
		Description: l.Description,
		Type:        typ,
		Magnitude:   magnitude,
		Bank:        bank,
		Categories:  categories,
		Date:        l.Date,
	}
}

// ImportFile parses path with format (guessed from the extension when
// empty) and creates one transaction per line. Lines rejected by
// validation are collected in the result; any other error stops the import.
func (s *Service) ImportFile(ctx context.Context, user, bank, path, format string) (Result, error) {
	res := Result{File: filepath.Base(path)}
	if format == "" {
		format = GuessFormat(path)
	}
	p := s.registry.Get(format)
	if p == nil {
		return res, fmt.Errorf("unknown import format %q (have %v)", format, s.registry.Formats())
	}

	f, err := os.Open(path)
	if err != nil {
		return res, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	lines, err := p.Parse(f)
	if err != nil {
		return res, fmt.Errorf("parsing %s: %w", res.File, err)
	}
	res.Closing = closing(lines)

	for _, l := range lines {
		if l.Amount.IsZero() {
			res.Skipped++
			continue
		}
		txn, err := s.ledger.Create(ctx, user, l.Input(bank, nil))
		var verrs ledger.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			s.logger.Warn("statement line rejected", "file", res.File, "reference", l.Reference, "error", err)
			res.Rejected = append(res.Rejected, fmt.Errorf("%s: %w", l.Reference, err))
		case err != nil:
			return res, fmt.Errorf("importing %s: %w", l.Reference, err)
		default:
			res.Created = append(res.Created, txn)
		}
	}
	s.logger.Info("statement imported", "file", res.File, "created", len(res.Created), "skipped", res.Skipped, "rejected", len(res.Rejected))
	return res, nil
}

// ImportDir imports every statement in <root>/import/ into bank and moves
// each fully processed file to import/processed/.
func (s *Service) ImportDir(ctx context.Context, user, bank, root, format string) ([]Result, error) {
	files, err := Scan(root)
	if err != nil {
		return nil, err
	}
	var results []Result
	for _, fi := range files {
		res, err := s.ImportFile(ctx, user, bank, fi.Path, format)
		results = append(results, res)
		if err != nil {
			return results, err
		}
		if err := MarkProcessed(root, fi.Name); err != nil {
			return results, err
		}
	}
	return results, nil
}
