// Package ledger keeps bank balances consistent with the transactions that
// reference them.
//
// Every mutation is a sequence of independent writes (bank balance first,
// then the transaction record). Nothing is rolled back when a later write
// fails; the error wraps ErrDrift and names the banks whose stored balance
// may now be wrong. Recompute repairs them.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/cleared-dev/finboard/internal/events"
	"github.com/cleared-dev/finboard/internal/model"
	"github.com/cleared-dev/finboard/internal/store"
)

// ErrDrift marks a failure after at least one balance write succeeded.
var ErrDrift = errors.New("bank balance may have drifted")

// DriftError names the banks left inconsistent by a partial failure.
type DriftError struct {
	Banks []string
	Err   error
}

func (e *DriftError) Error() string {
	return fmt.Sprintf("%v (recompute %s): %v", ErrDrift, strings.Join(e.Banks, ", "), e.Err)
}

func (e *DriftError) Unwrap() []error { return []error{ErrDrift, e.Err} }

// Store is the persistence the ledger needs.
type Store interface {
	store.Banks
	store.Categories
	store.Transactions
	store.Tokens
}

// Service applies transaction mutations and keeps balances reconciled.
type Service struct {
	store  Store
	events events.Publisher
	logger *log.Logger
}

// NewService creates a ledger Service. A nil publisher drops events.
func NewService(st Store, pub events.Publisher, logger *log.Logger) *Service {
	if pub == nil {
		pub = events.Discard
	}
	return &Service{store: st, events: pub, logger: logger}
}

func (s *Service) publish(user string, c events.Collection, a events.Action, id string, record any) {
	s.events.Publish(events.Event{User: user, Collection: c, Action: a, ID: id, Record: record})
}

func (s *Service) drift(err error, banks ...string) error {
	s.logger.Warn("balance write landed but a later write failed", "banks", banks, "error", err)
	return &DriftError{Banks: banks, Err: err}
}

// checkRefs verifies that the bank and categories exist for user.
func (s *Service) checkRefs(ctx context.Context, user, bankField, bankID string, categories []string) (ValidationErrors, error) {
	var errs ValidationErrors
	if bankID != "" {
		if _, err := s.store.GetBank(ctx, user, bankID); errors.Is(err, store.ErrNotFound) {
			errs = append(errs, ValidationError{bankField, fmt.Sprintf("unknown bank %q", bankID)})
		} else if err != nil {
			return nil, fmt.Errorf("loading bank %s: %w", bankID, err)
		}
	}
	for _, c := range categories {
		if _, err := s.store.GetCategory(ctx, user, c); errors.Is(err, store.ErrNotFound) {
			errs = append(errs, ValidationError{"categories", fmt.Sprintf("unknown category %q", c)})
		} else if err != nil {
			return nil, fmt.Errorf("loading category %s: %w", c, err)
		}
	}
	return errs, nil
}

// adjust adds delta to the stored balance of a bank and returns the result.
func (s *Service) adjust(ctx context.Context, user, bankID string, apply func(b *model.Bank)) (model.Bank, error) {
	bank, err := s.store.GetBank(ctx, user, bankID)
	if err != nil {
		return model.Bank{}, fmt.Errorf("loading bank %s: %w", bankID, err)
	}
	before := bank.Balance
	apply(&bank)
	if err := s.store.SaveBank(ctx, bank); err != nil {
		return model.Bank{}, fmt.Errorf("updating balance of bank %s: %w", bankID, err)
	}
	s.logger.Debug("balance updated", "bank", bankID, "from", before.StringFixed(2), "to", bank.Balance.StringFixed(2))
	s.publish(user, events.Banks, events.Update, bank.ID, bank)
	return bank, nil
}
