package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finboard/internal/events"
	"github.com/cleared-dev/finboard/internal/id"
	"github.com/cleared-dev/finboard/internal/model"
	"github.com/cleared-dev/finboard/internal/store"
)

// Create validates in, credits or debits its bank, then stores the
// transaction.
func (s *Service) Create(ctx context.Context, user string, in model.TransactionInput) (model.Transaction, error) {
	if err := s.validate(ctx, user, in); err != nil {
		return model.Transaction{}, err
	}
	txn := model.Transaction{
		ID:          id.New(),
		User:        user,
		Description: in.Description,
		Type:        in.Type,
		Amount:      Normalize(in.Magnitude, in.Type),
		Bank:        in.Bank,
		Categories:  in.Categories,
		Date:        in.Date,
	}
	if err := s.insert(ctx, txn); err != nil {
		return model.Transaction{}, err
	}
	return txn, nil
}

func (s *Service) validate(ctx context.Context, user string, in model.TransactionInput) error {
	errs := ValidateInput(in)
	refErrs, err := s.checkRefs(ctx, user, "bank", in.Bank, in.Categories)
	if err != nil {
		return err
	}
	errs = append(errs, refErrs...)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// insert applies an already signed transaction: balance first, record second.
func (s *Service) insert(ctx context.Context, txn model.Transaction) error {
	if _, err := s.adjust(ctx, txn.User, txn.Bank, func(b *model.Bank) {
		b.Balance = b.Balance.Add(txn.Amount)
	}); err != nil {
		return err
	}
	if err := s.store.SaveTransaction(ctx, txn); err != nil {
		return s.drift(fmt.Errorf("saving transaction: %w", err), txn.Bank)
	}
	s.publish(txn.User, events.Transactions, events.Create, txn.ID, txn)
	return nil
}

// Update replaces transaction id with in. The old contribution is removed
// from its bank and the new one applied to the (possibly different) new bank.
func (s *Service) Update(ctx context.Context, user, txnID string, in model.TransactionInput) (model.Transaction, error) {
	if err := s.validate(ctx, user, in); err != nil {
		return model.Transaction{}, err
	}
	orig, err := s.store.GetTransaction(ctx, user, txnID)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("loading transaction %s: %w", txnID, err)
	}

	updated := orig
	updated.Description = in.Description
	updated.Type = in.Type
	updated.Amount = Normalize(in.Magnitude, in.Type)
	updated.Bank = in.Bank
	updated.Categories = in.Categories
	updated.Date = in.Date

	touched := []string{orig.Bank}
	if orig.Bank == updated.Bank {
		if _, err := s.adjust(ctx, user, orig.Bank, func(b *model.Bank) {
			b.Balance = b.Balance.Sub(orig.Amount).Add(updated.Amount)
		}); err != nil {
			return model.Transaction{}, err
		}
	} else {
		if _, err := s.adjust(ctx, user, orig.Bank, func(b *model.Bank) {
			b.Balance = b.Balance.Sub(orig.Amount)
		}); err != nil {
			return model.Transaction{}, err
		}
		if _, err := s.adjust(ctx, user, updated.Bank, func(b *model.Bank) {
			b.Balance = b.Balance.Add(updated.Amount)
		}); err != nil {
			return model.Transaction{}, s.drift(err, orig.Bank)
		}
		touched = append(touched, updated.Bank)
	}

	if err := s.store.SaveTransaction(ctx, updated); err != nil {
		return model.Transaction{}, s.drift(fmt.Errorf("saving transaction: %w", err), touched...)
	}
	s.publish(user, events.Transactions, events.Update, updated.ID, updated)
	return updated, nil
}

// Delete removes a transaction and its contribution to its bank balance.
func (s *Service) Delete(ctx context.Context, user, txnID string) error {
	orig, err := s.store.GetTransaction(ctx, user, txnID)
	if err != nil {
		return fmt.Errorf("loading transaction %s: %w", txnID, err)
	}

	_, err = s.adjust(ctx, user, orig.Bank, func(b *model.Bank) {
		b.Balance = b.Balance.Sub(orig.Amount)
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.logger.Warn("deleting transaction of missing bank", "transaction", orig.ID, "bank", orig.Bank)
	case err != nil:
		return err
	}

	if err := s.store.DeleteTransaction(ctx, user, txnID); err != nil {
		return s.drift(fmt.Errorf("deleting transaction: %w", err), orig.Bank)
	}
	s.publish(user, events.Transactions, events.Delete, orig.ID, orig)
	return nil
}

// Recompute overwrites the stored balance of a bank with the sum of the
// signed amounts of all its transactions.
func (s *Service) Recompute(ctx context.Context, user, bankID string) (model.Bank, error) {
	txns, err := s.store.QueryTransactions(ctx, store.TransactionsOf(user).InBank(bankID))
	if err != nil {
		return model.Bank{}, fmt.Errorf("listing transactions of bank %s: %w", bankID, err)
	}
	sum := Sum(txns)
	return s.adjust(ctx, user, bankID, func(b *model.Bank) {
		if !b.Balance.Equal(sum) {
			s.logger.Info("balance corrected", "bank", bankID, "stored", b.Balance.StringFixed(2), "computed", sum.StringFixed(2))
		}
		b.Balance = sum
	})
}

// Sum adds the signed amounts of txns.
func Sum(txns []model.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txns {
		total = total.Add(t.Amount)
	}
	return total
}

// Drift reports a bank whose stored balance differs from its transactions.
type Drift struct {
	Bank     model.Bank
	Computed decimal.Decimal
}

// Difference is stored minus computed.
func (d Drift) Difference() decimal.Decimal {
	return d.Bank.Balance.Sub(d.Computed)
}

// Check compares every stored balance with the sum of its transactions
// without writing anything.
func (s *Service) Check(ctx context.Context, user string) ([]Drift, error) {
	banks, err := s.store.ListBanks(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("listing banks: %w", err)
	}
	txns, err := s.store.QueryTransactions(ctx, store.TransactionsOf(user))
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	sums := make(map[string]decimal.Decimal, len(banks))
	for _, t := range txns {
		sums[t.Bank] = sums[t.Bank].Add(t.Amount)
	}

	var drifts []Drift
	for _, b := range banks {
		if !b.Balance.Equal(sums[b.ID]) {
			drifts = append(drifts, Drift{Bank: b, Computed: sums[b.ID]})
		}
	}
	return drifts, nil
}

// Reassign moves every transaction of bank from to bank to, then recomputes
// both balances instead of adjusting them incrementally.
func (s *Service) Reassign(ctx context.Context, user, from, to string) (int, error) {
	if from == to {
		return 0, ValidationErrors{{"to", "must differ from the source bank"}}
	}
	for _, b := range []string{from, to} {
		if _, err := s.store.GetBank(ctx, user, b); err != nil {
			return 0, fmt.Errorf("loading bank %s: %w", b, err)
		}
	}

	txns, err := s.store.QueryTransactions(ctx, store.TransactionsOf(user).InBank(from))
	if err != nil {
		return 0, fmt.Errorf("listing transactions of bank %s: %w", from, err)
	}
	for i, t := range txns {
		t.Bank = to
		if err := s.store.SaveTransaction(ctx, t); err != nil {
			return i, s.drift(fmt.Errorf("re-pointing transaction %s: %w", t.ID, err), from, to)
		}
		s.publish(user, events.Transactions, events.Update, t.ID, t)
	}

	for _, b := range []string{from, to} {
		if _, err := s.Recompute(ctx, user, b); err != nil {
			return len(txns), s.drift(err, from, to)
		}
	}
	return len(txns), nil
}
