package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finboard/internal/events"
	"github.com/cleared-dev/finboard/internal/id"
	"github.com/cleared-dev/finboard/internal/model"
	"github.com/cleared-dev/finboard/internal/store"
)

// OpeningBalanceDescription labels the transaction that seeds a new bank.
const OpeningBalanceDescription = "Opening balance"

// BankInput holds the user-editable fields of a bank.
type BankInput struct {
	Name           string
	PrimaryColor   string
	SecondaryColor string
	OpeningBalance decimal.Decimal
	OpenedOn       time.Time
}

// CreateBank stores a new bank with a zero balance. A non-zero opening
// balance is recorded as an ordinary income or expense transaction so the
// balance stays equal to the sum of the bank's transactions.
func (s *Service) CreateBank(ctx context.Context, user string, in BankInput) (model.Bank, error) {
	var errs ValidationErrors
	if strings.TrimSpace(in.Name) == "" {
		errs = append(errs, ValidationError{"name", "is required"})
	}
	if !hasCents(in.OpeningBalance) {
		errs = append(errs, ValidationError{"opening_balance", "has more than 2 decimal places"})
	}
	if len(errs) > 0 {
		return model.Bank{}, errs
	}

	bank := model.Bank{
		ID:             id.New(),
		User:           user,
		Name:           strings.TrimSpace(in.Name),
		PrimaryColor:   in.PrimaryColor,
		SecondaryColor: in.SecondaryColor,
	}
	if err := s.store.SaveBank(ctx, bank); err != nil {
		return model.Bank{}, fmt.Errorf("saving bank: %w", err)
	}
	s.publish(user, events.Banks, events.Create, bank.ID, bank)

	if in.OpeningBalance.IsZero() {
		return bank, nil
	}
	openedOn := in.OpenedOn
	if openedOn.IsZero() {
		openedOn = time.Now().UTC().Truncate(24 * time.Hour)
	}
	typ, magnitude := Magnitude(in.OpeningBalance)
	if _, err := s.Create(ctx, user, model.TransactionInput{
		Description: OpeningBalanceDescription,
		Type:        typ,
		Magnitude:   magnitude,
		Bank:        bank.ID,
		Date:        openedOn,
	}); err != nil {
		return bank, fmt.Errorf("recording opening balance: %w", err)
	}
	return s.store.GetBank(ctx, user, bank.ID)
}

// RenameBank changes the display name and colours of a bank. Transactions
// reference banks by ID, so nothing else is touched.
func (s *Service) RenameBank(ctx context.Context, user, bankID string, in BankInput) (model.Bank, error) {
	if strings.TrimSpace(in.Name) == "" {
		return model.Bank{}, ValidationErrors{{"name", "is required"}}
	}
	bank, err := s.store.GetBank(ctx, user, bankID)
	if err != nil {
		return model.Bank{}, fmt.Errorf("loading bank %s: %w", bankID, err)
	}
	bank.Name = strings.TrimSpace(in.Name)
	if in.PrimaryColor != "" {
		bank.PrimaryColor = in.PrimaryColor
	}
	if in.SecondaryColor != "" {
		bank.SecondaryColor = in.SecondaryColor
	}
	if err := s.store.SaveBank(ctx, bank); err != nil {
		return model.Bank{}, fmt.Errorf("saving bank: %w", err)
	}
	s.publish(user, events.Banks, events.Update, bank.ID, bank)
	return bank, nil
}

// DeleteBank deletes every transaction of the bank, then the bank itself.
// It returns the number of transactions removed.
func (s *Service) DeleteBank(ctx context.Context, user, bankID string) (int, error) {
	if _, err := s.store.GetBank(ctx, user, bankID); err != nil {
		return 0, fmt.Errorf("loading bank %s: %w", bankID, err)
	}
	txns, err := s.store.QueryTransactions(ctx, store.TransactionsOf(user).InBank(bankID))
	if err != nil {
		return 0, fmt.Errorf("listing transactions of bank %s: %w", bankID, err)
	}
	for i, t := range txns {
		if err := s.store.DeleteTransaction(ctx, user, t.ID); err != nil {
			return i, fmt.Errorf("deleting transaction %s: %w", t.ID, err)
		}
		s.publish(user, events.Transactions, events.Delete, t.ID, t)
	}
	if err := s.store.DeleteBank(ctx, user, bankID); err != nil {
		return len(txns), fmt.Errorf("deleting bank %s: %w", bankID, err)
	}
	s.publish(user, events.Banks, events.Delete, bankID, nil)
	s.logger.Info("bank deleted", "bank", bankID, "transactions", len(txns))
	return len(txns), nil
}

// CategoryInput holds the user-editable fields of a category.
type CategoryInput struct {
	Name          string
	Hideable      bool
	MonthlyBudget decimal.Decimal
}

func validateCategory(in CategoryInput) ValidationErrors {
	var errs ValidationErrors
	if strings.TrimSpace(in.Name) == "" {
		errs = append(errs, ValidationError{"name", "is required"})
	}
	if in.MonthlyBudget.IsNegative() {
		errs = append(errs, ValidationError{"monthly_budget", "must not be negative"})
	} else if !hasCents(in.MonthlyBudget) {
		errs = append(errs, ValidationError{"monthly_budget", "has more than 2 decimal places"})
	}
	return errs
}

// CreateCategory stores a new category.
func (s *Service) CreateCategory(ctx context.Context, user string, in CategoryInput) (model.Category, error) {
	if errs := validateCategory(in); len(errs) > 0 {
		return model.Category{}, errs
	}
	c := model.Category{
		ID:            id.New(),
		User:          user,
		Name:          strings.TrimSpace(in.Name),
		Hideable:      in.Hideable,
		MonthlyBudget: in.MonthlyBudget,
	}
	if err := s.store.SaveCategory(ctx, c); err != nil {
		return model.Category{}, fmt.Errorf("saving category: %w", err)
	}
	s.publish(user, events.Categories, events.Create, c.ID, c)
	return c, nil
}

// UpdateCategory replaces the editable fields of a category.
func (s *Service) UpdateCategory(ctx context.Context, user, categoryID string, in CategoryInput) (model.Category, error) {
	if errs := validateCategory(in); len(errs) > 0 {
		return model.Category{}, errs
	}
	c, err := s.store.GetCategory(ctx, user, categoryID)
	if err != nil {
		return model.Category{}, fmt.Errorf("loading category %s: %w", categoryID, err)
	}
	c.Name = strings.TrimSpace(in.Name)
	c.Hideable = in.Hideable
	c.MonthlyBudget = in.MonthlyBudget
	if err := s.store.SaveCategory(ctx, c); err != nil {
		return model.Category{}, fmt.Errorf("saving category: %w", err)
	}
	s.publish(user, events.Categories, events.Update, c.ID, c)
	return c, nil
}

// DeleteCategory removes the category from every transaction tagged with it,
// then deletes the category. Transactions are kept.
func (s *Service) DeleteCategory(ctx context.Context, user, categoryID string) (int, error) {
	if _, err := s.store.GetCategory(ctx, user, categoryID); err != nil {
		return 0, fmt.Errorf("loading category %s: %w", categoryID, err)
	}
	txns, err := s.store.QueryTransactions(ctx, store.TransactionsOf(user).WithAnyCategory(categoryID))
	if err != nil {
		return 0, fmt.Errorf("listing transactions of category %s: %w", categoryID, err)
	}
	for i, t := range txns {
		kept := make([]string, 0, len(t.Categories))
		for _, c := range t.Categories {
			if c != categoryID {
				kept = append(kept, c)
			}
		}
		t.Categories = kept
		if err := s.store.SaveTransaction(ctx, t); err != nil {
			return i, fmt.Errorf("untagging transaction %s: %w", t.ID, err)
		}
		s.publish(user, events.Transactions, events.Update, t.ID, t)
	}
	if err := s.store.DeleteCategory(ctx, user, categoryID); err != nil {
		return len(txns), fmt.Errorf("deleting category %s: %w", categoryID, err)
	}
	s.publish(user, events.Categories, events.Delete, categoryID, nil)
	return len(txns), nil
}
