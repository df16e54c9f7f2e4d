package csvstore

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finboard/internal/model"
)

const (
	dateFormat = "2006-01-02"
	listSep    = ";"
)

var (
	bankHeader        = []string{"id", "name", "balance", "primary_color", "secondary_color"}
	categoryHeader    = []string{"id", "name", "hideable", "monthly_budget"}
	transactionHeader = []string{"id", "date", "type", "amount", "bank", "categories", "description", "transfer_id"}
	tokenHeader       = []string{"id", "coin_id", "symbol", "amount"}
	plannedHeader     = []string{"id", "due_date", "type", "magnitude", "bank", "categories", "description", "recurrence", "anchor_day"}
)

// MarshalBank converts a Bank to a CSV row.
func MarshalBank(b model.Bank) []string {
	return []string{b.ID, b.Name, b.Balance.StringFixed(2), b.PrimaryColor, b.SecondaryColor}
}

// UnmarshalBank converts a CSV row to a Bank.
func UnmarshalBank(user string, rec []string) (model.Bank, error) {
	if len(rec) != len(bankHeader) {
		return model.Bank{}, fmt.Errorf("expected %d fields, got %d", len(bankHeader), len(rec))
	}
	balance, err := parseDecimal("balance", rec[2])
	if err != nil {
		return model.Bank{}, err
	}
	return model.Bank{
		ID:             rec[0],
		User:           user,
		Name:           rec[1],
		Balance:        balance,
		PrimaryColor:   rec[3],
		SecondaryColor: rec[4],
	}, nil
}

// MarshalCategory converts a Category to a CSV row.
func MarshalCategory(c model.Category) []string {
	row := []string{c.ID, c.Name, strconv.FormatBool(c.Hideable), ""}
	if c.HasBudget() {
		row[3] = c.MonthlyBudget.StringFixed(2)
	}
	return row
}

// UnmarshalCategory converts a CSV row to a Category.
func UnmarshalCategory(user string, rec []string) (model.Category, error) {
	if len(rec) != len(categoryHeader) {
		return model.Category{}, fmt.Errorf("expected %d fields, got %d", len(categoryHeader), len(rec))
	}
	hideable, err := strconv.ParseBool(rec[2])
	if err != nil {
		return model.Category{}, fmt.Errorf("parsing hideable %q: %w", rec[2], err)
	}
	budget, err := parseDecimal("monthly_budget", rec[3])
	if err != nil {
		return model.Category{}, err
	}
	return model.Category{
		ID:            rec[0],
		User:          user,
		Name:          rec[1],
		Hideable:      hideable,
		MonthlyBudget: budget,
	}, nil
}

// MarshalTransaction converts a Transaction to a CSV row.
func MarshalTransaction(t model.Transaction) []string {
	return []string{
		t.ID,
		t.Date.Format(dateFormat),
		string(t.Type),
		t.Amount.StringFixed(2),
		t.Bank,
		strings.Join(t.Categories, listSep),
		t.Description,
		t.TransferID,
	}
}

// UnmarshalTransaction converts a CSV row to a Transaction.
func UnmarshalTransaction(user string, rec []string) (model.Transaction, error) {
	if len(rec) != len(transactionHeader) {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", len(transactionHeader), len(rec))
	}
	date, err := time.Parse(dateFormat, rec[1])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing date %q: %w", rec[1], err)
	}
	amount, err := parseDecimal("amount", rec[3])
	if err != nil {
		return model.Transaction{}, err
	}
	return model.Transaction{
		ID:          rec[0],
		User:        user,
		Date:        date,
		Type:        model.TransactionType(rec[2]),
		Amount:      amount,
		Bank:        rec[4],
		Categories:  splitList(rec[5]),
		Description: rec[6],
		TransferID:  rec[7],
	}, nil
}

// MarshalToken converts a Token to a CSV row. Token amounts keep every digit.
func MarshalToken(t model.Token) []string {
	return []string{t.ID, t.CoinID, t.Symbol, t.Amount.String()}
}

// UnmarshalToken converts a CSV row to a Token.
func UnmarshalToken(user string, rec []string) (model.Token, error) {
	if len(rec) != len(tokenHeader) {
		return model.Token{}, fmt.Errorf("expected %d fields, got %d", len(tokenHeader), len(rec))
	}
	amount, err := parseDecimal("amount", rec[3])
	if err != nil {
		return model.Token{}, err
	}
	return model.Token{ID: rec[0], User: user, CoinID: rec[1], Symbol: rec[2], Amount: amount}, nil
}

// MarshalPlanned converts a PlannedTransaction to a CSV row.
func MarshalPlanned(p model.PlannedTransaction) []string {
	return []string{
		p.ID,
		p.DueDate.Format(dateFormat),
		string(p.Type),
		p.Magnitude.StringFixed(2),
		p.Bank,
		strings.Join(p.Categories, listSep),
		p.Description,
		string(p.Recurrence),
		strconv.Itoa(p.AnchorDay),
	}
}

// UnmarshalPlanned converts a CSV row to a PlannedTransaction.
func UnmarshalPlanned(user string, rec []string) (model.PlannedTransaction, error) {
	if len(rec) != len(plannedHeader) {
		return model.PlannedTransaction{}, fmt.Errorf("expected %d fields, got %d", len(plannedHeader), len(rec))
	}
	due, err := time.Parse(dateFormat, rec[1])
	if err != nil {
		return model.PlannedTransaction{}, fmt.Errorf("parsing due_date %q: %w", rec[1], err)
	}
	magnitude, err := parseDecimal("magnitude", rec[3])
	if err != nil {
		return model.PlannedTransaction{}, err
	}
	anchor, err := strconv.Atoi(rec[8])
	if err != nil || anchor < 0 || anchor > 31 {
		return model.PlannedTransaction{}, fmt.Errorf("invalid anchor_day %q", rec[8])
	}
	return model.PlannedTransaction{
		ID:          rec[0],
		User:        user,
		DueDate:     due,
		Type:        model.TransactionType(rec[2]),
		Magnitude:   magnitude,
		Bank:        rec[4],
		Categories:  splitList(rec[5]),
		Description: rec[6],
		Recurrence:  model.Recurrence(rec[7]),
		AnchorDay:   anchor,
	}, nil
}

func parseDecimal(field, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s %q: %w", field, s, err)
	}
	return d, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, listSep)
}
