package sqlstore

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finboard/internal/model"
)

// Every table is keyed by (user_id, id) so two users can never collide on a
// record ID and every lookup is naturally scoped.

type bankRow struct {
	UserID         string          `gorm:"primaryKey;size:64"`
	ID             string          `gorm:"primaryKey;size:64"`
	Name           string          `gorm:"not null"`
	Balance        decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	PrimaryColor   string
	SecondaryColor string
}

func (bankRow) TableName() string { return "banks" }

func fromBank(b model.Bank) bankRow {
	return bankRow{
		UserID:         b.User,
		ID:             b.ID,
		Name:           b.Name,
		Balance:        b.Balance,
		PrimaryColor:   b.PrimaryColor,
		SecondaryColor: b.SecondaryColor,
	}
}

func (r bankRow) model() model.Bank {
	return model.Bank{
		ID:             r.ID,
		User:           r.UserID,
		Name:           r.Name,
		Balance:        r.Balance,
		PrimaryColor:   r.PrimaryColor,
		SecondaryColor: r.SecondaryColor,
	}
}

type categoryRow struct {
	UserID        string `gorm:"primaryKey;size:64"`
	ID            string `gorm:"primaryKey;size:64"`
	Name          string `gorm:"not null"`
	Hideable      bool
	MonthlyBudget decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`
}

func (categoryRow) TableName() string { return "categories" }

func fromCategory(c model.Category) categoryRow {
	return categoryRow{
		UserID:        c.User,
		ID:            c.ID,
		Name:          c.Name,
		Hideable:      c.Hideable,
		MonthlyBudget: c.MonthlyBudget,
	}
}

func (r categoryRow) model() model.Category {
	return model.Category{
		ID:            r.ID,
		User:          r.UserID,
		Name:          r.Name,
		Hideable:      r.Hideable,
		MonthlyBudget: r.MonthlyBudget,
	}
}

type transactionRow struct {
	UserID      string `gorm:"primaryKey;size:64"`
	ID          string `gorm:"primaryKey;size:64"`
	Description string
	Type        string          `gorm:"size:16;not null"`
	Amount      decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	BankID      string          `gorm:"size:64;index;not null"`
	Date        time.Time       `gorm:"type:date;index;not null"`
	TransferID  string          `gorm:"size:64;index"`
}

func (transactionRow) TableName() string { return "transactions" }

// categoryLink is one row of the transaction_categories join table. Position
// keeps the order the categories were given in.
type categoryLink struct {
	UserID        string `gorm:"primaryKey;size:64"`
	TransactionID string `gorm:"primaryKey;size:64"`
	CategoryID    string `gorm:"primaryKey;size:64;index"`
	Position      int
}

func (categoryLink) TableName() string { return "transaction_categories" }

func fromTransaction(t model.Transaction) (transactionRow, []categoryLink) {
	row := transactionRow{
		UserID:      t.User,
		ID:          t.ID,
		Description: t.Description,
		Type:        string(t.Type),
		Amount:      t.Amount,
		BankID:      t.Bank,
		Date:        t.Date,
		TransferID:  t.TransferID,
	}
	links := make([]categoryLink, 0, len(t.Categories))
	for i, c := range t.Categories {
		links = append(links, categoryLink{UserID: t.User, TransactionID: t.ID, CategoryID: c, Position: i})
	}
	return row, links
}

func (r transactionRow) model(categories []string) model.Transaction {
	return model.Transaction{
		ID:          r.ID,
		User:        r.UserID,
		Description: r.Description,
		Type:        model.TransactionType(r.Type),
		Amount:      r.Amount,
		Bank:        r.BankID,
		Categories:  categories,
		Date:        dateOnly(r.Date),
		TransferID:  r.TransferID,
	}
}

type tokenRow struct {
	UserID string          `gorm:"primaryKey;size:64"`
	ID     string          `gorm:"primaryKey;size:64"`
	CoinID string          `gorm:"not null"`
	Symbol string
	Amount decimal.Decimal `gorm:"type:numeric(36,18);not null"`
}

func (tokenRow) TableName() string { return "tokens" }

func fromToken(t model.Token) tokenRow {
	return tokenRow{UserID: t.User, ID: t.ID, CoinID: t.CoinID, Symbol: t.Symbol, Amount: t.Amount}
}

func (r tokenRow) model() model.Token {
	return model.Token{ID: r.ID, User: r.UserID, CoinID: r.CoinID, Symbol: r.Symbol, Amount: r.Amount}
}

// plannedRow keeps categories inline; planned items are never filtered by
// category.
type plannedRow struct {
	UserID      string `gorm:"primaryKey;size:64"`
	ID          string `gorm:"primaryKey;size:64"`
	Description string
	Type        string          `gorm:"size:16;not null"`
	Magnitude   decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	BankID      string          `gorm:"size:64;not null"`
	Categories  string
	DueDate     time.Time `gorm:"type:date;not null"`
	Recurrence  string    `gorm:"size:16;not null"`
	AnchorDay   int       `gorm:"not null;default:0"`
}

func (plannedRow) TableName() string { return "planned_transactions" }

func fromPlanned(p model.PlannedTransaction) plannedRow {
	return plannedRow{
		UserID:      p.User,
		ID:          p.ID,
		Description: p.Description,
		Type:        string(p.Type),
		Magnitude:   p.Magnitude,
		BankID:      p.Bank,
		Categories:  strings.Join(p.Categories, ";"),
		DueDate:     p.DueDate,
		Recurrence:  string(p.Recurrence),
		AnchorDay:   p.AnchorDay,
	}
}

func (r plannedRow) model() model.PlannedTransaction {
	var cats []string
	if r.Categories != "" {
		cats = strings.Split(r.Categories, ";")
	}
	return model.PlannedTransaction{
		ID:          r.ID,
		User:        r.UserID,
		Description: r.Description,
		Type:        model.TransactionType(r.Type),
		Magnitude:   r.Magnitude,
		Bank:        r.BankID,
		Categories:  cats,
		DueDate:     dateOnly(r.DueDate),
		Recurrence:  model.Recurrence(r.Recurrence),
		AnchorDay:   r.AnchorDay,
	}
}

// dateOnly drops the driver's location so dates compare equal to the ones the
// csv store returns.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
