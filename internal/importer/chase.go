package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ChaseParser parses Chase checking account CSV exports:
//
//	Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #
//
// Columns are located by header name, so reordered exports still parse.
type ChaseParser struct{}

const chaseDateFormat = "01/02/2006"

type chaseColumns struct {
	details, date, desc, amount, kind, balance int
}

var chaseHeaders = map[string]func(c *chaseColumns) *int{
	"details":      func(c *chaseColumns) *int { return &c.details },
	"posting date": func(c *chaseColumns) *int { return &c.date },
	"description":  func(c *chaseColumns) *int { return &c.desc },
	"amount":       func(c *chaseColumns) *int { return &c.amount },
	"type":         func(c *chaseColumns) *int { return &c.kind },
	"balance":      func(c *chaseColumns) *int { return &c.balance },
}

func chaseColumnsOf(header []string) (chaseColumns, error) {
	c := chaseColumns{-1, -1, -1, -1, -1, -1}
	for i, h := range header {
		if field, ok := chaseHeaders[strings.ToLower(strings.TrimSpace(h))]; ok {
			*field(&c) = i
		}
	}
	if c.date < 0 || c.desc < 0 || c.amount < 0 {
		return c, fmt.Errorf("not a chase export: header %q lacks Posting Date, Description or Amount", strings.Join(header, ","))
	}
	return c, nil
}

// Format returns the parser name.
func (p *ChaseParser) Format() string { return "chase" }

// Parse reads a Chase CSV and returns its statement lines.
func (p *ChaseParser) Parse(r io.Reader) ([]StatementLine, error) {
	cr := csv.NewReader(r)
	// Chase leaves a trailing comma on most rows but not all.
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading chase CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	cols, err := chaseColumnsOf(records[0])
	if err != nil {
		return nil, err
	}
	lines := make([]StatementLine, 0, len(records)-1)
	for i, rec := range records[1:] {
		l, err := cols.line(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		lines = append(lines, l)
	}
	return lines, nil
}

func (c chaseColumns) line(rec []string) (StatementLine, error) {
	date, err := time.Parse(chaseDateFormat, cell(rec, c.date))
	if err != nil {
		return StatementLine{}, fmt.Errorf("parsing date %q: %w", cell(rec, c.date), err)
	}
	amount, err := parseAmount(cell(rec, c.amount))
	if err != nil {
		return StatementLine{}, err
	}

	switch strings.ToUpper(cell(rec, c.details)) {
	case "DEBIT":
		if amount.IsPositive() {
			return StatementLine{}, fmt.Errorf("DEBIT line with positive amount %s", amount)
		}
	case "CREDIT":
		if amount.IsNegative() {
			return StatementLine{}, fmt.Errorf("CREDIT line with negative amount %s", amount)
		}
	}

	desc := cell(rec, c.desc)
	l := StatementLine{
		Date:        date,
		Description: desc,
		Amount:      amount,
		Reference:   chaseRef(date, desc),
		Kind:        cell(rec, c.kind),
	}
	if s := cell(rec, c.balance); s != "" {
		bal, err := parseAmount(s)
		if err != nil {
			return StatementLine{}, fmt.Errorf("balance: %w", err)
		}
		l.Balance = decimal.NewNullDecimal(bal)
	}
	return l, nil
}

// chaseRef builds a reference like chase_20250103_GITHUBPROS.
func chaseRef(date time.Time, desc string) string {
	prefix := strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, desc)
	if len(prefix) > 10 {
		prefix = prefix[:10]
	}
	return "chase_" + date.Format("20060102") + "_" + prefix
}
