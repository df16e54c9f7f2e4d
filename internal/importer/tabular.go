package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CSVParser reads statements with a header row naming at least the date,
// description and amount columns, in any order.
type CSVParser struct{}

// Format returns the parser name.
func (p *CSVParser) Format() string { return "generic" }

// Parse reads a generic statement CSV.
func (p *CSVParser) Parse(r io.Reader) ([]StatementLine, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	return mapRows(records, "csv")
}

// Header names accepted for each column.
var (
	dateHeaders   = []string{"date", "posting date", "data", "data movimento"}
	descHeaders   = []string{"description", "descrição", "descricao", "lançamento", "payee"}
	amountHeaders = []string{"amount", "valor", "montante", "value"}
)

type columns struct {
	date, desc, amount int
}

func findColumns(row []string) (columns, bool) {
	c := columns{-1, -1, -1}
	for i, h := range row {
		name := strings.ToLower(strings.TrimSpace(h))
		switch {
		case slices.Contains(dateHeaders, name):
			c.date = i
		case slices.Contains(descHeaders, name):
			c.desc = i
		case slices.Contains(amountHeaders, name):
			c.amount = i
		}
	}
	return c, c.date >= 0 && c.desc >= 0 && c.amount >= 0
}

// mapRows skips everything up to the header row, then converts each row.
// Blank rows and rows without an amount (section titles, balances carried
// forward) are skipped.
func mapRows(rows [][]string, source string) ([]StatementLine, error) {
	var (
		cols  columns
		found bool
		lines []StatementLine
	)
	for i, row := range rows {
		if !found {
			cols, found = findColumns(row)
			continue
		}
		if cols.amount >= len(row) || strings.TrimSpace(row[cols.amount]) == "" {
			continue
		}
		date, err := parseDate(cell(row, cols.date))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		amount, err := parseAmount(row[cols.amount])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		desc := strings.Join(strings.Fields(cell(row, cols.desc)), " ")
		lines = append(lines, StatementLine{
			Date:        date,
			Description: desc,
			Amount:      amount,
			Reference:   fmt.Sprintf("%s_%s_%d", source, date.Format("20060102"), i+1),
		})
	}
	if !found {
		return nil, fmt.Errorf("no header row with date, description and amount columns")
	}
	return lines, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

var dateLayouts = []string{"2006-01-02", "02/01/2006", "02-01-2006", "02/01/06", "01-02-06"}

// excelEpoch is day zero of spreadsheet serial dates.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// parseDate accepts ISO dates, day-first dates and spreadsheet serial numbers.
func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		return excelEpoch.AddDate(0, 0, int(serial)), nil
	}
	return time.Time{}, fmt.Errorf("parsing date %q", s)
}

// parseAmount accepts "1234.56", "1,234.56", "1.234,56" and "-12,5".
func parseAmount(s string) (decimal.Decimal, error) {
	clean := strings.NewReplacer(" ", "", "\u00a0", "", "€", "", "$", "").Replace(strings.TrimSpace(s))
	switch {
	case strings.Contains(clean, ",") && strings.Contains(clean, "."):
		if strings.LastIndex(clean, ",") > strings.LastIndex(clean, ".") {
			clean = strings.ReplaceAll(clean, ".", "")
			clean = strings.Replace(clean, ",", ".", 1)
		} else {
			clean = strings.ReplaceAll(clean, ",", "")
		}
	case strings.Contains(clean, ","):
		clean = strings.Replace(clean, ",", ".", 1)
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return d, nil
}
