package report

import (
	"cmp"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/cleared-dev/finboard/internal/model"
)

// Sheet names in exported workbooks.
const (
	TransactionsSheet = "Transactions"
	BanksSheet        = "Banks"
)

var (
	transactionHeader = []any{"Date", "Description", "Type", "Amount", "Bank", "Categories", "ID"}
	bankHeader        = []any{"Bank", "Balance", "ID"}
)

// ExportXLSX writes a workbook with a Transactions sheet and a Banks sheet.
// Bank and category IDs are resolved to names.
func ExportXLSX(w io.Writer, banks []model.Bank, categories []model.Category, txns []model.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", TransactionsSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	if _, err := f.NewSheet(BanksSheet); err != nil {
		return fmt.Errorf("adding sheet: %w", err)
	}

	bankNames := make(map[string]string, len(banks))
	for _, b := range banks {
		bankNames[b.ID] = b.Name
	}
	catNames := make(map[string]string, len(categories))
	for _, c := range categories {
		catNames[c.ID] = c.Name
	}

	if err := f.SetSheetRow(TransactionsSheet, "A1", &transactionHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, t := range txns {
		names := make([]string, len(t.Categories))
		for j, c := range t.Categories {
			names[j] = cmp.Or(catNames[c], c)
		}
		row := []any{
			t.Date.Format("2006-01-02"),
			t.Description,
			string(t.Type),
			t.Amount.InexactFloat64(),
			bankNames[t.Bank],
			strings.Join(names, ", "),
			t.ID,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(TransactionsSheet, cell, &row); err != nil {
			return fmt.Errorf("writing transaction %s: %w", t.ID, err)
		}
	}

	if err := f.SetSheetRow(BanksSheet, "A1", &bankHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, b := range banks {
		row := []any{b.Name, b.Balance.InexactFloat64(), b.ID}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(BanksSheet, cell, &row); err != nil {
			return fmt.Errorf("writing bank %s: %w", b.ID, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
