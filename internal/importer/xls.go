package importer

import (
	"bytes"
	"fmt"
	"io"

	"github.com/extrame/xls"
)

// xlsMaxRows bounds how many rows are read from the first sheet.
const xlsMaxRows = 5000

// XLSParser reads legacy Excel statements (.xls) whose first sheet holds a
// header row with date, description and amount columns somewhere below
// the bank's preamble.
type XLSParser struct {
	// Charset of the workbook strings; cp1252 when empty.
	Charset string
}

// Format returns the parser name.
func (p *XLSParser) Format() string { return "xls" }

// Parse reads an .xls workbook.
func (p *XLSParser) Parse(r io.Reader) ([]StatementLine, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading xls: %w", err)
	}
	charset := p.Charset
	if charset == "" {
		charset = "cp1252"
	}
	wb, err := xls.OpenReader(bytes.NewReader(data), charset)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	rows := wb.ReadAllCells(xlsMaxRows)
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in sheet")
	}
	return mapRows(rows, "xls")
}
