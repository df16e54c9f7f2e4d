package csvstore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cleared-dev/finboard/internal/model"
)

// table describes one CSV file of a user directory.
type table[T any] struct {
	file      string
	header    []string
	marshal   func(T) []string
	unmarshal func(user string, rec []string) (T, error)
}

// readRows decodes every row after the header.
func (tb table[T]) readRows(r io.Reader, user string) ([]T, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(tb.header)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", tb.file, err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	rows := make([]T, 0, len(records)-1)
	for i, rec := range records[1:] {
		row, err := tb.unmarshal(user, rec)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", tb.file, i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// writeRows encodes the header followed by every row.
func (tb table[T]) writeRows(w io.Writer, rows []T) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tb.header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range rows {
		if err := cw.Write(tb.marshal(row)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing rows: %w", err)
	}
	return nil
}

// load reads the table from dir. A missing file is an empty table.
func (tb table[T]) load(dir, user string) ([]T, error) {
	f, err := os.Open(filepath.Join(dir, tb.file))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", tb.file, err)
	}
	defer f.Close()
	return tb.readRows(f, user)
}

// save replaces the table in dir through a temp file and rename, so readers
// never observe a half-written file.
func (tb table[T]) save(dir string, rows []T) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating user dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, tb.file+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tb.writeRows(tmp, rows); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", tb.file, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tb.file, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, tb.file)); err != nil {
		return fmt.Errorf("replacing %s: %w", tb.file, err)
	}
	return nil
}

var (
	banksTable        = table[model.Bank]{"banks.csv", bankHeader, MarshalBank, UnmarshalBank}
	categoriesTable   = table[model.Category]{"categories.csv", categoryHeader, MarshalCategory, UnmarshalCategory}
	transactionsTable = table[model.Transaction]{"transactions.csv", transactionHeader, MarshalTransaction, UnmarshalTransaction}
	tokensTable       = table[model.Token]{"tokens.csv", tokenHeader, MarshalToken, UnmarshalToken}
	plannedTable      = table[model.PlannedTransaction]{"planned.csv", plannedHeader, MarshalPlanned, UnmarshalPlanned}
)
