package csvstore

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/finboard/internal/model"
)

func TestCategoryBudgetOptional(t *testing.T) {
	row := MarshalCategory(model.Category{ID: "c", Name: "Fun", Hideable: true})
	assert.Equal(t, "", row[3])

	got, err := UnmarshalCategory("ana", row)
	require.NoError(t, err)
	assert.False(t, got.HasBudget())
	assert.True(t, got.Hideable)
}

func TestTransactionAmountFixed2(t *testing.T) {
	row := MarshalTransaction(model.Transaction{ID: "t", Amount: dec("-5"), Date: date(2025, 1, 1)})
	assert.Equal(t, "-5.00", row[3])
}

func TestUnmarshalTransaction_Errors(t *testing.T) {
	tests := []struct {
		name string
		rec  []string
		want string
	}{
		{"short", []string{"t"}, "expected 8 fields"},
		{"date", []string{"t", "2025/01/01", "expense", "-1", "b", "", "", ""}, "parsing date"},
		{"amount", []string{"t", "2025-01-01", "expense", "abc", "b", "", "", ""}, "parsing amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalTransaction("ana", tt.rec)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestReadRows_BadRowNumber(t *testing.T) {
	in := strings.Join(bankHeader, ",") + "\nb1,BPI,10.00,,\nb2,CGD,oops,,\n"
	_, err := banksTable.readRows(strings.NewReader(in), "ana")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 3")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("no space left on device") }

func TestWriteRowsReportsFlushError(t *testing.T) {
	rows := []model.Bank{{ID: "bpi", Name: "BPI", Balance: dec("10")}}
	err := banksTable.writeRows(failingWriter{}, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no space left on device")
}

func TestPlannedAnchorDay(t *testing.T) {
	row := MarshalPlanned(model.PlannedTransaction{ID: "p", DueDate: date(2025, 2, 28), Magnitude: dec("1"), Recurrence: model.RecurMonthly, AnchorDay: 31})
	assert.Equal(t, "31", row[8])

	got, err := UnmarshalPlanned("ana", row)
	require.NoError(t, err)
	assert.Equal(t, 31, got.AnchorDay)

	row[8] = "40"
	_, err = UnmarshalPlanned("ana", row)
	assert.ErrorContains(t, err, "anchor_day")
}
