package planned

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/finboard/internal/ledger"
	"github.com/cleared-dev/finboard/internal/model"
	"github.com/cleared-dev/finboard/internal/store"
	"github.com/cleared-dev/finboard/internal/store/csvstore"
)

const user = "ana"

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func newTestService(t *testing.T) (*Service, *csvstore.Store) {
	t.Helper()
	st := csvstore.Open(t.TempDir())
	logger := log.New(io.Discard)
	require.NoError(t, st.SaveBank(context.Background(), model.Bank{ID: "bpi", User: user, Name: "BPI", Balance: dec("1000")}))
	return NewService(st, ledger.NewService(st, nil, logger), nil, logger), st
}

func rent(due time.Time, r model.Recurrence) model.PlannedTransaction {
	return model.PlannedTransaction{
		Description: "Rent",
		Type:        model.TypeExpense,
		Magnitude:   dec("750"),
		Bank:        "bpi",
		DueDate:     due,
		Recurrence:  r,
	}
}

type captured struct {
	msgs []string
	fail bool
}

func (c *captured) Notify(_ context.Context, text string) error {
	if c.fail {
		return errors.New("bot blocked")
	}
	c.msgs = append(c.msgs, text)
	return nil
}

func TestAddValidates(t *testing.T) {
	svc, _ := newTestService(t)

	p := rent(date(2025, 3, 1), "fortnightly")
	p.Magnitude = decimal.Zero
	_, err := svc.Add(context.Background(), user, p)
	var verrs ledger.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, []string{"amount", "recurrence"}, verrs.Fields())

	added, err := svc.Add(context.Background(), user, rent(date(2025, 3, 1), ""))
	require.NoError(t, err)
	assert.Equal(t, model.RecurNone, added.Recurrence)
	assert.NotEmpty(t, added.ID)
}

func TestDue(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	for _, d := range []time.Time{date(2025, 2, 27), date(2025, 3, 1), date(2025, 3, 4), date(2025, 3, 5)} {
		_, err := svc.Add(ctx, user, rent(d, model.RecurNone))
		require.NoError(t, err)
	}

	due, err := svc.Due(ctx, user, time.Date(2025, 3, 1, 18, 30, 0, 0, time.UTC), 3)
	require.NoError(t, err)
	require.Len(t, due, 3)
	assert.Equal(t, date(2025, 2, 27), due[0].DueDate)
	assert.Equal(t, date(2025, 3, 4), due[2].DueDate)
}

func TestApplyRecurringAdvances(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	p, err := svc.Add(ctx, user, rent(date(2025, 1, 31), model.RecurMonthly))
	require.NoError(t, err)

	txn, err := svc.Apply(ctx, user, p.ID)
	require.NoError(t, err)
	assert.Equal(t, date(2025, 1, 31), txn.Date)
	assert.True(t, txn.Amount.Equal(dec("-750")))

	bank, err := st.GetBank(ctx, user, "bpi")
	require.NoError(t, err)
	assert.True(t, bank.Balance.Equal(dec("250")))

	next, err := st.GetPlanned(ctx, user, p.ID)
	require.NoError(t, err)
	assert.Equal(t, date(2025, 2, 28), next.DueDate, "clamped to the end of February")
	assert.Equal(t, 31, next.AnchorDay)

	_, err = svc.Apply(ctx, user, p.ID)
	require.NoError(t, err)
	next, err = st.GetPlanned(ctx, user, p.ID)
	require.NoError(t, err)
	assert.Equal(t, date(2025, 3, 31), next.DueDate, "back on the anchor day")
}

func TestApplyOneOffDeletes(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	p, err := svc.Add(ctx, user, rent(date(2025, 1, 5), model.RecurNone))
	require.NoError(t, err)

	_, err = svc.Apply(ctx, user, p.ID)
	require.NoError(t, err)

	_, err = st.GetPlanned(ctx, user, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestApplyFailureKeepsItem(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	p, err := svc.Add(ctx, user, rent(date(2025, 1, 5), model.RecurNone))
	require.NoError(t, err)
	require.NoError(t, st.DeleteBank(ctx, user, "bpi"))

	_, err = svc.Apply(ctx, user, p.ID)
	require.Error(t, err)

	_, err = st.GetPlanned(ctx, user, p.ID)
	assert.NoError(t, err)
}

func TestRemind(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	_, err := svc.Add(ctx, user, rent(date(2025, 3, 1), model.RecurMonthly))
	require.NoError(t, err)
	_, err = svc.Add(ctx, user, rent(date(2025, 3, 20), model.RecurMonthly))
	require.NoError(t, err)

	n := &captured{}
	sent, err := svc.Remind(ctx, user, date(2025, 3, 1), 3, n)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []string{"Due today: Rent (expense 750.00)"}, n.msgs)

	_, err = svc.Remind(ctx, user, date(2025, 3, 1), 3, &captured{fail: true})
	assert.Error(t, err)
}

func TestReminder(t *testing.T) {
	p := rent(date(2025, 3, 4), model.RecurNone)
	assert.Equal(t, "Due Tue 04 Mar: Rent (expense 750.00)", Reminder(p, date(2025, 3, 1)))
	assert.Equal(t, "Overdue since Tue 04 Mar: Rent (expense 750.00)", Reminder(p, date(2025, 3, 9)))
}
