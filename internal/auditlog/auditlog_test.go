package auditlog

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/finboard/internal/events"
	"github.com/cleared-dev/finboard/internal/model"
)

var testTime = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func testEntry() Entry {
	return Entry{
		Timestamp:  testTime,
		User:       "ana",
		Collection: events.Transactions,
		Action:     events.Create,
		RecordID:   "3f2a9c0d1e4b5a6",
		Details:    "2025-01-15 expense -4.00 on bpi: GITHUB, monthly",
	}
}

func TestAppend_NewFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	entries, err := Read(dir, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, testEntry(), entries[0])
}

func TestAppend_ExistingFileFiltersByUser(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	e2 := testEntry()
	e2.User = "rui"
	e2.Action = events.Delete
	require.NoError(t, Append(dir, []Entry{e2}))

	all, err := Read(dir, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := Read(dir, "rui")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, events.Delete, mine[0].Action)
}

func TestRead_NotFound(t *testing.T) {
	entries, err := Read(t.TempDir(), "ana")
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestRead_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "logs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logs", "audit-log.csv"), []byte(Header+"\n"), 0o644))

	entries, err := Read(dir, "")
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestUnmarshalEntry_BadFieldCount(t *testing.T) {
	_, err := UnmarshalEntry([]string{"one", "two"})
	assert.ErrorContains(t, err, "expected 6 fields")
}

func TestTimestampFormat(t *testing.T) {
	row := MarshalEntry(testEntry())
	assert.Equal(t, "2025-01-15T10:30:00Z", row[0])
}

func TestRecorderFollowsBus(t *testing.T) {
	dir := t.TempDir()
	bus := events.NewBus()
	rec := NewRecorder(dir, log.New(io.Discard))
	rec.now = func() time.Time { return testTime }
	unsubscribe := rec.Attach(bus)

	bus.Publish(events.Event{
		User: "ana", Collection: events.Banks, Action: events.Update, ID: "bpi",
		Record: model.Bank{ID: "bpi", Name: "BPI", Balance: decimal.NewFromInt(4800)},
	})
	bus.Publish(events.Event{User: "ana", Collection: events.Categories, Action: events.Delete, ID: "food"})
	unsubscribe()
	bus.Publish(events.Event{User: "ana", Collection: events.Banks, Action: events.Delete, ID: "bpi"})

	entries, err := Read(dir, "ana")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "BPI balance 4800.00", entries[0].Details)
	assert.Equal(t, "food", entries[1].RecordID)
	assert.Empty(t, entries[1].Details)
}

func TestDescribe(t *testing.T) {
	txn := model.Transaction{
		Date: testTime, Type: model.TypeIncome, Amount: decimal.NewFromInt(3500), Bank: "bpi", Description: "Salary",
	}
	assert.Equal(t, "2025-01-15 income 3500.00 on bpi: Salary", Describe(txn))
	assert.Equal(t, "0.5 BTC", Describe(model.Token{Symbol: "btc", Amount: decimal.RequireFromString("0.5")}))
	assert.Equal(t, "Fun", Describe(model.Category{Name: "Fun"}))
}
