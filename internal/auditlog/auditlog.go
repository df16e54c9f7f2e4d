// Package auditlog keeps an append-only CSV record of every committed change
// under <data>/logs/audit-log.csv.
package auditlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cleared-dev/finboard/internal/events"
	"github.com/cleared-dev/finboard/internal/model"
)

// Entry is one row in the audit log.
type Entry struct {
	Timestamp  time.Time
	User       string
	Collection events.Collection
	Action     events.Action
	RecordID   string
	Details    string
}

// Header is the CSV header for audit-log.csv.
const Header = "timestamp,user,collection,action,record_id,details"

const (
	numFields     = 6
	logDir        = "logs"
	logFile       = "logs/audit-log.csv"
	colTimestamp  = 0
	colUser       = 1
	colCollection = 2
	colAction     = 3
	colRecordID   = 4
	colDetails    = 5
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colUser] = e.User
	row[colCollection] = string(e.Collection)
	row[colAction] = string(e.Action)
	row[colRecordID] = e.RecordID
	row[colDetails] = e.Details
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	return Entry{
		Timestamp:  ts,
		User:       record[colUser],
		Collection: events.Collection(record[colCollection]),
		Action:     events.Action(record[colAction]),
		RecordID:   record[colRecordID],
		Details:    record[colDetails],
	}, nil
}

// Append writes entries to <root>/logs/audit-log.csv, creating the file and
// header if needed.
func Append(root string, entries []Entry) error {
	dir := filepath.Join(root, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(root, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns the entries of user (all users when user is empty).
// A missing log reads as empty.
func Read(root, user string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(root, logFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	entries, err := readEntries(f)
	if err != nil || user == "" {
		return entries, err
	}
	var mine []Entry
	for _, e := range entries {
		if e.User == user {
			mine = append(mine, e)
		}
	}
	return mine, nil
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading audit log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Recorder appends an entry for every event it handles.
type Recorder struct {
	root   string
	logger *log.Logger
	now    func() time.Time
	mu     sync.Mutex
}

// NewRecorder returns a Recorder writing under root.
func NewRecorder(root string, logger *log.Logger) *Recorder {
	return &Recorder{root: root, logger: logger, now: time.Now}
}

// Attach subscribes the recorder to every user's events on bus.
func (r *Recorder) Attach(bus *events.Bus) (unsubscribe func()) {
	return bus.Subscribe("", r.Handle)
}

// Handle records e. Write failures are logged, not returned, so a broken
// audit log never blocks a ledger write.
func (r *Recorder) Handle(e events.Event) {
	entry := Entry{
		Timestamp:  r.now(),
		User:       e.User,
		Collection: e.Collection,
		Action:     e.Action,
		RecordID:   e.ID,
		Details:    Describe(e.Record),
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := Append(r.root, []Entry{entry}); err != nil {
		r.logger.Error("audit log write failed", "collection", e.Collection, "id", e.ID, "error", err)
	}
}

// Describe summarizes a record for the details column.
func Describe(record any) string {
	switch v := record.(type) {
	case model.Transaction:
		return fmt.Sprintf("%s %s %s on %s: %s", v.Date.Format("2006-01-02"), v.Type, v.Amount.StringFixed(2), v.Bank, v.Description)
	case model.Bank:
		return fmt.Sprintf("%s balance %s", v.Name, v.Balance.StringFixed(2))
	case model.Category:
		if v.HasBudget() {
			return fmt.Sprintf("%s budget %s", v.Name, v.MonthlyBudget.StringFixed(2))
		}
		return v.Name
	case model.Token:
		return fmt.Sprintf("%s %s", v.Amount, strings.ToUpper(v.Symbol))
	case model.PlannedTransaction:
		return fmt.Sprintf("%s %s %s due %s (%s)", v.Description, v.Type, v.Magnitude.StringFixed(2), v.DueDate.Format("2006-01-02"), v.Recurrence)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
