// Package planned manages scheduled transactions: listing what is due,
// turning an item into a real transaction, and sending reminders.
package planned

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cleared-dev/finboard/internal/events"
	"github.com/cleared-dev/finboard/internal/id"
	"github.com/cleared-dev/finboard/internal/ledger"
	"github.com/cleared-dev/finboard/internal/model"
	"github.com/cleared-dev/finboard/internal/notify"
	"github.com/cleared-dev/finboard/internal/store"
)

// Creator records a transaction and reconciles its bank.
type Creator interface {
	Create(ctx context.Context, user string, in model.TransactionInput) (model.Transaction, error)
}

// Service manages planned transactions.
type Service struct {
	store  store.Planned
	ledger Creator
	events events.Publisher
	logger *log.Logger
}

// NewService creates a planned-transaction Service.
func NewService(st store.Planned, ledger Creator, pub events.Publisher, logger *log.Logger) *Service {
	if pub == nil {
		pub = events.Discard
	}
	return &Service{store: st, ledger: ledger, events: pub, logger: logger}
}

// Add validates and stores a new planned item. An empty recurrence means
// a one-off.
func (s *Service) Add(ctx context.Context, user string, p model.PlannedTransaction) (model.PlannedTransaction, error) {
	if p.Recurrence == "" {
		p.Recurrence = model.RecurNone
	}
	errs := ledger.ValidateInput(p.Input())
	if !p.Recurrence.Valid() {
		errs = append(errs, ledger.ValidationError{Field: "recurrence", Description: fmt.Sprintf("unknown recurrence %q", p.Recurrence)})
	}
	if len(errs) > 0 {
		return model.PlannedTransaction{}, errs
	}

	p.ID = id.New()
	p.User = user
	if p.AnchorDay == 0 {
		p.AnchorDay = p.DueDate.Day()
	}
	if err := s.store.SavePlanned(ctx, p); err != nil {
		return model.PlannedTransaction{}, fmt.Errorf("saving planned transaction: %w", err)
	}
	s.events.Publish(events.Event{User: user, Collection: events.Planned, Action: events.Create, ID: p.ID, Record: p})
	return p, nil
}

// List returns every planned item ordered by due date.
func (s *Service) List(ctx context.Context, user string) ([]model.PlannedTransaction, error) {
	items, err := s.store.ListPlanned(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("listing planned transactions: %w", err)
	}
	slices.SortStableFunc(items, func(a, b model.PlannedTransaction) int {
		return a.DueDate.Compare(b.DueDate)
	})
	return items, nil
}

// Due lists items due on or before asOf plus horizonDays, overdue ones
// included.
func (s *Service) Due(ctx context.Context, user string, asOf time.Time, horizonDays int) ([]model.PlannedTransaction, error) {
	items, err := s.List(ctx, user)
	if err != nil {
		return nil, err
	}
	limit := startOfDay(asOf).AddDate(0, 0, horizonDays+1)
	return slices.DeleteFunc(items, func(p model.PlannedTransaction) bool {
		return !p.DueDate.Before(limit)
	}), nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Apply records the planned item as a transaction dated on its due date,
// then moves the item to its next occurrence, or deletes it when it does
// not repeat.
func (s *Service) Apply(ctx context.Context, user, plannedID string) (model.Transaction, error) {
	p, err := s.store.GetPlanned(ctx, user, plannedID)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("loading planned transaction %s: %w", plannedID, err)
	}

	txn, err := s.ledger.Create(ctx, user, p.Input())
	if err != nil {
		return model.Transaction{}, fmt.Errorf("applying planned transaction %s: %w", plannedID, err)
	}

	if next, ok := p.Recurrence.Next(p.DueDate, p.AnchorDay); ok {
		p.DueDate = next
		err = s.store.SavePlanned(ctx, p)
		if err == nil {
			s.events.Publish(events.Event{User: user, Collection: events.Planned, Action: events.Update, ID: p.ID, Record: p})
		}
	} else {
		err = s.store.DeletePlanned(ctx, user, p.ID)
		if err == nil {
			s.events.Publish(events.Event{User: user, Collection: events.Planned, Action: events.Delete, ID: p.ID, Record: p})
		}
	}
	if err != nil {
		s.logger.Error("planned item applied but not advanced", "planned", p.ID, "transaction", txn.ID, "error", err)
		return txn, fmt.Errorf("transaction %s created but planned item %s not advanced: %w", txn.ID, p.ID, err)
	}
	s.logger.Info("planned transaction applied", "planned", p.ID, "transaction", txn.ID)
	return txn, nil
}

// Delete removes a planned item without applying it.
func (s *Service) Delete(ctx context.Context, user, plannedID string) error {
	if err := s.store.DeletePlanned(ctx, user, plannedID); err != nil {
		return fmt.Errorf("deleting planned transaction %s: %w", plannedID, err)
	}
	s.events.Publish(events.Event{User: user, Collection: events.Planned, Action: events.Delete, ID: plannedID})
	return nil
}

// Remind sends one message per item due within horizonDays of asOf and
// returns how many were sent. It stops at the first delivery failure.
func (s *Service) Remind(ctx context.Context, user string, asOf time.Time, horizonDays int, n notify.Notifier) (int, error) {
	due, err := s.Due(ctx, user, asOf, horizonDays)
	if err != nil {
		return 0, err
	}
	for i, p := range due {
		if err := n.Notify(ctx, Reminder(p, asOf)); err != nil {
			return i, fmt.Errorf("reminding %s: %w", p.ID, err)
		}
	}
	return len(due), nil
}

// Reminder formats the message for a due item.
func Reminder(p model.PlannedTransaction, asOf time.Time) string {
	var b strings.Builder
	days := int(startOfDay(p.DueDate).Sub(startOfDay(asOf)).Hours() / 24)
	switch {
	case days < 0:
		fmt.Fprintf(&b, "Overdue since %s: ", p.DueDate.Format("Mon 02 Jan"))
	case days == 0:
		b.WriteString("Due today: ")
	default:
		fmt.Fprintf(&b, "Due %s: ", p.DueDate.Format("Mon 02 Jan"))
	}
	fmt.Fprintf(&b, "%s (%s %s)", p.Description, p.Type, p.Magnitude.StringFixed(2))
	return b.String()
}
