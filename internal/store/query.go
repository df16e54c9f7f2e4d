package store

import (
	"slices"
	"strings"
	"time"

	"github.com/cleared-dev/finboard/internal/model"
)

// Order selects the sort order of a transaction query.
type Order int

const (
	NewestFirst Order = iota
	OldestFirst
)

// Query is a typed filter over a user's transactions. Build one with
// TransactionsOf and the chained methods; the zero values of the optional
// fields mean "no constraint".
type Query struct {
	User          string
	Bank          string
	From          time.Time // inclusive
	To            time.Time // exclusive
	AnyCategories []string
	Order         Order
	Limit         int
	Offset        int
}

// TransactionsOf starts a query over all transactions of user, newest first.
func TransactionsOf(user string) Query {
	return Query{User: user}
}

// InBank restricts the query to one bank.
func (q Query) InBank(bankID string) Query {
	q.Bank = bankID
	return q
}

// Between restricts the query to dates in [from, to). A zero bound is open.
func (q Query) Between(from, to time.Time) Query {
	q.From, q.To = from, to
	return q
}

// InMonth restricts the query to the calendar month containing t.
func (q Query) InMonth(t time.Time) Query {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return q.Between(start, start.AddDate(0, 1, 0))
}

// WithAnyCategory keeps transactions tagged with at least one of ids.
func (q Query) WithAnyCategory(ids ...string) Query {
	q.AnyCategories = slices.Clone(ids)
	return q
}

// OldestFirst sorts by ascending date.
func (q Query) OldestFirst() Query {
	q.Order = OldestFirst
	return q
}

// Page limits the result to limit rows after skipping offset rows.
func (q Query) Page(limit, offset int) Query {
	q.Limit, q.Offset = limit, offset
	return q
}

// Unpaged drops limit and offset, used for counting.
func (q Query) Unpaged() Query {
	q.Limit, q.Offset = 0, 0
	return q
}

// Match reports whether t satisfies every filter of the query. Ordering and
// paging are not part of matching.
func (q Query) Match(t model.Transaction) bool {
	if t.User != q.User {
		return false
	}
	if q.Bank != "" && t.Bank != q.Bank {
		return false
	}
	if !q.From.IsZero() && t.Date.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && !t.Date.Before(q.To) {
		return false
	}
	if len(q.AnyCategories) > 0 && !slices.ContainsFunc(q.AnyCategories, t.HasCategory) {
		return false
	}
	return true
}

// Apply filters, sorts and pages an in-memory slice. Stores without a query
// engine use it directly.
func (q Query) Apply(all []model.Transaction) []model.Transaction {
	var out []model.Transaction
	for _, t := range all {
		if q.Match(t) {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, func(a, b model.Transaction) int {
		c := a.Date.Compare(b.Date)
		if c == 0 {
			c = strings.Compare(a.ID, b.ID)
		}
		if q.Order == NewestFirst {
			return -c
		}
		return c
	})
	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return nil
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

