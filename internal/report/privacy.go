package report

import "github.com/cleared-dev/finboard/internal/model"

// HiddenSet holds the IDs of categories whose amounts privacy mode masks.
type HiddenSet map[string]bool

// Hidden collects the hideable categories.
func Hidden(categories []model.Category) HiddenSet {
	h := make(HiddenSet)
	for _, c := range categories {
		if c.Hideable {
			h[c.ID] = true
		}
	}
	return h
}

// Covers reports whether t carries at least one hidden category.
func (h HiddenSet) Covers(t model.Transaction) bool {
	for _, c := range t.Categories {
		if h[c] {
			return true
		}
	}
	return false
}
