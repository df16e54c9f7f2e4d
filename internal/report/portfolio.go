package report

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finboard/internal/model"
)

// Holding is a token valued at its current price.
type Holding struct {
	Token  model.Token
	Price  decimal.Decimal
	Value  decimal.Decimal
	Priced bool // false when no price was returned for the coin
}

// PortfolioView values a set of holdings. Err carries a market data failure
// so it can be shown inline next to the unpriced holdings.
type PortfolioView struct {
	Holdings []Holding
	Total    decimal.Decimal
	Err      error
}

// Portfolio values tokens with prices keyed by coin ID. Tokens without a
// price are listed unpriced and left out of the total.
func Portfolio(tokens []model.Token, prices map[string]decimal.Decimal, err error) PortfolioView {
	view := PortfolioView{Total: decimal.Zero, Err: err}
	for _, t := range tokens {
		h := Holding{Token: t}
		if p, ok := prices[t.CoinID]; ok {
			h.Price = p
			h.Value = t.Amount.Mul(p)
			h.Priced = true
			view.Total = view.Total.Add(h.Value)
		}
		view.Holdings = append(view.Holdings, h)
	}
	// Priced holdings first, largest value first.
	slices.SortStableFunc(view.Holdings, func(a, b Holding) int {
		if a.Priced != b.Priced {
			if a.Priced {
				return -1
			}
			return 1
		}
		return cmp.Or(b.Value.Cmp(a.Value), cmp.Compare(a.Token.Symbol, b.Token.Symbol))
	})
	return view
}
