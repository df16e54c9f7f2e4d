package ledger

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finboard/internal/events"
	"github.com/cleared-dev/finboard/internal/id"
	"github.com/cleared-dev/finboard/internal/model"
)

// TokenInput describes a crypto holding. CoinID is the market data key
// ("bitcoin"); Symbol is only for display.
type TokenInput struct {
	CoinID string
	Symbol string
	Amount decimal.Decimal
}

// AddToken stores a holding. Holdings do not touch bank balances.
func (s *Service) AddToken(ctx context.Context, user string, in TokenInput) (model.Token, error) {
	var errs ValidationErrors
	coin := strings.ToLower(strings.TrimSpace(in.CoinID))
	if coin == "" {
		errs = append(errs, ValidationError{"coin_id", "is required"})
	}
	if !in.Amount.IsPositive() {
		errs = append(errs, ValidationError{"amount", "must be positive"})
	}
	if len(errs) > 0 {
		return model.Token{}, errs
	}

	symbol := strings.ToUpper(strings.TrimSpace(in.Symbol))
	if symbol == "" {
		symbol = strings.ToUpper(coin)
	}
	tok := model.Token{ID: id.New(), User: user, CoinID: coin, Symbol: symbol, Amount: in.Amount}
	if err := s.store.SaveToken(ctx, tok); err != nil {
		return model.Token{}, fmt.Errorf("saving token: %w", err)
	}
	s.publish(user, events.Tokens, events.Create, tok.ID, tok)
	return tok, nil
}

// Tokens lists the user's holdings by symbol.
func (s *Service) Tokens(ctx context.Context, user string) ([]model.Token, error) {
	tokens, err := s.store.ListTokens(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("listing tokens: %w", err)
	}
	slices.SortFunc(tokens, func(a, b model.Token) int { return strings.Compare(a.Symbol, b.Symbol) })
	return tokens, nil
}

// DeleteToken removes a holding.
func (s *Service) DeleteToken(ctx context.Context, user, tokenID string) error {
	if err := s.store.DeleteToken(ctx, user, tokenID); err != nil {
		return fmt.Errorf("deleting token %s: %w", tokenID, err)
	}
	s.publish(user, events.Tokens, events.Delete, tokenID, nil)
	return nil
}
