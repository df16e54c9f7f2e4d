package ledger

import (
	"context"
	"slices"

	"github.com/cleared-dev/finboard/internal/id"
	"github.com/cleared-dev/finboard/internal/model"
)

// Expand splits a transfer into a withdrawal on the origin bank and a
// deposit on the destination bank. The destination amount defaults to the
// origin amount.
func Expand(t model.Transfer) (origin, destination model.TransactionInput) {
	origin = model.TransactionInput{
		Description: t.Description,
		Type:        model.TypeWithdrawal,
		Magnitude:   t.OriginAmount,
		Bank:        t.OriginBank,
		Categories:  slices.Clone(t.Categories),
		Date:        t.Date,
	}
	destination = origin
	destination.Type = model.TypeDeposit
	destination.Bank = t.DestinationBank
	destination.Categories = slices.Clone(t.Categories)
	if t.DestinationAmount != nil {
		destination.Magnitude = *t.DestinationAmount
	}
	return origin, destination
}

// Transfer applies both legs of t. The legs share a TransferID and get the
// leg IDs "<id>.a" and "<id>.b". When the second leg fails the first stays
// applied and the returned error wraps ErrDrift.
func (s *Service) Transfer(ctx context.Context, user string, t model.Transfer) ([2]model.Transaction, error) {
	var legs [2]model.Transaction

	errs := ValidateTransfer(t)
	refErrs, err := s.checkRefs(ctx, user, "origin_bank", t.OriginBank, t.Categories)
	if err != nil {
		return legs, err
	}
	errs = append(errs, refErrs...)
	if t.DestinationBank != t.OriginBank {
		refErrs, err = s.checkRefs(ctx, user, "destination_bank", t.DestinationBank, nil)
		if err != nil {
			return legs, err
		}
		errs = append(errs, refErrs...)
	}
	if len(errs) > 0 {
		return legs, errs
	}

	transferID := id.New()
	origin, destination := Expand(t)
	for i, in := range []model.TransactionInput{origin, destination} {
		legs[i] = model.Transaction{
			ID:          id.FormatLegID(transferID, i),
			User:        user,
			Description: in.Description,
			Type:        in.Type,
			Amount:      Normalize(in.Magnitude, in.Type),
			Bank:        in.Bank,
			Categories:  in.Categories,
			Date:        in.Date,
			TransferID:  transferID,
		}
		if err := s.insert(ctx, legs[i]); err != nil {
			if i == 1 {
				return legs, s.drift(err, t.OriginBank, t.DestinationBank)
			}
			return legs, err
		}
	}
	s.logger.Info("transfer applied", "transfer", transferID, "from", t.OriginBank, "to", t.DestinationBank)
	return legs, nil
}
