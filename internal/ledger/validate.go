package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finboard/internal/model"
)

// ValidationError describes one rejected input field.
type ValidationError struct {
	Field       string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Description)
}

// ValidationErrors is returned when an input fails validation.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Fields returns the names of the rejected fields, in order.
func (v ValidationErrors) Fields() []string {
	out := make([]string, len(v))
	for i, e := range v {
		out[i] = e.Field
	}
	return out
}

var hundred = decimal.NewFromInt(100)

// hasCents reports whether d has no more than two decimal places.
func hasCents(d decimal.Decimal) bool {
	return d.Mul(hundred).Equal(d.Mul(hundred).Floor())
}

// ValidateInput checks the fields of a transaction input. It does not check
// that the bank and categories exist.
func ValidateInput(in model.TransactionInput) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(in.Description) == "" {
		errs = append(errs, ValidationError{"description", "is required"})
	}
	if !in.Type.Valid() {
		errs = append(errs, ValidationError{"type", fmt.Sprintf("unknown type %q", in.Type)})
	}
	errs = append(errs, checkAmount("amount", in.Magnitude)...)
	if in.Bank == "" {
		errs = append(errs, ValidationError{"bank", "is required"})
	}
	if in.Date.IsZero() {
		errs = append(errs, ValidationError{"date", "is required"})
	}
	errs = append(errs, checkCategoryList(in.Categories)...)
	return errs
}

// ValidateTransfer checks the fields of a transfer.
func ValidateTransfer(t model.Transfer) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(t.Description) == "" {
		errs = append(errs, ValidationError{"description", "is required"})
	}
	if t.Date.IsZero() {
		errs = append(errs, ValidationError{"date", "is required"})
	}
	if t.OriginBank == "" {
		errs = append(errs, ValidationError{"origin_bank", "is required"})
	}
	if t.DestinationBank == "" {
		errs = append(errs, ValidationError{"destination_bank", "is required"})
	}
	if t.OriginBank != "" && t.OriginBank == t.DestinationBank {
		errs = append(errs, ValidationError{"destination_bank", "must differ from origin bank"})
	}
	errs = append(errs, checkAmount("origin_amount", t.OriginAmount)...)
	if t.DestinationAmount != nil {
		errs = append(errs, checkAmount("destination_amount", *t.DestinationAmount)...)
	}
	errs = append(errs, checkCategoryList(t.Categories)...)
	return errs
}

func checkAmount(field string, d decimal.Decimal) ValidationErrors {
	switch {
	case d.IsZero():
		return ValidationErrors{{field, "must not equal 0"}}
	case d.IsNegative():
		return ValidationErrors{{field, "must not be negative"}}
	case !hasCents(d):
		return ValidationErrors{{field, fmt.Sprintf("%s has more than 2 decimal places", d)}}
	}
	return nil
}

func checkCategoryList(ids []string) ValidationErrors {
	var errs ValidationErrors
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" {
			errs = append(errs, ValidationError{"categories", "contains an empty id"})
			continue
		}
		if seen[id] {
			errs = append(errs, ValidationError{"categories", fmt.Sprintf("duplicate category %q", id)})
		}
		seen[id] = true
	}
	return errs
}
