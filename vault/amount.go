package vault

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when an operation is given an amount that
// does not pass ValidateAmount.
var ErrInvalidAmount = errors.New("invalid amount")

// ValidationReason says why an amount was rejected.
type ValidationReason string

const (
	ReasonNone        ValidationReason = ""
	ReasonEmpty       ValidationReason = "empty"
	ReasonNotNumeric  ValidationReason = "not_numeric"
	ReasonNotPositive ValidationReason = "not_positive"
)

// AmountValidation is the outcome of parsing a user-entered amount.
// Callers decide whether and how to surface a rejection.
type AmountValidation struct {
	Input  string           `json:"input"`
	Valid  bool             `json:"valid"`
	Reason ValidationReason `json:"reason,omitempty"`

	Amount decimal.Decimal `json:"-"`
}

// ValidateAmount accepts non-empty, numeric, strictly positive decimals.
// Surrounding whitespace is ignored.
func ValidateAmount(input string) AmountValidation {
	v := AmountValidation{Input: input}
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		v.Reason = ReasonEmpty
		return v
	}
	amount, err := decimal.NewFromString(trimmed)
	if err != nil {
		v.Reason = ReasonNotNumeric
		return v
	}
	if !amount.IsPositive() {
		v.Reason = ReasonNotPositive
		return v
	}
	v.Valid = true
	v.Amount = amount
	return v
}

// Err returns ErrInvalidAmount wrapped with the reason, or nil when valid.
func (v AmountValidation) Err() error {
	if v.Valid {
		return nil
	}
	return &AmountError{Input: v.Input, Reason: v.Reason}
}

// AmountError describes a rejected amount.
type AmountError struct {
	Input  string
	Reason ValidationReason
}

func (e *AmountError) Error() string {
	return "invalid amount '" + e.Input + "': " + string(e.Reason)
}

func (e *AmountError) Unwrap() error {
	return ErrInvalidAmount
}
