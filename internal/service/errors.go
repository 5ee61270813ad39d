package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when the referenced row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyProcessed is returned when a request has left the pending state.
	ErrAlreadyProcessed = errors.New("request already processed")
	// ErrInsufficientFunds is returned when a hold exceeds the balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrAccountBlocked is returned for operations attempted by a blocked profile.
	ErrAccountBlocked = errors.New("account is blocked")
	// ErrPinNotSet is returned when a withdrawal is attempted before a pin exists.
	ErrPinNotSet = errors.New("withdraw pin not set")
	// ErrInvalidPin is returned when the supplied withdraw pin does not match.
	ErrInvalidPin = errors.New("invalid withdraw pin")
)

// ValidationError reports a rejected input field. Nothing is written when
// one is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// maxAmount is the first value that no longer fits a decimal(20,2) column.
var maxAmount = decimal.New(1, 18)

// validateAmount accepts positive amounts with at most two decimal places
// that fit the money columns.
func validateAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return invalid(field, "must be greater than zero")
	}
	if !amount.Equal(amount.Round(2)) {
		return invalid(field, "must not have more than two decimal places")
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return invalid(field, "is too large")
	}
	return nil
}
