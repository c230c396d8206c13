package service

import (
	"errors"
	"fmt"

	"github.com/bluebuff/storefront/internal/entity"
	"github.com/bluebuff/storefront/internal/pricing"
	"github.com/bluebuff/storefront/internal/storeapi"
)

var (
	ErrCheckoutNotFound = errors.New("checkout not found")
	ErrNotLoggedIn      = errors.New("not logged in")
	ErrGameNotFound     = errors.New("game not found")
)

// UserError carries the message shown to the shopper next to the error
// that caused it.
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *UserError) Unwrap() error {
	return e.Err
}

const genericFailure = "Something went wrong. Please try again."

// explain attaches the shopper-facing message to a checkout rule violation.
// Other errors are returned unchanged.
func explain(err error, total float64) error {
	var msg string
	switch {
	case errors.Is(err, entity.ErrNoPaymentMethod):
		msg = "Please select a payment method"
	case errors.Is(err, entity.ErrInsufficientBalance):
		msg = fmt.Sprintf("Insufficient balance (%s required)", pricing.Rupees(total))
	case errors.Is(err, entity.ErrPhoneMissing):
		msg = "Phone number missing. Please log in again."
	case errors.Is(err, entity.ErrSubmissionInFlight):
		msg = "Your order is already being placed"
	case errors.Is(err, entity.ErrUnknownPaymentMethod):
		msg = "Please select a payment method"
	default:
		return err
	}
	return &UserError{Message: msg, Err: err}
}

// orderFailure words a failed order creation the way the buy page does.
func orderFailure(err error) *UserError {
	var apiErr *storeapi.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return &UserError{Message: "Order failed: " + apiErr.Message, Err: err}
	}
	return &UserError{Message: genericFailure, Err: err}
}
