package entity

import "errors"

// Checkout and account rule violations.
var (
	ErrNoPaymentMethod        = errors.New("no payment method selected")
	ErrUnknownPaymentMethod   = errors.New("unsupported payment method")
	ErrInsufficientBalance    = errors.New("insufficient wallet balance")
	ErrPhoneMissing           = errors.New("phone number missing")
	ErrSubmissionInFlight     = errors.New("order submission already in progress")
	ErrInvalidTransition      = errors.New("action not allowed in the current checkout step")
	ErrPaymentCodeUnavailable = errors.New("payment code is not available")
	ErrItemRequired           = errors.New("a catalog item must be selected")
	ErrInvalidDiscount        = errors.New("discount must be at least zero and below the item price")
	ErrUnknownRole            = errors.New("unrecognized account role")
)
