package domain

import "errors"

var (
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrPlanUnavailable = errors.New("plan is not available for purchase")

	// Checkout session errors
	ErrSessionClosed     = errors.New("payment session is closed")
	ErrPaymentInFlight   = errors.New("a payment is already in progress for this session")
	ErrAlreadyPaid       = errors.New("payment already completed for this session")
	ErrInvalidTransition = errors.New("invalid payment status transition")
)
